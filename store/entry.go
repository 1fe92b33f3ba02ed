// Package store implements the forwarder's in-memory Content Store (§4.3):
// an accession-ordered, name-prefix-indexed cache of Content Objects with
// freshness-expiry and byte-budget eviction. Grounded on the teacher's
// std/object/storage/store_memory.go trie-of-components shape.
package store

import (
	"time"

	"github.com/Atsuko87/ccnx-sub001/msg"
)

// Entry is a single cached Content Object, per spec.md §3's "Content store
// entry" type.
type Entry struct {
	Accession uint64
	CO        *msg.ContentObject
	Offsets   msg.ParseOffsets
	Wire      []byte

	// fresh until this instant; zero Time means it never goes stale.
	FreshUntil time.Time
}

func (e *Entry) Stale(now time.Time) bool {
	return !e.FreshUntil.IsZero() && now.After(e.FreshUntil)
}

// less orders entries by (name, accession) ascending, the order the
// content-store lookup in §4.3 returns the "earliest" match in.
func (e *Entry) less(o *Entry) bool {
	if c := e.CO.Name.Compare(o.CO.Name); c != 0 {
		return c < 0
	}
	return e.Accession < o.Accession
}

func entryFreshUntil(now time.Time, co *msg.ContentObject) time.Time {
	if co.SignedInfo.FreshnessSeconds == nil {
		return time.Time{}
	}
	return now.Add(time.Duration(*co.SignedInfo.FreshnessSeconds) * time.Second)
}
