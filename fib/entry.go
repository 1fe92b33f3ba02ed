// Package fib implements the Forwarding Information Base (§4.5): a
// name-prefix trie mapping prefixes to weighted next hops, with
// longest-prefix-match lookup and CHILD_INHERIT ancestor fallback.
// Grounded on fw/table/fib-strategy_test.go's baseFibStrategyEntry /
// FibNextHopEntry shape.
package fib

import "github.com/Atsuko87/ccnx-sub001/name"

// Flag bits on a FIB entry, grounded on the teacher's fib-strategy entry
// flags concept.
type Flag uint32

const (
	// FlagActive marks a next hop eligible for forwarding; an inactive
	// one is kept (e.g. during a registration lifetime grace period) but
	// not used.
	FlagActive Flag = 1 << iota
	// FlagChildInherit on a next hop of the deepest matching entry makes
	// a lookup also collect the next hops of that entry's ancestors.
	FlagChildInherit
	// FlagAdvertise marks a prefix eligible for re-advertisement to
	// upstream peers (out of scope for this forwarder's core, kept as a
	// bit for registration-protocol round-tripping).
	FlagAdvertise
)

// NextHop is one forwarding destination for a prefix, grounded on
// FibNextHopEntry{Nexthop, Cost}.
type NextHop struct {
	FaceID uint64
	Cost   int
	Flags  Flag
}

// Entry is the set of next hops registered for one name prefix.
type Entry struct {
	Prefix   name.Name
	NextHops []*NextHop
}

func (e *Entry) nextHop(faceID uint64) *NextHop {
	for _, nh := range e.NextHops {
		if nh.FaceID == faceID {
			return nh
		}
	}
	return nil
}

func (e *Entry) removeNextHop(faceID uint64) {
	out := e.NextHops[:0]
	for _, nh := range e.NextHops {
		if nh.FaceID != faceID {
			out = append(out, nh)
		}
	}
	e.NextHops = out
}
