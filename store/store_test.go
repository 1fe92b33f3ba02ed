package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Atsuko87/ccnx-sub001/msg"
	"github.com/Atsuko87/ccnx-sub001/name"
	"github.com/Atsuko87/ccnx-sub001/store"
)

func mustName(t *testing.T, uri string) name.Name {
	t.Helper()
	n, err := name.FromURI(uri)
	require.NoError(t, err)
	return n
}

func co(t *testing.T, uri string, payload []byte) (*msg.ContentObject, []byte, msg.ParseOffsets) {
	t.Helper()
	c := &msg.ContentObject{
		Name:       mustName(t, uri),
		SignedInfo: msg.SignedInfo{Timestamp: time.Now()},
		Payload:    payload,
		Signature:  []byte{0x01},
	}
	wire, off := c.Encode()
	return c, wire, off
}

func TestStorePutThenLookupMatches(t *testing.T) {
	s := store.NewStore(0)
	c, wire, off := co(t, "/a/b", []byte("hello"))
	_, isNew := s.Put(c, wire, off)
	require.True(t, isNew)

	e := s.Lookup(&msg.Interest{Name: mustName(t, "/a/b")})
	require.NotNil(t, e)
	require.Equal(t, []byte("hello"), e.CO.Payload)
}

func TestStorePutExactDuplicateIsNotNew(t *testing.T) {
	s := store.NewStore(0)
	c, wire, off := co(t, "/a/b", []byte("hello"))
	_, isNew := s.Put(c, wire, off)
	require.True(t, isNew)

	_, isNew = s.Put(c, wire, off)
	require.False(t, isNew, "an exact-name, exact-bytes republish must not count as a new entry")
	require.Equal(t, uint64(1), s.DupCount())
}

func TestStorePutSameNameDifferentBytesReplaces(t *testing.T) {
	s := store.NewStore(0)
	first, wire1, off1 := co(t, "/a/b", []byte("v1"))
	s.Put(first, wire1, off1)

	second, wire2, off2 := co(t, "/a/b", []byte("v2"))
	e, isNew := s.Put(second, wire2, off2)
	require.True(t, isNew)
	require.Equal(t, []byte("v2"), e.CO.Payload)

	got := s.Lookup(&msg.Interest{Name: mustName(t, "/a/b")})
	require.Equal(t, []byte("v2"), got.CO.Payload)
}

func TestStoreLookupMissReturnsNil(t *testing.T) {
	s := store.NewStore(0)
	require.Nil(t, s.Lookup(&msg.Interest{Name: mustName(t, "/nowhere")}))
}

func TestStoreEvictsOldestOverBudget(t *testing.T) {
	c1, wire1, off1 := co(t, "/a/1", []byte("xxxxxxxxxx"))
	c2, wire2, off2 := co(t, "/a/2", []byte("yyyyyyyyyy"))

	s := store.NewStore(len(wire1))
	s.Put(c1, wire1, off1)
	require.NotNil(t, s.Lookup(&msg.Interest{Name: mustName(t, "/a/1")}))

	s.Put(c2, wire2, off2)
	require.Nil(t, s.Lookup(&msg.Interest{Name: mustName(t, "/a/1")}), "oldest-accession entry must be evicted once over budget")
	require.NotNil(t, s.Lookup(&msg.Interest{Name: mustName(t, "/a/2")}))
}

func TestStoreSweepExpiredPurgesStaleEntries(t *testing.T) {
	s := store.NewStore(0)
	freshness := uint64(0)
	c := &msg.ContentObject{
		Name:       mustName(t, "/a/b"),
		SignedInfo: msg.SignedInfo{Timestamp: time.Now(), FreshnessSeconds: &freshness},
		Payload:    []byte("hi"),
		Signature:  []byte{0x01},
	}
	wire, off := c.Encode()
	s.Put(c, wire, off)

	n := s.SweepExpired(time.Now().Add(time.Second))
	require.Equal(t, 1, n)
}
