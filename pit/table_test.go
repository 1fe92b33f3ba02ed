package pit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Atsuko87/ccnx-sub001/face"
	"github.com/Atsuko87/ccnx-sub001/msg"
	"github.com/Atsuko87/ccnx-sub001/name"
	"github.com/Atsuko87/ccnx-sub001/pit"
	"github.com/Atsuko87/ccnx-sub001/sched"
)

func mustName(t *testing.T, uri string) name.Name {
	t.Helper()
	n, err := name.FromURI(uri)
	require.NoError(t, err)
	return n
}

func newTable(t *testing.T) (*pit.Table, []*pit.Entry) {
	t.Helper()
	var expired []*pit.Entry
	w := sched.NewWheel()
	tbl := pit.NewTable(w, face.NewFaceTable(), func(e *pit.Entry) { expired = append(expired, e) })
	return tbl, expired
}

func TestInsertOrAggregateAggregatesSameFingerprint(t *testing.T) {
	tbl, _ := newTable(t)
	now := time.Now()

	it1 := &msg.Interest{Name: mustName(t, "/a/b"), Nonce: msg.NewNonce()}
	res1 := tbl.InsertOrAggregate(it1, 1, now)
	require.True(t, res1.IsNew)
	require.Equal(t, 1, tbl.Len())

	it2 := &msg.Interest{Name: mustName(t, "/a/b"), Nonce: msg.NewNonce()}
	res2 := tbl.InsertOrAggregate(it2, 2, now)
	require.False(t, res2.IsNew)
	require.Equal(t, 1, tbl.Len(), "same fingerprint must aggregate, not create a second entry")

	faces := res2.Entry.ArrivalFaces()
	require.ElementsMatch(t, []uint64{1, 2}, faces)
}

// Nonce dedup (§8): the second observation of (fingerprint, nonce) produces
// no new outbound Interest, surfaced here as LoopNonce.
func TestInsertOrAggregateDetectsLoopedNonce(t *testing.T) {
	tbl, _ := newTable(t)
	now := time.Now()
	nonce := msg.NewNonce()

	it := &msg.Interest{Name: mustName(t, "/a"), Nonce: nonce}
	res1 := tbl.InsertOrAggregate(it, 1, now)
	require.False(t, res1.LoopNonce)

	again := &msg.Interest{Name: mustName(t, "/a"), Nonce: nonce}
	res2 := tbl.InsertOrAggregate(again, 1, now)
	require.True(t, res2.LoopNonce)
}

func TestSatisfyDeletesEntry(t *testing.T) {
	tbl, _ := newTable(t)
	now := time.Now()

	it := &msg.Interest{Name: mustName(t, "/a/b"), Nonce: msg.NewNonce()}
	tbl.InsertOrAggregate(it, 1, now)

	co := &msg.ContentObject{Name: mustName(t, "/a/b/c"), SignedInfo: msg.SignedInfo{Timestamp: now}}
	entries := tbl.Satisfy(co)
	require.Len(t, entries, 1)
	require.Equal(t, 0, tbl.Len())

	require.Empty(t, tbl.Satisfy(co), "satisfying twice must find nothing the second time")
}

// A single Content Object can legitimately satisfy more than one pending
// fingerprint at once: prefix-based matching means Interests for /a and
// /a/b are both satisfied by a Content Object named /a/b/c (§4.4 step 2).
func TestSatisfyMatchesEveryPendingFingerprint(t *testing.T) {
	tbl, _ := newTable(t)
	now := time.Now()

	broad := &msg.Interest{Name: mustName(t, "/a"), Nonce: msg.NewNonce()}
	tbl.InsertOrAggregate(broad, 1, now)
	narrow := &msg.Interest{Name: mustName(t, "/a/b"), Nonce: msg.NewNonce()}
	tbl.InsertOrAggregate(narrow, 2, now)
	require.Equal(t, 2, tbl.Len())

	co := &msg.ContentObject{Name: mustName(t, "/a/b/c"), SignedInfo: msg.SignedInfo{Timestamp: now}}
	entries := tbl.Satisfy(co)
	require.Len(t, entries, 2, "one Content Object must satisfy every matching fingerprint, not just the first found")
	require.Equal(t, 0, tbl.Len())

	var faces []uint64
	for _, e := range entries {
		faces = append(faces, e.ArrivalFaces()...)
	}
	require.ElementsMatch(t, []uint64{1, 2}, faces)
}

func TestRemoveFaceDeletesEmptyEntries(t *testing.T) {
	tbl, _ := newTable(t)
	now := time.Now()

	it := &msg.Interest{Name: mustName(t, "/a"), Nonce: msg.NewNonce()}
	tbl.InsertOrAggregate(it, 1, now)
	require.Equal(t, 1, tbl.Len())

	tbl.RemoveFace(1)
	require.Equal(t, 0, tbl.Len())
}

func TestRemoveFaceKeepsEntryWithOtherArrivals(t *testing.T) {
	tbl, _ := newTable(t)
	now := time.Now()

	it1 := &msg.Interest{Name: mustName(t, "/a"), Nonce: msg.NewNonce()}
	tbl.InsertOrAggregate(it1, 1, now)
	it2 := &msg.Interest{Name: mustName(t, "/a"), Nonce: msg.NewNonce()}
	tbl.InsertOrAggregate(it2, 2, now)

	tbl.RemoveFace(1)
	require.Equal(t, 1, tbl.Len())
}

// §3's face data model requires a pending-interest count, and §8's
// quantified invariant is "sum of PIT entries ≡ sum over faces of their
// pending-interest counter" — exercised here with a single out-face per
// entry, the shape every concrete scenario in §8 uses.
func TestPendingCountTracksInAndOutRecordsThenDrainsOnSatisfy(t *testing.T) {
	ft := face.NewFaceTable()
	noop := func(uint64, []byte) {}
	_, arrivalID := face.AddLocalPair(ft, noop)
	_, outID := face.AddLocalPair(ft, noop)

	w := sched.NewWheel()
	tbl := pit.NewTable(w, ft, func(*pit.Entry) {})
	now := time.Now()

	it := &msg.Interest{Name: mustName(t, "/a/b"), Nonce: msg.NewNonce()}
	res := tbl.InsertOrAggregate(it, arrivalID, now)
	tbl.InsertOutRecord(res.Entry.Fingerprint, outID, it.Nonce, now)

	arrival, _ := ft.Get(arrivalID)
	out, _ := ft.Get(outID)
	require.EqualValues(t, 1, arrival.PendingCount())
	require.EqualValues(t, 1, out.PendingCount())
	require.EqualValues(t, int64(tbl.Len()), arrival.PendingCount())

	co := &msg.ContentObject{Name: mustName(t, "/a/b/c"), SignedInfo: msg.SignedInfo{Timestamp: now}}
	entries := tbl.Satisfy(co)
	require.Len(t, entries, 1)

	require.EqualValues(t, 0, arrival.PendingCount())
	require.EqualValues(t, 0, out.PendingCount())
}

func TestFingerprintIgnoresNonceAndLifetime(t *testing.T) {
	a := &msg.Interest{Name: mustName(t, "/a/b"), Nonce: msg.NewNonce()}
	lifetime := uint64(9999)
	b := &msg.Interest{Name: mustName(t, "/a/b"), Nonce: msg.NewNonce(), LifetimeMillis: &lifetime}
	require.Equal(t, pit.FingerprintOf(a), pit.FingerprintOf(b))

	c := &msg.Interest{Name: mustName(t, "/a/b/c")}
	require.NotEqual(t, pit.FingerprintOf(a), pit.FingerprintOf(c))
}
