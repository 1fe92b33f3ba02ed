package pit

import (
	"time"

	"github.com/Atsuko87/ccnx-sub001/colog"
	"github.com/Atsuko87/ccnx-sub001/face"
	"github.com/Atsuko87/ccnx-sub001/msg"
	"github.com/Atsuko87/ccnx-sub001/sched"
)

type subsys string

func (s subsys) String() string { return string(s) }

const logSubsys subsys = "pit"

// DefaultLifetime is used when an Interest carries no explicit lifetime.
const DefaultLifetime = 4 * time.Second

// MaxRetransmits bounds how many times on_expiry re-expresses an entry
// before giving up, per §4.4.
const MaxRetransmits = 3

// Table is the forwarder's Pending Interest Table.
type Table struct {
	byFP   map[Fingerprint]*Entry
	wheel  *sched.Wheel
	nonces *NonceCache

	// faces resolves a face-id to its Face so in/out-record bookkeeping can
	// maintain each face's pending-interest counter (§3, §4.6). Nil is
	// tolerated (e.g. in tests that only care about entry bookkeeping).
	faces *face.FaceTable

	// onExpiry is invoked when an entry's timer fires, letting the
	// forwarder core decide whether to retransmit or delete, per §4.4's
	// on_expiry rule.
	onExpiry func(e *Entry)
}

func NewTable(wheel *sched.Wheel, faces *face.FaceTable, onExpiry func(e *Entry)) *Table {
	return &Table{
		byFP:     make(map[Fingerprint]*Entry),
		wheel:    wheel,
		nonces:   NewNonceCache(),
		faces:    faces,
		onExpiry: onExpiry,
	}
}

func (t *Table) incPending(faceID uint64) {
	if t.faces == nil {
		return
	}
	if f, ok := t.faces.Get(faceID); ok {
		f.IncPending()
	}
}

func (t *Table) decPending(faceID uint64) {
	if t.faces == nil {
		return
	}
	if f, ok := t.faces.Get(faceID); ok {
		f.DecPending()
	}
}

// InsertResult reports what InsertOrAggregate did, so the forwarder core
// can decide whether to forward the Interest or merely record its arrival.
type InsertResult struct {
	Entry      *Entry
	IsNew      bool
	LoopNonce  bool // nonce already seen: this is a looped/duplicate Interest
}

// InsertOrAggregate processes an arriving Interest on arrivalFace: a
// looped nonce is reported without mutating state further; otherwise the
// Interest either creates a new PIT entry or is aggregated into an
// existing one sharing its fingerprint, per §4.4.
func (t *Table) InsertOrAggregate(it *msg.Interest, arrivalFace uint64, now time.Time) InsertResult {
	fp := FingerprintOf(it)

	if len(it.Nonce) > 0 && t.nonces.Seen(fp, it.Nonce) {
		return InsertResult{LoopNonce: true}
	}
	if len(it.Nonce) > 0 {
		t.nonces.Record(fp, it.Nonce)
	}

	lifetime := DefaultLifetime
	if it.LifetimeMillis != nil {
		lifetime = time.Duration(*it.LifetimeMillis) * time.Millisecond
	}
	expiry := now.Add(lifetime)

	e, ok := t.byFP[fp]
	isNew := !ok
	if !ok {
		e = newEntry(fp, it, expiry)
		t.byFP[fp] = e
		e.expiryToken = t.wheel.Schedule(lifetime, func() { t.fire(fp) })
	} else {
		// Re-expression extends expiry (never shortens it) and reschedules
		// the timer, but the entry and its out-records are otherwise
		// untouched.
		if expiry.After(e.ExpiresAt) {
			t.wheel.Cancel(e.expiryToken)
			e.ExpiresAt = expiry
			e.expiryToken = t.wheel.Schedule(lifetime, func() { t.fire(fp) })
		}
	}
	if _, existed := e.InsertInRecord(arrivalFace, it.Nonce, now); !existed {
		t.incPending(arrivalFace)
	}
	return InsertResult{Entry: e, IsNew: isNew}
}

// InsertOutRecord records that the Interest behind fp was forwarded to
// outFace with the given nonce.
func (t *Table) InsertOutRecord(fp Fingerprint, outFace uint64, nonce []byte, now time.Time) {
	if e, ok := t.byFP[fp]; ok {
		if _, existed := e.OutRecords[outFace]; !existed {
			t.incPending(outFace)
		}
		e.InsertOutRecord(outFace, nonce, now)
	}
}

// Lookup returns the entry for a fingerprint, e.g. to find arrival faces
// when a Content Object satisfies it.
func (t *Table) Lookup(fp Fingerprint) (*Entry, bool) {
	e, ok := t.byFP[fp]
	return e, ok
}

// Satisfy removes and returns every entry matching co. Per §4.4's
// on_content_arrival step 2: "find all PIT entries whose fingerprint
// matches" — fingerprints key on (name, selectors), and CCN matching is
// prefix-based, so distinct fingerprints (e.g. pending Interests for /a and
// /a/b) can both legitimately be satisfied by one Content Object
// /a/b/<ver>/<seg>. Every matching entry is deleted.
func (t *Table) Satisfy(co *msg.ContentObject) []*Entry {
	var matched []*Entry
	for _, e := range t.byFP {
		if e.Interest.Matches(co) {
			matched = append(matched, e)
		}
	}
	for _, e := range matched {
		t.delete(e.Fingerprint, e)
	}
	return matched
}

// fire is the timer-wheel callback for an entry's expiry (§4.4's
// on_expiry); it is purely a dispatch point, the retransmit-or-delete
// decision (and the matching Retransmit/Delete call) belongs entirely to
// onExpiry so RetransmitCount is only ever mutated in one place.
func (t *Table) fire(fp Fingerprint) {
	e, ok := t.byFP[fp]
	if !ok {
		return
	}
	if t.onExpiry != nil {
		t.onExpiry(e)
	}
}

// Delete removes an entry that onExpiry has given up on (retransmit limit
// reached).
func (t *Table) Delete(fp Fingerprint) {
	if e, ok := t.byFP[fp]; ok {
		colog.Debug(logSubsys, "pit entry exhausted retransmits, deleting", "name", e.Interest.Name.String())
		t.delete(fp, e)
	}
}

// Retransmit bumps an entry's retransmit counter and reschedules its
// expiry, called by the forwarder core when onExpiry decides to
// re-express.
func (t *Table) Retransmit(e *Entry, lifetime time.Duration, now time.Time) {
	e.RetransmitCount++
	e.ExpiresAt = now.Add(lifetime)
	e.expiryToken = t.wheel.Schedule(lifetime, func() { t.fire(e.Fingerprint) })
}

// RemoveFace purges faceID from every entry's in/out records, deleting any
// entry left with an empty arrival set, per §4.6's dead-face sweep.
func (t *Table) RemoveFace(faceID uint64) {
	for fp, e := range t.byFP {
		if _, had := e.OutRecords[faceID]; had {
			delete(e.OutRecords, faceID)
			t.decPending(faceID)
		}
		if _, had := e.InRecords[faceID]; had {
			delete(e.InRecords, faceID)
			t.decPending(faceID)
			if len(e.InRecords) == 0 {
				t.delete(fp, e)
			}
		}
	}
}

// delete removes an entry outright, decrementing the pending counter of
// every face still referenced by its in/out records.
func (t *Table) delete(fp Fingerprint, e *Entry) {
	t.wheel.Cancel(e.expiryToken)
	t.nonces.DropFingerprint(fp)
	delete(t.byFP, fp)
	for faceID := range e.InRecords {
		t.decPending(faceID)
	}
	for faceID := range e.OutRecords {
		t.decPending(faceID)
	}
}

// Len returns the number of pending entries.
func (t *Table) Len() int { return len(t.byFP) }
