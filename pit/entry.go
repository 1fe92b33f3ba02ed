package pit

import (
	"time"

	"github.com/Atsuko87/ccnx-sub001/msg"
	"github.com/Atsuko87/ccnx-sub001/sched"
)

// InRecord tracks one face that has expressed an Interest aggregated into
// this entry, grounded on fw/table's PitInRecord: which face, its latest
// nonce (for loop/duplicate suppression), and when it last arrived.
type InRecord struct {
	Face        uint64
	LatestNonce []byte
	ArrivedAt   time.Time
}

// OutRecord tracks one face this entry's Interest has been forwarded to,
// grounded on PitOutRecord.
type OutRecord struct {
	Face   uint64
	Nonce  []byte
	SentAt time.Time
}

// Entry is one aggregated Pending Interest Table entry (§4.4).
type Entry struct {
	Fingerprint Fingerprint
	Interest    *msg.Interest // representative Interest (selectors/name)

	InRecords  map[uint64]*InRecord
	OutRecords map[uint64]*OutRecord

	ExpiresAt       time.Time
	RetransmitCount int
	expiryToken     sched.Token
}

func newEntry(fp Fingerprint, it *msg.Interest, expiry time.Time) *Entry {
	return &Entry{
		Fingerprint: fp,
		Interest:    it,
		InRecords:   make(map[uint64]*InRecord),
		OutRecords:  make(map[uint64]*OutRecord),
		ExpiresAt:   expiry,
	}
}

// InsertInRecord records (or refreshes) an arrival on faceID, returning the
// previous nonce if the face had already registered interest.
func (e *Entry) InsertInRecord(faceID uint64, nonce []byte, now time.Time) (prevNonce []byte, existed bool) {
	if r, ok := e.InRecords[faceID]; ok {
		prevNonce = r.LatestNonce
		r.LatestNonce = nonce
		r.ArrivedAt = now
		return prevNonce, true
	}
	e.InRecords[faceID] = &InRecord{Face: faceID, LatestNonce: nonce, ArrivedAt: now}
	return nil, false
}

func (e *Entry) InsertOutRecord(faceID uint64, nonce []byte, now time.Time) {
	e.OutRecords[faceID] = &OutRecord{Face: faceID, Nonce: nonce, SentAt: now}
}

// ArrivalFaces returns every face that has an in-record, the set a
// satisfying Content Object is forwarded to (§4.4).
func (e *Entry) ArrivalFaces() []uint64 {
	out := make([]uint64, 0, len(e.InRecords))
	for f := range e.InRecords {
		out = append(out, f)
	}
	return out
}

// RemoveFace drops any in/out record referencing faceID, e.g. on a dead-face
// sweep (§4.6). It reports whether the entry's arrival set is now empty.
func (e *Entry) RemoveFace(faceID uint64) (emptyArrivalSet bool) {
	delete(e.InRecords, faceID)
	delete(e.OutRecords, faceID)
	return len(e.InRecords) == 0
}
