// Package pit implements the Pending Interest Table (§4.4): fingerprint-
// keyed aggregation of in-flight Interests, with per-face in/out records, a
// nonce cache for loop suppression, and expiry driven by the forwarder's
// timer wheel. Grounded on fw/table/pit-cs_test.go's basePitEntry shape
// (inRecords/outRecords keyed by face id).
package pit

import (
	"github.com/cespare/xxhash/v2"

	"github.com/Atsuko87/ccnx-sub001/msg"
)

// Fingerprint identifies the equivalence class of Interests that may be
// aggregated into one PIT entry: same name and same selectors
// (PublisherKeyID, suffix bounds, AnswerOriginKind, Exclude). Nonce and
// Lifetime, which are per-transmission, and Scope are not part of it.
type Fingerprint uint64

// FingerprintOf computes it's aggregation key, reusing the same
// length-prefixed-write-into-a-digest approach as name.Name.Hash.
func FingerprintOf(it *msg.Interest) Fingerprint {
	d := xxhash.New()
	writeBytes(d, []byte(it.Name.String()))
	writeBytes(d, it.PublisherKeyID)
	writeInt(d, optInt(it.MinSuffixComponents))
	writeInt(d, optInt(it.MaxSuffixComponents))
	writeInt(d, int(it.AnswerOriginKind))
	if it.Exclude != nil {
		for _, c := range it.Exclude.Singles {
			writeBytes(d, []byte("s"))
			writeBytes(d, c)
		}
		for _, r := range it.Exclude.Ranges {
			writeBytes(d, []byte("r"))
			writeBytes(d, r.Low)
			writeBytes(d, r.High)
		}
	}
	return Fingerprint(d.Sum64())
}

func optInt(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}

func writeBytes(d *xxhash.Digest, b []byte) {
	var lenBuf [8]byte
	l := len(b)
	for i := 0; i < 8; i++ {
		lenBuf[i] = byte(l >> (8 * i))
	}
	_, _ = d.Write(lenBuf[:])
	_, _ = d.Write(b)
}

func writeInt(d *xxhash.Digest, v int) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	_, _ = d.Write(buf[:])
}
