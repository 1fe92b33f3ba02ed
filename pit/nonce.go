package pit

import (
	"container/list"
)

const (
	perFingerprintRingSize = 16
	globalLRUCapacity      = 65536
)

// NonceCache implements the loop-suppression nonce cache of §4.4: a small
// per-fingerprint ring of recent nonces for cheap duplicate checks on the
// common path, plus a larger global LRU for aggressive cross-entry
// suppression when an Interest's PIT entry has already been deleted (so the
// per-fingerprint ring is gone too).
type NonceCache struct {
	rings map[Fingerprint][]string

	lru      *list.List
	lruIndex map[string]*list.Element
}

type lruKey struct {
	fp    Fingerprint
	nonce string
}

func NewNonceCache() *NonceCache {
	return &NonceCache{
		rings:    make(map[Fingerprint][]string),
		lru:      list.New(),
		lruIndex: make(map[string]*list.Element),
	}
}

// Seen reports whether (fp, nonce) was already recorded, without recording
// it.
func (c *NonceCache) Seen(fp Fingerprint, nonce []byte) bool {
	n := string(nonce)
	for _, r := range c.rings[fp] {
		if r == n {
			return true
		}
	}
	_, ok := c.lruIndex[lruKeyStr(fp, n)]
	return ok
}

// Record adds (fp, nonce) to both the per-fingerprint ring and the global
// LRU, evicting the oldest global entry once capacity is exceeded.
func (c *NonceCache) Record(fp Fingerprint, nonce []byte) {
	n := string(nonce)

	ring := c.rings[fp]
	ring = append(ring, n)
	if len(ring) > perFingerprintRingSize {
		ring = ring[len(ring)-perFingerprintRingSize:]
	}
	c.rings[fp] = ring

	key := lruKeyStr(fp, n)
	if _, ok := c.lruIndex[key]; ok {
		return
	}
	el := c.lru.PushBack(key)
	c.lruIndex[key] = el
	if c.lru.Len() > globalLRUCapacity {
		oldest := c.lru.Front()
		c.lru.Remove(oldest)
		delete(c.lruIndex, oldest.Value.(string))
	}
}

// DropFingerprint removes a fingerprint's ring once its PIT entry is
// deleted; the global LRU entries survive independently for cross-entry
// suppression.
func (c *NonceCache) DropFingerprint(fp Fingerprint) {
	delete(c.rings, fp)
}

func lruKeyStr(fp Fingerprint, nonce string) string {
	b := make([]byte, 8, 8+len(nonce))
	for i := 0; i < 8; i++ {
		b[i] = byte(fp >> (8 * i))
	}
	return string(append(b, nonce...))
}
