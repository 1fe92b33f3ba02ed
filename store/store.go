package store

import (
	"bytes"
	"sync"
	"time"

	"github.com/Atsuko87/ccnx-sub001/colog"
	"github.com/Atsuko87/ccnx-sub001/msg"
	"github.com/Atsuko87/ccnx-sub001/sched"
)

type subsys string

func (s subsys) String() string { return string(s) }

const logSubsys subsys = "store"

// Store is the forwarder's content store (§4.3): a name-prefix trie plus an
// accession-ordered index and a freshness-expiry queue, with a configurable
// byte budget. All mutation is expected to happen on the forwarder's single
// event-loop thread (§4.8/§5), but a mutex is kept since the repository's
// local-IPC face can also insert into it from a different goroutine before
// the event loop observes the corresponding face as readable.
type Store struct {
	mu sync.Mutex

	root       *trieNode
	byName     map[string]*Entry
	byAccn     map[uint64]*Entry
	expiry     sched.Queue[*Entry, int64]
	expiryItem map[uint64]*sched.Item[*Entry, int64]

	nextAccession uint64
	byteBudget    int
	bytesUsed     int
	dupCount      uint64
}

// NewStore returns an empty content store with the given byte budget (0
// meaning unbounded).
func NewStore(byteBudget int) *Store {
	return &Store{
		root:       newTrieNode(),
		byName:     make(map[string]*Entry),
		byAccn:     make(map[uint64]*Entry),
		expiryItem: make(map[uint64]*sched.Item[*Entry, int64]),
		byteBudget: byteBudget,
	}
}

// Put inserts a parsed Content Object. It returns the new entry, or the
// existing entry and false if this was an exact-name, exact-bytes
// duplicate (§4.3 insertion rule).
func (s *Store) Put(co *msg.ContentObject, wire []byte, offsets msg.ParseOffsets) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := co.Name.String()
	if existing, ok := s.byName[key]; ok && bytes.Equal(existing.Wire, wire) {
		s.dupCount++
		return existing, false
	}

	now := time.Now()
	s.nextAccession++
	e := &Entry{
		Accession:  s.nextAccession,
		CO:         co,
		Offsets:    offsets,
		Wire:       wire,
		FreshUntil: entryFreshUntil(now, co),
	}

	if old, ok := s.byName[key]; ok {
		s.removeLocked(old)
	}

	s.byName[key] = e
	s.byAccn[e.Accession] = e
	s.root.insert(co.Name, e)
	s.bytesUsed += len(wire)

	if !e.FreshUntil.IsZero() {
		it := s.expiry.Push(e, e.FreshUntil.UnixNano())
		s.expiryItem[e.Accession] = it
	}

	s.evictOverBudgetLocked()
	return e, true
}

// Lookup returns the best-match entry for the given Interest per §3/§4.3:
// the earliest (smallest-name, then smallest-accession) entry passing
// through the trie node addressed by the Interest's name that satisfies
// every selector. Stale entries are skipped unless the Interest's
// answer-origin-kind allows stale; Lookup removes nothing (SweepExpired
// does).
func (s *Store) Lookup(it *msg.Interest) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.root.walk(it.Name)
	if node == nil {
		return nil
	}
	now := time.Now()
	for _, e := range node.entries {
		if e.Stale(now) {
			if !it.AnswerOriginKind.Allows(msg.AOKStale) {
				continue
			}
		}
		if it.Matches(e.CO) {
			return e
		}
	}
	return nil
}

// SweepExpired removes every entry whose freshness has elapsed as of now
// and returns how many it removed. Lookup does not call it, and nothing in
// this module schedules it on the timer wheel.
func (s *Store) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	nowNanos := now.UnixNano()
	for s.expiry.Len() > 0 {
		e, deadline := s.expiry.Peek()
		if deadline > nowNanos {
			break
		}
		s.removeLocked(e)
		colog.Debug(logSubsys, "content store entry expired", "name", e.CO.Name.String())
		n++
	}
	return n
}

func (s *Store) removeLocked(e *Entry) {
	delete(s.byName, e.CO.Name.String())
	delete(s.byAccn, e.Accession)
	s.root.removeAccession(e.CO.Name, e)
	s.bytesUsed -= len(e.Wire)
	if it, ok := s.expiryItem[e.Accession]; ok {
		s.expiry.Remove(it)
		delete(s.expiryItem, e.Accession)
	}
}

// evictOverBudgetLocked evicts oldest-accession entries until the store is
// within its configured byte budget (§4.3).
func (s *Store) evictOverBudgetLocked() {
	if s.byteBudget <= 0 {
		return
	}
	for s.bytesUsed > s.byteBudget && len(s.byAccn) > 0 {
		var oldest *Entry
		for _, e := range s.byAccn {
			if oldest == nil || e.Accession < oldest.Accession {
				oldest = e
			}
		}
		if oldest == nil {
			return
		}
		colog.Debug(logSubsys, "content store evicting over budget", "name", oldest.CO.Name.String())
		s.removeLocked(oldest)
	}
}

// DupCount returns the number of exact-name, exact-bytes duplicates seen.
func (s *Store) DupCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dupCount
}

// BytesUsed returns the current total size of cached Content Object wires.
func (s *Store) BytesUsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytesUsed
}
