package face

import (
	"sync"
	"sync/atomic"

	"github.com/Atsuko87/ccnx-sub001/colog"
)

type subsys string

func (s subsys) String() string { return string(s) }

const logSubsys subsys = "face"

// sendQueueHighWater caps how many outbound frames a face will buffer
// before the face manager starts dropping sends, per §4.6: "When a face's
// send queue exceeds a high-water mark, further sends on that face are
// dropped (not blocked)".
const sendQueueHighWater = 1024

// FrameHandler is invoked once per fully framed ccnb message received on a
// face. It must not block.
type FrameHandler func(faceID uint64, frame []byte)

// Face is the forwarder's handle onto one transport: a FIFO send queue with
// backpressure, the auto-framing state for an as-yet-UNDECIDED transport,
// and the liveness bookkeeping the face manager and FIB/PIT sweep consult.
type Face struct {
	ID   uint64
	kind Kind
	t    transport

	mu       sync.Mutex
	sendQ    [][]byte
	dropped  uint64
	closed   bool
	onClosed func(faceID uint64)

	// pending is the face data model's "pending-interest count" (§3): the
	// number of PIT in/out-records currently referencing this face,
	// maintained by pit.Table and decremented here on a backpressure drop.
	pending int64

	// recvBuf accumulates bytes for a stream transport between frame
	// boundaries; unused for datagram transports, where each read is
	// already exactly one frame.
	recvBuf []byte
}

func newFace(id uint64, t transport, kind Kind) *Face {
	return &Face{ID: id, kind: kind, t: t}
}

func (f *Face) String() string { return f.t.String() }

// Kind reports whether this face has decided it is stream- or
// datagram-framed, or is still UNDECIDED awaiting its first message.
func (f *Face) Kind() Kind { return f.kind }

func (f *Face) RemoteURI() string { return f.t.RemoteURI() }
func (f *Face) LocalURI() string  { return f.t.LocalURI() }
func (f *Face) IsRunning() bool   { return f.t.IsRunning() }

// Send enqueues frame for transmission, dropping it instead of blocking if
// the face's send queue is over its high-water mark (§4.6).
func (f *Face) Send(frame []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if len(f.sendQ) >= sendQueueHighWater {
		f.dropped++
		atomic.AddInt64(&f.pending, -1)
		colog.Warn(logSubsys, "send queue over high-water mark, dropping", "face", f.ID, "dropped", f.dropped)
		return
	}
	f.sendQ = append(f.sendQ, frame)
}

// IncPending increments the face's pending-interest counter, called by
// pit.Table when an in- or out-record newly references this face.
func (f *Face) IncPending() { atomic.AddInt64(&f.pending, 1) }

// DecPending decrements the face's pending-interest counter, called by
// pit.Table when a record referencing this face is removed.
func (f *Face) DecPending() { atomic.AddInt64(&f.pending, -1) }

// PendingCount returns the number of PIT entries currently referencing this
// face via an in- or out-record (§3, §8's per-face sum invariant).
func (f *Face) PendingCount() int64 { return atomic.LoadInt64(&f.pending) }

// Flush writes every queued frame to the transport. Called once per
// event-loop iteration (§4.8) after timers fire.
func (f *Face) Flush() {
	f.mu.Lock()
	q := f.sendQ
	f.sendQ = nil
	f.mu.Unlock()
	for _, frame := range q {
		f.t.sendFrame(frame)
	}
}

// DroppedCount returns the number of frames dropped due to backpressure.
func (f *Face) DroppedCount() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

func (f *Face) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.mu.Unlock()
	f.t.Close()
	if f.onClosed != nil {
		f.onClosed(f.ID)
	}
}

// onRawRead handles one read from the transport: for a datagram face, raw
// is already exactly one message. For a stream face (or one still
// UNDECIDED), raw is appended to recvBuf and framed via scanElement; an
// UNDECIDED face becomes KindStream on its first complete element, and a
// malformed element closes the face.
func (f *Face) onRawRead(raw []byte, onFrame FrameHandler) {
	if f.kind == KindDatagram {
		onFrame(f.ID, raw)
		return
	}

	f.recvBuf = append(f.recvBuf, raw...)
	for {
		n, ok, err := scanElement(f.recvBuf)
		if err != nil {
			colog.Warn(logSubsys, "malformed element, closing face", "face", f.ID, "err", err)
			f.Close()
			return
		}
		if !ok {
			return
		}
		if f.kind == KindUndecided {
			f.kind = KindStream
		}
		frame := make([]byte, n)
		copy(frame, f.recvBuf[:n])
		f.recvBuf = f.recvBuf[n:]
		onFrame(f.ID, frame)
	}
}

// FaceTable owns every live Face, keyed by face id.
type FaceTable struct {
	mu     sync.RWMutex
	faces  map[uint64]*Face
	nextID uint64
}

func NewFaceTable() *FaceTable {
	return &FaceTable{faces: make(map[uint64]*Face)}
}

// Add registers a transport as a new face, picking its initial Kind:
// datagram transports are decided immediately (every read is one message),
// stream-capable transports start UNDECIDED, deciding on their first
// parsed element's framing.
func (ft *FaceTable) Add(t transport, datagram bool, onFrame FrameHandler) *Face {
	ft.mu.Lock()
	ft.nextID++
	id := ft.nextID
	kind := KindUndecided
	if datagram {
		kind = KindDatagram
	}
	f := newFace(id, t, kind)
	ft.faces[id] = f
	ft.mu.Unlock()

	go func() {
		t.runReceive(func(raw []byte) { f.onRawRead(raw, onFrame) })
		ft.Remove(id)
	}()
	return f
}

func (ft *FaceTable) Get(id uint64) (*Face, bool) {
	ft.mu.RLock()
	defer ft.mu.RUnlock()
	f, ok := ft.faces[id]
	return f, ok
}

func (ft *FaceTable) Remove(id uint64) {
	ft.mu.Lock()
	f, ok := ft.faces[id]
	if ok {
		delete(ft.faces, id)
	}
	ft.mu.Unlock()
	if ok {
		f.Close()
	}
}

// FlushAll writes every face's queued sends, called once per event-loop
// iteration.
func (ft *FaceTable) FlushAll() {
	ft.mu.RLock()
	faces := make([]*Face, 0, len(ft.faces))
	for _, f := range ft.faces {
		faces = append(faces, f)
	}
	ft.mu.RUnlock()
	for _, f := range faces {
		f.Flush()
	}
}

// SweepDead removes faces whose transport has stopped running, reporting
// their ids so the caller (the forwarder core) can purge them from the FIB
// and PIT per §4.6.
func (ft *FaceTable) SweepDead() []uint64 {
	ft.mu.RLock()
	var dead []uint64
	for id, f := range ft.faces {
		if !f.IsRunning() {
			dead = append(dead, id)
		}
	}
	ft.mu.RUnlock()
	for _, id := range dead {
		ft.Remove(id)
	}
	return dead
}

// All returns a snapshot of every live face.
func (ft *FaceTable) All() []*Face {
	ft.mu.RLock()
	defer ft.mu.RUnlock()
	out := make([]*Face, 0, len(ft.faces))
	for _, f := range ft.faces {
		out = append(out, f)
	}
	return out
}
