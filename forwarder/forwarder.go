// Package forwarder implements the single-threaded event loop core
// (§4.8/§5) binding the Face, PIT, FIB, Content Store, Scheduler, and
// Strategy together. Grounded on fw/fw's thread-per-core dispatch shape
// (the teacher's fw/dispatch package wasn't present in the retrieval pack,
// so the select-readable/dispatch/flush loop here is rebuilt directly from
// spec.md §4.8 in the teacher's single-goroutine-owns-mutable-state idiom).
package forwarder

import (
	"time"

	"github.com/Atsuko87/ccnx-sub001/colog"
	"github.com/Atsuko87/ccnx-sub001/face"
	"github.com/Atsuko87/ccnx-sub001/fib"
	"github.com/Atsuko87/ccnx-sub001/msg"
	"github.com/Atsuko87/ccnx-sub001/pit"
	"github.com/Atsuko87/ccnx-sub001/reg"
	"github.com/Atsuko87/ccnx-sub001/sched"
	"github.com/Atsuko87/ccnx-sub001/store"
	"github.com/Atsuko87/ccnx-sub001/strategy"
)

type subsys string

func (s subsys) String() string { return string(s) }

const logSubsys subsys = "forwarder"

// MalformedCloseThreshold is how many malformed messages a face may send
// before the forwarder closes it, per §7's "Malformed input" error kind.
const MalformedCloseThreshold = 16

type frameEvent struct {
	faceID uint64
	frame  []byte
}

// Forwarder is the event-loop core. All fields below are touched only from
// the Run goroutine; nothing else may mutate them, which is what lets
// PIT/FIB/Store avoid their own locking per §5 (store.Store does keep a
// mutex, since the repository's local-IPC face inserts from outside this
// loop — see store/store.go).
type Forwarder struct {
	Faces    *face.FaceTable
	PIT      *pit.Table
	FIB      *fib.Table
	Store    *store.Store
	Wheel    *sched.Wheel
	Strategy strategy.Strategy

	// Reg handles registration Interests (§4.10). Nil disables the
	// registration protocol entirely (every Interest falls through to the
	// ordinary content/PIT path).
	Reg *reg.Handler

	inbox    chan frameEvent
	malformed map[uint64]int

	// ReexpressLifetime is the lifetime onExpiry gives an entry it
	// re-expresses (§4.4's on_expiry). onExpiry re-expresses until
	// pit.MaxRetransmits is reached; the strategy is notified through
	// OnTimeout but has no say in it.
	ReexpressLifetime time.Duration
}

func New() *Forwarder {
	f := &Forwarder{
		Faces:             face.NewFaceTable(),
		FIB:               fib.NewTable(),
		Store:             store.NewStore(0),
		Wheel:             sched.NewWheel(),
		Strategy:          strategy.Multicast{},
		inbox:             make(chan frameEvent, 4096),
		malformed:         make(map[uint64]int),
		ReexpressLifetime: pit.DefaultLifetime,
	}
	f.PIT = pit.NewTable(f.Wheel, f.Faces, f.onExpiry)
	return f
}

// onFrame is the face.FrameHandler registered with every transport:
// listener/dial goroutines call this from arbitrary goroutines, and it
// only ever does a channel send, preserving the single-threaded-mutation
// invariant.
func (f *Forwarder) onFrame(faceID uint64, frame []byte) {
	select {
	case f.inbox <- frameEvent{faceID, frame}:
	default:
		colog.Warn(logSubsys, "inbox full, dropping frame", "face", faceID)
	}
}

// FrameHandler exposes onFrame for face listeners constructed outside this
// package (StreamListener.Run, DatagramListener.Run, websocket/webtransport
// HTTP handlers).
func (f *Forwarder) FrameHandler() face.FrameHandler { return f.onFrame }

// Run is the event loop of §4.8: block for a ready frame or the next timer,
// dispatch it, fire due timers, sweep dead faces, flush outbound queues.
// It returns only when stop is closed.
func (f *Forwarder) Run(stop <-chan struct{}) {
	for {
		var timeout <-chan time.Time
		var timer *time.Timer
		if d, ok := f.Wheel.NextDelay(); ok {
			timer = time.NewTimer(d)
			timeout = timer.C
		}

		select {
		case <-stop:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev := <-f.inbox:
			if timer != nil {
				timer.Stop()
			}
			f.dispatch(ev.faceID, ev.frame)
		case <-timeout:
		}

		f.Wheel.RunDue(time.Now())
		for _, dead := range f.Faces.SweepDead() {
			f.onFaceDead(dead)
		}
		f.Faces.FlushAll()
	}
}

func (f *Forwarder) onFaceDead(faceID uint64) {
	colog.Info(logSubsys, "face down, sweeping references", "face", faceID)
	f.FIB.RemoveFace(faceID)
	f.PIT.RemoveFace(faceID)
	delete(f.malformed, faceID)
}

// dispatch parses one ccnb element and routes it to on_interest_arrival or
// on_content_arrival, per §4.8/§3. A parse failure is the §7 "malformed
// input" error kind.
func (f *Forwarder) dispatch(faceID uint64, frame []byte) {
	if it, n, err := msg.ParseInterest(frame); err == nil && n == len(frame) {
		f.onInterestArrival(it, faceID)
		return
	}
	if co, n, offsets, err := msg.ParseContentObject(frame); err == nil && n == len(frame) {
		f.onContentArrival(co, frame, offsets, faceID)
		return
	}
	f.onMalformed(faceID)
}

func (f *Forwarder) onMalformed(faceID uint64) {
	f.malformed[faceID]++
	colog.Warn(logSubsys, "malformed message", "face", faceID, "count", f.malformed[faceID])
	if f.malformed[faceID] >= MalformedCloseThreshold {
		colog.Warn(logSubsys, "closing face over malformed-input threshold", "face", faceID)
		f.Faces.Remove(faceID)
	}
}

// onInterestArrival implements §4.4's on_interest_arrival.
func (f *Forwarder) onInterestArrival(it *msg.Interest, arrivalFace uint64) {
	if f.Reg != nil && f.Reg.IsRegistration(it.Name) {
		f.onRegistration(it, arrivalFace)
		return
	}

	now := time.Now()

	if hit := f.Store.Lookup(it); hit != nil {
		f.sendTo(arrivalFace, hit.Wire)
		return
	}

	ins := f.PIT.InsertOrAggregate(it, arrivalFace, now)
	if ins.LoopNonce {
		return
	}
	if !ins.IsNew {
		return
	}

	fibResult := f.FIB.Lookup(it.Name)
	outFaces := f.Strategy.SelectOutgoing(ins.Entry, fibResult, arrivalFace)
	for _, faceID := range outFaces {
		f.PIT.InsertOutRecord(ins.Entry.Fingerprint, faceID, it.Nonce, now)
		f.sendTo(faceID, it.Encode())
	}
}

// onRegistration answers a registration Interest directly (§4.10) without
// ever touching the PIT: the reply is a fresh signed Content Object, sent
// straight back to the face it arrived on.
func (f *Forwarder) onRegistration(it *msg.Interest, arrivalFace uint64) {
	reply, err := f.Reg.Handle(it, arrivalFace)
	if err != nil {
		colog.Warn(logSubsys, "registration request rejected", "name", it.Name.String(), "err", err)
		return
	}
	frame, _ := reply.Encode()
	f.sendTo(arrivalFace, frame)
}

// onContentArrival implements §4.4's on_content_arrival. Fingerprints are
// keyed on (name, selectors) and CCN matching is prefix-based, so a single
// Content Object can legitimately satisfy more than one pending entry at
// once (e.g. outstanding Interests for both /a and /a/b) — every match is
// relayed and deleted.
func (f *Forwarder) onContentArrival(co *msg.ContentObject, wire []byte, offsets msg.ParseOffsets, fromFace uint64) {
	f.Store.Put(co, wire, offsets)

	entries := f.PIT.Satisfy(co)
	if len(entries) == 0 {
		// No pending Interest claims this object. It may still be an
		// unsolicited publication addressed at a namespace someone has
		// registered a next hop for (the repository engine's local IPC
		// face, per §4.9's "presents itself as a regular CCN endpoint") —
		// relay it there on a best-effort basis.
		f.relayUnsolicited(co, wire, fromFace)
		return
	}
	for _, entry := range entries {
		f.Strategy.OnSatisfied(entry, fromFace)
		for _, faceID := range entry.ArrivalFaces() {
			if faceID == fromFace {
				continue // no echo back to the face content arrived on
			}
			f.sendTo(faceID, wire)
		}
	}
}

func (f *Forwarder) relayUnsolicited(co *msg.ContentObject, wire []byte, fromFace uint64) {
	for _, nh := range f.FIB.Lookup(co.Name).NextHops {
		if nh.FaceID == fromFace {
			continue
		}
		f.sendTo(nh.FaceID, wire)
	}
}

// onExpiry implements §4.4's on_expiry, called by pit.Table on the timer
// wheel's callback.
func (f *Forwarder) onExpiry(entry *pit.Entry) {
	f.Strategy.OnTimeout(entry)
	if entry.RetransmitCount >= pit.MaxRetransmits {
		f.PIT.Delete(entry.Fingerprint)
		return
	}
	entry.Interest.Nonce = msg.NewNonce()
	fibResult := f.FIB.Lookup(entry.Interest.Name)
	outFaces := f.Strategy.SelectOutgoing(entry, fibResult, 0)
	now := time.Now()
	for _, faceID := range outFaces {
		f.PIT.InsertOutRecord(entry.Fingerprint, faceID, entry.Interest.Nonce, now)
		f.sendTo(faceID, entry.Interest.Encode())
	}
	f.PIT.Retransmit(entry, f.ReexpressLifetime, now)
}

func (f *Forwarder) sendTo(faceID uint64, wire []byte) {
	fc, ok := f.Faces.Get(faceID)
	if !ok {
		// Unknown face / stale reference (§7): silently skip.
		return
	}
	fc.Send(wire)
}
