// Package face implements the forwarder's face abstraction (§4.6):
// transports for the repository/client local IPC link, TCP/unix streams,
// UDP datagrams, WebSocket, and QUIC/WebTransport, plus the face table and
// auto-framing state machine. Grounded on the teacher's fw/face package
// (transport.go, tcp-listener.go, unicast-udp-transport.go,
// web-socket-transport.go, http3-transport.go).
package face

import (
	"sync/atomic"
	"time"
)

// Kind distinguishes a stream-oriented transport (TCP, Unix, the local IPC
// pipe) from a datagram-oriented one (UDP, WebSocket messages,
// QUIC/WebTransport). Datagram faces are KindDatagram from the start; a
// stream face is UNDECIDED until its first complete element is framed and
// then becomes KindStream (§4.6). The bytes are not probed to choose
// between the two.
type Kind uint8

const (
	KindUndecided Kind = iota
	KindStream
	KindDatagram
)

func (k Kind) String() string {
	switch k {
	case KindStream:
		return "stream"
	case KindDatagram:
		return "datagram"
	default:
		return "undecided"
	}
}

// Persistency mirrors the teacher's spec_mgmt.Persistency: whether a face
// is held open indefinitely or torn down once idle/on-demand.
type Persistency uint8

const (
	PersistencyPersistent Persistency = iota
	PersistencyOnDemand
)

// transport is the per-transport-kind interface, grounded on
// fw/face/transport.go's `transport` interface, trimmed to what this
// forwarder's single-threaded event loop actually drives: non-blocking
// send, a receive loop run on its own goroutine that hands each raw read
// back via a callback (Face.onRawRead frames it), and liveness/counters.
type transport interface {
	String() string
	RemoteURI() string
	LocalURI() string
	Persistency() Persistency
	SetPersistency(Persistency) bool
	MTU() int

	sendFrame([]byte)
	runReceive(onFrame func([]byte))
	IsRunning() bool
	Close()

	NInBytes() uint64
	NOutBytes() uint64
}

// transportBase carries the fields and default behavior common to every
// transport kind, grounded on fw/face/transport.go's transportBase.
type transportBase struct {
	running atomic.Bool

	remoteURI      string
	localURI       string
	persistency    Persistency
	mtu            int
	expirationTime *time.Time

	nInBytes  atomic.Uint64
	nOutBytes atomic.Uint64
}

func (t *transportBase) makeTransportBase(remoteURI, localURI string, persistency Persistency, mtu int) {
	t.remoteURI = remoteURI
	t.localURI = localURI
	t.persistency = persistency
	t.mtu = mtu
}

func (t *transportBase) RemoteURI() string       { return t.remoteURI }
func (t *transportBase) LocalURI() string        { return t.localURI }
func (t *transportBase) Persistency() Persistency { return t.persistency }
func (t *transportBase) MTU() int                { return t.mtu }
func (t *transportBase) IsRunning() bool          { return t.running.Load() }
func (t *transportBase) NInBytes() uint64         { return t.nInBytes.Load() }
func (t *transportBase) NOutBytes() uint64        { return t.nOutBytes.Load() }

// ExpirationPeriod returns the time until an on-demand face expires, or 0
// if it does not expire.
func (t *transportBase) ExpirationPeriod() time.Duration {
	if t.expirationTime == nil || t.persistency != PersistencyOnDemand {
		return 0
	}
	return time.Until(*t.expirationTime)
}
