package face

import (
	"net"

	"github.com/Atsuko87/ccnx-sub001/colog"
)

// streamTransport wraps a reliable, connection-oriented net.Conn (TCP or
// Unix domain stream socket), grounded on fw/face/unix-stream-transport.go
// and fw/face/tcp-listener.go's accept path.
type streamTransport struct {
	transportBase
	conn net.Conn
}

// dialStream opens an outgoing TCP or Unix stream connection.
func dialStream(network, addr string) (*streamTransport, error) {
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, err
	}
	return acceptStream(conn, PersistencyPersistent), nil
}

// acceptStream wraps an already-accepted connection (from a listener's
// Accept loop) as a face transport.
func acceptStream(conn net.Conn, persistency Persistency) *streamTransport {
	t := &streamTransport{conn: conn}
	t.makeTransportBase(conn.RemoteAddr().String(), conn.LocalAddr().String(), persistency, 8800)
	t.running.Store(true)
	return t
}

func (t *streamTransport) String() string {
	return "stream-transport (remote=" + t.remoteURI + " local=" + t.localURI + ")"
}

func (t *streamTransport) SetPersistency(p Persistency) bool {
	if p == PersistencyPersistent {
		t.persistency = p
		return true
	}
	return false
}

func (t *streamTransport) sendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if _, err := t.conn.Write(frame); err != nil {
		colog.Warn(logSubsys, "stream write failed, face down", "err", err)
		t.Close()
		return
	}
	t.nOutBytes.Add(uint64(len(frame)))
}

// runReceive reads whatever bytes are available into onRead; framing into
// complete ccnb elements is the Face's job (framing.go), since a stream
// read may contain a partial element, one element, or several.
func (t *streamTransport) runReceive(onRead func([]byte)) {
	defer t.Close()
	buf := make([]byte, 64*1024)
	for t.running.Load() {
		n, err := t.conn.Read(buf)
		if n > 0 {
			t.nInBytes.Add(uint64(n))
			cp := make([]byte, n)
			copy(cp, buf[:n])
			onRead(cp)
		}
		if err != nil {
			if t.running.Load() {
				colog.Warn(logSubsys, "stream read failed, face down", "err", err)
			}
			return
		}
	}
}

func (t *streamTransport) Close() {
	if t.running.Swap(false) {
		t.conn.Close()
	}
}

// StreamListener accepts incoming TCP or Unix stream connections and
// registers each as a new face, grounded on fw/face/tcp-listener.go's
// Accept loop.
type StreamListener struct {
	ln net.Listener
}

func ListenStream(network, addr string) (*StreamListener, error) {
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, err
	}
	return &StreamListener{ln: ln}, nil
}

// Run accepts connections until the listener is closed, registering each
// as a new face on ft.
func (l *StreamListener) Run(ft *FaceTable, onFrame FrameHandler) {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			return
		}
		t := acceptStream(conn, PersistencyOnDemand)
		f := ft.Add(t, false, onFrame)
		colog.Info(logSubsys, "accepted stream face", "face", f.ID, "remote", t.remoteURI)
	}
}

func (l *StreamListener) Close() error { return l.ln.Close() }

// Addr returns the listener's bound address, useful when addr was "host:0"
// and the actual ephemeral port is needed (e.g. by a test harness).
func (l *StreamListener) Addr() net.Addr { return l.ln.Addr() }
