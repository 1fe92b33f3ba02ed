package face

import (
	"net"

	"github.com/Atsuko87/ccnx-sub001/colog"
)

// datagramTransport wraps a connected UDP socket, grounded on
// fw/face/unicast-udp-transport.go. Each read is exactly one ccnb message
// per §4.6's datagram framing rule.
type datagramTransport struct {
	transportBase
	conn *net.UDPConn
}

func dialDatagram(remote *net.UDPAddr) (*datagramTransport, error) {
	conn, err := net.DialUDP("udp", nil, remote)
	if err != nil {
		return nil, err
	}
	t := &datagramTransport{conn: conn}
	t.makeTransportBase(conn.RemoteAddr().String(), conn.LocalAddr().String(), PersistencyPersistent, 1400)
	t.running.Store(true)
	return t, nil
}

func (t *datagramTransport) String() string {
	return "datagram-transport (remote=" + t.remoteURI + " local=" + t.localURI + ")"
}

func (t *datagramTransport) SetPersistency(p Persistency) bool {
	t.persistency = p
	return true
}

func (t *datagramTransport) sendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if len(frame) > t.MTU() {
		colog.Warn(logSubsys, "frame larger than MTU, dropping", "size", len(frame), "mtu", t.MTU())
		return
	}
	if _, err := t.conn.Write(frame); err != nil {
		colog.Warn(logSubsys, "datagram write failed, face down", "err", err)
		t.Close()
		return
	}
	t.nOutBytes.Add(uint64(len(frame)))
}

func (t *datagramTransport) runReceive(onRead func([]byte)) {
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
				colog.Warn(logSubsys, "datagram read failed, face down", "err", err)
			}
			return
		}
	}
}

func (t *datagramTransport) Close() {
	if t.running.Swap(false) {
		t.conn.Close()
	}
}

// ListenDatagram registers the UDP listener's traffic by address: the
// first datagram from a new remote address creates a new face, grounded
// on the teacher's multicast-udp-transport.go demultiplexing by source
// address.
type DatagramListener struct {
	conn *net.UDPConn
	ft   *FaceTable
	bySrc map[string]uint64
}

func ListenDatagram(addr *net.UDPAddr) (*DatagramListener, error) {
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	return &DatagramListener{conn: conn, bySrc: make(map[string]uint64)}, nil
}

func (l *DatagramListener) Run(ft *FaceTable, onFrame FrameHandler) {
	l.ft = ft
	buf := make([]byte, 64*1024)
	for {
		n, src, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		key := src.String()
		faceID, ok := l.bySrc[key]
		var f *Face
		if ok {
			f, ok = ft.Get(faceID)
		}
		if !ok {
			// Demultiplex by source address into a dedicated dialed socket,
			// same approach as multicast-udp-transport.go. The dialed socket
			// is bound to an ephemeral local port, not the listening port,
			// so the face's replies leave from that port.
			t, err := dialDatagram(src)
			if err != nil {
				colog.Warn(logSubsys, "failed to create datagram face", "src", key, "err", err)
				continue
			}
			f = ft.Add(t, true, onFrame)
			l.bySrc[key] = f.ID
			colog.Info(logSubsys, "accepted datagram face", "face", f.ID, "remote", key)
		}
		cp := make([]byte, n)
		copy(cp, buf[:n])
		onFrame(f.ID, cp)
	}
}

func (l *DatagramListener) Close() error { return l.conn.Close() }
