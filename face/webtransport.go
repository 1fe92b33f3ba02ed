package face

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"github.com/quic-go/webtransport-go"

	"github.com/Atsuko87/ccnx-sub001/colog"
)

// webtransportTransport carries ccnb messages as QUIC datagrams over an
// HTTP/3 WebTransport session, grounded on fw/face/http3-transport.go.
// Each datagram is exactly one ccnb element.
type webtransportTransport struct {
	transportBase
	s *webtransport.Session
}

func newWebtransportTransport(remote, local string, s *webtransport.Session) *webtransportTransport {
	t := &webtransportTransport{s: s}
	t.makeTransportBase(remote, local, PersistencyOnDemand, 1200)
	t.running.Store(true)
	return t
}

func (t *webtransportTransport) String() string {
	return "webtransport-transport (remote=" + t.remoteURI + " local=" + t.localURI + ")"
}

func (t *webtransportTransport) SetPersistency(p Persistency) bool {
	return p == PersistencyOnDemand
}

func (t *webtransportTransport) sendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if len(frame) > t.MTU() {
		colog.Warn(logSubsys, "frame larger than MTU, dropping")
		return
	}
	if err := t.s.SendDatagram(frame); err != nil {
		colog.Warn(logSubsys, "webtransport send failed, face down", "err", err)
		t.Close()
		return
	}
	t.nOutBytes.Add(uint64(len(frame)))
}

func (t *webtransportTransport) runReceive(onRead func([]byte)) {
	defer t.Close()
	for {
		message, err := t.s.ReceiveDatagram(t.s.Context())
		if err != nil {
			if t.running.Load() {
				colog.Warn(logSubsys, "webtransport receive failed, face down", "err", err)
			}
			return
		}
		t.nInBytes.Add(uint64(len(message)))
		onRead(message)
	}
}

func (t *webtransportTransport) Close() {
	if t.running.Swap(false) {
		t.s.CloseWithError(0, "")
	}
}

// WebTransportListenerConfig mirrors HTTP3ListenerConfig: a bound address
// and TLS material for the HTTP/3 WebTransport endpoint.
type WebTransportListenerConfig struct {
	Addr    string
	TLSCert string
	TLSKey  string
}

// WebTransportListener accepts QUIC/WebTransport sessions, grounded on
// fw/face/http3-listener.go.
type WebTransportListener struct {
	mux    *http.ServeMux
	server *webtransport.Server
}

func NewWebTransportListener(cfg WebTransportListenerConfig, ft *FaceTable, onFrame FrameHandler) (*WebTransportListener, error) {
	cert, err := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKey)
	if err != nil {
		return nil, err
	}

	l := &WebTransportListener{mux: http.NewServeMux()}
	l.mux.HandleFunc("/ccn", func(w http.ResponseWriter, r *http.Request) {
		s, err := l.server.Upgrade(w, r)
		if err != nil {
			return
		}
		t := newWebtransportTransport(r.RemoteAddr, cfg.Addr, s)
		f := ft.Add(t, true, onFrame)
		colog.Info(logSubsys, "accepted webtransport face", "face", f.ID, "remote", t.remoteURI)
	})

	l.server = &webtransport.Server{
		H3: http3.Server{
			Addr: cfg.Addr,
			TLSConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			},
			QUICConfig: &quic.Config{
				MaxIdleTimeout:  60 * time.Second,
				KeepAlivePeriod: 30 * time.Second,
			},
			Handler: l.mux,
		},
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	return l, nil
}

// Run blocks serving incoming WebTransport sessions until the listener is
// closed.
func (l *WebTransportListener) Run() error {
	return l.server.ListenAndServe()
}

func (l *WebTransportListener) Close() error {
	return l.server.Close()
}
