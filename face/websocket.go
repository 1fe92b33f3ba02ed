package face

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Atsuko87/ccnx-sub001/colog"
)

// websocketTransport communicates with browser/JS clients over a WebSocket
// connection, grounded on fw/face/web-socket-transport.go. Every WebSocket
// binary message is exactly one ccnb element (datagram framing).
type websocketTransport struct {
	transportBase
	c *websocket.Conn
}

func newWebsocketTransport(localURI string, c *websocket.Conn) *websocketTransport {
	t := &websocketTransport{c: c}
	t.makeTransportBase(c.RemoteAddr().String(), localURI, PersistencyOnDemand, 8800)
	t.running.Store(true)
	return t
}

func (t *websocketTransport) String() string {
	return "web-socket-transport (remote=" + t.remoteURI + " local=" + t.localURI + ")"
}

func (t *websocketTransport) SetPersistency(p Persistency) bool {
	return p == PersistencyOnDemand
}

func (t *websocketTransport) sendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if err := t.c.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		colog.Warn(logSubsys, "websocket write failed, face down", "err", err)
		t.Close()
		return
	}
	t.nOutBytes.Add(uint64(len(frame)))
}

func (t *websocketTransport) runReceive(onRead func([]byte)) {
	defer t.Close()
	for {
		mt, message, err := t.c.ReadMessage()
		if err != nil {
			if t.running.Load() {
				colog.Info(logSubsys, "websocket closed, face down", "err", err)
			}
			return
		}
		if mt != websocket.BinaryMessage {
			colog.Warn(logSubsys, "ignored non-binary websocket message")
			continue
		}
		t.nInBytes.Add(uint64(len(message)))
		onRead(message)
	}
}

func (t *websocketTransport) Close() {
	if t.running.Swap(false) {
		t.c.Close()
	}
}

// WebSocketListener upgrades incoming HTTP connections to WebSocket and
// registers each as a new datagram-framed face, grounded on
// fw/face/web-socket-listener.go.
type WebSocketListener struct {
	upgrader websocket.Upgrader
	ft       *FaceTable
	onFrame  FrameHandler
}

func NewWebSocketListener() *WebSocketListener {
	return &WebSocketListener{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (l *WebSocketListener) Handler(ft *FaceTable, onFrame FrameHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := l.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		localURI := "ws://" + localAddrString(r)
		t := newWebsocketTransport(localURI, c)
		f := ft.Add(t, true, onFrame)
		colog.Info(logSubsys, "accepted websocket face", "face", f.ID, "remote", t.remoteURI)
	}
}

func localAddrString(r *http.Request) string {
	if a, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr); ok {
		return a.String()
	}
	return ""
}
