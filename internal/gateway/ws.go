package gateway

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsSink adapts a websocket connection to the Sink interface. Writes are
// serialized; a write deadline keeps a dead peer from holding the
// connection forever.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// ServeWS upgrades the request to a websocket and registers the connection
// with the hub. The connection stays registered until the peer disconnects
// or a send to it fails.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("gateway: websocket upgrade: %v", err)
		return
	}

	sink := &wsSink{conn: conn}
	handle := h.Register(sink)
	log.Printf("gateway: observer connected from %s", r.RemoteAddr)

	// Observers never send application data; the read loop exists to
	// notice disconnects and to service control frames.
	go func() {
		defer func() {
			handle.Deregister()
			conn.Close()
			log.Printf("gateway: observer %s disconnected", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
