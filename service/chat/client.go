package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one live connection owned by the registry. A single user may have
// several (multiple devices/tabs), each tracked separately.
type Client struct {
	ConnID    string // unique within the owning user, assigned at admission
	UserID    UserID
	Transport Transport
	CreatedAt time.Time
}

const writeDeadline = 5 * time.Second

// wsTransport adapts a gorilla websocket connection. gorilla allows only one
// concurrent writer, so writes are serialized under a mutex and carry a
// deadline so a stuck peer surfaces as a send error instead of a hang.
type wsTransport struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func NewWSTransport(ws *websocket.Conn) Transport {
	return &wsTransport{ws: ws}
}

func (t *wsTransport) WriteMessage(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ws.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		return err
	}
	return t.ws.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close() error {
	return t.ws.Close()
}
