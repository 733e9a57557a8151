// Package notify carries transient user notifications ("Workout added", sync failures).
// The Hub keeps the most recent ones in a bounded ring and pushes every notification and
// state change to connected WebSocket clients.
package notify

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Level of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier publishes transient notifications.
type Notifier interface {
	Notify(level Level, message string)
}

// Notification is one toast.
type Notification struct {
	ID      uint64    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Message is the WebSocket frame pushed to clients.
type Message struct {
	Action string      `json:"action"`
	Data   interface{} `json:"data"`
}

const (
	ActionNotification = "notification"
	ActionStateChanged = "stateChanged"
)

const (
	writeTimeout = 5 * time.Second
	// sendBuffer is how many frames a client may lag behind before it is dropped.
	sendBuffer = 64
)

// client owns one connection. Only its writer goroutine writes data frames.
type client struct {
	conn      *websocket.Conn
	send      chan Message
	closeOnce sync.Once
}

func (c *client) stop() {
	c.closeOnce.Do(func() { close(c.send) })
}

// writeLoop drains the queue; the connection is closed when the queue is.
func (c *client) writeLoop(h *Hub) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := writeMessage(c.conn, msg); err != nil {
			log.Printf("WARN: Error sending WebSocket message: %v", err)
			h.remove(c)
			return
		}
	}
}

// Hub implements Notifier and serves the WebSocket feed. Broadcasts only enqueue, so
// callers holding their own locks never wait on a slow client.
type Hub struct {
	mu     sync.Mutex
	ring   []Notification
	size   int
	nextID uint64
	conns  []*client

	upgrader websocket.Upgrader
}

// NewHub creates a hub keeping the last size notifications.
func NewHub(size int) *Hub {
	if size <= 0 {
		size = 20
	}
	return &Hub{
		size: size,
		upgrader: websocket.Upgrader{
			// The feed carries no credentials and the API is local-first.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Notify records a notification and broadcasts it.
func (h *Hub) Notify(level Level, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	n := Notification{ID: h.nextID, Level: level, Message: message, At: time.Now().UTC()}
	h.ring = append(h.ring, n)
	if len(h.ring) > h.size {
		h.ring = append([]Notification(nil), h.ring[len(h.ring)-h.size:]...)
	}
	h.broadcastLocked(Message{Action: ActionNotification, Data: n})
}

// StateChanged tells clients the application state moved to a new version.
func (h *Hub) StateChanged(version uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.conns) == 0 {
		return
	}
	h.broadcastLocked(Message{Action: ActionStateChanged, Data: map[string]uint64{"version": version}})
}

// Recent returns the buffered notifications, oldest first.
func (h *Hub) Recent() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Notification{}, h.ring...)
}

// ServeWS upgrades the request and keeps the connection registered until the client goes away.
// Buffered notifications are replayed on connect.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WARN: WebSocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	c := &client{conn: conn, send: make(chan Message, h.size+sendBuffer)}
	for _, n := range h.ring {
		c.send <- Message{Action: ActionNotification, Data: n}
	}
	h.conns = append(h.conns, c)
	log.Printf("INFO: WebSocket client connected, %d active", len(h.conns))
	h.mu.Unlock()

	go c.writeLoop(h)

	// Reads only detect the close; clients have nothing to send.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.conns {
		c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
		c.stop()
	}
	h.conns = nil
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	c.stop()
	for i, other := range h.conns {
		if other == c {
			h.conns = append(h.conns[:i], h.conns[i+1:]...)
			log.Printf("INFO: WebSocket client disconnected, %d active", len(h.conns))
			return
		}
	}
}

// broadcastLocked must be called with the lock held. Clients whose queue is full are dropped.
func (h *Hub) broadcastLocked(msg Message) {
	for _, c := range append([]*client(nil), h.conns...) {
		select {
		case c.send <- msg:
		default:
			log.Printf("WARN: WebSocket client too slow, dropping it")
			h.removeLocked(c)
		}
	}
}

func writeMessage(conn *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}
