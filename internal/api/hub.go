package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	hubSendBuffer = 64
	hubWriteWait  = 10 * time.Second
)

// Envelope is one event as sent to websocket clients.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type hubClient struct {
	send chan []byte
}

// Hub fans events out to every connected websocket client. It implements
// the EventEmitter interfaces of the service and MCP packages, so the
// headless server uses it where the desktop app uses the Wails runtime.
type Hub struct {
	mu       sync.Mutex
	clients  map[*hubClient]struct{}
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*hubClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
	}
}

// Emit sends the event to every client. Clients whose buffer is full miss
// the event rather than stall the caller.
func (h *Hub) Emit(_ context.Context, event string, data any) {
	msg, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		log.Printf("[HUB] marshal %s: %v", event, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Printf("[HUB] client too slow, dropped %s", event)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register() *hubClient {
	c := &hubClient{send: make(chan []byte, hubSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *hubClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// HandleEvents upgrades the request and streams events until the client
// disconnects. Incoming messages are read and discarded.
func (h *Hub) HandleEvents(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	client := h.register()
	defer h.unregister(client)
	log.Printf("[HUB] client connected (%d total)", h.Clients())

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[HUB] read: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case msg := <-client.send:
			ws.SetWriteDeadline(time.Now().Add(hubWriteWait))
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[HUB] write: %v", err)
				return nil
			}
		case <-closed:
			log.Println("[HUB] client disconnected")
			return nil
		case <-c.Request().Context().Done():
			return nil
		}
	}
}
