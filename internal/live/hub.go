// Package live pushes decoded readings to websocket clients as they arrive.
// Delivery is best effort: slow or disconnected clients miss events.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/itsatony/w4b_v3/server/clima/internal/models"
	"github.com/itsatony/w4b_v3/server/clima/internal/monitoring"
	nuts "github.com/vaudience/go-nuts"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientBuffer   = 64
	broadcastQueue = 256
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans live readings out to every connected websocket client.
type Hub struct {
	upgrader websocket.Upgrader
	latest   LatestStore
	metrics  *monitoring.Service

	mu      sync.RWMutex
	clients map[*client]struct{}

	queue chan models.LiveReading
	done  chan struct{}
	once  sync.Once
}

func NewHub(latest LatestStore, metrics *monitoring.Service) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard may be served from another origin; CORS is open on the API as well.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		latest:  latest,
		metrics: metrics,
		clients: make(map[*client]struct{}),
		queue:   make(chan models.LiveReading, broadcastQueue),
		done:    make(chan struct{}),
	}
}

// Broadcast queues a reading for delivery and never blocks the caller.
func (h *Hub) Broadcast(reading models.LiveReading) {
	select {
	case h.queue <- reading:
	case <-h.done:
	default:
		nuts.L.Warnf("[LiveHub] Broadcast queue full, dropping %s", reading.Topic)
	}
}

// Run delivers queued readings until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case reading := <-h.queue:
			h.deliver(ctx, reading)
		}
	}
}

func (h *Hub) deliver(ctx context.Context, reading models.LiveReading) {
	if h.latest != nil {
		if err := h.latest.Put(ctx, reading); err != nil {
			nuts.L.Warnf("[LiveHub] Failed to store latest value for %s: %v", reading.SensorID, err)
		}
	}

	msg, err := json.Marshal(models.LiveEnvelope{Event: models.LiveEventSensorData, Data: reading})
	if err != nil {
		nuts.L.Errorf("[LiveHub] Failed to encode event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// client is not keeping up; it will catch up from the next events
		}
	}
}

// Latest returns the last reading per sensor.
func (h *Hub) Latest(ctx context.Context) (models.LatestReadings, error) {
	out := models.LatestReadings{Sensors: map[string]models.LiveReading{}}
	if h.latest == nil {
		return out, nil
	}
	sensors, err := h.latest.All(ctx)
	if err != nil {
		return out, err
	}
	out.Sensors = sensors
	for _, r := range sensors {
		if t := time.UnixMilli(r.Timestamp); t.After(out.UpdatedAt) {
			out.UpdatedAt = t
		}
	}
	return out, nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		nuts.L.Warnf("[LiveHub] Upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.LiveClients(n)
	nuts.L.Infof("[LiveHub] Client connected from %s (%d connected)", r.RemoteAddr, n)

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.LiveClients(n)
}

// readPump drains the connection so control frames are processed; clients do not send data.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every client. Further broadcasts are ignored.
func (h *Hub) Close() {
	h.once.Do(func() {
		close(h.done)
		h.mu.Lock()
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
		h.mu.Unlock()
		h.metrics.LiveClients(0)
		nuts.L.Infof("[LiveHub] Closed")
	})
}
