// Package stream pushes applied market snapshots to websocket clients and
// runs a per-connection simulation session.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"CryptoCompass/internal/domain/models"
	domrepo "CryptoCompass/internal/domain/repository"
	"CryptoCompass/internal/usecase"
	applogger "CryptoCompass/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const maxMessageSize = 4096

// ErrHubClosed is returned by ServeWS after Close.
var ErrHubClosed = errors.New("stream hub closed")

// Inbound is a client message.
type Inbound struct {
	Type   string  `json:"type"`
	Asset  string  `json:"asset,omitempty"`
	Days   int     `json:"days,omitempty"`
	Amount float64 `json:"amount,omitempty"`
}

// Outbound is a server message.
type Outbound struct {
	Type       string                     `json:"type"`
	ClientID   string                     `json:"client_id,omitempty"`
	Snapshot   *models.MarketSnapshot     `json:"snapshot,omitempty"`
	Simulation *usecase.SimulationOutcome `json:"simulation,omitempty"`
	Error      string                     `json:"error,omitempty"`
}

const (
	TypeHello      = "hello"
	TypeSnapshot   = "snapshot"
	TypeSimulate   = "simulate"
	TypeSimulation = "simulation"
	TypeError      = "error"
)

// Hub fans snapshots out to connected clients. Each client owns a bounded
// send queue; a client whose queue is full is disconnected rather than
// allowed to stall the broadcast.
type Hub struct {
	upgrader     websocket.Upgrader
	simulator    *usecase.SimulationService
	metrics      domrepo.Metrics
	log          *applogger.Logger
	sendBuffer   int
	writeTimeout time.Duration
	pingInterval time.Duration

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
	wg      sync.WaitGroup
}

type Option func(*Hub)

func WithSimulator(svc *usecase.SimulationService) Option {
	return func(h *Hub) { h.simulator = svc }
}

func WithMetrics(m domrepo.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

func WithLogger(l *applogger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}

func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// WithAllowedOrigins sets the browser origins that may open a stream. "*"
// allows any origin; an empty list keeps the same-origin check. Requests
// without an Origin header are not browsers and are always accepted.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) {
		if len(origins) == 0 {
			h.upgrader.CheckOrigin = nil
			return
		}
		allowed := append([]string(nil), origins...)
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range allowed {
				if o == "*" || strings.EqualFold(o, origin) {
					return true
				}
			}
			return false
		}
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		log:          applogger.Nop(),
		sendBuffer:   16,
		writeTimeout: 10 * time.Second,
		pingInterval: 30 * time.Second,
		clients:      make(map[string]*client),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.Component("stream")
	return h
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and serves the connection until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		return ErrHubClosed
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	c := &client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
		done: make(chan struct{}),
	}
	if h.simulator != nil {
		c.session = usecase.NewSimulationSession(h.simulator)
	}
	if !h.register(c) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return nil
	}

	c.enqueue(Outbound{Type: TypeHello, ClientID: c.id})
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
	c.readPump(r.Context())
	return nil
}

// Publish broadcasts s to every client. It never blocks on a client.
func (h *Hub) Publish(_ context.Context, s *models.MarketSnapshot) error {
	if s == nil {
		return fmt.Errorf("publish: nil snapshot")
	}
	b, err := json.Marshal(Outbound{Type: TypeSnapshot, Snapshot: s})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.push(b) {
			h.log.Warn("client too slow, disconnecting", applogger.String("client_id", c.id))
			if h.metrics != nil {
				h.metrics.RecordError("stream_slow_client")
			}
			c.close()
		}
	}
	return nil
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	h.wg.Wait()
	return nil
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()

	h.log.Debug("client connected", applogger.String("client_id", c.id), applogger.Int("clients", n))
	h.setGauge(n)
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	n := len(h.clients)
	h.mu.Unlock()

	h.log.Debug("client disconnected", applogger.String("client_id", c.id), applogger.Int("clients", n))
	h.setGauge(n)
}

func (h *Hub) setGauge(n int) {
	if h.metrics != nil {
		h.metrics.SetStreamClients(n)
	}
}
