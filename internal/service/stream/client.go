package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"CryptoCompass/internal/usecase"
	applogger "CryptoCompass/pkg/logger"

	"github.com/gorilla/websocket"
)

type client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	session *usecase.SimulationSession

	mu        sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// push queues b without blocking. It reports false when the queue is full.
func (c *client) push(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *client) enqueue(msg Outbound) {
	b, err := json.Marshal(msg)
	if err != nil {
		c.hub.log.Error("encode message", applogger.String("type", msg.Type), applogger.Error(err))
		return
	}
	c.push(b)
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		close(c.done)
		c.mu.Unlock()
		c.hub.unregister(c)
		_ = c.conn.Close()
	})
}

func (c *client) readPump(ctx context.Context) {
	defer func() {
		if c.session != nil {
			c.session.Close()
		}
		c.close()
	}()

	wait := 2 * c.hub.pingInterval
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		var in Inbound
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("read failed", applogger.String("client_id", c.id), applogger.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(wait))
		c.handle(ctx, in)
	}
}

func (c *client) handle(ctx context.Context, in Inbound) {
	switch in.Type {
	case TypeSimulate:
		if c.session == nil {
			c.enqueue(Outbound{Type: TypeError, Error: "simulator unavailable"})
			return
		}
		c.session.Submit(ctx, usecase.SimulationQuery{Asset: in.Asset, Days: in.Days, Amount: in.Amount}, func(out usecase.SimulationOutcome) {
			c.enqueue(Outbound{Type: TypeSimulation, Simulation: &out})
		})
	default:
		c.enqueue(Outbound{Type: TypeError, Error: "unknown message type: " + in.Type})
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
