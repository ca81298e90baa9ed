package service

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/racegate/racegate/src/node"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
)

// client is a WebSocket subscriber. It only ever holds the latest snapshot:
// a slow client skips intermediate states.
type client struct {
	conn   *websocket.Conn
	sendCh chan node.SystemState
	doneCh chan struct{}
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn:   conn,
		sendCh: make(chan node.SystemState, 1),
		doneCh: make(chan struct{}),
	}
}

func (c *client) offer(s node.SystemState) {
	select {
	case c.sendCh <- s:
		return
	default:
	}

	// Replace the pending snapshot.
	select {
	case <-c.sendCh:
	default:
	}
	select {
	case c.sendCh <- s:
	default:
	}
}

// Stream upgrades the connection to a WebSocket and pushes every snapshot to
// it, starting with the latest one.
func (s *Service) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("WebSocket upgrade")
		return
	}

	c := newClient(conn)

	s.Lock()
	s.clients[c] = struct{}{}
	if s.stateValid {
		c.offer(s.state)
	}
	count := len(s.clients)
	s.Unlock()

	s.logger.WithField("clients", count).Debug("WebSocket client connected")

	go s.writeLoop(c)
	s.readLoop(c)
}

// readLoop discards incoming messages and returns when the peer goes away.
func (s *Service) readLoop(c *client) {
	defer s.removeClient(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Service) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case state := <-c.sendCh:
			b, err := marshal(state)
			if err != nil {
				s.logger.WithError(err).Error("Encoding snapshot")
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				c.conn.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		case <-c.doneCh:
			return
		}
	}
}

func (s *Service) removeClient(c *client) {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.doneCh)
	c.conn.Close()

	s.logger.WithField("clients", len(s.clients)).Debug("WebSocket client disconnected")
}

func (s *Service) closeClients() {
	s.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.Unlock()

	for _, c := range clients {
		s.removeClient(c)
	}
}
