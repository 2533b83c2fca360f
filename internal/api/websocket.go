package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"pattern-hero/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// origin filtering happens at the CORS layer
		return true
	},
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

// WSClient represents one connected websocket subscriber
type WSClient struct {
	conn      *websocket.Conn
	send      chan []byte
	hub       *WSHub
	done      chan struct{}
	onMessage func([]byte)

	mu       sync.Mutex
	stopFeed chan struct{}
}

// resetFeed cancels any running per-coin feed and hands back a fresh stop
// channel for the next one
func (c *WSClient) resetFeed() chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopFeed != nil {
		close(c.stopFeed)
	}
	c.stopFeed = make(chan struct{})
	return c.stopFeed
}

func (c *WSClient) stopFeedLoop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopFeed != nil {
		close(c.stopFeed)
		c.stopFeed = nil
	}
}

// WSHub fans analysis events out to every connected client
type WSHub struct {
	clients    map[*WSClient]bool
	broadcast  chan []byte
	register   chan *WSClient
	unregister chan *WSClient
	mu         sync.RWMutex
	logger     zerolog.Logger
}

// NewWSHub creates a new websocket hub
func NewWSHub(logger zerolog.Logger) *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		logger:     logger.With().Str("component", "WSHub").Logger(),
	}
}

// Run processes register, unregister, and broadcast events
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			// send stays open, feed goroutines may still hold a reference;
			// writePump exits via the client's done channel
			h.mu.Lock()
			delete(h.clients, client)
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow consumer, drop the message for this client
				}
			}
			h.mu.RUnlock()
		}
	}
}

// ClientCount reports how many subscribers are connected
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// wsEvent is the envelope every pushed message uses
type wsEvent struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// BroadcastAnalysis pushes a completed analysis to every subscriber
func (h *WSHub) BroadcastAnalysis(analysis *service.Analysis) {
	event := wsEvent{
		Type:      "analysis",
		Timestamp: time.Now().UTC(),
		Payload:   analysis,
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal analysis event")
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn().Msg("broadcast channel full, dropping analysis event")
	}
}

// wsRequest is the inbound control message shape
type wsRequest struct {
	Action    string `json:"action"` // subscribe, unsubscribe
	CoinID    string `json:"coin_id"`
	Timeframe string `json:"timeframe"`
	Days      int    `json:"days"`
	Interval  int    `json:"interval_seconds"`
}

// handleWebSocket upgrades the connection and registers the client
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &WSClient{
		conn: conn,
		send: make(chan []byte, 64),
		hub:  s.hub,
		done: make(chan struct{}),
	}
	client.onMessage = func(data []byte) { s.handleWSMessage(client, data) }
	s.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// handleWSMessage processes subscribe/unsubscribe control messages
func (s *Server) handleWSMessage(client *WSClient, data []byte) {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	switch req.Action {
	case "subscribe":
		if req.CoinID == "" {
			return
		}
		s.startFeed(client, req)
	case "unsubscribe":
		client.stopFeedLoop()
	}
}

// startFeed pushes a fresh analysis of the subscribed coin on an interval
// until the client unsubscribes or disconnects
func (s *Server) startFeed(client *WSClient, req wsRequest) {
	interval := time.Duration(req.Interval) * time.Second
	if interval < 10*time.Second {
		interval = time.Minute
	}

	analysisReq := service.Request{
		CoinID:    req.CoinID,
		Timeframe: req.Timeframe,
		Days:      req.Days,
	}
	stop := client.resetFeed()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		push := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			analysis, err := s.analyzer.Analyze(ctx, analysisReq)
			if err != nil {
				s.logger.Warn().Err(err).Str("coin_id", req.CoinID).Msg("subscription analysis failed")
				return
			}
			event := wsEvent{Type: "analysis", Timestamp: time.Now().UTC(), Payload: analysis}
			data, err := json.Marshal(event)
			if err != nil {
				return
			}
			select {
			case client.send <- data:
			default:
				// slow consumer, skip this snapshot
			}
		}

		push()
		for {
			select {
			case <-stop:
				return
			case <-client.done:
				return
			case <-ticker.C:
				push()
			}
		}
	}()
}

// readPump handles inbound control messages and keeps the connection alive
// via pongs
func (c *WSClient) readPump() {
	defer func() {
		close(c.done)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if c.onMessage != nil {
			c.onMessage(data)
		}
	}
}

// writePump pushes queued messages and periodic pings to the client
func (c *WSClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
