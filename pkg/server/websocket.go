package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antibyte/minilang/pkg/auth"
	"github.com/antibyte/minilang/pkg/logger"
)

const sendBuffer = 16

// wsClient is one WebSocket connection. Requests are scanned in order and
// each reply is queued on send for the write pump.
type wsClient struct {
	server   *Server
	conn     *websocket.Conn
	clientID string
	addr     string
	send     chan []byte
	done     chan struct{}
	once     sync.Once
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WebSocketWarn("upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}

	c := &wsClient{
		server:   s,
		conn:     conn,
		clientID: auth.ClientIDFromContext(r.Context()),
		addr:     clientAddr(r),
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
	logger.WebSocketInfo("client %s connected from %s", c.clientID, conn.RemoteAddr())

	go c.writePump()
	c.readPump()
}

func (c *wsClient) pingPeriod() time.Duration {
	return (c.server.opts.PongWait * 9) / 10
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
		logger.WebSocketInfo("client %s disconnected", c.clientID)
	})
}

// readPump reads scan requests until the connection fails.
func (c *wsClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(c.server.opts.MaxSourceBytes + envelope)
	c.conn.SetReadDeadline(time.Now().Add(c.server.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.server.opts.PongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.WebSocketWarn("unexpected close for client %s: %v", c.clientID, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		reply := c.handle(message)
		select {
		case c.send <- reply:
		case <-c.done:
			return
		}
	}
}

func (c *wsClient) handle(message []byte) []byte {
	if !c.server.limiter.allow(c.addr) {
		return c.marshal(errorResponse{Error: "rate limit exceeded"})
	}

	var req ScanRequest
	if err := json.Unmarshal(message, &req); err != nil {
		logger.WebSocketDebug("invalid request from %s: %v", c.clientID, err)
		return c.marshal(errorResponse{Error: "invalid request body"})
	}
	if int64(len(req.Source)) > c.server.opts.MaxSourceBytes {
		return c.marshal(errorResponse{Error: "source too large"})
	}

	res, err := c.server.Scan(context.Background(), req)
	if err != nil {
		logger.WebSocketError("scan for %s could not be recorded: %v", c.clientID, err)
		return c.marshal(errorResponse{Error: "failed to record scan"})
	}
	return c.marshal(res)
}

func (c *wsClient) marshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		logger.WebSocketError("failed to encode reply for %s: %v", c.clientID, err)
		data, _ = json.Marshal(errorResponse{Error: "internal error"})
	}
	return data
}

// writePump sends queued replies and keeps the connection alive with pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(c.pingPeriod())
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.server.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.WebSocketWarn("write to %s failed: %v", c.clientID, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.server.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.WebSocketDebug("ping to %s failed: %v", c.clientID, err)
				return
			}
		case <-c.done:
			return
		}
	}
}
