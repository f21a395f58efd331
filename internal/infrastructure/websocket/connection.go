package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"auction-engine/pkg/logger"

	"github.com/gorilla/websocket"
)

var (
	ErrConnectionClosed = errors.New("websocket connection closed")
	ErrSendBufferFull   = errors.New("websocket send buffer full")
)

type ConnectionConfig struct {
	SendBuffer   int
	WriteTimeout time.Duration
	PingInterval time.Duration
}

// WebSocketConnection owns one client socket. Writes go through a buffered
// channel drained by a single writer goroutine, so a slow client never blocks
// the goroutine broadcasting to it; when the buffer is full the message is
// dropped for that client only.
type WebSocketConnection struct {
	conn      *websocket.Conn
	userID    string
	auctionID string
	cfg       ConnectionConfig
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	log       logger.Logger
}

func NewWebSocketConnection(conn *websocket.Conn, userID, auctionID string, cfg ConnectionConfig, log logger.Logger) *WebSocketConnection {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	return &WebSocketConnection{
		conn:      conn,
		userID:    userID,
		auctionID: auctionID,
		cfg:       cfg,
		send:      make(chan []byte, cfg.SendBuffer),
		done:      make(chan struct{}),
		log:       log.With("user_id", userID, "auction_id", auctionID),
	}
}

// Send queues message for the writer. Byte slices are sent as-is; anything
// else is JSON encoded.
func (wsc *WebSocketConnection) Send(message interface{}) error {
	data, ok := message.([]byte)
	if !ok {
		var err error
		if data, err = json.Marshal(message); err != nil {
			return err
		}
	}

	select {
	case <-wsc.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case wsc.send <- data:
		return nil
	default:
		wsc.log.Warn("Dropping message for slow client")
		return ErrSendBufferFull
	}
}

// Close stops the writer after it flushes what is already queued.
func (wsc *WebSocketConnection) Close() error {
	wsc.closeOnce.Do(func() {
		close(wsc.done)
	})
	return nil
}

func (wsc *WebSocketConnection) UserID() string {
	return wsc.userID
}

func (wsc *WebSocketConnection) AuctionID() string {
	return wsc.auctionID
}

// WritePump is the only goroutine that writes to the socket.
func (wsc *WebSocketConnection) WritePump() {
	var ping <-chan time.Time
	if wsc.cfg.PingInterval > 0 {
		ticker := time.NewTicker(wsc.cfg.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}
	defer wsc.conn.Close()

	for {
		select {
		case data := <-wsc.send:
			if err := wsc.write(websocket.TextMessage, data); err != nil {
				wsc.log.Debug("Write failed", "error", err)
				wsc.Close()
				return
			}
		case <-ping:
			if err := wsc.write(websocket.PingMessage, nil); err != nil {
				wsc.log.Debug("Ping failed", "error", err)
				wsc.Close()
				return
			}
		case <-wsc.done:
			wsc.flush()
			_ = wsc.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (wsc *WebSocketConnection) flush() {
	for {
		select {
		case data := <-wsc.send:
			if err := wsc.write(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (wsc *WebSocketConnection) write(messageType int, data []byte) error {
	if wsc.cfg.WriteTimeout > 0 {
		if err := wsc.conn.SetWriteDeadline(time.Now().Add(wsc.cfg.WriteTimeout)); err != nil {
			return err
		}
	}
	return wsc.conn.WriteMessage(messageType, data)
}
