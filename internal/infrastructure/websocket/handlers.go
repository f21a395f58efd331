package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"auction-engine/internal/domain"
	"auction-engine/internal/services"
	"auction-engine/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin policy is enforced by the edge proxy
	},
}

const maxMessageSize = 4096

type BidSubmitter interface {
	SubmitBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*services.BidAck, error)
}

type SnapshotReader interface {
	Snapshot(ctx context.Context, auctionID string) (*domain.AuctionSnapshot, error)
}

// clientMessage is anything a client may send over the socket.
type clientMessage struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

type WebSocketHandler struct {
	bidService  BidSubmitter
	snapshots   SnapshotReader
	connManager domain.ConnectionManager
	cfg         ConnectionConfig
	log         logger.Logger
}

func NewWebSocketHandler(bidService BidSubmitter, snapshots SnapshotReader,
	connManager domain.ConnectionManager, cfg ConnectionConfig, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		bidService:  bidService,
		snapshots:   snapshots,
		connManager: connManager,
		cfg:         cfg,
		log:         log,
	}
}

// HandleConnection joins the caller to an auction. The socket is registered
// for the auction's events before the snapshot is read, so an event published
// meanwhile reaches the socket too; clients order the two by version.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	auctionID := mux.Vars(r)["auctionID"]

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	snapshot, err := h.snapshots.Snapshot(r.Context(), auctionID)
	if errors.Is(err, domain.ErrAuctionNotFound) {
		http.Error(w, "auction not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("Failed to load auction snapshot", "auction_id", auctionID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if snapshot.Status.IsTerminal() {
		h.log.Info("Rejected connection - auction is over", "auction_id", auctionID, "status", snapshot.Status)
		http.Error(w, "auction is "+snapshot.Status.String(), http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	wsConn := NewWebSocketConnection(conn, userID, auctionID, h.cfg, h.log)
	go wsConn.WritePump()

	if err := h.connManager.RegisterConnection(userID, auctionID, wsConn); err != nil {
		h.log.Error("Failed to register connection", "error", err)
		wsConn.Close()
		return
	}

	snapshot, err = h.snapshots.Snapshot(context.Background(), auctionID)
	if err != nil {
		h.log.Error("Failed to reload auction snapshot", "auction_id", auctionID, "error", err)
		wsConn.Send(map[string]string{"type": "error", "message": "snapshot unavailable"})
		h.connManager.UnregisterConnection(userID, auctionID, wsConn)
		wsConn.Close()
		return
	}
	h.sendSnapshot(wsConn, snapshot)

	// Closed or canceled between the first read and registration: the
	// auction_closed broadcast may already be gone, the snapshot says it instead.
	if snapshot.Status.IsTerminal() {
		h.connManager.UnregisterConnection(userID, auctionID, wsConn)
		wsConn.Close()
		return
	}

	go h.handleMessages(wsConn, conn)
}

func (h *WebSocketHandler) handleMessages(wsConn *WebSocketConnection, conn *websocket.Conn) {
	userID, auctionID := wsConn.UserID(), wsConn.AuctionID()
	defer func() {
		h.connManager.UnregisterConnection(userID, auctionID, wsConn)
		wsConn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	if h.cfg.PingInterval > 0 {
		readWait := 2 * h.cfg.PingInterval
		conn.SetReadDeadline(time.Now().Add(readWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readWait))
		})
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("Connection read failed", "user_id", userID, "auction_id", auctionID, "error", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			wsConn.Send(map[string]string{"type": "error", "message": "invalid message"})
			continue
		}

		switch msg.Type {
		case "place_bid":
			h.handleBidMessage(wsConn, msg)
		case "join":
			// Resync: observers that may have missed events ask for a fresh snapshot.
			snapshot, err := h.snapshots.Snapshot(context.Background(), auctionID)
			if err != nil {
				wsConn.Send(map[string]string{"type": "error", "message": "snapshot unavailable"})
				continue
			}
			h.sendSnapshot(wsConn, snapshot)
		case "leave":
			return
		case "ping":
			wsConn.Send(map[string]string{"type": "pong"})
		default:
			wsConn.Send(map[string]string{"type": "error", "message": "unknown message type"})
		}
	}
}

func (h *WebSocketHandler) handleBidMessage(wsConn *WebSocketConnection, msg clientMessage) {
	ack, err := h.bidService.SubmitBid(context.Background(), wsConn.AuctionID(), wsConn.UserID(), msg.Amount)
	if errors.Is(err, domain.ErrInvalidBid) {
		wsConn.Send(map[string]string{"type": "error", "message": err.Error()})
		return
	}
	if err != nil {
		h.log.Error("Failed to place bid", "auction_id", wsConn.AuctionID(), "user_id", wsConn.UserID(), "error", err)
		wsConn.Send(map[string]string{"type": "error", "message": "failed to place bid"})
		return
	}

	wsConn.Send(map[string]interface{}{
		"type":        "bid_received",
		"request_id":  ack.RequestID,
		"auction_id":  ack.AuctionID,
		"status":      ack.Status,
		"message":     ack.Message,
		"received_at": ack.ReceivedAt,
	})
}

func (h *WebSocketHandler) sendSnapshot(wsConn *WebSocketConnection, snapshot *domain.AuctionSnapshot) {
	wsConn.Send(map[string]interface{}{
		"type":             "snapshot",
		"auction_id":       snapshot.AuctionID,
		"status":           snapshot.Status,
		"current_price":    snapshot.CurrentPrice,
		"leader_id":        snapshot.LeaderID,
		"minimum_next_bid": snapshot.MinimumNextBid,
		"end_time":         snapshot.EndTime,
		"version":          snapshot.Version,
	})
}
