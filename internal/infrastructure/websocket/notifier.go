package websocket

import (
	"context"

	"auction-engine/internal/domain"
)

// WebSocketNotifier adapts the connection manager to the notifier interfaces
// used by the event listener.
type WebSocketNotifier struct {
	connManager domain.ConnectionManager
}

func NewWebSocketNotifier(connManager domain.ConnectionManager) *WebSocketNotifier {
	return &WebSocketNotifier{connManager: connManager}
}

func (n *WebSocketNotifier) NotifyUser(ctx context.Context, auctionID, userID string, message interface{}) error {
	return n.connManager.NotifyUserInAuction(auctionID, userID, message)
}

func (n *WebSocketNotifier) BroadcastToAuction(ctx context.Context, auctionID string, message interface{}) error {
	return n.connManager.BroadcastToAuction(auctionID, message)
}

func (n *WebSocketNotifier) BroadcastToAll(ctx context.Context, message interface{}) error {
	return n.connManager.BroadcastToAll(message)
}
