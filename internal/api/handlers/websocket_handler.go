package handlers

import (
	"net/http"

	"auction-engine/internal/domain"
	"auction-engine/internal/infrastructure/websocket"
	"auction-engine/pkg/logger"
)

type WebSocketHandlers struct {
	wsHandler *websocket.WebSocketHandler
}

func NewWebSocketHandlers(bidService websocket.BidSubmitter, snapshots websocket.SnapshotReader,
	connManager domain.ConnectionManager, cfg websocket.ConnectionConfig, log logger.Logger) *WebSocketHandlers {
	wsHandler := websocket.NewWebSocketHandler(bidService, snapshots, connManager, cfg, log)
	return &WebSocketHandlers{
		wsHandler: wsHandler,
	}
}

func (h *WebSocketHandlers) HandleConnection(w http.ResponseWriter, r *http.Request) {
	h.wsHandler.HandleConnection(w, r)
}
