package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"auction-engine/internal/services"
	"auction-engine/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type BidSubmitter interface {
	SubmitBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*services.BidAck, error)
}

// BidHandler is the HTTP submission path. It only queues; the outcome is
// pushed to the bidder over the realtime channel.
type BidHandler struct {
	bidService BidSubmitter
	log        logger.Logger
}

type PlaceBidRequest struct {
	BidderID string          `json:"bidder_id"`
	Amount   decimal.Decimal `json:"amount"`
}

func NewBidHandler(bidService BidSubmitter, log logger.Logger) *BidHandler {
	return &BidHandler{bidService: bidService, log: log}
}

func (h *BidHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	auctionID := mux.Vars(r)["id"]

	var req PlaceBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	ack, err := h.bidService.SubmitBid(r.Context(), auctionID, req.BidderID, req.Amount)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Error("Failed to submit bid", "auction_id", auctionID, "bidder_id", req.BidderID, "error", err)
			writeJSON(w, status, map[string]string{"error": "Failed to submit bid"})
			return
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, ack)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
