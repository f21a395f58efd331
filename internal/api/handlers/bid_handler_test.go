package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"auction-engine/internal/domain"
	"auction-engine/internal/services"
	"auction-engine/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitFunc func(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*services.BidAck, error)

func (f submitFunc) SubmitBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*services.BidAck, error) {
	return f(ctx, auctionID, bidderID, amount)
}

func newBidRouter(submit submitFunc) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/auctions/{id}/bids", NewBidHandler(submit, logger.NewNop()).PlaceBid).Methods(http.MethodPost)
	return router
}

func TestBidHandler_PlaceBid(t *testing.T) {
	var gotAuction, gotBidder string
	var gotAmount decimal.Decimal
	router := newBidRouter(func(_ context.Context, auctionID, bidderID string, amount decimal.Decimal) (*services.BidAck, error) {
		gotAuction, gotBidder, gotAmount = auctionID, bidderID, amount
		return &services.BidAck{RequestID: "req-1", AuctionID: auctionID, Status: "received", Message: "processing"}, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auctions/a1/bids", strings.NewReader(`{"bidder_id":"alice","amount":"110000.50"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "a1", gotAuction)
	assert.Equal(t, "alice", gotBidder)
	assert.True(t, gotAmount.Equal(decimal.RequireFromString("110000.50")))

	var ack services.BidAck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "received", ack.Status)
	assert.Equal(t, "req-1", ack.RequestID)
}

func TestBidHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"malformed body", `{`, nil, http.StatusBadRequest},
		{"invalid bid", `{"bidder_id":"","amount":"1"}`, fmt.Errorf("%w: auction and bidder are required", domain.ErrInvalidBid), http.StatusBadRequest},
		{"queue down", `{"bidder_id":"alice","amount":"1"}`, errors.New("dial tcp: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newBidRouter(func(context.Context, string, string, decimal.Decimal) (*services.BidAck, error) {
				return nil, tt.err
			})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auctions/a1/bids", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}
