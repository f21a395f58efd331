package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"auction-engine/internal/domain"
	"auction-engine/internal/services"
	"auction-engine/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// AuctionService is the operator surface of the auction manager.
type AuctionService interface {
	CreateAuction(ctx context.Context, req services.CreateAuctionRequest) (*domain.Auction, error)
	GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error)
	CancelAuction(ctx context.Context, auctionID string) (*domain.Auction, error)
	RegisterBidder(ctx context.Context, auctionID, userID string) (*domain.Registration, error)
	ApproveRegistration(ctx context.Context, auctionID, userID string) (*domain.Registration, error)
	RejectRegistration(ctx context.Context, auctionID, userID string) (*domain.Registration, error)
	Snapshot(ctx context.Context, auctionID string) (*domain.AuctionSnapshot, error)
	GetWinner(ctx context.Context, auctionID string) (*domain.AuctionWinner, error)
}

type BidHistoryReader interface {
	GetBidHistory(ctx context.Context, auctionID string) ([]*domain.Bid, error)
}

type AuctionHandler struct {
	auctionManager AuctionService
	bids           BidHistoryReader
	log            logger.Logger
}

type CreateAuctionRequest struct {
	ItemID        string          `json:"item_id"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	BidIncrement  decimal.Decimal `json:"bid_increment"`
}

type RegisterBidderRequest struct {
	UserID string `json:"user_id"`
}

type AuctionResponse struct {
	AuctionID      string              `json:"auction_id"`
	ItemID         string              `json:"item_id"`
	StartTime      time.Time           `json:"start_time"`
	EndTime        time.Time           `json:"end_time"`
	Status         string              `json:"status"`
	StartingPrice  decimal.Decimal     `json:"starting_price"`
	BidIncrement   decimal.Decimal     `json:"bid_increment"`
	CurrentPrice   decimal.NullDecimal `json:"current_price"`
	LeaderID       string              `json:"leader_id,omitempty"`
	MinimumNextBid decimal.Decimal     `json:"minimum_next_bid"`
}

func newAuctionResponse(a *domain.Auction) AuctionResponse {
	return AuctionResponse{
		AuctionID:      a.ID,
		ItemID:         a.ItemID,
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
		Status:         a.Status.String(),
		StartingPrice:  a.StartingPrice,
		BidIncrement:   a.BidIncrement,
		CurrentPrice:   a.CurrentPrice,
		LeaderID:       a.LeaderID,
		MinimumNextBid: a.MinimumNextBid(),
	}
}

func NewAuctionHandler(auctionManager AuctionService, bids BidHistoryReader, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		auctionManager: auctionManager,
		bids:           bids,
		log:            log,
	}
}

// Register mounts the admin routes on g.
func (h *AuctionHandler) Register(g *echo.Group) {
	g.POST("/auctions", h.CreateAuction)
	g.GET("/auctions/:id", h.GetAuction)
	g.POST("/auctions/:id/cancel", h.CancelAuction)
	g.GET("/auctions/:id/snapshot", h.GetSnapshot)
	g.GET("/auctions/:id/bids", h.GetBidHistory)
	g.GET("/auctions/:id/winner", h.GetWinner)
	g.POST("/auctions/:id/registrations", h.RegisterBidder)
	g.POST("/auctions/:id/registrations/:user_id/approve", h.ApproveRegistration)
	g.POST("/auctions/:id/registrations/:user_id/reject", h.RejectRegistration)
}

func (h *AuctionHandler) CreateAuction(c echo.Context) error {
	var req CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	auction, err := h.auctionManager.CreateAuction(c.Request().Context(), services.CreateAuctionRequest{
		ItemID:        req.ItemID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		StartingPrice: req.StartingPrice,
		BidIncrement:  req.BidIncrement,
	})
	if err != nil {
		return h.fail(c, "Failed to create auction", err)
	}

	return c.JSON(http.StatusCreated, newAuctionResponse(auction))
}

func (h *AuctionHandler) GetAuction(c echo.Context) error {
	auction, err := h.auctionManager.GetAuction(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, "Failed to get auction", err)
	}
	return c.JSON(http.StatusOK, newAuctionResponse(auction))
}

func (h *AuctionHandler) CancelAuction(c echo.Context) error {
	auction, err := h.auctionManager.CancelAuction(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, "Failed to cancel auction", err)
	}
	return c.JSON(http.StatusOK, newAuctionResponse(auction))
}

func (h *AuctionHandler) GetSnapshot(c echo.Context) error {
	snapshot, err := h.auctionManager.Snapshot(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, "Failed to get snapshot", err)
	}
	return c.JSON(http.StatusOK, snapshot)
}

func (h *AuctionHandler) GetBidHistory(c echo.Context) error {
	auctionID := c.Param("id")
	if _, err := h.auctionManager.GetAuction(c.Request().Context(), auctionID); err != nil {
		return h.fail(c, "Failed to get auction", err)
	}

	bids, err := h.bids.GetBidHistory(c.Request().Context(), auctionID)
	if err != nil {
		return h.fail(c, "Failed to get bid history", err)
	}
	if bids == nil {
		bids = []*domain.Bid{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"auction_id": auctionID,
		"bids":       bids,
	})
}

func (h *AuctionHandler) GetWinner(c echo.Context) error {
	winner, err := h.auctionManager.GetWinner(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, "Failed to get winner", err)
	}
	return c.JSON(http.StatusOK, winner)
}

func (h *AuctionHandler) RegisterBidder(c echo.Context) error {
	var req RegisterBidderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	registration, err := h.auctionManager.RegisterBidder(c.Request().Context(), c.Param("id"), req.UserID)
	if err != nil {
		return h.fail(c, "Failed to register bidder", err)
	}
	return c.JSON(http.StatusCreated, registration)
}

func (h *AuctionHandler) ApproveRegistration(c echo.Context) error {
	registration, err := h.auctionManager.ApproveRegistration(c.Request().Context(), c.Param("id"), c.Param("user_id"))
	if err != nil {
		return h.fail(c, "Failed to approve registration", err)
	}
	return c.JSON(http.StatusOK, registration)
}

func (h *AuctionHandler) RejectRegistration(c echo.Context) error {
	registration, err := h.auctionManager.RejectRegistration(c.Request().Context(), c.Param("id"), c.Param("user_id"))
	if err != nil {
		return h.fail(c, "Failed to reject registration", err)
	}
	return c.JSON(http.StatusOK, registration)
}

func (h *AuctionHandler) fail(c echo.Context, msg string, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error(msg, "path", c.Path(), "error", err)
		return c.JSON(status, map[string]string{"error": msg})
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAuctionNotFound),
		errors.Is(err, domain.ErrRegistrationNotFound),
		errors.Is(err, domain.ErrWinnerNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAuction),
		errors.Is(err, domain.ErrInvalidBid):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrRegistrationExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
