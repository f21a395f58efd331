package domain

import "github.com/shopspring/decimal"

type OutcomeStatus string

const (
	OutcomeAccepted OutcomeStatus = "accepted"
	OutcomeRejected OutcomeStatus = "rejected"
)

// RejectReason is a stable, machine-readable code attached to rejected bids.
type RejectReason string

const (
	ReasonAuctionNotFound     RejectReason = "auction_not_found"
	ReasonAuctionNotActive    RejectReason = "auction_not_active"
	ReasonOutsideTimeWindow   RejectReason = "outside_time_window"
	ReasonBidderNotRegistered RejectReason = "bidder_not_registered"
	ReasonBelowMinimum        RejectReason = "below_minimum"
	ReasonConcurrentUpdate    RejectReason = "concurrent_update"
)

// BidOutcome is the result of running one queued request through the processor.
// Exactly one of Bid (accepted) or Reason (rejected) is meaningful.
type BidOutcome struct {
	Request *BidRequest
	Status  OutcomeStatus
	Bid     *Bid
	Reason  RejectReason
	// Minimum is set for below_minimum rejections.
	Minimum decimal.NullDecimal
}

func Accepted(req *BidRequest, bid *Bid) BidOutcome {
	return BidOutcome{Request: req, Status: OutcomeAccepted, Bid: bid}
}

func Rejected(req *BidRequest, reason RejectReason) BidOutcome {
	return BidOutcome{Request: req, Status: OutcomeRejected, Reason: reason}
}

func RejectedBelowMinimum(req *BidRequest, minimum decimal.Decimal) BidOutcome {
	out := Rejected(req, ReasonBelowMinimum)
	out.Minimum = decimal.NewNullDecimal(minimum)
	return out
}

func (o BidOutcome) IsAccepted() bool {
	return o.Status == OutcomeAccepted
}
