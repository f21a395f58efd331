package domain

import "errors"

// Store-level errors
var (
	ErrAuctionNotFound      = errors.New("auction not found")
	ErrVersionConflict      = errors.New("auction version conflict")
	ErrInvalidTransition    = errors.New("invalid auction status transition")
	ErrWinnerExists         = errors.New("auction winner already recorded")
	ErrWinnerNotFound       = errors.New("auction winner not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrRegistrationExists   = errors.New("registration already exists")
	ErrSnapshotNotFound     = errors.New("auction snapshot not cached")
	ErrQueueEmpty           = errors.New("bid queue empty")
	ErrMalformedRequest     = errors.New("malformed queued bid request")
	ErrLockNotHeld          = errors.New("lock not held")
	ErrUnknownStatus        = errors.New("unknown auction status")
)

// Input errors
var (
	ErrInvalidBid     = errors.New("invalid bid")
	ErrInvalidAuction = errors.New("invalid auction")
)
