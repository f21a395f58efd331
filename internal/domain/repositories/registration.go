package repositories

import (
	"context"

	"auction-engine/internal/domain"
)

type RegistrationRepository interface {
	CreateRegistration(ctx context.Context, registration *domain.Registration) error
	UpdateRegistrationStatus(ctx context.Context, auctionID, userID string, status domain.RegistrationStatus) error
	GetRegistration(ctx context.Context, auctionID, userID string) (*domain.Registration, error)
	IsApproved(ctx context.Context, auctionID, userID string) (bool, error)
}
