package mysql

import (
	"context"
	"testing"

	"auction-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationRepository_IsApproved(t *testing.T) {
	repo := NewMySQLRegistrationRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.CreateRegistration(ctx, &domain.Registration{
		AuctionID: "a1", UserID: "alice", Status: domain.RegistrationPending, CreatedAt: baseTime, UpdatedAt: baseTime,
	}))

	approved, err := repo.IsApproved(ctx, "a1", "alice")
	require.NoError(t, err)
	assert.False(t, approved, "pending registrations do not admit bids")

	require.NoError(t, repo.UpdateRegistrationStatus(ctx, "a1", "alice", domain.RegistrationApproved))

	approved, err = repo.IsApproved(ctx, "a1", "alice")
	require.NoError(t, err)
	assert.True(t, approved)

	approved, err = repo.IsApproved(ctx, "a1", "mallory")
	require.NoError(t, err)
	assert.False(t, approved)

	approved, err = repo.IsApproved(ctx, "a2", "alice")
	require.NoError(t, err)
	assert.False(t, approved, "registrations are per auction")
}

func TestRegistrationRepository_UpdateMissing(t *testing.T) {
	repo := NewMySQLRegistrationRepository(newTestDB(t))

	err := repo.UpdateRegistrationStatus(context.Background(), "a1", "ghost", domain.RegistrationApproved)
	require.ErrorIs(t, err, domain.ErrRegistrationNotFound)

	_, err = repo.GetRegistration(context.Background(), "a1", "ghost")
	require.ErrorIs(t, err, domain.ErrRegistrationNotFound)
}
