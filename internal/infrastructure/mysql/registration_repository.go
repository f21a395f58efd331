package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"auction-engine/internal/domain"
)

type MySQLRegistrationRepository struct {
	db *sql.DB
}

func NewMySQLRegistrationRepository(db *sql.DB) *MySQLRegistrationRepository {
	return &MySQLRegistrationRepository{db: db}
}

func (r *MySQLRegistrationRepository) CreateRegistration(ctx context.Context, registration *domain.Registration) error {
	query := `
        INSERT INTO registrations (auction_id, user_id, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		registration.AuctionID, registration.UserID, string(registration.Status),
		registration.CreatedAt.UTC(), registration.UpdatedAt.UTC())
	if isDuplicateKey(err) {
		return fmt.Errorf("register %s for %s: %w", registration.UserID, registration.AuctionID, domain.ErrRegistrationExists)
	}
	if err != nil {
		return fmt.Errorf("register %s for %s: %w", registration.UserID, registration.AuctionID, err)
	}
	return nil
}

func (r *MySQLRegistrationRepository) UpdateRegistrationStatus(ctx context.Context, auctionID, userID string,
	status domain.RegistrationStatus) error {
	query := `UPDATE registrations SET status = ?, updated_at = ? WHERE auction_id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, query, string(status), time.Now().UTC(), auctionID, userID)
	if err != nil {
		return fmt.Errorf("update registration %s/%s: %w", auctionID, userID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update registration %s/%s: %w", auctionID, userID, err)
	}
	if affected == 0 {
		return fmt.Errorf("update registration %s/%s: %w", auctionID, userID, domain.ErrRegistrationNotFound)
	}
	return nil
}

func (r *MySQLRegistrationRepository) GetRegistration(ctx context.Context, auctionID, userID string) (*domain.Registration, error) {
	query := `
        SELECT auction_id, user_id, status, created_at, updated_at
        FROM registrations WHERE auction_id = ? AND user_id = ?
    `

	var registration domain.Registration
	var status string
	err := r.db.QueryRowContext(ctx, query, auctionID, userID).Scan(
		&registration.AuctionID, &registration.UserID, &status,
		&registration.CreatedAt, &registration.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get registration %s/%s: %w", auctionID, userID, domain.ErrRegistrationNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get registration %s/%s: %w", auctionID, userID, err)
	}

	registration.Status = domain.RegistrationStatus(status)
	return &registration, nil
}

func (r *MySQLRegistrationRepository) IsApproved(ctx context.Context, auctionID, userID string) (bool, error) {
	registration, err := r.GetRegistration(ctx, auctionID, userID)
	if errors.Is(err, domain.ErrRegistrationNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return registration.Status == domain.RegistrationApproved, nil
}
