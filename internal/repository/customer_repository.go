package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/offer-marketplace/internal/model"
)

const customerColumns = `id, account_id, session_token, session_expires_at, created_at`

// CustomerRepository stores registered customers and guest sessions.
type CustomerRepository struct {
	pool PoolInterface
}

// NewCustomerRepository creates a new CustomerRepository with the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// NewCustomerRepositoryWithPool creates a new CustomerRepository with a custom pool interface.
// This is primarily used for testing.
func NewCustomerRepositoryWithPool(pool PoolInterface) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

func scanCustomer(row pgx.Row) (*model.Customer, error) {
	var c model.Customer
	if err := row.Scan(&c.ID, &c.AccountID, &c.SessionToken, &c.SessionExpiresAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateRegistered ensures a customer row keyed by the account ID exists.
func (r *CustomerRepository) CreateRegistered(ctx context.Context, accountID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO customers (id, account_id) VALUES ($1, $1) ON CONFLICT (id) DO NOTHING`, accountID)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// CreateGuest starts an anonymous customer session.
func (r *CustomerRepository) CreateGuest(ctx context.Context, token string, expiresAt time.Time) (*model.Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx,
		`INSERT INTO customers (id, session_token, session_expires_at) VALUES ($1, $2, $3)
		RETURNING `+customerColumns,
		uuid.NewString(), token, expiresAt))
	if err != nil {
		return nil, fmt.Errorf("insert guest customer: %w", err)
	}
	return c, nil
}

// GetBySessionToken returns the guest customer whose session is still valid at now,
// or nil, nil.
func (r *CustomerRepository) GetBySessionToken(ctx context.Context, token string, now time.Time) (*model.Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers
		WHERE session_token = $1 AND session_expires_at > $2`, token, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer by session: %w", err)
	}
	return c, nil
}

// GetByID returns nil, nil if the customer does not exist.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer %s: %w", id, err)
	}
	return c, nil
}

// TouchGuestSession slides a guest session's expiry forward.
func (r *CustomerRepository) TouchGuestSession(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE customers SET session_expires_at = $2 WHERE id = $1 AND account_id IS NULL`, id, expiresAt)
	if err != nil {
		return fmt.Errorf("touch guest session %s: %w", id, err)
	}
	return nil
}
