package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/offer-marketplace/internal/identity"
	"github.com/fairyhunter13/offer-marketplace/internal/model"
	"github.com/fairyhunter13/offer-marketplace/pkg/database"
)

// AccountRepository stores identity accounts. It implements identity.AccountStore.
type AccountRepository struct {
	pool PoolInterface
}

// NewAccountRepository creates a new AccountRepository with the given pool.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// NewAccountRepositoryWithPool creates a new AccountRepository with a custom pool interface.
// This is primarily used for testing.
func NewAccountRepositoryWithPool(pool PoolInterface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts an account. Returns identity.ErrEmailTaken on duplicate email.
func (r *AccountRepository) Create(ctx context.Context, acct *model.Account) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (id, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		acct.ID, acct.Email, acct.PasswordHash, acct.Role).Scan(&acct.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return identity.ErrEmailTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByEmail returns nil, nil if no account has the email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.getOne(ctx, `SELECT id, email, password_hash, role, created_at FROM accounts WHERE email = $1`, email)
}

// GetByID returns nil, nil if the account does not exist.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return r.getOne(ctx, `SELECT id, email, password_hash, role, created_at FROM accounts WHERE id = $1`, id)
}

func (r *AccountRepository) getOne(ctx context.Context, query string, arg string) (*model.Account, error) {
	var acct model.Account
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&acct.ID,
		&acct.Email,
		&acct.PasswordHash,
		&acct.Role,
		&acct.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &acct, nil
}

// UpdatePassword replaces the password hash. Returns identity.ErrAccountNotFound
// when no row matched.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrAccountNotFound
	}
	return nil
}

// Delete removes an account and, through cascades, its profile rows.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}
