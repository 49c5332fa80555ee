package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/offer-marketplace/internal/model"
	"github.com/fairyhunter13/offer-marketplace/internal/service"
	"github.com/fairyhunter13/offer-marketplace/pkg/database"
)

const claimColumns = `c.id, c.customer_id, c.offer_id, c.status, c.claimed_at, c.redeemed_at`

// ClaimRepository provides data access for claimed offers using pgx.
type ClaimRepository struct {
	pool PoolInterface
}

// NewClaimRepository creates a new ClaimRepository with the given pool.
func NewClaimRepository(pool *pgxpool.Pool) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

// NewClaimRepositoryWithPool creates a new ClaimRepository with a custom pool interface.
// This is primarily used for testing.
func NewClaimRepositoryWithPool(pool PoolInterface) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

func claimDest(c *model.ClaimedOffer) []any {
	return []any{&c.ID, &c.CustomerID, &c.OfferID, &c.Status, &c.ClaimedAt, &c.RedeemedAt}
}

// Insert inserts a new claim within a transaction.
// Returns service.ErrAlreadyClaimed if the customer has already claimed this offer.
func (r *ClaimRepository) Insert(ctx context.Context, tx database.TxQuerier, c *model.ClaimedOffer) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = model.ClaimStatusActive
	}
	if c.ClaimedAt.IsZero() {
		c.ClaimedAt = time.Now()
	}
	err := tx.QueryRow(ctx,
		`INSERT INTO claimed_offers (id, customer_id, offer_id, status, claimed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING claimed_at`,
		c.ID, c.CustomerID, c.OfferID, c.Status, c.ClaimedAt,
	).Scan(&c.ClaimedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return service.ErrAlreadyClaimed
		}
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

// GetForUpdate locks a claim row for the rest of the transaction and returns
// it together with its offer's expiry date.
// Returns service.ErrClaimNotFound if the claim doesn't exist.
func (r *ClaimRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.ClaimedOffer, time.Time, error) {
	var c model.ClaimedOffer
	var expiry time.Time
	err := tx.QueryRow(ctx,
		`SELECT `+claimColumns+`, o.expiry_date
		FROM claimed_offers c JOIN offers o ON o.id = c.offer_id
		WHERE c.id = $1
		FOR UPDATE OF c`, id,
	).Scan(append(claimDest(&c), &expiry)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, time.Time{}, service.ErrClaimNotFound
		}
		return nil, time.Time{}, fmt.Errorf("get claim for update %s: %w", id, err)
	}
	return &c, expiry, nil
}

// ListByCustomer returns a customer's claims joined with their offer summary,
// newest first. Statuses are returned as stored.
func (r *ClaimRepository) ListByCustomer(ctx context.Context, customerID string) ([]model.ClaimView, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+claimColumns+`, o.title, o.expiry_date, o.discount_percentage, p.name, b.id, b.name
		FROM claimed_offers c
		JOIN offers o ON o.id = c.offer_id
		JOIN products p ON p.id = o.product_id
		JOIN businesses b ON b.id = p.business_id
		WHERE c.customer_id = $1
		ORDER BY c.claimed_at DESC, c.id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list claims for customer %s: %w", customerID, err)
	}
	list, err := collect(rows, func(row pgx.Rows) (model.ClaimView, error) {
		var v model.ClaimView
		var pct decimal.Decimal
		dest := append(claimDest(&v.ClaimedOffer),
			&v.OfferTitle, &v.OfferExpiryDate, &pct, &v.ProductName, &v.BusinessID, &v.BusinessName)
		if err := row.Scan(dest...); err != nil {
			return v, err
		}
		v.DiscountPercentage = pct.String()
		return v, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan claims: %w", err)
	}
	return list, nil
}

// MarkRedeemed moves an active claim to redeemed. It reports false when the
// claim was no longer active, so redeemed_at is never set twice.
func (r *ClaimRepository) MarkRedeemed(ctx context.Context, tx database.TxQuerier, id string, now time.Time) (bool, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE claimed_offers SET status = 'redeemed', redeemed_at = $2
		WHERE id = $1 AND status = 'active'`, id, now)
	if err != nil {
		return false, fmt.Errorf("mark claim %s redeemed: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkExpired moves the given active claims to expired and returns how many changed.
func (r *ClaimRepository) MarkExpired(ctx context.Context, db database.TxQuerier, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if db == nil {
		db = r.pool
	}
	tag, err := db.Exec(ctx,
		`UPDATE claimed_offers SET status = 'expired'
		WHERE id = ANY($1::uuid[]) AND status = 'active'`, ids)
	if err != nil {
		return 0, fmt.Errorf("mark claims expired: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ExpireOverdue persists the lazy expiry rule for every active claim whose
// offer ended before now.
func (r *ClaimRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE claimed_offers c SET status = 'expired'
		FROM offers o
		WHERE o.id = c.offer_id AND c.status = 'active' AND o.expiry_date < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("expire overdue claims: %w", err)
	}
	return tag.RowsAffected(), nil
}
