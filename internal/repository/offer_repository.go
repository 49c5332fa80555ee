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
	"github.com/fairyhunter13/offer-marketplace/internal/service"
	"github.com/fairyhunter13/offer-marketplace/pkg/database"
)

// offerColumns selects an offer with its owning business, aliased o/p.
const offerColumns = `o.id, o.product_id, p.business_id, o.title, o.description, o.discount_percentage,
	o.start_date, o.expiry_date, o.max_claims, o.current_claims, o.is_active, o.created_at, o.updated_at`

// listingColumns extends offerColumns with the product and business summary.
const listingColumns = offerColumns + `, p.name, p.price, b.name`

const listingFrom = ` FROM offers o
	JOIN products p ON p.id = o.product_id
	JOIN businesses b ON b.id = p.business_id`

// OfferRepository provides data access for offers using pgx.
type OfferRepository struct {
	pool PoolInterface
}

// NewOfferRepository creates a new OfferRepository with the given pool.
func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// NewOfferRepositoryWithPool creates a new OfferRepository with a custom pool interface.
// This is primarily used for testing.
func NewOfferRepositoryWithPool(pool PoolInterface) *OfferRepository {
	return &OfferRepository{pool: pool}
}

func offerDest(o *model.Offer) []any {
	return []any{
		&o.ID,
		&o.ProductID,
		&o.BusinessID,
		&o.Title,
		&o.Description,
		&o.DiscountPercentage,
		&o.StartDate,
		&o.ExpiryDate,
		&o.MaxClaims,
		&o.CurrentClaims,
		&o.IsActive,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
}

func scanOffer(row pgx.Row) (*model.Offer, error) {
	var o model.Offer
	if err := row.Scan(offerDest(&o)...); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanListing(row pgx.Row) (model.OfferListing, error) {
	var l model.OfferListing
	dest := append(offerDest(&l.Offer), &l.ProductName, &l.ProductPrice, &l.BusinessName)
	err := row.Scan(dest...)
	return l, err
}

// Insert creates an offer. The product must already exist.
func (r *OfferRepository) Insert(ctx context.Context, o *model.Offer) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO offers (id, product_id, title, description, discount_percentage,
			start_date, expiry_date, max_claims, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING current_claims, created_at, updated_at`,
		o.ID, o.ProductID, o.Title, o.Description, o.DiscountPercentage,
		o.StartDate, o.ExpiryDate, o.MaxClaims, o.IsActive,
	).Scan(&o.CurrentClaims, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if database.HasCode(err, database.ForeignKeyViolation) {
			return service.ErrProductNotFound
		}
		return fmt.Errorf("insert offer: %w", err)
	}
	return nil
}

// GetByID retrieves an offer through db, which may be the pool or a transaction.
// Returns nil, nil if the offer is not found.
func (r *OfferRepository) GetByID(ctx context.Context, db database.TxQuerier, id string) (*model.Offer, error) {
	if db == nil {
		db = r.pool
	}
	o, err := scanOffer(db.QueryRow(ctx,
		`SELECT `+offerColumns+` FROM offers o JOIN products p ON p.id = o.product_id WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get offer %s: %w", id, err)
	}
	return o, nil
}

// GetListing retrieves an offer with its product and business summary.
// Returns nil, nil if the offer is not found.
func (r *OfferRepository) GetListing(ctx context.Context, id string) (*model.OfferListing, error) {
	return r.getListing(ctx, `SELECT `+listingColumns+listingFrom+` WHERE o.id = $1`, id)
}

// GetPublicListing is GetListing restricted to what customers may see: the
// offer is switched on and its business has an active subscription. Expired
// and scheduled offers stay visible so clients can show their state.
// Returns nil, nil otherwise.
func (r *OfferRepository) GetPublicListing(ctx context.Context, id string) (*model.OfferListing, error) {
	return r.getListing(ctx,
		`SELECT `+listingColumns+listingFrom+`
		WHERE o.id = $1 AND o.is_active AND b.subscription_status = 'active'`, id)
}

func (r *OfferRepository) getListing(ctx context.Context, sql, id string) (*model.OfferListing, error) {
	l, err := scanListing(r.pool.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get offer listing %s: %w", id, err)
	}
	return &l, nil
}

// ListPublic returns claimable-looking offers: active, inside their window,
// from businesses with an active subscription, soonest expiry first.
// Sold out offers are included so clients can show them as such.
func (r *OfferRepository) ListPublic(ctx context.Context, now time.Time, f model.OfferFilter) ([]model.OfferListing, error) {
	limit, offset := page(f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx,
		`SELECT `+listingColumns+listingFrom+`
		WHERE o.is_active
			AND o.start_date <= $1 AND o.expiry_date >= $1
			AND b.subscription_status = 'active'
			AND ($2 = '' OR p.business_id::text = $2)
		ORDER BY o.expiry_date, o.id
		LIMIT $3 OFFSET $4`,
		now, f.BusinessID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list public offers: %w", err)
	}
	list, err := collect(rows, func(row pgx.Rows) (model.OfferListing, error) { return scanListing(row) })
	if err != nil {
		return nil, fmt.Errorf("scan offers: %w", err)
	}
	return list, nil
}

// ListByBusiness returns every offer of a business regardless of state, newest first.
func (r *OfferRepository) ListByBusiness(ctx context.Context, businessID string, f model.OfferFilter) ([]model.OfferListing, error) {
	limit, offset := page(f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx,
		`SELECT `+listingColumns+listingFrom+`
		WHERE p.business_id = $1
		ORDER BY o.created_at DESC, o.id
		LIMIT $2 OFFSET $3`,
		businessID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list business offers: %w", err)
	}
	list, err := collect(rows, func(row pgx.Rows) (model.OfferListing, error) { return scanListing(row) })
	if err != nil {
		return nil, fmt.Errorf("scan offers: %w", err)
	}
	return list, nil
}

// Update writes the editable offer fields. When reschedule is set the write
// only applies while the stored offer has not expired at now, so a window
// can never be reopened after the offer lapsed.
// Returns service.ErrCannotExtendExpired when that guard rejected the write
// and service.ErrMaxClaimsBelowCurrent when concurrent claims overtook a lowered cap.
func (r *OfferRepository) Update(ctx context.Context, o *model.Offer, reschedule bool, now time.Time) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE offers SET title = $2, description = $3, discount_percentage = $4,
			start_date = $5, expiry_date = $6, max_claims = $7, updated_at = NOW()
		WHERE id = $1 AND (NOT $8 OR expiry_date >= $9)
		RETURNING current_claims, updated_at`,
		o.ID, o.Title, o.Description, o.DiscountPercentage, o.StartDate, o.ExpiryDate, o.MaxClaims,
		reschedule, now,
	).Scan(&o.CurrentClaims, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.updateMiss(ctx, o.ID, reschedule)
		}
		if database.HasCode(err, database.CheckViolation) {
			return service.ErrMaxClaimsBelowCurrent
		}
		return fmt.Errorf("update offer %s: %w", o.ID, err)
	}
	return nil
}

// updateMiss tells a missing offer apart from one the expiry guard protected.
func (r *OfferRepository) updateMiss(ctx context.Context, id string, reschedule bool) error {
	if !reschedule {
		return service.ErrOfferNotFound
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM offers WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("recheck offer %s: %w", id, err)
	}
	if exists {
		return service.ErrCannotExtendExpired
	}
	return service.ErrOfferNotFound
}

// SetActive toggles is_active. Activation only applies while the offer has
// not expired at now; it reports false when that guard rejected the write.
func (r *OfferRepository) SetActive(ctx context.Context, id string, active bool, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE offers SET is_active = $2, updated_at = NOW()
		WHERE id = $1 AND (NOT $2 OR expiry_date >= $3)`,
		id, active, now)
	if err != nil {
		return false, fmt.Errorf("set offer %s active: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes an offer. Returns service.ErrOfferHasClaims once any
// customer has claimed it.
func (r *OfferRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		if database.HasCode(err, database.ForeignKeyViolation) {
			return service.ErrOfferHasClaims
		}
		return fmt.Errorf("delete offer %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrOfferNotFound
	}
	return nil
}

// IncrementClaims is the compare-and-swap on the claim counter. The row is
// only updated while every admission precondition still holds at write time,
// so current_claims can never pass max_claims. Returns nil, nil when the
// guard rejected the update.
func (r *OfferRepository) IncrementClaims(ctx context.Context, tx database.TxQuerier, id string, now time.Time) (*model.Offer, error) {
	o, err := scanOffer(tx.QueryRow(ctx,
		`UPDATE offers o SET current_claims = o.current_claims + 1, updated_at = NOW()
		FROM products p
		WHERE p.id = o.product_id
			AND o.id = $1
			AND o.is_active
			AND o.start_date <= $2 AND o.expiry_date >= $2
			AND (o.max_claims IS NULL OR o.current_claims < o.max_claims)
		RETURNING `+offerColumns,
		id, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("increment claims for %s: %w", id, err)
	}
	return o, nil
}
