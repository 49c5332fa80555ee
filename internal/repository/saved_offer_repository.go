package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/offer-marketplace/internal/model"
	"github.com/fairyhunter13/offer-marketplace/internal/service"
	"github.com/fairyhunter13/offer-marketplace/pkg/database"
)

// SavedOfferRepository stores customer bookmarks.
type SavedOfferRepository struct {
	pool PoolInterface
}

// NewSavedOfferRepository creates a new SavedOfferRepository with the given pool.
func NewSavedOfferRepository(pool *pgxpool.Pool) *SavedOfferRepository {
	return &SavedOfferRepository{pool: pool}
}

// NewSavedOfferRepositoryWithPool creates a new SavedOfferRepository with a custom pool interface.
// This is primarily used for testing.
func NewSavedOfferRepositoryWithPool(pool PoolInterface) *SavedOfferRepository {
	return &SavedOfferRepository{pool: pool}
}

// Save bookmarks an offer. Saving twice is a no-op.
// Returns service.ErrOfferNotFound when the offer does not exist.
func (r *SavedOfferRepository) Save(ctx context.Context, customerID, offerID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO saved_offers (id, customer_id, offer_id) VALUES ($1, $2, $3)
		ON CONFLICT (customer_id, offer_id) DO NOTHING`,
		uuid.NewString(), customerID, offerID)
	if err != nil {
		if database.HasCode(err, database.ForeignKeyViolation) {
			return service.ErrOfferNotFound
		}
		return fmt.Errorf("save offer: %w", err)
	}
	return nil
}

// Unsave removes a bookmark. Removing a missing bookmark is a no-op.
func (r *SavedOfferRepository) Unsave(ctx context.Context, customerID, offerID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM saved_offers WHERE customer_id = $1 AND offer_id = $2`, customerID, offerID)
	if err != nil {
		return fmt.Errorf("unsave offer: %w", err)
	}
	return nil
}

// ListByCustomer returns the saved offers of a customer, most recently saved first.
func (r *SavedOfferRepository) ListByCustomer(ctx context.Context, customerID string) ([]model.OfferListing, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+listingColumns+listingFrom+`
		JOIN saved_offers s ON s.offer_id = o.id
		WHERE s.customer_id = $1
		ORDER BY s.created_at DESC, o.id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list saved offers: %w", err)
	}
	list, err := collect(rows, func(row pgx.Rows) (model.OfferListing, error) { return scanListing(row) })
	if err != nil {
		return nil, fmt.Errorf("scan saved offers: %w", err)
	}
	return list, nil
}
