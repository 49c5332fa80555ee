package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/offer-marketplace/internal/hours"
	"github.com/fairyhunter13/offer-marketplace/internal/model"
	"github.com/fairyhunter13/offer-marketplace/internal/service"
	"github.com/fairyhunter13/offer-marketplace/pkg/database"
)

const businessColumns = `id, owner_id, name, description, category, address, latitude, longitude,
	phone, website, logo_url, hours, subscription_status, created_at, updated_at`

// BusinessRepository provides data access for businesses using pgx.
type BusinessRepository struct {
	pool PoolInterface
}

// NewBusinessRepository creates a new BusinessRepository with the given pool.
func NewBusinessRepository(pool *pgxpool.Pool) *BusinessRepository {
	return &BusinessRepository{pool: pool}
}

// NewBusinessRepositoryWithPool creates a new BusinessRepository with a custom pool interface.
// This is primarily used for testing.
func NewBusinessRepositoryWithPool(pool PoolInterface) *BusinessRepository {
	return &BusinessRepository{pool: pool}
}

func scanBusiness(row pgx.Row) (*model.Business, error) {
	var b model.Business
	err := row.Scan(
		&b.ID,
		&b.OwnerID,
		&b.Name,
		&b.Description,
		&b.Category,
		&b.Address,
		&b.Latitude,
		&b.Longitude,
		&b.Phone,
		&b.Website,
		&b.LogoURL,
		&b.Hours,
		&b.SubscriptionStatus,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if b.Hours == nil {
		b.Hours = hours.Schedule{}
	}
	return &b, nil
}

func nonNilHours(s hours.Schedule) hours.Schedule {
	if s == nil {
		return hours.Schedule{}
	}
	return s
}

// Insert creates a business. Returns service.ErrBusinessExists if the owner
// already has one.
func (r *BusinessRepository) Insert(ctx context.Context, b *model.Business) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.SubscriptionStatus == "" {
		b.SubscriptionStatus = model.SubscriptionActive
	}
	b.Hours = nonNilHours(b.Hours)

	err := r.pool.QueryRow(ctx,
		`INSERT INTO businesses (id, owner_id, name, description, category, address, latitude, longitude,
			phone, website, logo_url, hours, subscription_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`,
		b.ID, b.OwnerID, b.Name, b.Description, b.Category, b.Address, b.Latitude, b.Longitude,
		b.Phone, b.Website, b.LogoURL, b.Hours, b.SubscriptionStatus,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return service.ErrBusinessExists
		}
		return fmt.Errorf("insert business: %w", err)
	}
	return nil
}

// GetByID returns nil, nil if the business does not exist.
func (r *BusinessRepository) GetByID(ctx context.Context, id string) (*model.Business, error) {
	b, err := scanBusiness(r.pool.QueryRow(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get business %s: %w", id, err)
	}
	return b, nil
}

// GetByOwner returns the business owned by an account, or nil, nil.
func (r *BusinessRepository) GetByOwner(ctx context.Context, ownerID string) (*model.Business, error) {
	b, err := scanBusiness(r.pool.QueryRow(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE owner_id = $1`, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get business by owner %s: %w", ownerID, err)
	}
	return b, nil
}

// Update writes the editable profile fields.
// Returns service.ErrBusinessNotFound if no row matched.
func (r *BusinessRepository) Update(ctx context.Context, b *model.Business) error {
	b.Hours = nonNilHours(b.Hours)
	err := r.pool.QueryRow(ctx,
		`UPDATE businesses SET name = $2, description = $3, category = $4, address = $5,
			latitude = $6, longitude = $7, phone = $8, website = $9, logo_url = $10, hours = $11,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		b.ID, b.Name, b.Description, b.Category, b.Address,
		b.Latitude, b.Longitude, b.Phone, b.Website, b.LogoURL, b.Hours,
	).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.ErrBusinessNotFound
		}
		return fmt.Errorf("update business %s: %w", b.ID, err)
	}
	return nil
}

// SetSubscriptionStatus flips the publishing flag of a business.
func (r *BusinessRepository) SetSubscriptionStatus(ctx context.Context, id string, status model.SubscriptionStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE businesses SET subscription_status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set subscription status %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrBusinessNotFound
	}
	return nil
}

// List returns businesses ordered by name.
func (r *BusinessRepository) List(ctx context.Context, limit, offset int) ([]model.Business, error) {
	limit, offset = page(limit, offset)
	rows, err := r.pool.Query(ctx,
		`SELECT `+businessColumns+` FROM businesses ORDER BY name, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	list, err := collect(rows, func(row pgx.Rows) (model.Business, error) {
		b, err := scanBusiness(row)
		if err != nil {
			return model.Business{}, err
		}
		return *b, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan businesses: %w", err)
	}
	return list, nil
}
