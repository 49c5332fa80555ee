package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/offer-marketplace/internal/lifecycle"
	"github.com/fairyhunter13/offer-marketplace/internal/metrics"
	"github.com/fairyhunter13/offer-marketplace/internal/model"
	"github.com/fairyhunter13/offer-marketplace/internal/pricing"
	"github.com/fairyhunter13/offer-marketplace/internal/sanitize"
	"github.com/fairyhunter13/offer-marketplace/pkg/database"
)

// OfferRepositoryInterface defines the interface for offer data access.
type OfferRepositoryInterface interface {
	Insert(ctx context.Context, o *model.Offer) error
	GetByID(ctx context.Context, db database.TxQuerier, id string) (*model.Offer, error)
	GetListing(ctx context.Context, id string) (*model.OfferListing, error)
	GetPublicListing(ctx context.Context, id string) (*model.OfferListing, error)
	ListPublic(ctx context.Context, now time.Time, f model.OfferFilter) ([]model.OfferListing, error)
	ListByBusiness(ctx context.Context, businessID string, f model.OfferFilter) ([]model.OfferListing, error)
	Update(ctx context.Context, o *model.Offer, reschedule bool, now time.Time) error
	SetActive(ctx context.Context, id string, active bool, now time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
	IncrementClaims(ctx context.Context, tx database.TxQuerier, id string, now time.Time) (*model.Offer, error)
}

// ClaimRepositoryInterface defines the interface for claim data access.
type ClaimRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, c *model.ClaimedOffer) error
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.ClaimedOffer, time.Time, error)
	ListByCustomer(ctx context.Context, customerID string) ([]model.ClaimView, error)
	MarkRedeemed(ctx context.Context, tx database.TxQuerier, id string, now time.Time) (bool, error)
	MarkExpired(ctx context.Context, db database.TxQuerier, ids []string) (int64, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// OfferService provides offer management, discovery and claiming.
type OfferService struct {
	pool       database.TxBeginner
	offers     OfferRepositoryInterface
	claims     ClaimRepositoryInterface
	products   *ProductService
	businesses *BusinessService
	now        func() time.Time
}

// NewOfferService creates a new OfferService. pool may be a *pgxpool.Pool or a test double.
func NewOfferService(pool database.TxBeginner, offers OfferRepositoryInterface, claims ClaimRepositoryInterface, products *ProductService, businesses *BusinessService) *OfferService {
	return &OfferService{
		pool:       pool,
		offers:     offers,
		claims:     claims,
		products:   products,
		businesses: businesses,
		now:        time.Now,
	}
}

// Detail builds the API view of a listing at now.
func Detail(l model.OfferListing, now time.Time) model.OfferDetail {
	d := model.OfferDetail{
		Offer:           l.Offer,
		State:           lifecycle.State(l.Offer, now),
		RemainingClaims: lifecycle.RemainingClaims(l.Offer),
		ProductName:     l.ProductName,
		BusinessName:    l.BusinessName,
	}
	q, err := pricing.Apply(l.ProductPrice, l.Offer.DiscountPercentage)
	if err != nil {
		log.Warn().Err(err).Str("offer_id", l.Offer.ID).Msg("Cannot price offer")
		return d
	}
	d.Price = model.PriceQuote{
		OriginalPrice: pricing.Format(q.Original),
		FinalPrice:    pricing.Format(q.Final),
		Savings:       pricing.Format(q.Savings),
	}
	return d
}

func details(list []model.OfferListing, now time.Time) []model.OfferDetail {
	out := make([]model.OfferDetail, 0, len(list))
	for _, l := range list {
		out = append(out, Detail(l, now))
	}
	return out
}

// Create publishes a new offer on one of the caller's products.
func (s *OfferService) Create(ctx context.Context, ownerID string, req *model.CreateOfferRequest) (*model.OfferDetail, error) {
	// Defense-in-depth: check for nil pointer even though handler validates
	if req == nil || req.DiscountPercentage == nil || req.StartDate == nil || req.ExpiryDate == nil {
		return nil, ErrInvalidRequest
	}
	if !lifecycle.ValidateWindow(*req.StartDate, *req.ExpiryDate) {
		return nil, ErrInvalidWindow
	}
	pct, err := percentage(*req.DiscountPercentage)
	if err != nil {
		return nil, err
	}
	title := sanitize.Text(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}

	b, err := s.businesses.RequireActive(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.products.GetOwned(ctx, b.ID, req.ProductID); err != nil {
		return nil, err
	}

	o := &model.Offer{
		ProductID:          req.ProductID,
		BusinessID:         b.ID,
		Title:              title,
		Description:        sanitize.RichText(req.Description),
		DiscountPercentage: pct,
		StartDate:          *req.StartDate,
		ExpiryDate:         *req.ExpiryDate,
		MaxClaims:          req.MaxClaims,
		IsActive:           req.IsActive != nil && *req.IsActive,
	}
	if err := lifecycle.CheckActivation(*o, o.IsActive, s.now()); err != nil {
		return nil, err
	}

	if err := s.offers.Insert(ctx, o); err != nil {
		return nil, err
	}
	log.Info().Str("offer_id", o.ID).Str("business_id", b.ID).Msg("Offer created")
	return s.detail(ctx, o.ID)
}

// Update edits an offer of the caller's business. An offer that has already
// expired cannot be given a new window, so an observed expiry stays final.
func (s *OfferService) Update(ctx context.Context, ownerID, id string, req *model.UpdateOfferRequest) (*model.OfferDetail, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	o, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	now := s.now()

	reschedule := req.StartDate != nil || req.ExpiryDate != nil
	if reschedule {
		if o.ExpiryDate.Before(now) {
			return nil, ErrCannotExtendExpired
		}
		if req.StartDate != nil {
			o.StartDate = *req.StartDate
		}
		if req.ExpiryDate != nil {
			o.ExpiryDate = *req.ExpiryDate
		}
		if !lifecycle.ValidateWindow(o.StartDate, o.ExpiryDate) {
			return nil, ErrInvalidWindow
		}
	}
	if req.Title != nil {
		title := sanitize.Text(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidRequest)
		}
		o.Title = title
	}
	if req.Description != nil {
		o.Description = sanitize.RichText(*req.Description)
	}
	if req.DiscountPercentage != nil {
		pct, err := percentage(*req.DiscountPercentage)
		if err != nil {
			return nil, err
		}
		o.DiscountPercentage = pct
	}
	if req.MaxClaims != nil {
		if *req.MaxClaims < o.CurrentClaims {
			return nil, ErrMaxClaimsBelowCurrent
		}
		o.MaxClaims = req.MaxClaims
	}

	if err := s.offers.Update(ctx, o, reschedule, now); err != nil {
		return nil, err
	}
	log.Info().Str("offer_id", o.ID).Msg("Offer updated")
	return s.detail(ctx, o.ID)
}

// SetActive switches an offer on or off. Activation is refused for expired
// offers and for businesses that may not publish.
func (s *OfferService) SetActive(ctx context.Context, ownerID, id string, active bool) (*model.OfferDetail, error) {
	if active {
		if _, err := s.businesses.RequireActive(ctx, ownerID); err != nil {
			return nil, err
		}
	}
	o, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := lifecycle.CheckActivation(*o, active, now); err != nil {
		return nil, err
	}

	applied, err := s.offers.SetActive(ctx, id, active, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, lifecycle.ErrOfferExpired
	}
	metrics.ObserveActivation(active)
	log.Info().Str("offer_id", id).Bool("is_active", active).Msg("Offer activation changed")
	return s.detail(ctx, id)
}

// Delete removes an offer of the caller's business that nobody has claimed.
func (s *OfferService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	return s.offers.Delete(ctx, id)
}

// Get returns one offer with its derived state and price as customers see
// it. Switched off offers and offers of suspended businesses are
// ErrOfferNotFound; owners read those through ListOwn.
func (s *OfferService) Get(ctx context.Context, id string) (*model.OfferDetail, error) {
	l, err := s.offers.GetPublicListing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get offer: %w", err)
	}
	if l == nil {
		return nil, ErrOfferNotFound
	}
	d := Detail(*l, s.now())
	return &d, nil
}

// ListPublic returns the discovery feed.
func (s *OfferService) ListPublic(ctx context.Context, f model.OfferFilter) ([]model.OfferDetail, error) {
	now := s.now()
	list, err := s.offers.ListPublic(ctx, now, f)
	if err != nil {
		return nil, err
	}
	return details(list, now), nil
}

// ListOwn returns every offer of the caller's business.
func (s *OfferService) ListOwn(ctx context.Context, ownerID string, f model.OfferFilter) ([]model.OfferDetail, error) {
	b, err := s.businesses.GetOwn(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	list, err := s.offers.ListByBusiness(ctx, b.ID, f)
	if err != nil {
		return nil, err
	}
	return details(list, s.now()), nil
}

// ClaimOffer reserves an offer for a customer.
//
// The admission checks run first against a fresh read for a precise error.
// The claim row and the counter increment then commit together; the increment
// is a conditional update that re-checks every precondition at write time, so
// concurrent callers can never push current_claims past max_claims.
// Returns:
//   - ErrOfferNotFound if the offer doesn't exist
//   - lifecycle.ErrNotActive, ErrOutOfWindow or ErrLimitReached when admission fails
//   - ErrAlreadyClaimed if the customer has already claimed this offer
func (s *OfferService) ClaimOffer(ctx context.Context, customerID, offerID string) (*model.ClaimResponse, error) {
	now := s.now()
	resp := &model.ClaimResponse{}

	err := database.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		// 1. Read the offer and run the admission checks
		offer, err := s.offers.GetByID(ctx, tx, offerID)
		if err != nil {
			return fmt.Errorf("get offer: %w", err)
		}
		if offer == nil {
			return ErrOfferNotFound
		}
		if err := lifecycle.CheckClaim(*offer, now); err != nil {
			return err
		}

		// 2. Insert claim (UNIQUE constraint catches duplicates)
		claim := &model.ClaimedOffer{
			CustomerID: customerID,
			OfferID:    offerID,
			Status:     model.ClaimStatusActive,
			ClaimedAt:  now,
		}
		if err := s.claims.Insert(ctx, tx, claim); err != nil {
			if errors.Is(err, ErrAlreadyClaimed) {
				return ErrAlreadyClaimed
			}
			return fmt.Errorf("insert claim: %w", err)
		}

		// 3. Compare-and-swap the counter
		updated, err := s.offers.IncrementClaims(ctx, tx, offerID, now)
		if err != nil {
			return fmt.Errorf("increment claims: %w", err)
		}
		if updated == nil {
			metrics.ClaimCASMisses.Inc()
			return s.casMissReason(ctx, tx, offerID, now)
		}

		resp.Claim = *claim
		resp.CurrentClaims = updated.CurrentClaims
		resp.MaxClaims = updated.MaxClaims
		return nil
	})

	metrics.ObserveClaim(claimOutcome(err))
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("offer_id", offerID).
		Str("customer_id", customerID).
		Int("current_claims", resp.CurrentClaims).
		Msg("Offer claimed")
	return resp, nil
}

// casMissReason re-reads an offer whose conditional increment matched no row
// and reports which precondition changed underneath the caller.
func (s *OfferService) casMissReason(ctx context.Context, tx database.TxQuerier, offerID string, now time.Time) error {
	offer, err := s.offers.GetByID(ctx, tx, offerID)
	if err != nil {
		return fmt.Errorf("reread offer: %w", err)
	}
	if offer == nil {
		return ErrOfferNotFound
	}
	if err := lifecycle.CheckClaim(*offer, now); err != nil {
		return err
	}
	return lifecycle.ErrLimitReached
}

func claimOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeClaimed
	case errors.Is(err, lifecycle.ErrNotActive):
		return metrics.OutcomeNotActive
	case errors.Is(err, lifecycle.ErrOutOfWindow):
		return metrics.OutcomeOutOfWindow
	case errors.Is(err, lifecycle.ErrLimitReached):
		return metrics.OutcomeLimitReached
	case errors.Is(err, ErrAlreadyClaimed):
		return metrics.OutcomeAlreadyClaimed
	default:
		return metrics.OutcomeError
	}
}

func (s *OfferService) owned(ctx context.Context, ownerID, id string) (*model.Offer, error) {
	b, err := s.businesses.GetOwn(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	o, err := s.offers.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("get offer: %w", err)
	}
	if o == nil || o.BusinessID != b.ID {
		return nil, ErrOfferNotFound
	}
	return o, nil
}

func (s *OfferService) detail(ctx context.Context, id string) (*model.OfferDetail, error) {
	l, err := s.offers.GetListing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get offer: %w", err)
	}
	if l == nil {
		return nil, ErrOfferNotFound
	}
	d := Detail(*l, s.now())
	return &d, nil
}

func percentage(v float64) (decimal.Decimal, error) {
	pct := decimal.NewFromFloat(v).Round(2)
	if !pct.IsPositive() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Decimal{}, fmt.Errorf("%w: discount_percentage must be in (0, 100]", ErrInvalidRequest)
	}
	return pct, nil
}
