package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/offer-marketplace/internal/lifecycle"
	"github.com/fairyhunter13/offer-marketplace/internal/metrics"
	"github.com/fairyhunter13/offer-marketplace/internal/model"
	"github.com/fairyhunter13/offer-marketplace/pkg/database"
)

// SavedOfferRepositoryInterface defines the interface for saved offer data access.
type SavedOfferRepositoryInterface interface {
	Save(ctx context.Context, customerID, offerID string) error
	Unsave(ctx context.Context, customerID, offerID string) error
	ListByCustomer(ctx context.Context, customerID string) ([]model.OfferListing, error)
}

// ClaimService provides the customer side of claimed and saved offers.
type ClaimService struct {
	pool          database.TxBeginner
	claims        ClaimRepositoryInterface
	saved         SavedOfferRepositoryInterface
	persistOnRead bool
	now           func() time.Time
}

// NewClaimService creates a new ClaimService. When persistOnRead is set,
// listing claims also writes back any expiry it observes; otherwise expiry
// is only persisted by Redeem and SweepExpired.
func NewClaimService(pool database.TxBeginner, claims ClaimRepositoryInterface, saved SavedOfferRepositoryInterface, persistOnRead bool) *ClaimService {
	return &ClaimService{
		pool:          pool,
		claims:        claims,
		saved:         saved,
		persistOnRead: persistOnRead,
		now:           time.Now,
	}
}

// ListMine returns the caller's claims with derived expiry applied, so an
// active claim of an ended offer is always reported as expired.
func (s *ClaimService) ListMine(ctx context.Context, customerID string) ([]model.ClaimView, error) {
	list, err := s.claims.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var stale []string
	for i := range list {
		resolved, changed := lifecycle.Resolve(list[i].ClaimedOffer, list[i].OfferExpiryDate, now)
		if changed {
			list[i].ClaimedOffer = resolved
			stale = append(stale, resolved.ID)
		}
	}

	if s.persistOnRead && len(stale) > 0 {
		n, err := s.claims.MarkExpired(ctx, nil, stale)
		if err != nil {
			// The view is already correct; the sweep will persist it later.
			log.Warn().Err(err).Str("customer_id", customerID).Msg("Failed to persist observed expiry")
		} else {
			metrics.AddExpired("read", n)
		}
	}
	return list, nil
}

// Redeem uses a claim. The claim row is locked, derived expiry is applied and
// persisted first, then ownership and state are checked; the final write only
// succeeds from active, so a claim can be redeemed at most once.
// Returns:
//   - ErrClaimNotFound if the claim doesn't exist
//   - lifecycle.ErrNotOwned if another customer owns it
//   - *lifecycle.InvalidStateError when the claim is not active (including freshly expired)
func (s *ClaimService) Redeem(ctx context.Context, customerID, claimID string) (*model.ClaimedOffer, error) {
	now := s.now()
	var result model.ClaimedOffer
	var ruleErr error

	err := database.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		stored, expiry, err := s.claims.GetForUpdate(ctx, tx, claimID)
		if err != nil {
			return err
		}

		next, redeemErr := lifecycle.Redeem(*stored, customerID, expiry, now)
		if next.Status == model.ClaimStatusExpired && stored.Status == model.ClaimStatusActive {
			n, err := s.claims.MarkExpired(ctx, tx, []string{stored.ID})
			if err != nil {
				return err
			}
			metrics.AddExpired("redeem", n)
		}
		if redeemErr != nil {
			// Commit the expiry write, then report the rule violation.
			ruleErr = redeemErr
			return nil
		}

		ok, err := s.claims.MarkRedeemed(ctx, tx, stored.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			ruleErr = &lifecycle.InvalidStateError{Status: model.ClaimStatusRedeemed}
			return nil
		}
		result = next
		return nil
	})
	if err != nil {
		metrics.ObserveRedemption("error")
		return nil, err
	}
	if ruleErr != nil {
		metrics.ObserveRedemption(redeemOutcome(ruleErr))
		return nil, ruleErr
	}

	metrics.ObserveRedemption(string(model.ClaimStatusRedeemed))
	log.Info().Str("claim_id", claimID).Str("customer_id", customerID).Msg("Claim redeemed")
	return &result, nil
}

func redeemOutcome(err error) string {
	var stateErr *lifecycle.InvalidStateError
	switch {
	case errors.As(err, &stateErr):
		return string(stateErr.Status)
	case errors.Is(err, lifecycle.ErrNotOwned):
		return "not_owned"
	default:
		return "error"
	}
}

// Save bookmarks an offer for the caller.
func (s *ClaimService) Save(ctx context.Context, customerID, offerID string) error {
	return s.saved.Save(ctx, customerID, offerID)
}

// Unsave removes a bookmark.
func (s *ClaimService) Unsave(ctx context.Context, customerID, offerID string) error {
	return s.saved.Unsave(ctx, customerID, offerID)
}

// ListSaved returns the caller's bookmarked offers.
func (s *ClaimService) ListSaved(ctx context.Context, customerID string) ([]model.OfferDetail, error) {
	list, err := s.saved.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return details(list, s.now()), nil
}

// SweepExpired persists derived expiry for every overdue active claim.
func (s *ClaimService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.claims.ExpireOverdue(ctx, s.now())
	metrics.ObserveSweep(err == nil)
	if err != nil {
		return 0, fmt.Errorf("sweep expired claims: %w", err)
	}
	metrics.AddExpired("sweep", n)
	return n, nil
}
