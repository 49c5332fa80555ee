// Package lifecycle holds the storage-independent rules for offers and claims:
// activation, claim admission, redemption and derived expiry.
//
// Every function is pure; callers fetch state from the store, ask the engine
// for the next state and persist it with a conditional write that re-checks the
// same predicate, so the in-memory decision and the stored one cannot diverge.
package lifecycle

import (
	"time"

	"github.com/fairyhunter13/offer-marketplace/internal/model"
)

// CanActivate reports whether an offer may be switched on at now.
// It is false exactly when the expiry date is strictly before now.
func CanActivate(o model.Offer, now time.Time) bool {
	return !o.ExpiryDate.Before(now)
}

// CheckActivation validates a toggle request. Deactivation is always allowed.
func CheckActivation(o model.Offer, active bool, now time.Time) error {
	if active && !CanActivate(o, now) {
		return ErrOfferExpired
	}
	return nil
}

// InWindow reports start_date <= now <= expiry_date.
func InWindow(o model.Offer, now time.Time) bool {
	return !now.Before(o.StartDate) && !now.After(o.ExpiryDate)
}

// HasCapacity reports whether another claim fits under max_claims.
func HasCapacity(o model.Offer) bool {
	return o.MaxClaims == nil || o.CurrentClaims < *o.MaxClaims
}

// CheckClaim runs the admission checks in order; the first failure wins.
func CheckClaim(o model.Offer, now time.Time) error {
	if !o.IsActive {
		return ErrNotActive
	}
	if !InWindow(o, now) {
		return ErrOutOfWindow
	}
	if !HasCapacity(o) {
		return ErrLimitReached
	}
	return nil
}

// TryClaim admits one claim and returns the offer with its counter incremented.
// The input offer is not modified.
func TryClaim(o model.Offer, now time.Time) (model.Offer, error) {
	if err := CheckClaim(o, now); err != nil {
		return o, err
	}
	o.CurrentClaims++
	return o, nil
}

// RemainingClaims returns the number of claims left, or nil when uncapped.
func RemainingClaims(o model.Offer) *int {
	if o.MaxClaims == nil {
		return nil
	}
	remaining := *o.MaxClaims - o.CurrentClaims
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// State derives the display state of an offer.
func State(o model.Offer, now time.Time) model.OfferState {
	switch {
	case o.ExpiryDate.Before(now):
		return model.OfferStateExpired
	case !o.IsActive:
		return model.OfferStateInactive
	case now.Before(o.StartDate):
		return model.OfferStateScheduled
	case !HasCapacity(o):
		return model.OfferStateSoldOut
	default:
		return model.OfferStateLive
	}
}

// ValidateWindow checks a proposed start/expiry pair.
func ValidateWindow(start, expiry time.Time) bool {
	return !start.IsZero() && !expiry.IsZero() && !expiry.Before(start)
}
