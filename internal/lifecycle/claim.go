package lifecycle

import (
	"time"

	"github.com/fairyhunter13/offer-marketplace/internal/model"
)

// EffectiveStatus is the status a caller must observe: an active claim whose
// offer expired before now reads as expired. Terminal statuses are returned as is,
// so the view never moves a claim backwards.
func EffectiveStatus(status model.ClaimStatus, offerExpiry, now time.Time) model.ClaimStatus {
	if status == model.ClaimStatusActive && offerExpiry.Before(now) {
		return model.ClaimStatusExpired
	}
	return status
}

// Resolve applies derived expiry to c. The boolean is true when the presented
// status differs from the stored one and should be persisted on the next write.
func Resolve(c model.ClaimedOffer, offerExpiry, now time.Time) (model.ClaimedOffer, bool) {
	status := EffectiveStatus(c.Status, offerExpiry, now)
	if status == c.Status {
		return c, false
	}
	c.Status = status
	return c, true
}

// Redeem moves an active claim owned by customerID to redeemed.
// Derived expiry is applied first; on failure the returned claim is the
// resolved one so callers can persist an expiry they just observed.
func Redeem(c model.ClaimedOffer, customerID string, offerExpiry, now time.Time) (model.ClaimedOffer, error) {
	c, _ = Resolve(c, offerExpiry, now)

	if c.CustomerID != customerID {
		return c, ErrNotOwned
	}
	if c.Status != model.ClaimStatusActive {
		return c, &InvalidStateError{Status: c.Status}
	}

	redeemedAt := now
	c.Status = model.ClaimStatusRedeemed
	c.RedeemedAt = &redeemedAt
	return c, nil
}
