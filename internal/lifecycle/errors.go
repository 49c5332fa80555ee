package lifecycle

import (
	"errors"
	"fmt"

	"github.com/fairyhunter13/offer-marketplace/internal/model"
)

var (
	// ErrNotActive is returned when claiming an offer that is switched off.
	ErrNotActive = errors.New("offer is not active")

	// ErrOutOfWindow is returned when claiming outside [start_date, expiry_date].
	ErrOutOfWindow = errors.New("offer is not available at this time")

	// ErrLimitReached is returned when every claim of a capped offer is taken.
	ErrLimitReached = errors.New("offer claim limit reached")

	// ErrOfferExpired is returned when activating an offer past its expiry date.
	ErrOfferExpired = errors.New("offer has expired")

	// ErrNotOwned is returned when a customer acts on another customer's claim.
	ErrNotOwned = errors.New("claim does not belong to customer")

	// ErrInvalidState matches every InvalidStateError.
	ErrInvalidState = errors.New("claim is not active")
)

// InvalidStateError reports a redemption attempted from a non-active status.
type InvalidStateError struct {
	Status model.ClaimStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidState.Error(), e.Status)
}

// Is lets errors.Is(err, ErrInvalidState) match any status.
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}
