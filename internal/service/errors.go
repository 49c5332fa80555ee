package service

import "errors"

var (
	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnauthenticated is returned when the caller has no valid session
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned when the caller may not act on the resource
	ErrForbidden = errors.New("forbidden")

	// ErrSubscriptionInactive is returned when a suspended business tries to publish
	ErrSubscriptionInactive = errors.New("business subscription is not active")

	// ErrBusinessNotFound is returned when a business cannot be found
	ErrBusinessNotFound = errors.New("business not found")

	// ErrProductNotFound is returned when a product is absent or not owned by the caller
	ErrProductNotFound = errors.New("product not found")

	// ErrOfferNotFound is returned when an offer is absent or not owned by the caller
	ErrOfferNotFound = errors.New("offer not found")

	// ErrClaimNotFound is returned when a claimed offer cannot be found
	ErrClaimNotFound = errors.New("claim not found")

	// ErrGuestSessionNotFound is returned for unknown or expired guest sessions
	ErrGuestSessionNotFound = errors.New("guest session not found or expired")

	// ErrAlreadyClaimed is returned when a customer claims the same offer twice
	ErrAlreadyClaimed = errors.New("offer already claimed by customer")

	// ErrBusinessExists is returned when an account already owns a business
	ErrBusinessExists = errors.New("business already exists for account")

	// ErrProductInUse is returned when deleting a product that still has offers
	ErrProductInUse = errors.New("product has offers and cannot be deleted")

	// ErrOfferHasClaims is returned when deleting an offer that has been claimed
	ErrOfferHasClaims = errors.New("offer has claims and cannot be deleted")

	// ErrInvalidWindow is returned when expiry_date precedes start_date
	ErrInvalidWindow = errors.New("expiry_date must not be before start_date")

	// ErrCannotExtendExpired is returned when editing the window of an expired offer
	ErrCannotExtendExpired = errors.New("expired offers cannot be rescheduled")

	// ErrMaxClaimsBelowCurrent is returned when lowering max_claims under the claims already made
	ErrMaxClaimsBelowCurrent = errors.New("max_claims cannot be lower than current claims")

	// ErrUpstream is returned when an external provider fails
	ErrUpstream = errors.New("upstream provider error")
)
