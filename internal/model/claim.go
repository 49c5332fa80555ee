package model

import "time"

// ClaimStatus is the redemption state of a claimed offer.
type ClaimStatus string

const (
	ClaimStatusActive    ClaimStatus = "active"
	ClaimStatusRedeemed  ClaimStatus = "redeemed"
	ClaimStatusExpired   ClaimStatus = "expired"
	ClaimStatusCancelled ClaimStatus = "cancelled"
)

// Terminal reports whether no further transition is possible from s.
func (s ClaimStatus) Terminal() bool {
	return s != ClaimStatusActive
}

// ClaimedOffer is a customer's reservation of an offer.
type ClaimedOffer struct {
	ID         string      `json:"id"`
	CustomerID string      `json:"customer_id"`
	OfferID    string      `json:"offer_id"`
	Status     ClaimStatus `json:"status"`
	ClaimedAt  time.Time   `json:"claimed_at"`
	RedeemedAt *time.Time  `json:"redeemed_at"`
}

// ClaimView is a claim joined with the offer data a customer needs to present it.
type ClaimView struct {
	ClaimedOffer
	OfferTitle         string    `json:"offer_title"`
	OfferExpiryDate    time.Time `json:"offer_expiry_date"`
	DiscountPercentage string    `json:"discount_percentage"`
	ProductName        string    `json:"product_name"`
	BusinessID         string    `json:"business_id"`
	BusinessName       string    `json:"business_name"`
}

// ClaimResponse is returned after a successful claim.
type ClaimResponse struct {
	Claim         ClaimedOffer `json:"claim"`
	CurrentClaims int          `json:"current_claims"`
	MaxClaims     *int         `json:"max_claims"`
}

// SavedOffer is a bookmark of an offer by a customer.
type SavedOffer struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	OfferID    string    `json:"offer_id"`
	CreatedAt  time.Time `json:"created_at"`
}
