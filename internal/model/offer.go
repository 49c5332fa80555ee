package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offer is a time-boxed percentage discount on a single product.
// MaxClaims == nil means the offer can be claimed without limit.
type Offer struct {
	ID                 string          `json:"id"`
	ProductID          string          `json:"product_id"`
	BusinessID         string          `json:"business_id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	StartDate          time.Time       `json:"start_date"`
	ExpiryDate         time.Time       `json:"expiry_date"`
	MaxClaims          *int            `json:"max_claims"`
	CurrentClaims      int             `json:"current_claims"`
	IsActive           bool            `json:"is_active"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// OfferState is the derived display state of an offer at a point in time.
type OfferState string

const (
	OfferStateInactive  OfferState = "inactive"
	OfferStateScheduled OfferState = "scheduled"
	OfferStateLive      OfferState = "live"
	OfferStateSoldOut   OfferState = "sold_out"
	OfferStateExpired   OfferState = "expired"
)

// PriceQuote is the discount applied to a product price, formatted to cents.
type PriceQuote struct {
	OriginalPrice string `json:"original_price"`
	FinalPrice    string `json:"final_price"`
	Savings       string `json:"savings"`
}

// OfferDetail is the API response for a single offer.
type OfferDetail struct {
	Offer
	State           OfferState `json:"state"`
	RemainingClaims *int       `json:"remaining_claims"`
	ProductName     string     `json:"product_name"`
	BusinessName    string     `json:"business_name"`
	Price           PriceQuote `json:"price"`
}

// OfferListing is a joined row used by the public discovery feed.
type OfferListing struct {
	Offer        Offer
	ProductName  string
	ProductPrice decimal.Decimal
	BusinessName string
}

// OfferFilter narrows offer listings. Zero values mean "no filter".
type OfferFilter struct {
	BusinessID string
	Limit      int
	Offset     int
}

// CreateOfferRequest is the DTO for creating an offer.
type CreateOfferRequest struct {
	ProductID          string     `json:"product_id" validate:"required,uuid"`
	Title              string     `json:"title" validate:"required,notblank,max=255"`
	Description        string     `json:"description" validate:"max=2000"`
	DiscountPercentage *float64   `json:"discount_percentage" validate:"required,gt=0,lte=100"`
	StartDate          *time.Time `json:"start_date" validate:"required"`
	ExpiryDate         *time.Time `json:"expiry_date" validate:"required"`
	MaxClaims          *int       `json:"max_claims" validate:"omitempty,gte=1"`
	IsActive           *bool      `json:"is_active"`
}

// UpdateOfferRequest is the DTO for editing an offer. Nil fields are left unchanged.
type UpdateOfferRequest struct {
	Title              *string    `json:"title" validate:"omitempty,notblank,max=255"`
	Description        *string    `json:"description" validate:"omitempty,max=2000"`
	DiscountPercentage *float64   `json:"discount_percentage" validate:"omitempty,gt=0,lte=100"`
	StartDate          *time.Time `json:"start_date"`
	ExpiryDate         *time.Time `json:"expiry_date"`
	MaxClaims          *int       `json:"max_claims" validate:"omitempty,gte=1"`
}

// SetOfferActiveRequest toggles an offer.
type SetOfferActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}
