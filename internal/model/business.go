package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/offer-marketplace/internal/hours"
)

// SubscriptionStatus gates whether a business may publish offers.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionSuspended SubscriptionStatus = "suspended"
)

// Business is a merchant profile owned by one identity account.
type Business struct {
	ID                 string             `json:"id"`
	OwnerID            string             `json:"owner_id"`
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	Category           string             `json:"category"`
	Address            string             `json:"address"`
	Latitude           *float64           `json:"latitude"`
	Longitude          *float64           `json:"longitude"`
	Phone              string             `json:"phone"`
	Website            string             `json:"website"`
	LogoURL            string             `json:"logo_url"`
	Hours              hours.Schedule     `json:"hours"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// BusinessProfile is the public view of a business.
type BusinessProfile struct {
	Business
	TodayHours string `json:"today_hours"`
}

// UpdateBusinessRequest is the DTO for editing the caller's business profile.
type UpdateBusinessRequest struct {
	Name        string         `json:"name" validate:"required,notblank,max=255"`
	Description string         `json:"description" validate:"max=5000"`
	Category    string         `json:"category" validate:"max=100"`
	Address     string         `json:"address" validate:"max=500"`
	Latitude    *float64       `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64       `json:"longitude" validate:"omitempty,longitude"`
	Phone       string         `json:"phone" validate:"max=50"`
	Website     string         `json:"website" validate:"omitempty,url,max=500"`
	LogoURL     string         `json:"logo_url" validate:"omitempty,url,max=1000"`
	Hours       hours.Schedule `json:"hours"`
}

// Product belongs to exactly one business.
type Product struct {
	ID          string          `json:"id"`
	BusinessID  string          `json:"business_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductRequest is the DTO for creating or replacing a product.
type ProductRequest struct {
	Name        string   `json:"name" validate:"required,notblank,max=255"`
	Description string   `json:"description" validate:"max=2000"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	ImageURL    string   `json:"image_url" validate:"omitempty,url,max=1000"`
}
