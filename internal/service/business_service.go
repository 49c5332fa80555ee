package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/offer-marketplace/internal/hours"
	"github.com/fairyhunter13/offer-marketplace/internal/model"
	"github.com/fairyhunter13/offer-marketplace/internal/sanitize"
)

// BusinessService provides business profile operations.
type BusinessService struct {
	businesses BusinessRepositoryInterface
	now        func() time.Time
}

// NewBusinessService creates a new BusinessService.
func NewBusinessService(businesses BusinessRepositoryInterface) *BusinessService {
	return &BusinessService{businesses: businesses, now: time.Now}
}

// GetOwn returns the business owned by ownerID.
// Returns ErrBusinessNotFound if the account has no business.
func (s *BusinessService) GetOwn(ctx context.Context, ownerID string) (*model.Business, error) {
	b, err := s.businesses.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get business: %w", err)
	}
	if b == nil {
		return nil, ErrBusinessNotFound
	}
	return b, nil
}

// RequireActive returns the caller's business and fails with
// ErrSubscriptionInactive when it may not publish.
func (s *BusinessService) RequireActive(ctx context.Context, ownerID string) (*model.Business, error) {
	b, err := s.GetOwn(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if b.SubscriptionStatus != model.SubscriptionActive {
		return nil, ErrSubscriptionInactive
	}
	return b, nil
}

// UpdateOwn edits the caller's profile. Text fields are sanitized and the
// opening hours validated before anything is written.
func (s *BusinessService) UpdateOwn(ctx context.Context, ownerID string, req *model.UpdateBusinessRequest) (*model.Business, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	if err := hours.Validate(req.Hours); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	b, err := s.GetOwn(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	name := sanitize.Text(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	b.Name = name
	b.Description = sanitize.RichText(req.Description)
	b.Category = sanitize.Text(req.Category)
	b.Address = sanitize.Text(req.Address)
	b.Latitude = req.Latitude
	b.Longitude = req.Longitude
	b.Phone = sanitize.Text(req.Phone)
	b.Website = req.Website
	b.LogoURL = req.LogoURL
	if req.Hours != nil {
		b.Hours = req.Hours
	}

	if err := s.businesses.Update(ctx, b); err != nil {
		return nil, err
	}
	log.Info().Str("business_id", b.ID).Msg("Business profile updated")
	return b, nil
}

// GetPublic returns a business profile with today's hours resolved in loc.
func (s *BusinessService) GetPublic(ctx context.Context, id string, loc *time.Location) (*model.BusinessProfile, error) {
	b, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get business: %w", err)
	}
	if b == nil {
		return nil, ErrBusinessNotFound
	}
	return s.profile(b, loc), nil
}

// profile wraps b with today's hours resolved in loc.
func (s *BusinessService) profile(b *model.Business, loc *time.Location) *model.BusinessProfile {
	if loc == nil {
		loc = time.UTC
	}
	return &model.BusinessProfile{
		Business:   *b,
		TodayHours: hours.Today(s.now().In(loc), b.Hours),
	}
}

// GetOwnProfile is GetOwn with today's hours resolved in loc.
func (s *BusinessService) GetOwnProfile(ctx context.Context, ownerID string, loc *time.Location) (*model.BusinessProfile, error) {
	b, err := s.GetOwn(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.profile(b, loc), nil
}
