package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/offer-marketplace/internal/model"
	"github.com/fairyhunter13/offer-marketplace/internal/sanitize"
)

// ProductRepositoryInterface defines the interface for product data access.
type ProductRepositoryInterface interface {
	Insert(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]model.Product, error)
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, businessID, id string) error
}

// ProductService manages the products of the caller's business.
type ProductService struct {
	products   ProductRepositoryInterface
	businesses *BusinessService
}

// NewProductService creates a new ProductService.
func NewProductService(products ProductRepositoryInterface, businesses *BusinessService) *ProductService {
	return &ProductService{products: products, businesses: businesses}
}

// List returns a page of the caller's products.
func (s *ProductService) List(ctx context.Context, ownerID string, limit, offset int) ([]model.Product, error) {
	b, err := s.businesses.GetOwn(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.products.ListByBusiness(ctx, b.ID, limit, offset)
}

// Create adds a product to the caller's business.
func (s *ProductService) Create(ctx context.Context, ownerID string, req *model.ProductRequest) (*model.Product, error) {
	p, err := productFromRequest(req)
	if err != nil {
		return nil, err
	}
	b, err := s.businesses.GetOwn(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	p.BusinessID = b.ID
	if err := s.products.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces a product of the caller's business.
// Returns ErrProductNotFound for products of other businesses.
func (s *ProductService) Update(ctx context.Context, ownerID, id string, req *model.ProductRequest) (*model.Product, error) {
	p, err := productFromRequest(req)
	if err != nil {
		return nil, err
	}
	b, err := s.businesses.GetOwn(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	p.ID = id
	p.BusinessID = b.ID
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a product of the caller's business.
func (s *ProductService) Delete(ctx context.Context, ownerID, id string) error {
	b, err := s.businesses.GetOwn(ctx, ownerID)
	if err != nil {
		return err
	}
	return s.products.Delete(ctx, b.ID, id)
}

// GetOwned returns a product when it belongs to businessID.
func (s *ProductService) GetOwned(ctx context.Context, businessID, id string) (*model.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil || p.BusinessID != businessID {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func productFromRequest(req *model.ProductRequest) (*model.Product, error) {
	// Defense-in-depth: check for nil pointer even though handler validates
	if req == nil || req.Price == nil {
		return nil, ErrInvalidRequest
	}
	name := sanitize.Text(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	price := decimal.NewFromFloat(*req.Price).Round(2)
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidRequest)
	}
	return &model.Product{
		Name:        name,
		Description: sanitize.RichText(req.Description),
		Price:       price,
		ImageURL:    req.ImageURL,
	}, nil
}
