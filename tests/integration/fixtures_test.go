//go:build integration

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/offer-marketplace/internal/model"
)

// seedBusiness signs up a business account and returns its account ID.
func seedBusiness(t *testing.T, name string) string {
	t.Helper()
	sess, err := env.auth.SignUp(context.Background(), &model.SignUpRequest{
		Email:        fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Password:     "correct-horse",
		Role:         string(model.RoleBusiness),
		BusinessName: name,
	})
	require.NoError(t, err)
	return sess.Principal.AccountID
}

func seedProduct(t *testing.T, ownerID string, price float64) string {
	t.Helper()
	p, err := env.products.Create(context.Background(), ownerID, &model.ProductRequest{
		Name:  "Flat White",
		Price: float(price),
	})
	require.NoError(t, err)
	return p.ID
}

// seedLiveOffer creates an active offer whose window contains now.
func seedLiveOffer(t *testing.T, ownerID, productID string, maxClaims *int) string {
	t.Helper()
	now := time.Now()
	start, expiry := now.Add(-time.Hour), now.Add(24*time.Hour)
	o, err := env.offers.Create(context.Background(), ownerID, &model.CreateOfferRequest{
		ProductID:          productID,
		Title:              "Half-price coffee",
		DiscountPercentage: float(50),
		StartDate:          &start,
		ExpiryDate:         &expiry,
		MaxClaims:          maxClaims,
		IsActive:           boolp(true),
	})
	require.NoError(t, err)
	return o.ID
}

func seedGuest(t *testing.T) string {
	t.Helper()
	c, err := env.customers.CreateGuest(context.Background(), uuid.NewString(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	return c.ID
}

// expireOffer moves an offer's window into the past.
func expireOffer(t *testing.T, offerID string) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		`UPDATE offers SET start_date = NOW() - INTERVAL '2 hours', expiry_date = NOW() - INTERVAL '1 minute' WHERE id = $1`,
		offerID)
	require.NoError(t, err)
}

func offerCounts(t *testing.T, offerID string) (current int, claims int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, testPool.QueryRow(ctx, `SELECT current_claims FROM offers WHERE id = $1`, offerID).Scan(&current))
	require.NoError(t, testPool.QueryRow(ctx, `SELECT COUNT(*) FROM claimed_offers WHERE offer_id = $1`, offerID).Scan(&claims))
	return current, claims
}

func claimStatus(t *testing.T, claimID string) model.ClaimStatus {
	t.Helper()
	var status string
	require.NoError(t, testPool.QueryRow(context.Background(),
		`SELECT status FROM claimed_offers WHERE id = $1`, claimID).Scan(&status))
	return model.ClaimStatus(status)
}
