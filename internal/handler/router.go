package handler

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/fairyhunter13/offer-marketplace/internal/model"
)

// Router holds every handler of the API. Uploads, Places and Metrics are
// optional; their routes are only registered when set.
type Router struct {
	Session    *SessionMiddleware
	Health     *HealthHandler
	Auth       *AuthHandler
	Offers     *OfferHandler
	Claims     *ClaimHandler
	Businesses *BusinessHandler
	Uploads    *UploadHandler
	Places     *PlacesHandler
	Metrics    http.Handler
}

// Register mounts the routes on app.
func (r *Router) Register(app *fiber.App) {
	app.Get("/health", r.Health.Check)
	if r.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(r.Metrics))
	}

	api := app.Group("/api", r.Session.Handle)

	auth := api.Group("/auth")
	auth.Post("/signup", r.Auth.SignUp)
	auth.Post("/signin", r.Auth.SignIn)
	auth.Post("/signout", r.Auth.SignOut)
	auth.Get("/session", r.Auth.Session)
	auth.Post("/reset-password", r.Auth.ResetPassword)
	auth.Post("/reset-password/confirm", r.Auth.ConfirmPasswordReset)
	api.Post("/guest-session", r.Auth.StartGuestSession)

	api.Get("/offers", r.Offers.ListOffers)
	api.Get("/offers/:id", r.Offers.GetOffer)
	api.Post("/offers/:id/claim", RequireCustomer, r.Offers.ClaimOffer)
	api.Post("/offers/:id/save", RequireCustomer, r.Claims.SaveOffer)
	api.Delete("/offers/:id/save", RequireCustomer, r.Claims.UnsaveOffer)

	me := api.Group("/me", RequireCustomer)
	me.Get("/claims", r.Claims.ListClaims)
	me.Post("/claims/:id/redeem", r.Claims.Redeem)
	me.Get("/saved-offers", r.Claims.ListSaved)

	api.Get("/businesses/:id", r.Businesses.GetBusiness)

	biz := api.Group("/business", RequireRole(model.RoleBusiness))
	biz.Get("/profile", r.Businesses.GetProfile)
	biz.Put("/profile", r.Businesses.UpdateProfile)
	biz.Get("/products", r.Businesses.ListProducts)
	biz.Post("/products", r.Businesses.CreateProduct)
	biz.Put("/products/:id", r.Businesses.UpdateProduct)
	biz.Delete("/products/:id", r.Businesses.DeleteProduct)
	biz.Get("/offers", r.Offers.ListOwnOffers)
	biz.Post("/offers", r.Offers.CreateOffer)
	biz.Put("/offers/:id", r.Offers.UpdateOffer)
	biz.Patch("/offers/:id/active", r.Offers.SetOfferActive)
	biz.Delete("/offers/:id", r.Offers.DeleteOffer)
	if r.Uploads != nil {
		biz.Post("/uploads", r.Uploads.Upload)
	}

	if r.Places != nil {
		places := api.Group("/places", RequireRole(model.RoleBusiness))
		places.Get("/geocode", r.Places.Geocode)
		places.Get("/autocomplete", r.Places.Autocomplete)
		places.Get("/details", r.Places.Details)
	}
}
