package handler

import (
	"context"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/offer-marketplace/internal/model"
)

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// OwnBusinessFinder resolves the caller's business.
type OwnBusinessFinder interface {
	GetOwn(ctx context.Context, ownerID string) (*model.Business, error)
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadHandler accepts logo and product images for the caller's business.
type UploadHandler struct {
	uploader   Uploader
	businesses OwnBusinessFinder
	maxBytes   int64
}

// NewUploadHandler creates a new UploadHandler accepting files up to maxBytes.
func NewUploadHandler(uploader Uploader, businesses OwnBusinessFinder, maxBytes int64) *UploadHandler {
	return &UploadHandler{uploader: uploader, businesses: businesses, maxBytes: maxBytes}
}

// Upload handles POST /api/business/uploads with a multipart "file" field.
// The content type is taken from the file bytes, not the client's header.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return respondError(c, invalidRequest("file is required"))
	}
	if fh.Size > h.maxBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("file exceeds maximum size of %d bytes", h.maxBytes),
		})
	}

	b, err := h.businesses.GetOwn(c.Context(), PrincipalFrom(c).AccountID)
	if err != nil {
		return respondError(c, err)
	}

	f, err := fh.Open()
	if err != nil {
		return respondError(c, fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		return respondError(c, fmt.Errorf("read upload: %w", err))
	}
	if int64(len(data)) > h.maxBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("file exceeds maximum size of %d bytes", h.maxBytes),
		})
	}

	mt := mimetype.Detect(data)
	if !allowedImageTypes[mt.String()] {
		return respondError(c, invalidRequest("file must be a JPEG, PNG, GIF or WebP image"))
	}

	key := fmt.Sprintf("businesses/%s/%s%s", b.ID, uuid.NewString(), mt.Extension())
	url, err := h.uploader.Upload(c.Context(), key, data, mt.String())
	if err != nil {
		return respondError(c, err)
	}
	log.Info().Str("business_id", b.ID).Str("key", key).Msg("Image uploaded")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url, "key": key})
}
