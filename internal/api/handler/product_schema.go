package handler

import "github.com/sokoni/marketplace-api/internal/core/domain"

// createProductRequest is bound from multipart form fields; the image file
// itself is read separately. Validation here is the fast-fail pass; the
// service re-validates regardless of transport.
type createProductRequest struct {
	Title         string  `form:"title"          validate:"required"`
	Price         float64 `form:"price"`
	Category      string  `form:"category"       validate:"required"`
	Description   string  `form:"description"    validate:"required"`
	ContactNumber string  `form:"contact_number" validate:"required"`
	Location      string  `form:"location"       validate:"required"`
}

// createProductResponse wraps the created listing.
type createProductResponse struct {
	Product *domain.Product `json:"product"`
}
