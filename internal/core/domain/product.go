package domain

import (
	"errors"
	"fmt"
	"time"
)

// Category is the closed set of listing categories.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryFurniture   Category = "Furniture"
	CategoryClothing    Category = "Clothing"
	CategoryBooks       Category = "Books"
	CategoryVehicles    Category = "Vehicles"
	CategoryServices    Category = "Services"
	CategoryOther       Category = "Other"
)

var categories = map[Category]struct{}{
	CategoryElectronics: {},
	CategoryFurniture:   {},
	CategoryClothing:    {},
	CategoryBooks:       {},
	CategoryVehicles:    {},
	CategoryServices:    {},
	CategoryOther:       {},
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

var ErrUserExists = errors.New("email already registered")
var ErrUserNotFound = errors.New("user not found")
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrProductNotFound covers both "no such listing" and "not the caller's
// listing". The two cases are deliberately indistinguishable so that
// non-owners cannot probe for a listing's existence.
var ErrProductNotFound = errors.New("product not found")

// ValidationError reports malformed or missing input. It is always raised
// before any side effect (blob write or row write) happens.
type ValidationError struct {
	msg string
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.msg }

// Product is the core listing aggregate. ImageKey is the opaque asset-store
// reference; ImageURL is its resolved form and is what leaves the service
// boundary (null when the listing has no image).
type Product struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Price         float64   `json:"price"`
	Category      Category  `json:"category"`
	Description   string    `json:"description"`
	ImageKey      *string   `json:"-"`
	ImageURL      *string   `json:"image_reference"`
	ContactNumber string    `json:"contact_number"`
	Location      string    `json:"location"`
	SellerID      string    `json:"seller_id"`
	SellerName    string    `json:"seller_name,omitempty"`
	Sold          bool      `json:"sold"`
	CreatedAt     time.Time `json:"created_at"`
}
