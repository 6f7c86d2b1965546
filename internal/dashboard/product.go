package dashboard

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlaceholderImage is substituted when a remote record declares no images.
const PlaceholderImage = "/placeholder-image.jpg"

// Origin tells where a product record lives and therefore how mutations
// behave: remote records are never written back upstream, local records
// are persisted in the local store.
type Origin string

const (
	OriginRemote Origin = "remote"
	OriginLocal  Origin = "local"
)

type Product struct {
	ID          string          `json:"id"`
	Origin      Origin          `json:"origin"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand,omitempty"`
	Description string          `json:"description"`
	Stock       int             `json:"stock"`
	Rating      float64         `json:"rating"`
	Image       string          `json:"image"`
	Images      []string        `json:"images"`
}

var ErrNotFound = errors.New("product not found")

func NewLocalID() string { return "l_" + uuid.NewString() }

// ValidationError carries every violated field at once so a form can
// render all problems in a single round trip.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return "invalid fields: " + strings.Join(names, ", ")
}

func validateProduct(p Product) error {
	fields := map[string]string{}

	if strings.TrimSpace(p.Name) == "" {
		fields["name"] = "name is required"
	}
	if !p.Price.IsPositive() {
		fields["price"] = "price must be greater than zero"
	}
	if strings.TrimSpace(p.Category) == "" {
		fields["category"] = "category is required"
	}
	if strings.TrimSpace(p.Description) == "" {
		fields["description"] = "description is required"
	}
	if p.Stock < 0 {
		fields["stock"] = "stock must not be negative"
	}
	if p.Rating < 0 || p.Rating > 5 {
		fields["rating"] = "rating must be between 0 and 5"
	}
	if len(p.Images) == 0 {
		fields["images"] = "at least one image is required"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ProductPatch is a partial update: nil fields are left untouched.
type ProductPatch struct {
	Name        *string          `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Brand       *string          `json:"brand"`
	Description *string          `json:"description"`
	Stock       *int             `json:"stock"`
	Rating      *float64         `json:"rating"`
	Images      []string         `json:"images"`
}

func (pp ProductPatch) applyTo(p *Product) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.Category != nil {
		p.Category = *pp.Category
	}
	if pp.Brand != nil {
		p.Brand = *pp.Brand
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Stock != nil {
		p.Stock = *pp.Stock
	}
	if pp.Rating != nil {
		p.Rating = *pp.Rating
	}
	if pp.Images != nil {
		p.Images = pp.Images
		p.Image = firstOr(pp.Images, PlaceholderImage)
	}
}

func firstOr(ss []string, fallback string) string {
	if len(ss) > 0 {
		return ss[0]
	}
	return fallback
}
