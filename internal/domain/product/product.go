package product

import (
	"errors"
	"fmt"
)

// MaxIDLength is the maximum allowed product identifier length.
const MaxIDLength = 256

// Product is an immutable catalog record. Optional attributes are nil when absent.
type Product struct {
	id          string
	title       string
	brand       *string
	price       *float64
	rating      *float64
	imageURL    *string
	description *string
}

// Attributes holds the optional product fields passed to New.
type Attributes struct {
	Brand       *string
	Price       *float64
	Rating      *float64
	ImageURL    *string
	Description *string
}

// New validates and creates a product. Pointer attributes are copied so the record
// cannot be changed through the caller's variables.
func New(id, title string, attrs Attributes) (Product, error) {
	if id == "" {
		return Product{}, errors.New("product id is required")
	}
	if len(id) > MaxIDLength {
		return Product{}, fmt.Errorf("product id too long (max %d chars)", MaxIDLength)
	}
	if attrs.Price != nil && *attrs.Price < 0 {
		return Product{}, fmt.Errorf("product %q: price must be non-negative, got %g", id, *attrs.Price)
	}
	return Product{
		id:          id,
		title:       title,
		brand:       copyPtr(attrs.Brand),
		price:       copyPtr(attrs.Price),
		rating:      copyPtr(attrs.Rating),
		imageURL:    copyPtr(attrs.ImageURL),
		description: copyPtr(attrs.Description),
	}, nil
}

// ID returns the unique product identifier.
func (p Product) ID() string { return p.id }

// Title returns the product title.
func (p Product) Title() string { return p.title }

// Brand returns the brand, or nil when absent.
func (p Product) Brand() *string { return copyPtr(p.brand) }

// Price returns the price, or nil when absent.
func (p Product) Price() *float64 { return copyPtr(p.price) }

// Rating returns the rating, or nil when absent.
func (p Product) Rating() *float64 { return copyPtr(p.rating) }

// ImageURL returns the image URL, or nil when absent.
func (p Product) ImageURL() *string { return copyPtr(p.imageURL) }

// Description returns the description, or nil when absent.
func (p Product) Description() *string { return copyPtr(p.description) }

// BrandValue returns the brand and whether it is present and non-empty.
func (p Product) BrandValue() (string, bool) {
	if p.brand == nil || *p.brand == "" {
		return "", false
	}
	return *p.brand, true
}

// PriceValue returns the price and whether it is present.
func (p Product) PriceValue() (float64, bool) {
	if p.price == nil {
		return 0, false
	}
	return *p.price, true
}

// PairText is the text scored against the query by the cross-encoder:
// "{title}. {description}" with an empty description when absent.
func (p Product) PairText() string {
	desc := ""
	if p.description != nil {
		desc = *p.description
	}
	return p.title + ". " + desc
}

func copyPtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
