package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/prodsearch/internal/domain/product"
)

// record is the on-disk JSON-lines shape of a product.
type record struct {
	ProductID   json.RawMessage `json:"product_id"`
	Title       string          `json:"title"`
	Brand       *string         `json:"brand"`
	Price       *float64        `json:"price"`
	Rating      *float64        `json:"rating"`
	ImageURL    *string         `json:"image_url"`
	Description *string         `json:"description"`
}

// toProduct converts a decoded record into a domain Product.
func (r *record) toProduct() (product.Product, error) {
	id, err := parseID(r.ProductID)
	if err != nil {
		return product.Product{}, err
	}
	p, err := product.New(id, r.Title, product.Attributes{
		Brand:       r.Brand,
		Price:       r.Price,
		Rating:      r.Rating,
		ImageURL:    r.ImageURL,
		Description: r.Description,
	})
	if err != nil {
		return product.Product{}, fmt.Errorf("build product: %w", err)
	}
	return p, nil
}

// parseID accepts product_id as a JSON string or a JSON number; numbers keep
// their literal text so "42" and 42 resolve to the same id.
func parseID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errors.New("product_id is required")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("parse product_id: %w", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("product_id must be a string or number: %w", err)
	}
	return n.String(), nil
}
