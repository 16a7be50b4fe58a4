// Package catalog holds the in-memory, read-only product catalog.
package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
)

// maxLineBytes bounds a single JSON-lines record.
const maxLineBytes = 4 << 20

// Catalog maps product ids to products. It is immutable after construction and
// safe for concurrent reads.
type Catalog struct {
	byID  map[string]product.Product
	order []string
}

// New builds a catalog. A repeated id replaces the earlier record but keeps its position.
func New(products []product.Product) *Catalog {
	c := &Catalog{
		byID:  make(map[string]product.Product, len(products)),
		order: make([]string, 0, len(products)),
	}
	for _, p := range products {
		if _, seen := c.byID[p.ID()]; !seen {
			c.order = append(c.order, p.ID())
		}
		c.byID[p.ID()] = p
	}
	return c
}

// Load reads a JSON-lines catalog file. A missing file yields domain.ErrCatalogNotFound.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCatalogNotFound, path)
		}
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	c, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return c, nil
}

// Read decodes JSON-lines product records. Blank lines are skipped.
func Read(r io.Reader) (*Catalog, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var products []product.Product
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: decode: %w", line, err)
		}
		p, err := rec.toProduct()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		products = append(products, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan line %d: %w", line+1, err)
	}
	return New(products), nil
}

// Get returns the product with the given id.
func (c *Catalog) Get(id string) (product.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Len returns the number of distinct products.
func (c *Catalog) Len() int { return len(c.byID) }

// IDs returns product ids in load order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}
