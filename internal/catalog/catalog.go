// Package catalog holds the fixed list of products the scanner can recognize.
//
// A Catalog is built once at startup and never mutated, so it is safe to share
// between sessions without locking.
package catalog

import (
	"ScanCheckout/internal/entity"
	"context"
	_ "embed"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

//go:embed products.json
var embeddedProducts []byte

var (
	ErrEmptyName     = errors.New("catalog item has an empty name")
	ErrDuplicateName = errors.New("duplicate catalog item name")
	ErrNegativePrice = errors.New("catalog item has a negative price")
)

// Source provides the product rows a Catalog is built from.
type Source interface {
	ListProducts(ctx context.Context) ([]entity.CatalogItem, error)
}

type Catalog struct {
	items  []entity.CatalogItem
	byName map[string]int
}

func New(items []entity.CatalogItem) (*Catalog, error) {
	c := &Catalog{
		items:  make([]entity.CatalogItem, 0, len(items)),
		byName: make(map[string]int, len(items)),
	}

	for _, item := range items {
		if item.Name == "" {
			return nil, ErrEmptyName
		}
		if item.Price < 0 {
			return nil, fmt.Errorf("%w: %q", ErrNegativePrice, item.Name)
		}
		if _, exists := c.byName[item.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, item.Name)
		}

		c.byName[item.Name] = len(c.items)
		c.items = append(c.items, item)
	}

	return c, nil
}

// Default builds the catalog compiled into the binary.
func Default() (*Catalog, error) {
	var items []entity.CatalogItem
	if err := jsoniter.Unmarshal(embeddedProducts, &items); err != nil {
		return nil, fmt.Errorf("failed to decode embedded catalog: %w", err)
	}
	return New(items)
}

// FromSource loads every product from src and freezes them into a Catalog.
func FromSource(ctx context.Context, src Source) (*Catalog, error) {
	items, err := src.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return New(items)
}

// Lookup matches name exactly; comparison is case-sensitive.
func (c *Catalog) Lookup(name string) (entity.CatalogItem, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return entity.CatalogItem{}, false
	}
	return c.items[idx], true
}

func (c *Catalog) Items() []entity.CatalogItem {
	out := make([]entity.CatalogItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Len() int {
	return len(c.items)
}
