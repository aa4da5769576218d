// AngelaMos | 2026
// catalog.go

package product

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
)

// Source names where a catalog read was served from.
type Source string

const (
	SourceStore          Source = "store"
	SourceStaticFallback Source = "static_fallback"
)

type Readiness interface {
	IsReady() bool
}

// Catalog is the public read path over products. It serves from the store
// when the store reports ready and otherwise from the built-in sample list.
type Catalog struct {
	repo     Repository
	ready    Readiness
	fallback []Product
	logger   *slog.Logger
}

func NewCatalog(repo Repository, ready Readiness, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		repo:     repo,
		ready:    ready,
		fallback: SampleCatalog(time.Now().UTC()),
		logger:   logger,
	}
}

func (c *Catalog) Source() Source {
	if c.repo == nil {
		return SourceStaticFallback
	}
	if c.ready != nil && !c.ready.IsReady() {
		return SourceStaticFallback
	}
	return SourceStore
}

// ListActive never returns a product whose status is not active. A store
// error or an empty store yields the sample catalog instead of an error.
func (c *Catalog) ListActive(ctx context.Context) ([]Product, Source) {
	all, src := c.list(ctx)
	return filterActive(all), src
}

func (c *Catalog) list(ctx context.Context) ([]Product, Source) {
	if c.Source() == SourceStore {
		products, err := c.repo.List(ctx)
		if err != nil {
			c.logger.Warn("catalog store read failed, serving fallback",
				"error", err,
			)
			return c.fallback, SourceStaticFallback
		}

		products = withIDs(products)
		if len(products) > 0 {
			return products, SourceStore
		}
	}

	return c.fallback, SourceStaticFallback
}

// GetActive resolves a purchasable product. A product the store knows but
// that is not active is NotFound; an id the store cannot resolve is looked
// up in the sample catalog.
func (c *Catalog) GetActive(ctx context.Context, id string) (*Product, error) {
	p, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !p.IsActive() {
		return nil, fmt.Errorf("get active product %s: %w", id, core.ErrNotFound)
	}

	return p, nil
}

// Get resolves a product regardless of status, store first.
func (c *Catalog) Get(ctx context.Context, id string) (*Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("get product: %w", core.ErrNotFound)
	}

	if c.Source() == SourceStore {
		p, err := c.repo.GetByID(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, core.ErrNotFound) {
			c.logger.Warn("catalog store lookup failed, trying fallback",
				"product_id", id,
				"error", err,
			)
		}
	}

	for i := range c.fallback {
		if c.fallback[i].ID == id {
			p := c.fallback[i]
			return &p, nil
		}
	}

	return nil, fmt.Errorf("get product %s: %w", id, core.ErrNotFound)
}

func filterActive(products []Product) []Product {
	active := make([]Product, 0, len(products))
	for _, p := range products {
		if p.IsActive() {
			active = append(active, p)
		}
	}
	return active
}

func withIDs(products []Product) []Product {
	valid := products[:0:0]
	for _, p := range products {
		if strings.TrimSpace(p.ID) != "" {
			valid = append(valid, p)
		}
	}
	return valid
}
