// AngelaMos | 2026
// products.go

package sheets

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
	"github.com/carterperez-dev/ea-marketplace/internal/product"
)

type ProductRepository struct {
	c *Client
}

func NewProductRepository(c *Client) *ProductRepository {
	return &ProductRepository{c: c}
}

func productToRecord(p *product.Product) record {
	return record{
		"id":            p.ID,
		"name":          p.Name,
		"description":   p.Description,
		"price":         strconv.FormatInt(p.Price, 10),
		"file_path":     p.FilePath,
		"compiled_path": p.CompiledPath,
		"status":        p.Status,
		"created_at":    formatTime(p.CreatedAt),
		"admin_id":      p.AdminID,
	}
}

func recordToProduct(r record) product.Product {
	return product.Product{
		ID:           r["id"],
		Name:         r["name"],
		Description:  r["description"],
		Price:        parseInt(r["price"]),
		FilePath:     r["file_path"],
		CompiledPath: r["compiled_path"],
		Status:       r["status"],
		AdminID:      r["admin_id"],
		CreatedAt:    parseTime(r["created_at"]),
	}
}

func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.c.readAll(ctx, productsTab)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]product.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, recordToProduct(row.rec))
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})

	return products, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	row, err := r.c.find(ctx, productsTab, "id", id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	p := recordToProduct(row.rec)
	return &p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	unlock := r.c.lock(productsTab.name)
	defer unlock()

	_, err := r.c.find(ctx, productsTab, "id", p.ID)
	if err == nil {
		return fmt.Errorf("create product: %w", core.ErrDuplicateKey)
	}
	if !isNotFound(err) {
		return fmt.Errorf("create product: %w", err)
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	return r.c.appendRow(ctx, productsTab, productToRecord(p))
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	unlock := r.c.lock(productsTab.name)
	defer unlock()

	row, err := r.c.find(ctx, productsTab, "id", p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	next := *p
	existing := recordToProduct(row.rec)
	next.CreatedAt = existing.CreatedAt
	next.AdminID = existing.AdminID

	return r.c.writeRow(ctx, productsTab, row, productToRecord(&next))
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	unlock := r.c.lock(productsTab.name)
	defer unlock()

	row, err := r.c.find(ctx, productsTab, "id", id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	return r.c.removeRow(ctx, productsTab, row.num)
}

var _ product.Repository = (*ProductRepository)(nil)
