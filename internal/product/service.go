// AngelaMos | 2026
// service.go

package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/ea-marketplace/internal/core"
)

// Service is the admin write path. Unlike Catalog it never falls back:
// edits against an unavailable store fail.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) CountByStatus(ctx context.Context) (total, active int, err error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	for i := range products {
		if products[i].IsActive() {
			active++
		}
	}
	return len(products), active, nil
}

func (s *Service) Create(
	ctx context.Context,
	adminID string,
	req CreateProductRequest,
) (*Product, error) {
	status := req.Status
	if status == "" {
		status = StatusPending
	}

	p := &Product{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Description:  strings.TrimSpace(req.Description),
		Price:        req.Price,
		FilePath:     req.FilePath,
		CompiledPath: req.CompiledPath,
		Status:       status,
		AdminID:      adminID,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) Update(
	ctx context.Context,
	id string,
	req UpdateProductRequest,
) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.FilePath != nil {
		p.FilePath = *req.FilePath
	}
	if req.CompiledPath != nil {
		p.CompiledPath = *req.CompiledPath
	}
	if req.Status != nil {
		p.Status = *req.Status
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// UpdateStatus records the outcome of the external compile step. Activating
// a product requires a compiled file location.
func (s *Service) UpdateStatus(
	ctx context.Context,
	id string,
	req UpdateStatusRequest,
) (*Product, error) {
	if !ValidStatus(req.Status) {
		return nil, core.ValidationError(
			fmt.Sprintf("invalid product status %q", req.Status),
		)
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CompiledPath != "" {
		p.CompiledPath = req.CompiledPath
	}

	if req.Status == StatusActive && p.CompiledPath == "" {
		return nil, core.ValidationError(
			"compiled_path is required to activate a product",
		)
	}

	p.Status = req.Status

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
