// AngelaMos | 2026
// dto.go

package product

import (
	"time"
)

type CreateProductRequest struct {
	Name         string `json:"name"          validate:"required,max=200"`
	Description  string `json:"description"   validate:"max=2000"`
	Price        int64  `json:"price"         validate:"required,gt=0"`
	FilePath     string `json:"file_path"     validate:"max=500"`
	CompiledPath string `json:"compiled_path" validate:"max=500"`
	Status       string `json:"status"        validate:"omitempty,oneof=pending compiling active failed"`
}

type UpdateProductRequest struct {
	Name         *string `json:"name,omitempty"          validate:"omitempty,min=1,max=200"`
	Description  *string `json:"description,omitempty"   validate:"omitempty,max=2000"`
	Price        *int64  `json:"price,omitempty"         validate:"omitempty,gt=0"`
	FilePath     *string `json:"file_path,omitempty"     validate:"omitempty,max=500"`
	CompiledPath *string `json:"compiled_path,omitempty" validate:"omitempty,max=500"`
	Status       *string `json:"status,omitempty"        validate:"omitempty,oneof=pending compiling active failed"`
}

type UpdateStatusRequest struct {
	Status       string `json:"status"        validate:"required,oneof=pending compiling active failed"`
	CompiledPath string `json:"compiled_path" validate:"max=500"`
}

// PublicProduct is the storefront view; storage paths are never exposed.
type PublicProduct struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

type AdminProduct struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	FilePath     string    `json:"file_path"`
	CompiledPath string    `json:"compiled_path"`
	Status       string    `json:"status"`
	AdminID      string    `json:"admin_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type ListResponse struct {
	Success  bool            `json:"success"`
	Source   Source          `json:"source"`
	Products []PublicProduct `json:"products"`
}

type DetailResponse struct {
	Success bool          `json:"success"`
	Product PublicProduct `json:"product"`
}

type AdminListResponse struct {
	Success bool           `json:"success"`
	Data    []AdminProduct `json:"data"`
}

type AdminDetailResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Product AdminProduct `json:"product"`
}

func ToPublic(p *Product) PublicProduct {
	return PublicProduct{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CreatedAt:   p.CreatedAt,
	}
}

func ToPublicList(products []Product) []PublicProduct {
	out := make([]PublicProduct, 0, len(products))
	for i := range products {
		out = append(out, ToPublic(&products[i]))
	}
	return out
}

func ToAdmin(p *Product) AdminProduct {
	return AdminProduct{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		FilePath:     p.FilePath,
		CompiledPath: p.CompiledPath,
		Status:       p.Status,
		AdminID:      p.AdminID,
		CreatedAt:    p.CreatedAt,
	}
}

func ToAdminList(products []Product) []AdminProduct {
	out := make([]AdminProduct, 0, len(products))
	for i := range products {
		out = append(out, ToAdmin(&products[i]))
	}
	return out
}
