package update_service

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/catalog/models"
)

// UpdateServiceRequest HTTP request model. Все поля опциональны.
type UpdateServiceRequest struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Status      *string          `json:"status,omitempty"` // active | inactive
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *UpdateServiceRequest) ToServiceRequest(actor domain.Actor) *models.UpdateServiceRequest {
	return &models.UpdateServiceRequest{
		Actor:       actor,
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Status:      r.Status,
	}
}
