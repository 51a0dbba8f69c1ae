package create_service

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/catalog/models"
)

// CreateServiceRequest HTTP request model
type CreateServiceRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CreateServiceRequest) ToServiceRequest(actor domain.Actor) *models.CreateServiceRequest {
	return &models.CreateServiceRequest{
		Actor:       actor,
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
	}
}
