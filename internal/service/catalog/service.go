package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	serviceRepo "github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/service"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/catalog/models"
)

// Service сервис каталога услуг
type Service struct {
	serviceRepo ServiceRepository
	logger      Logger
}

// NewService создает новый экземпляр сервиса каталога
func NewService(serviceRepo ServiceRepository, logger Logger) *Service {
	return &Service{
		serviceRepo: serviceRepo,
		logger:      logger,
	}
}

// Create создает услугу от имени провайдера
// Доступно провайдерам и администраторам
func (s *Service) Create(ctx context.Context, req *models.CreateServiceRequest) (*models.ServiceResponse, error) {
	s.logger.Info("Create: creating service %q by user=%d", req.Title, req.Actor.UserID)

	// 1. Проверяем роль
	if req.Actor.Role != domain.RoleProvider && !req.Actor.IsAdmin() {
		s.logger.Warn("Create: user=%d with role=%s cannot list services", req.Actor.UserID, req.Actor.Role)
		return nil, ErrAccessDenied
	}

	// 2. Валидируем данные
	title := strings.TrimSpace(req.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(req.Description); err != nil {
		return nil, err
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}

	// 3. Сохраняем
	created, err := s.serviceRepo.Create(ctx, &domain.Service{
		ProviderID:  req.Actor.UserID,
		Title:       title,
		Description: req.Description,
		Price:       req.Price,
		Status:      domain.ServiceStatusActive,
	})
	if err != nil {
		s.logger.Error("Create: repository error: %v", err)
		return nil, fmt.Errorf("%w: Create - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Create: successfully created service id=%d", created.ID)
	return models.FromDomainService(created), nil
}

// GetByID получает услугу по ID. Доступно всем авторизованным пользователям.
func (s *Service) GetByID(ctx context.Context, id int64) (*models.ServiceResponse, error) {
	s.logger.Info("GetByID: fetching service id=%d", id)

	service, err := s.serviceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrServiceNotFound) {
			s.logger.Warn("GetByID: service id=%d not found", id)
			return nil, ErrServiceNotFound
		}
		s.logger.Error("GetByID: repository error for service id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainService(service), nil
}

// Update частично обновляет услугу
// Изменять услугу может только её владелец или администратор.
// Цена уже созданных бронирований не меняется.
func (s *Service) Update(ctx context.Context, id int64, req *models.UpdateServiceRequest) (*models.ServiceResponse, error) {
	s.logger.Info("Update: updating service id=%d by user=%d", id, req.Actor.UserID)

	// 1. Получаем услугу
	current, err := s.serviceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrServiceNotFound) {
			s.logger.Warn("Update: service id=%d not found", id)
			return nil, ErrServiceNotFound
		}
		s.logger.Error("Update: repository error for service id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	// 2. Проверяем права (владелец или администратор)
	if current.ProviderID != req.Actor.UserID && !req.Actor.IsAdmin() {
		s.logger.Warn("Update: user=%d is not the owner of service id=%d", req.Actor.UserID, id)
		return nil, ErrAccessDenied
	}

	// 3. Валидируем и собираем изменения
	update, err := buildUpdate(req)
	if err != nil {
		s.logger.Warn("Update: validation failed: %v", err)
		return nil, err
	}

	// 4. Применяем
	updated, err := s.serviceRepo.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrServiceNotFound) {
			return nil, ErrServiceNotFound
		}
		s.logger.Error("Update: repository error for service id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Update: successfully updated service id=%d", id)
	return models.FromDomainService(updated), nil
}

func buildUpdate(req *models.UpdateServiceRequest) (domain.ServiceUpdate, error) {
	var update domain.ServiceUpdate

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := validateTitle(title); err != nil {
			return update, err
		}
		update.Title = &title
	}
	if req.Description != nil {
		if err := validateDescription(*req.Description); err != nil {
			return update, err
		}
		update.Description = req.Description
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return update, err
		}
		update.Price = req.Price
	}
	if req.Status != nil {
		status := domain.ServiceStatus(*req.Status)
		if !status.IsValid() {
			return update, fmt.Errorf("%w: status must be active or inactive", ErrInvalidInput)
		}
		update.Status = &status
	}

	return update, nil
}

func validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > domain.MaxServiceTitleLength {
		return fmt.Errorf("%w: title must be at most %d characters", ErrInvalidInput, domain.MaxServiceTitleLength)
	}
	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > domain.MaxServiceDescriptionLength {
		return fmt.Errorf("%w: description must be at most %d characters", ErrInvalidInput, domain.MaxServiceDescriptionLength)
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	if !price.Equal(price.Round(2)) {
		return fmt.Errorf("%w: price must have at most 2 decimal places", ErrInvalidInput)
	}
	return nil
}
