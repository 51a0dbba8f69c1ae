package payments

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/payments/models"
)

// Service сервис отчётов по платежам
type Service struct {
	transactionRepo TransactionRepository
	logger          Logger
}

// NewService создает новый экземпляр сервиса
func NewService(transactionRepo TransactionRepository, logger Logger) *Service {
	return &Service{
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// GetEarnings считает заработок провайдера.
// Сумма берётся из completed транзакций, поэтому повторные подтверждения её не удваивают.
func (s *Service) GetEarnings(ctx context.Context, actor domain.Actor) (*models.EarningsResponse, error) {
	s.logger.Info("GetEarnings: fetching earnings for user=%d", actor.UserID)

	if actor.Role != domain.RoleProvider && !actor.IsAdmin() {
		s.logger.Warn("GetEarnings: user=%d with role=%s is not a provider", actor.UserID, actor.Role)
		return nil, ErrAccessDenied
	}

	earnings, err := s.transactionRepo.GetEarnings(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("GetEarnings: repository error for user=%d: %v", actor.UserID, err)
		return nil, fmt.Errorf("%w: GetEarnings - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainEarnings(earnings), nil
}
