package create_booking

import (
	"time"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/pkg/types"
)

// Request модель запроса на создание бронирования
type Request struct {
	CustomerID int64             // ID покупателя (из токена)
	ServiceID  int64             // ID услуги
	Date       time.Time         // Дата бронирования (без времени)
	StartTime  *types.TimeString // Время начала (опционально)
	EndTime    *types.TimeString // Время окончания (опционально)
	Notes      *string           // Дополнительные заметки (опционально)
}

// Response модель ответа с созданным бронированием
// Booking содержит название услуги и имена сторон.
type Response struct {
	Booking *domain.Booking
}
