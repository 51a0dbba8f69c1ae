package booking

import (
	"github.com/m04kA/SMC-MarketplaceService/pkg/dbmetrics"
)

// Переиспользуем интерфейс из dbmetrics: *sql.DB, *dbmetrics.DB и транзакции
type DBExecutor = dbmetrics.DBExecutor
