package settlement

import "github.com/m04kA/SMC-MarketplaceService/internal/domain"

// Source откуда пришёл итог платежа
type Source string

const (
	SourceConfirm        Source = "confirm"
	SourceCallback       Source = "callback"
	SourceReconciliation Source = "reconciliation"
	SourceInitiation     Source = "initiation" // шлюз отклонил STK push
)

// Request итог платежа, полученный от провайдера
type Request struct {
	TransactionID int64
	Outcome       domain.TransactionStatus // completed или failed
	ResultCode    *int
	ResultDesc    string
	Source        Source
}

// Result состояние транзакции после расчёта.
// Applied = false, если транзакция уже была рассчитана раньше (без побочных эффектов).
type Result struct {
	Transaction *domain.Transaction
	Applied     bool
}
