package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelBookingHandler "github.com/m04kA/SMC-MarketplaceService/internal/api/handlers/cancel_booking"
	completeBookingHandler "github.com/m04kA/SMC-MarketplaceService/internal/api/handlers/complete_booking"
	confirmPaymentHandler "github.com/m04kA/SMC-MarketplaceService/internal/api/handlers/confirm_payment"
	createBookingHandler "github.com/m04kA/SMC-MarketplaceService/internal/api/handlers/create_booking"
	createServiceHandler "github.com/m04kA/SMC-MarketplaceService/internal/api/handlers/create_service"
	exportBookingsHandler "github.com/m04kA/SMC-MarketplaceService/internal/api/handlers/export_bookings"
	getBookingHandler "github.com/m04kA/SMC-MarketplaceService/internal/api/handlers/get_booking"
	getEarningsHandler "github.com/m04kA/SMC-MarketplaceService/internal/api/handlers/get_earnings"
	getServiceHandler "github.com/m04kA/SMC-MarketplaceService/internal/api/handlers/get_service"
	healthHandler "github.com/m04kA/SMC-MarketplaceService/internal/api/handlers/health"
	initiatePaymentHandler "github.com/m04kA/SMC-MarketplaceService/internal/api/handlers/initiate_payment"
	listBookingsHandler "github.com/m04kA/SMC-MarketplaceService/internal/api/handlers/list_bookings"
	paymentCallbackHandler "github.com/m04kA/SMC-MarketplaceService/internal/api/handlers/payment_callback"
	updateServiceHandler "github.com/m04kA/SMC-MarketplaceService/internal/api/handlers/update_service"
	"github.com/m04kA/SMC-MarketplaceService/internal/api/middleware"
	"github.com/m04kA/SMC-MarketplaceService/internal/config"
	"github.com/m04kA/SMC-MarketplaceService/internal/infra/ratelimit"
	bookingRepo "github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/booking"
	outboxRepo "github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/outbox"
	serviceRepo "github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/service"
	transactionRepo "github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/transaction"
	"github.com/m04kA/SMC-MarketplaceService/internal/integrations/mobilemoney"
	"github.com/m04kA/SMC-MarketplaceService/internal/integrations/notifier"
	bookingsService "github.com/m04kA/SMC-MarketplaceService/internal/service/bookings"
	catalogService "github.com/m04kA/SMC-MarketplaceService/internal/service/catalog"
	paymentsService "github.com/m04kA/SMC-MarketplaceService/internal/service/payments"
	settlementService "github.com/m04kA/SMC-MarketplaceService/internal/service/settlement"
	confirmPaymentUC "github.com/m04kA/SMC-MarketplaceService/internal/usecase/confirm_payment"
	createBookingUC "github.com/m04kA/SMC-MarketplaceService/internal/usecase/create_booking"
	initiatePaymentUC "github.com/m04kA/SMC-MarketplaceService/internal/usecase/initiate_payment"
	paymentCallbackUC "github.com/m04kA/SMC-MarketplaceService/internal/usecase/payment_callback"
	"github.com/m04kA/SMC-MarketplaceService/internal/worker"
	"github.com/m04kA/SMC-MarketplaceService/pkg/dbmetrics"
	"github.com/m04kA/SMC-MarketplaceService/pkg/logger"
	"github.com/m04kA/SMC-MarketplaceService/pkg/metrics"
	"github.com/m04kA/SMC-MarketplaceService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-MarketplaceService/pkg/txmanager"
)

// paymentGateway провайдер мобильных платежей (симулятор или HTTP клиент)
type paymentGateway interface {
	RequestPayment(ctx context.Context, req mobilemoney.PaymentRequest) (*mobilemoney.PaymentResponse, error)
	CheckStatus(ctx context.Context, reference string) (*mobilemoney.StatusResponse, error)
}

// eventNotifier доставка уведомлений из outbox
type eventNotifier interface {
	worker.Notifier
	Close() error
}

func main() {
	configPath := "config.toml"
	if p := os.Getenv("SMC_CONFIG"); p != "" {
		configPath = p
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-MarketplaceService...")
	log.Info("Configuration loaded from %s", configPath)

	// Инициализируем метрики (если включены). nil-коллектор безопасен: методы ничего не делают.
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(config.Seconds(cfg.Database.ConnMaxLifetime))

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Репозитории и менеджер транзакций (с метриками или без)
	var (
		executor dbmetrics.DBExecutor
		txMgr    *txmanager.TransactionManager
	)

	if cfg.Metrics.Enabled {
		wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
		log.Info("Database metrics collection started")
		executor = wrappedDB
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		executor = db
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	bookingRepository := bookingRepo.NewRepository(executor)
	serviceRepository := serviceRepo.NewRepository(executor)
	transactionRepository := transactionRepo.NewRepository(executor)
	outboxRepository := outboxRepo.NewRepository(executor)

	// Платёжный шлюз
	var gateway paymentGateway
	switch cfg.Payments.Gateway {
	case config.GatewayHTTP:
		gateway = mobilemoney.NewClient(cfg.Payments.GatewayURL, config.Seconds(cfg.Payments.GatewayTimeout), log)
		log.Info("Mobile money gateway: %s (timeout=%ds)", cfg.Payments.GatewayURL, cfg.Payments.GatewayTimeout)
	default:
		gateway = mobilemoney.NewSimulator(config.Seconds(cfg.Payments.SettleAfter))
		log.Warn("Mobile money gateway: simulator, payments settle after %ds", cfg.Payments.SettleAfter)
	}

	// Лимит попыток оплаты в Redis. Без Redis лимит не применяется.
	var initiationLimiter initiatePaymentUC.RateLimiter
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := ratelimit.Ping(pingCtx, redisClient); err != nil {
			log.Warn("Redis is unavailable, initiation limit is not enforced until it recovers: %v", err)
		}
		pingCancel()

		initiationLimiter = ratelimit.NewRedisLimiter(
			redisClient,
			cfg.Payments.InitiationLimit,
			config.Seconds(cfg.Payments.InitiationWindow),
		)
		log.Info("Payment initiation limit: %d per %ds (redis=%s)",
			cfg.Payments.InitiationLimit, cfg.Payments.InitiationWindow, cfg.Redis.Addr)
	}

	// Доставка уведомлений
	var events eventNotifier
	if cfg.RabbitMQ.Enabled {
		publisher, err := notifier.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ: %v", err)
		}
		events = publisher
		log.Info("Notifications are published to exchange %s", cfg.RabbitMQ.Exchange)
	} else {
		events = notifier.NewLogNotifier(log)
		log.Info("RabbitMQ disabled, notifications are written to the log")
	}
	defer events.Close()

	// Инициализируем сервисы
	settlementSvc := settlementService.NewService(
		transactionRepository,
		bookingRepository,
		outboxRepository,
		txMgr,
		metricsCollector,
		log,
	)
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		transactionRepository,
		outboxRepository,
		txMgr,
		log,
	)
	catalogSvc := catalogService.NewService(serviceRepository, log)
	paymentsSvc := paymentsService.NewService(transactionRepository, log)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		serviceRepository,
		outboxRepository,
		txMgr,
		metricsCollector,
		log,
	)
	initiatePaymentUseCase := initiatePaymentUC.NewUseCase(
		bookingRepository,
		transactionRepository,
		gateway,
		settlementSvc,
		initiationLimiter,
		txMgr,
		metricsCollector,
		log,
	)
	confirmPaymentUseCase := confirmPaymentUC.NewUseCase(
		transactionRepository,
		gateway,
		settlementSvc,
		log,
	)
	paymentCallbackUseCase := paymentCallbackUC.NewUseCase(
		transactionRepository,
		settlementSvc,
		cfg.Payments.CallbackToken,
		log,
	)
	if cfg.Payments.CallbackToken == "" {
		log.Warn("payments.callback_token is empty, provider callbacks will be rejected")
	}

	// Инициализируем handlers
	health := healthHandler.NewHandler(db, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	listBookings := listBookingsHandler.NewHandler(bookingSvc, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	completeBooking := completeBookingHandler.NewHandler(bookingSvc, log)
	exportBookings := exportBookingsHandler.NewHandler(bookingSvc, log)
	initiatePayment := initiatePaymentHandler.NewHandler(initiatePaymentUseCase, log)
	confirmPayment := confirmPaymentHandler.NewHandler(confirmPaymentUseCase, log)
	paymentCallback := paymentCallbackHandler.NewHandler(paymentCallbackUseCase, log)
	getEarnings := getEarningsHandler.NewHandler(paymentsSvc, log)
	createService := createServiceHandler.NewHandler(catalogSvc, log)
	getService := getServiceHandler.NewHandler(catalogSvc, log)
	updateService := updateServiceHandler.NewHandler(catalogSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.Recover(log))

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")

		// Metrics endpoint (публичный, без аутентификации)
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/health", health.Handle).Methods(http.MethodGet)

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// Публичные маршруты ограничиваются по IP, защищённые по пользователю
	limiterOpts := []middleware.RateLimiterOption{
		middleware.WithTrustedProxies(cfg.RateLimit.TrustedProxies),
		middleware.WithIdleTTL(config.Seconds(cfg.RateLimit.IdleTTL)),
	}
	publicLimit := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, limiterOpts...).Middleware
	userLimit := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, limiterOpts...).Middleware

	// ============================================================
	// PUBLIC ROUTES (без JWT)
	// ============================================================

	// Карточка услуги
	api.Handle("/services/{serviceId}", publicLimit(http.HandlerFunc(getService.Handle))).Methods(http.MethodGet)

	// Webhook провайдера платежей (проверяется X-Callback-Token)
	api.Handle("/payments/callback", publicLimit(http.HandlerFunc(paymentCallback.Handle))).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (Authorization: Bearer <jwt>)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(cfg.Auth.JWTSecret))
	protected.Use(userLimit)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings", listBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/complete", completeBooking.Handle).Methods(http.MethodPatch)

	// --- Платежи ---
	protected.HandleFunc("/payments/initiate", initiatePayment.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/payments/{transactionId:[0-9]+}", confirmPayment.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/providers/me/earnings", getEarnings.Handle).Methods(http.MethodGet)

	// --- Каталог услуг (для провайдеров) ---
	protected.HandleFunc("/services", createService.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/services/{serviceId}", updateService.Handle).Methods(http.MethodPatch)

	// --- Администрирование ---
	protected.HandleFunc("/admin/bookings/export", exportBookings.Handle).Methods(http.MethodGet)

	// Фоновые воркеры
	workersCtx, stopWorkers := context.WithCancel(context.Background())
	var workersWG sync.WaitGroup

	relay := worker.NewOutboxRelay(
		outboxRepository,
		events,
		txMgr,
		metricsCollector,
		log,
		config.Seconds(cfg.Workers.OutboxInterval),
		cfg.Workers.OutboxBatch,
		worker.DefaultRetryPolicy(),
	)
	reconciler := worker.NewReconciler(
		transactionRepository,
		gateway,
		settlementSvc,
		log,
		config.Seconds(cfg.Workers.ReconcileInterval),
		config.Seconds(cfg.Workers.StaleAfter),
		cfg.Workers.ReconcileBatch,
	)

	workersWG.Add(2)
	go func() {
		defer workersWG.Done()
		relay.Run(workersCtx)
	}()
	go func() {
		defer workersWG.Done()
		reconciler.Run(workersCtx)
	}()

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  config.Seconds(cfg.Server.ReadTimeout),
		WriteTimeout: config.Seconds(cfg.Server.WriteTimeout),
		IdleTimeout:  config.Seconds(cfg.Server.IdleTimeout),
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		config.Seconds(cfg.Server.ShutdownTimeout),
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем воркеры после HTTP: новые события больше не появятся
	stopWorkers()
	workersWG.Wait()
	log.Info("Workers stopped")

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
