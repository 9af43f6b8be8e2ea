package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/retailworks/pos-backoffice/internal/clients"
	"github.com/retailworks/pos-backoffice/internal/config"
	"github.com/retailworks/pos-backoffice/internal/database"
	"github.com/retailworks/pos-backoffice/internal/handlers"
	"github.com/retailworks/pos-backoffice/internal/models"
	"github.com/retailworks/pos-backoffice/internal/outbox"
	"github.com/retailworks/pos-backoffice/internal/repository"
	"github.com/retailworks/pos-backoffice/internal/service"
	"github.com/retailworks/pos-backoffice/pkg/kafka"
	"github.com/retailworks/pos-backoffice/pkg/logger"
	"github.com/retailworks/pos-backoffice/pkg/middleware"
	"github.com/retailworks/pos-backoffice/pkg/retry"
)

type Server struct {
	config              *config.Config
	logger              logger.Logger
	router              *mux.Router
	httpServer          *http.Server
	db                  *database.Database
	catalogRepo         *repository.CatalogRepository
	dlqRepo             *repository.DeadLetterRepository
	taxClient           *clients.TaxClient
	orderService        *service.OrderService
	amendmentService    *service.AmendmentService
	versionService      *service.VersionService
	fulfillmentService  *service.FulfillmentService
	outboxProcessor     *outbox.Processor
	deadLetterProcessor *outbox.DeadLetterProcessor
	kafkaProducer       *kafka.Producer
	kafkaConsumer       *kafka.Consumer
	rateLimiter         *middleware.RateLimiterMiddleware
}

// NewServer creates a new API server with the given configuration and logger.
func NewServer(cfg *config.Config, logger logger.Logger) *Server {
	r := mux.NewRouter()
	db, err := database.New(cfg, logger)

	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		panic(err)
	}

	if err := db.RunMigrations(); err != nil {
		logger.Error("Failed to run database migrations", "error", err)
		panic(err)
	}

	// Repositories
	orderRepo := repository.NewOrderRepository(db, logger)
	amendmentRepo := repository.NewAmendmentRepository(db, logger)
	versionRepo := repository.NewVersionRepository(db, logger)
	sequenceRepo := repository.NewSequenceRepository(db, logger)
	shipmentRepo := repository.NewShipmentRepository(db, logger)
	catalogRepo := repository.NewCatalogRepository(db, logger)
	outboxRepo := repository.NewOutboxRepository(db, logger)
	dlqRepo := repository.NewDeadLetterRepository(db, logger)

	// External collaborators
	taxClient := clients.NewTaxClient(cfg.Tax.BaseURL, logger)

	kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Brokers, logger)

	if err != nil {
		logger.Error("Failed to create Kafka producer", "error", err)
		panic(err)
	}

	// Services
	orderService := service.NewOrderService(db, orderRepo, versionRepo, sequenceRepo, catalogRepo, outboxRepo, taxClient, logger)
	amendmentService := service.NewAmendmentService(db, orderRepo, amendmentRepo, versionRepo, sequenceRepo, catalogRepo, outboxRepo, taxClient, logger)
	versionService := service.NewVersionService(orderRepo, versionRepo, logger)
	fulfillmentService := service.NewFulfillmentService(db, orderRepo, shipmentRepo, versionRepo, sequenceRepo, outboxRepo, logger)

	// Outbox processor
	processorConfig := outbox.ProcessorConfig{
		PollingInterval: 5 * time.Second,
		BatchSize:       10,
		MaxRetries:      3,
	}
	outboxProcessor := outbox.NewProcessor(outboxRepo, dlqRepo, processorConfig, logger)

	// Dead letter processor, polled less often than the outbox
	dlqProcessorConfig := &outbox.DeadLetterProcessorConfig{
		PollingInterval: 30 * time.Second,
		BatchSize:       5,
		MaxRetries:      5,
		BackoffStrategy: &retry.ExponentialBackoff{
			InitialInterval: 1 * time.Second,
			MaxInterval:     2 * time.Minute,
			Multiplier:      2.0,
			JitterFactor:    0.1,
		},
	}
	deadLetterProcessor := outbox.NewDeadLetterProcessor(dlqRepo, logger, dlqProcessorConfig)

	// Every event type is published to the same stream
	kafkaHandler := outbox.NewKafkaHandler(kafkaProducer, cfg.Kafka.EventsTopic, logger)

	eventTypes := []string{
		models.EventOrderCreated,
		models.EventPriceLockChanged,
		models.EventAmendmentCreated,
		models.EventAmendmentApproved,
		models.EventAmendmentRejected,
		models.EventAmendmentApplied,
		models.EventShipmentCreated,
		models.EventItemsBackordered,
	}

	for _, eventType := range eventTypes {
		outboxProcessor.RegisterHandler(eventType, kafkaHandler)
		deadLetterProcessor.RegisterHandler(eventType, kafkaHandler)
	}

	// Kafka consumer
	consumerConfig := &kafka.ConsumerConfig{
		Brokers:       cfg.Kafka.Brokers,
		Topics:        []string{cfg.Kafka.EventsTopic},
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
	}

	kafkaConsumer, err := kafka.NewConsumer(consumerConfig, logger)

	if err != nil {
		logger.Error("Failed to create Kafka consumer", "error", err)
		panic(err)
	}

	amendmentEventsHandler := handlers.NewAmendmentEventsHandler(logger)
	kafkaConsumer.RegisterHandler(cfg.Kafka.EventsTopic, amendmentEventsHandler)

	rateLimiter := middleware.NewRateLimiterMiddleware(&middleware.RateLimiterConfig{
		GlobalMaxTokens:   100,
		GlobalRefillRate:  50,
		IPMaxTokens:       20,
		IPRefillRate:      10,
		TrustForwardedFor: cfg.Env != "production",
	}, logger)

	server := &Server{
		router: r,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:              logger,
		config:              cfg,
		db:                  db,
		catalogRepo:         catalogRepo,
		dlqRepo:             dlqRepo,
		taxClient:           taxClient,
		orderService:        orderService,
		amendmentService:    amendmentService,
		versionService:      versionService,
		fulfillmentService:  fulfillmentService,
		outboxProcessor:     outboxProcessor,
		deadLetterProcessor: deadLetterProcessor,
		kafkaProducer:       kafkaProducer,
		kafkaConsumer:       kafkaConsumer,
		rateLimiter:         rateLimiter,
	}

	server.setupRoutes()

	outboxProcessor.Start()
	deadLetterProcessor.Start()

	if err := kafkaConsumer.Start(); err != nil {
		logger.Error("Failed to start Kafka consumer", "error", err)
		// Non-fatal, continue without the consumer
	}

	return server
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.outboxProcessor.Stop()
	s.deadLetterProcessor.Stop()
	s.rateLimiter.Stop()

	if s.kafkaConsumer != nil {
		if err := s.kafkaConsumer.Stop(); err != nil {
			s.logger.Error("Error stopping Kafka consumer", "error", err)
		}
	}

	if s.kafkaProducer != nil {
		if err := s.kafkaProducer.Close(); err != nil {
			s.logger.Error("Error closing Kafka producer", "error", err)
		}
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Error closing database connection", "error", err)
	}

	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures all the routes for our API
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.rateLimiter.Middleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)

	// Orders and price locks
	api.HandleFunc("/orders", s.getOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders", s.createOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}", s.getOrderByIDHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/price-lock", s.setPriceLockHandler).Methods(http.MethodPut)

	// Amendments
	api.HandleFunc("/orders/{id}/amendments", s.createAmendmentHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/amendments", s.getOrderAmendmentsHandler).Methods(http.MethodGet)
	api.HandleFunc("/amendments/pending", s.getPendingAmendmentsHandler).Methods(http.MethodGet)
	api.HandleFunc("/amendments/{id}", s.getAmendmentHandler).Methods(http.MethodGet)
	api.HandleFunc("/amendments/{id}/approve", s.approveAmendmentHandler).Methods(http.MethodPost)
	api.HandleFunc("/amendments/{id}/reject", s.rejectAmendmentHandler).Methods(http.MethodPost)
	api.HandleFunc("/amendments/{id}/apply", s.applyAmendmentHandler).Methods(http.MethodPost)

	// Version ledger
	api.HandleFunc("/orders/{id}/versions", s.getOrderVersionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/versions/compare", s.compareOrderVersionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/versions/{version}", s.getOrderVersionHandler).Methods(http.MethodGet)

	// Fulfillment
	api.HandleFunc("/orders/{id}/shipments", s.createShipmentHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/shipments", s.getShipmentsForOrderHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/backorder", s.backorderItemsHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/fulfillment", s.getFulfillmentSummaryHandler).Methods(http.MethodGet)

	// Catalog
	api.HandleFunc("/products", s.upsertProductHandler).Methods(http.MethodPut)
	api.HandleFunc("/products/{id}", s.getProductHandler).Methods(http.MethodGet)

	// Admin API for monitoring and management
	admin := s.router.PathPrefix("/api/v1/admin").Subrouter()
	admin.HandleFunc("/dead-letters", s.getDeadLettersHandler).Methods(http.MethodGet)
	admin.HandleFunc("/dead-letters/{id}/retry", s.retryDeadLetterHandler).Methods(http.MethodPost)
	admin.HandleFunc("/dead-letters/{id}/discard", s.discardDeadLetterHandler).Methods(http.MethodPost)
	admin.HandleFunc("/tax-client/status", s.getTaxClientStatusHandler).Methods(http.MethodGet)
	admin.HandleFunc("/tax-client/reset", s.resetTaxClientBreakerHandler).Methods(http.MethodPost)
}

// Middleware for logging requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("Request processed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"remoteAddr", r.RemoteAddr,
		)
	})
}
