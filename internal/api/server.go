package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/happybuttons/orderflow/internal/config"
	"github.com/happybuttons/orderflow/internal/relay"
	"github.com/happybuttons/orderflow/internal/repository"
	"github.com/happybuttons/orderflow/internal/statemachine"
	"github.com/happybuttons/orderflow/pkg/kafka"
	"github.com/happybuttons/orderflow/pkg/logger"
	"github.com/happybuttons/orderflow/pkg/ratelimit"
)

// Server wires the state machine, repositories, relay, and HTTP surface
type Server struct {
	config     *config.Config
	logger     logger.Logger
	router     *mux.Router
	httpServer *http.Server
	machine    *statemachine.OrderStateMachine
	events     *repository.EventRepository
	relay      *relay.Relay
	producer   *kafka.Producer
	ipLimiter  *ratelimit.IPRateLimiter
}

// NewServer creates the API server and all its collaborators
func NewServer(cfg *config.Config, logger logger.Logger) (*Server, error) {
	orderRepo, err := repository.NewOrderRepository(cfg.StorageDir, logger)

	if err != nil {
		return nil, fmt.Errorf("failed to open order storage: %w", err)
	}

	eventRepo, err := repository.NewEventRepository(cfg.EventsDir, logger)

	if err != nil {
		return nil, fmt.Errorf("failed to open event storage: %w", err)
	}

	rules := config.LoadStateRules(cfg.StatesPath, logger)
	machine := statemachine.New(rules, orderRepo, eventRepo, logger)

	loaded, skipped, err := machine.LoadOrders()

	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	if skipped > 0 {
		logger.Warn("Some order files could not be loaded", "loaded", loaded, "skipped", skipped)
	}

	server := &Server{
		config:    cfg,
		logger:    logger,
		router:    mux.NewRouter(),
		machine:   machine,
		events:    eventRepo,
		ipLimiter: ratelimit.NewIPRateLimiter(cfg.RateLimit.MaxTokens, cfg.RateLimit.RefillRate),
	}

	if cfg.Relay.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, logger)

		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
		}

		server.producer = producer
		server.relay = relay.New(eventRepo, producer, relay.Config{
			Topic:           cfg.Kafka.EventsTopic,
			PollingInterval: cfg.Relay.PollingInterval,
			BatchSize:       cfg.Relay.BatchSize,
			MaxAttempts:     cfg.Relay.MaxAttempts,
		}, logger)
		server.relay.Start()
	}

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      server.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	server.setupRoutes()

	return server, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and its background workers
func (s *Server) Shutdown(ctx context.Context) error {
	if s.relay != nil {
		s.relay.Stop()
	}

	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			s.logger.Error("Error closing Kafka producer", "error", err)
		}
	}

	s.ipLimiter.Stop()

	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures all the routes for the API
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.rateLimitMiddleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)

	api.HandleFunc("/orders", s.createOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders", s.getOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/overdue", s.getOverdueOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", s.getOrderByIDHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/history", s.getOrderHistoryHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/transitions", s.transitionOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("/statistics", s.getStatisticsHandler).Methods(http.MethodGet)

	// Operator surface for event files the relay gave up on
	admin := s.router.PathPrefix("/api/v1/admin").Subrouter()
	admin.HandleFunc("/events/failed", s.getFailedEventsHandler).Methods(http.MethodGet)
	admin.HandleFunc("/events/failed/{name}/retry", s.retryFailedEventHandler).Methods(http.MethodPost)
}

// loggingMiddleware logs every request after it is processed
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

// rateLimitMiddleware applies the per-IP limit to every request
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		if !s.ipLimiter.Allow(ip) {
			s.logger.Warn("Rate limit exceeded", "method", r.Method, "path", r.URL.Path, "ip", ip)

			w.Header().Set("Retry-After", "60")
			s.respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client IP from the request
func clientIP(r *http.Request) string {
	ip := r.RemoteAddr

	if i := strings.LastIndex(ip, ":"); i != -1 {
		ip = ip[:i]
	}

	return ip
}
