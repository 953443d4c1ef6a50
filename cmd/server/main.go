package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitchain/internal/config"
	"github.com/mmynk/splitchain/internal/events"
	"github.com/mmynk/splitchain/internal/events/kafka"
	"github.com/mmynk/splitchain/internal/metrics"
	"github.com/mmynk/splitchain/internal/middleware"
	"github.com/mmynk/splitchain/internal/payment"
	"github.com/mmynk/splitchain/internal/service"
	"github.com/mmynk/splitchain/internal/storage"
	"github.com/mmynk/splitchain/internal/storage/memory"
	"github.com/mmynk/splitchain/internal/storage/sqlite"
	"github.com/mmynk/splitchain/pkg/api/apiconnect"
	"github.com/mmynk/splitchain/pkg/logging"
)

func main() {
	cfg := config.Load()
	logging.SetupWith(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)

	store, err := openStore(cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	m := metrics.New()

	publisher := events.Publisher(events.Nop{})
	if cfg.Kafka.Enabled() {
		publisher = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		slog.Info("Publishing events to Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	defer publisher.Close()

	breaker := payment.NewBreaker(
		payment.NewRateLimited(payment.NewSimulated(), cfg.Payment.RatePerSecond, cfg.Payment.Burst),
		payment.BreakerConfig{
			MaxFailures:     cfg.Payment.BreakerMaxFailures,
			ResetTimeout:    cfg.Payment.BreakerResetTimeout,
			HalfOpenMaxSucc: payment.DefaultBreakerConfig().HalfOpenMaxSucc,
		},
	)
	breaker.OnStateChange(func(s payment.BreakerState) { m.SetBreakerState(int(s)) })

	svc := service.NewLedgerService(store,
		service.WithExecutor(breaker),
		service.WithPublisher(publisher),
		service.WithRecorder(m),
		service.WithPaymentTimeout(cfg.Payment.Timeout),
	)

	mux := http.NewServeMux()
	path, handler := apiconnect.NewLedgerServiceHandler(svc,
		connect.WithInterceptors(middleware.LoggingInterceptor(), middleware.MetricsInterceptor(m)),
	)
	mux.Handle(path, handler)
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	h2cHandler := h2c.NewHandler(corsMiddleware(cfg.Server.CORSAllowOrigins, mux), &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      h2cHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

// openStore returns the SQLite store when a path is configured and an
// in-memory store otherwise.
func openStore(cfg config.StorageConfig) (storage.Store, error) {
	if cfg.DBPath == "" {
		slog.Info("Storage initialized", "backend", "memory")
		return memory.New(), nil
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	slog.Info("Storage initialized", "backend", "sqlite", "database", cfg.DBPath)
	return store, nil
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(allowed []string, next http.Handler) http.Handler {
	anyOrigin := slices.Contains(allowed, "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case anyOrigin:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(allowed, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
