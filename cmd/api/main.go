package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"marketplace_payments/internal/adapter/http/handlers"
	"marketplace_payments/internal/adapter/http/routes"
	"marketplace_payments/internal/infrastructure/config"
	"marketplace_payments/internal/infrastructure/events"
	"marketplace_payments/internal/infrastructure/logger"
	"marketplace_payments/internal/infrastructure/metrics"
	"marketplace_payments/internal/infrastructure/payments"
	"marketplace_payments/internal/usecase"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

// @title           Marketplace Payments API
// @version         1.0
// @description     Payment requests reconciled across YooKassa, Paystack, Razorpay and Mercado Pago.

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080

// @BasePath  /v1

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "payment service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		ServiceName: cfg.ServiceName,
		Env:         cfg.Env,
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		AddCaller:   true,
	})
	if err != nil {
		return err
	}
	defer logger.Sync(log)

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewPaymentMetrics()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("closing event publisher", zap.Error(err))
		}
	}()

	receipts := payments.NewReceiptBuilder(store.orderLines, log)
	gateways, err := payments.NewGatewaySet(cfg.Gateways, cfg.HTTP.PublicBaseURL, receipts, log, m)
	if err != nil {
		return err
	}
	log.Info("payment gateways ready", zap.Strings("gateways", gateways.Names()), zap.String("mode", cfg.Gateways.Mode))

	ledger := usecase.NewPaymentLedgerUseCase(store.paymentRequests, gateways.Names(), log, m)

	hooks := usecase.NewHookDispatcher(log, m)
	usecase.RegisterPaymentHooks(hooks, publisher, time.Now)

	reconciliation := usecase.NewReconciliationUseCase(ledger, gateways, hooks, usecase.ReconciliationConfig{
		ReturnVerifyTimeout:     cfg.Gateways.ReturnVerifyTimeout,
		ReturnVerifyMinInterval: cfg.Gateways.ReturnVerifyMinInterval,
		ReturnVerifyMaxInterval: cfg.Gateways.ReturnVerifyMaxInterval,
	}, log, m)

	router, err := routes.NewRouter(routes.Handlers{
		PaymentRequests: handlers.NewPaymentRequestHandler(ledger, reconciliation, log),
		Gateways:        handlers.NewGatewayHandler(reconciliation, log),
		Registry:        m.Registry,
	}, cfg.HTTP.TrustedProxies, log)
	if err != nil {
		return fmt.Errorf("building router: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to startup the application: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Duration("timeout", cfg.HTTP.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
