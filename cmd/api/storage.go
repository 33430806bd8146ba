package main

import (
	"context"

	"marketplace_payments/internal/adapter/persistence/memory"
	"marketplace_payments/internal/adapter/persistence/repository"
	"marketplace_payments/internal/infrastructure/config"
	"marketplace_payments/internal/infrastructure/database"
	"marketplace_payments/internal/usecase/interfaces"

	"go.uber.org/zap"
)

type storage struct {
	paymentRequests interfaces.IPaymentRequestRepository
	orderLines      interfaces.IOrderLineRepository
	close           func()
}

func (s storage) Close() {
	if s.close != nil {
		s.close()
	}
}

func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		if err := database.RunMigrations(cfg.Storage.PostgresDSN, log); err != nil {
			return storage{}, err
		}
		pool, err := database.ConnectPostgres(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return storage{}, err
		}
		log.Info("storage ready", zap.String("driver", config.StoragePostgres))
		return storage{
			paymentRequests: repository.NewPaymentRequestPostgresRepository(pool),
			orderLines:      repository.NewOrderLinePostgresRepository(pool),
			close:           pool.Close,
		}, nil
	case config.StorageMemory:
		log.Warn("in-memory storage, payment requests are lost on restart")
		return storage{
			paymentRequests: memory.NewPaymentRequestRepository(),
			orderLines:      memory.NewOrderLineRepository(),
		}, nil
	default:
		ddb, err := database.ConnectDynamoDB(ctx, cfg.AWS)
		if err != nil {
			return storage{}, err
		}
		log.Info("storage ready", zap.String("driver", config.StorageDynamoDB))
		return storage{
			paymentRequests: repository.NewPaymentRequestDynamoRepository(ddb, cfg.Storage.PaymentsTable),
			orderLines:      repository.NewOrderLineDynamoRepository(ddb, cfg.Storage.OrderLinesTable),
		}, nil
	}
}
