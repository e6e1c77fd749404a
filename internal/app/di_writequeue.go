package app

import (
	"context"
	"fmt"

	"github.com/allisson/writequeue/internal/database"
	"github.com/allisson/writequeue/internal/metrics"
	"github.com/allisson/writequeue/internal/remotestore"
	writeQueueHTTP "github.com/allisson/writequeue/internal/writequeue/http"
	writeQueueRepository "github.com/allisson/writequeue/internal/writequeue/repository"
	writeQueueService "github.com/allisson/writequeue/internal/writequeue/service"
	writeQueueUseCase "github.com/allisson/writequeue/internal/writequeue/usecase"
)

// Remote store drivers.
const (
	RemoteDriverPostgREST = "postgrest"
)

// QueueRepository returns the pending operation repository for the queue database driver.
func (c *Container) QueueRepository() (writeQueueUseCase.QueueRepository, error) {
	c.queueRepositoryInit.Do(func() {
		repo, err := c.initQueueRepository()
		if err != nil {
			c.setInitError("queueRepository", err)
			return
		}
		c.queueRepository = repo
	})
	if err := c.initError("queueRepository"); err != nil {
		return nil, err
	}
	return c.queueRepository, nil
}

// DeadLetterRepository returns the dead letter repository for the queue database driver.
func (c *Container) DeadLetterRepository() (writeQueueUseCase.DeadLetterRepository, error) {
	c.deadLetterRepositoryInit.Do(func() {
		repo, err := c.initDeadLetterRepository()
		if err != nil {
			c.setInitError("deadLetterRepository", err)
			return
		}
		c.deadLetterRepository = repo
	})
	if err := c.initError("deadLetterRepository"); err != nil {
		return nil, err
	}
	return c.deadLetterRepository, nil
}

// RemoteStore returns the remote data store adapter selected by RemoteDriver.
func (c *Container) RemoteStore() (writeQueueUseCase.RemoteStore, error) {
	c.remoteStoreInit.Do(func() {
		store, err := c.initRemoteStore()
		if err != nil {
			c.setInitError("remoteStore", err)
			return
		}
		c.remoteStore = store
	})
	if err := c.initError("remoteStore"); err != nil {
		return nil, err
	}
	return c.remoteStore, nil
}

// ErrorClassifier returns the remote failure classifier.
func (c *Container) ErrorClassifier() writeQueueUseCase.ErrorClassifier {
	c.errorClassifierInit.Do(func() {
		c.errorClassifier = writeQueueService.NewErrorClassifier()
	})
	return c.errorClassifier
}

// PayloadCodec returns the codec used for queued payloads. Payloads are sealed
// with a secrets keeper when QueuePayloadKeyURI is set.
func (c *Container) PayloadCodec() (writeQueueUseCase.PayloadCodec, error) {
	c.payloadCodecInit.Do(func() {
		codec, err := c.initPayloadCodec()
		if err != nil {
			c.setInitError("payloadCodec", err)
			return
		}
		c.payloadCodec = codec
	})
	if err := c.initError("payloadCodec"); err != nil {
		return nil, err
	}
	return c.payloadCodec, nil
}

// WriteQueueUseCase returns the write queue use case, wrapped with metrics when enabled.
func (c *Container) WriteQueueUseCase() (writeQueueUseCase.WriteQueueUseCase, error) {
	c.writeQueueUseCaseInit.Do(func() {
		useCase, err := c.initWriteQueueUseCase()
		if err != nil {
			c.setInitError("writeQueueUseCase", err)
			return
		}
		c.writeQueueUseCase = useCase
	})
	if err := c.initError("writeQueueUseCase"); err != nil {
		return nil, err
	}
	return c.writeQueueUseCase, nil
}

// WriteQueueHandler returns the HTTP handler for writes and queue administration.
func (c *Container) WriteQueueHandler() (*writeQueueHTTP.WriteQueueHandler, error) {
	c.writeQueueHandlerInit.Do(func() {
		useCase, err := c.WriteQueueUseCase()
		if err != nil {
			c.setInitError("writeQueueHandler", fmt.Errorf("failed to get write queue use case for handler: %w", err))
			return
		}
		c.writeQueueHandler = writeQueueHTTP.NewWriteQueueHandler(useCase, c.Logger())
	})
	if err := c.initError("writeQueueHandler"); err != nil {
		return nil, err
	}
	return c.writeQueueHandler, nil
}

// DrainWorker returns the periodic drain worker.
func (c *Container) DrainWorker() (*writeQueueUseCase.DrainWorker, error) {
	c.drainWorkerInit.Do(func() {
		useCase, err := c.WriteQueueUseCase()
		if err != nil {
			c.setInitError("drainWorker", fmt.Errorf("failed to get write queue use case for drain worker: %w", err))
			return
		}
		c.drainWorker = writeQueueUseCase.NewDrainWorker(
			useCase,
			c.config.QueueDrainInterval,
			c.config.QueueDrainBatchSize,
			c.Logger(),
		)
	})
	if err := c.initError("drainWorker"); err != nil {
		return nil, err
	}
	return c.drainWorker, nil
}

func (c *Container) initQueueRepository() (writeQueueUseCase.QueueRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for queue repository: %w", err)
	}

	switch c.config.QueueDBDriver {
	case database.DriverSQLite:
		return writeQueueRepository.NewSQLiteQueueRepository(db), nil
	case database.DriverPostgreSQL:
		return writeQueueRepository.NewPostgreSQLQueueRepository(db), nil
	case database.DriverMySQL:
		return writeQueueRepository.NewMySQLQueueRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.QueueDBDriver)
	}
}

func (c *Container) initDeadLetterRepository() (writeQueueUseCase.DeadLetterRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for dead letter repository: %w", err)
	}

	switch c.config.QueueDBDriver {
	case database.DriverSQLite:
		return writeQueueRepository.NewSQLiteDeadLetterRepository(db), nil
	case database.DriverPostgreSQL:
		return writeQueueRepository.NewPostgreSQLDeadLetterRepository(db), nil
	case database.DriverMySQL:
		return writeQueueRepository.NewMySQLDeadLetterRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.QueueDBDriver)
	}
}

func (c *Container) initRemoteStore() (writeQueueUseCase.RemoteStore, error) {
	switch c.config.RemoteDriver {
	case RemoteDriverPostgREST:
		return remotestore.NewPostgRESTStore(remotestore.PostgRESTConfig{
			URL:     c.config.RemoteURL,
			APIKey:  c.config.RemoteAPIKey,
			Timeout: c.config.RemoteTimeout,
		}), nil
	case database.DriverPostgreSQL, database.DriverMySQL:
		if c.config.RemoteDBConnectionString == "" {
			return nil, fmt.Errorf("remote driver %s requires REMOTE_DB_CONNECTION_STRING", c.config.RemoteDriver)
		}
		// The remote may be down at startup, so open without a ping.
		db, err := database.Open(database.Config{
			Driver:             c.config.RemoteDriver,
			ConnectionString:   c.config.RemoteDBConnectionString,
			MaxOpenConnections: c.config.QueueDBMaxOpenConnections,
			MaxIdleConnections: c.config.QueueDBMaxIdleConnections,
			ConnMaxLifetime:    c.config.QueueDBConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open remote database: %w", err)
		}
		c.remoteDB = db
		return remotestore.NewSQLStore(db, c.config.RemoteDriver), nil
	default:
		return nil, fmt.Errorf("unsupported remote driver: %s", c.config.RemoteDriver)
	}
}

func (c *Container) initPayloadCodec() (writeQueueUseCase.PayloadCodec, error) {
	if c.config.QueuePayloadKeyURI == "" {
		return writeQueueService.NewJSONPayloadCodec(), nil
	}

	keeper, err := writeQueueService.OpenKeeper(context.Background(), c.config.QueuePayloadKeyURI)
	if err != nil {
		return nil, err
	}
	c.keeper = keeper
	return writeQueueService.NewSealedPayloadCodec(keeper), nil
}

func (c *Container) initWriteQueueUseCase() (writeQueueUseCase.WriteQueueUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for write queue use case: %w", err)
	}

	queueRepo, err := c.QueueRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get queue repository for write queue use case: %w", err)
	}

	deadLetterRepo, err := c.DeadLetterRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get dead letter repository for write queue use case: %w", err)
	}

	remote, err := c.RemoteStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get remote store for write queue use case: %w", err)
	}

	codec, err := c.PayloadCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to get payload codec for write queue use case: %w", err)
	}

	baseUseCase := writeQueueUseCase.NewWriteQueueUseCase(
		writeQueueUseCase.Config{
			BatchSize:  c.config.QueueDrainBatchSize,
			MaxRetries: c.config.QueueMaxRetries,
		},
		txManager,
		queueRepo,
		deadLetterRepo,
		remote,
		c.ErrorClassifier(),
		codec,
		c.Logger(),
	)

	if !c.config.MetricsEnabled {
		return baseUseCase, nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for write queue use case: %w", err)
	}

	// The gauge reads the undecorated use case so scrapes are not counted as operations.
	registration, err := metrics.RegisterQueueDepthGauge(
		provider.MeterProvider(),
		c.config.MetricsNamespace,
		func(ctx context.Context) (int64, int64, error) {
			stats, err := baseUseCase.Stats(ctx)
			if err != nil {
				return 0, 0, err
			}
			return stats.Pending, stats.DeadLetters, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register queue depth gauge: %w", err)
	}
	c.queueDepthGauge = registration

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for write queue use case: %w", err)
	}
	return writeQueueUseCase.NewWriteQueueUseCaseWithMetrics(baseUseCase, businessMetrics), nil
}
