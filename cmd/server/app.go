package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	"abcretail/internal/catalog/service"
	"abcretail/internal/domain"
	"abcretail/internal/order/command"
	orderservice "abcretail/internal/order/service"
	"abcretail/internal/order/worker"
	"abcretail/internal/platform/blob"
	blobfs "abcretail/internal/platform/blob/fs"
	blobmemory "abcretail/internal/platform/blob/memory"
	blobs3 "abcretail/internal/platform/blob/s3"
	"abcretail/internal/platform/config"
	"abcretail/internal/platform/kafka"
	"abcretail/internal/platform/logger"
	"abcretail/internal/platform/metrics"
	"abcretail/internal/platform/postgres"
	redisclient "abcretail/internal/platform/redis"
	"abcretail/internal/storage"
	httptransport "abcretail/internal/transport/http"
	"abcretail/pkg/platform/audit"
	"abcretail/pkg/platform/audit/archive"
	"abcretail/pkg/platform/audit/archiver"
	"abcretail/pkg/platform/audit/liveview"
	"abcretail/pkg/platform/audit/publisher"
	"abcretail/pkg/platform/audit/publishers/stream"
	"abcretail/pkg/platform/circuit"
	"abcretail/pkg/platform/queue"
	queuememory "abcretail/pkg/platform/queue/memory"
	queueredis "abcretail/pkg/platform/queue/redis"
)

// app holds the long-lived clients of one process. Every command builds one
// and closes it on exit.
type app struct {
	cfg     config.Server
	logger  *slog.Logger
	metrics *metrics.Metrics

	redis *redisclient.Client
	db    *sql.DB
	kafka *kgo.Client

	store storage.Store
	blobs blob.Store

	orderCh  queue.Channel
	poisonCh queue.Channel
	auditCh  queue.Channel

	publisher *publisher.Publisher
}

func newApp(ctx context.Context, cfg config.Server, reg prometheus.Registerer) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger.New(cfg.LogLevel, cfg.LogFormat),
		metrics: metrics.New(reg),
	}
	if err := a.init(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context) error {
	var err error
	if a.redis, err = redisclient.New(ctx, a.cfg.Redis); err != nil {
		return err
	}
	a.orderCh = a.channel(queue.OrderQueue)
	a.poisonCh = a.channel(queue.OrderPoisonQueue)
	a.auditCh = a.channel(queue.AuditQueue)

	if a.db, err = postgres.Open(ctx, a.cfg.Postgres); err != nil {
		return err
	}
	if a.db != nil {
		pg := storage.NewPostgresStore(a.db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure entity schema: %w", err)
		}
		a.store = pg
	} else {
		a.logger.Warn("no DATABASE_URL configured, entities are kept in memory")
		a.store = storage.NewInMemoryStore()
	}

	if a.blobs, err = openBlobs(ctx, a.cfg.Blob); err != nil {
		return err
	}

	if a.kafka, err = kafka.NewClient(a.cfg.Kafka); err != nil {
		return err
	}
	if a.kafka != nil {
		if err := kafka.EnsureTopic(ctx, a.kafka, a.cfg.Kafka); err != nil {
			return err
		}
	}

	a.publisher = publisher.NewPublisher(audit.NewQueue(a.auditCh),
		publisher.WithLogger(a.logger),
		publisher.WithMetrics(a.metrics),
	)
	return nil
}

// channel opens a queue channel on Redis, or in memory when no Redis URL is
// configured. In-memory channels are only shared within this process.
func (a *app) channel(name string) queue.Channel {
	var ch queue.Channel
	if a.redis != nil {
		ch = queueredis.New(a.redis.Client, a.cfg.Queue.KeyPrefix, name, queueredis.WithLease(a.cfg.Queue.LeaseDuration))
	} else {
		ch = queuememory.New(name, queuememory.WithLease(a.cfg.Queue.LeaseDuration))
	}
	return queue.Instrument(ch, a.metrics)
}

func (a *app) inMemoryQueues() bool { return a.redis == nil }

func openBlobs(ctx context.Context, cfg config.BlobConfig) (blob.Store, error) {
	switch blob.Driver(cfg.Driver) {
	case blob.DriverFilesystem:
		store, err := blobfs.New(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("open blob root: %w", err)
		}
		return store, nil
	case blob.DriverS3:
		store, err := blobs3.New(ctx, blobs3.Config{
			Region:          cfg.Region,
			Bucket:          cfg.Bucket,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			PathStyle:       cfg.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("open s3 bucket: %w", err)
		}
		return store, nil
	default:
		return blobmemory.New(), nil
	}
}

func (a *app) orders() *storage.Table[domain.Order, *domain.Order] {
	return storage.NewTable[domain.Order](a.store, domain.PartitionOrder)
}

func (a *app) orderService() *orderservice.Service {
	return orderservice.New(command.NewQueue(a.orderCh), a.orders(),
		orderservice.WithCatalog(
			storage.NewTable[domain.Customer](a.store, domain.PartitionCustomer),
			storage.NewTable[domain.Product](a.store, domain.PartitionProduct),
		),
		orderservice.WithMetrics(a.metrics),
		orderservice.WithLogger(a.logger),
	)
}

func (a *app) catalogService() *service.Service {
	return service.New(
		storage.NewTable[domain.Customer](a.store, domain.PartitionCustomer),
		storage.NewTable[domain.Product](a.store, domain.PartitionProduct),
		a.publisher,
		service.WithLogger(a.logger),
		service.WithImages(service.NewImageStore(a.blobs, a.cfg.Blob.ImageURLTTL)),
	)
}

func (a *app) poller() *worker.Poller {
	q := command.NewQueue(a.orderCh)
	consumer := worker.NewConsumer(q, a.orders(), a.store, a.publisher,
		worker.WithPoisonQueue(a.poisonCh),
		worker.WithMetrics(a.metrics),
		worker.WithLogger(a.logger),
		worker.WithMaxDequeueCount(a.cfg.Queue.MaxDequeueCount),
	)
	return worker.NewPoller(q, consumer,
		worker.WithBatchSize(a.cfg.Queue.BatchSize),
		worker.WithConcurrency(a.cfg.Queue.Concurrency),
		worker.WithPollInterval(a.cfg.Queue.PollInterval),
		worker.WithPollerLogger(a.logger),
	)
}

func (a *app) location() *time.Location {
	loc, err := a.cfg.Archive.Location()
	if err != nil {
		return time.UTC
	}
	return loc
}

func (a *app) files() *archive.FileStore {
	return archive.NewFileStore(a.blobs)
}

func (a *app) liveView() *liveview.View {
	return liveview.New(audit.NewQueue(a.auditCh),
		liveview.WithFileStore(a.files()),
		liveview.WithLocation(a.location()),
		liveview.WithLogger(a.logger),
	)
}

func (a *app) archiver() (*archiver.Archiver, error) {
	enc, err := archive.NewEncoder(archive.Format(a.cfg.Archive.Format), a.location())
	if err != nil {
		return nil, err
	}
	strategy, err := archiver.ParseStrategy(a.cfg.Archive.Strategy)
	if err != nil {
		return nil, err
	}
	opts := []archiver.Option{
		archiver.WithStrategy(strategy),
		archiver.WithInterval(a.cfg.Archive.Interval),
		archiver.WithMetrics(a.metrics),
		archiver.WithLogger(a.logger),
	}
	if a.kafka != nil {
		opts = append(opts, archiver.WithSink(stream.New(a.kafka,
			stream.WithTopic(a.cfg.Kafka.Topic),
			stream.WithBreaker(circuit.New("audit-stream", circuit.WithFailureThreshold(3), circuit.WithCooldown(time.Minute))),
			stream.WithMetrics(a.metrics),
			stream.WithLogger(a.logger),
		)))
	}
	return archiver.New(audit.NewQueue(a.auditCh), a.files(), enc, opts...), nil
}

func (a *app) healthChecks() map[string]httptransport.HealthCheck {
	checks := map[string]httptransport.HealthCheck{}
	if a.redis != nil {
		checks["redis"] = a.redis.Health
	}
	if a.db != nil {
		checks["postgres"] = a.db.PingContext
	}
	if a.kafka != nil {
		checks["kafka"] = a.kafka.Ping
	}
	return checks
}

func (a *app) close() {
	var errs []error
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("error closing resources", "error", err)
	}
}
