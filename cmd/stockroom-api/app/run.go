package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/aq2208/stockroom-api/configs"
	"github.com/aq2208/stockroom-api/internal/adapter/cache"
	httpadapter "github.com/aq2208/stockroom-api/internal/adapter/http"
	"github.com/aq2208/stockroom-api/internal/adapter/http/middleware"
	"github.com/aq2208/stockroom-api/internal/adapter/kafka"
	"github.com/aq2208/stockroom-api/internal/adapter/queue"
	"github.com/aq2208/stockroom-api/internal/adapter/repo"
	"github.com/aq2208/stockroom-api/internal/logging"
	"github.com/aq2208/stockroom-api/internal/security"
	"github.com/aq2208/stockroom-api/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// App holds the long-running parts of the service.
type App struct {
	server    *http.Server
	health    *HealthServer
	relay     *queue.OutboxRelay
	consumers *queue.Router
	delivery  *kafka.Consumer // nil when no brokers are configured
	log       *slog.Logger
}

func InitWithConfig(ctx context.Context, cfg configs.Config) (*App, func(), error) {
	log := logging.New("bootstrap")
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		closers = nil
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return fail(fmt.Errorf("open mysql: %w", err))
	}
	closers = append(closers, func() { _ = db.Close() })
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fail(fmt.Errorf("ping mysql: %w", err))
	}
	if cfg.MySQL.ApplySchema {
		if err := repo.ApplySchema(pingCtx, db); err != nil {
			return fail(fmt.Errorf("apply schema: %w", err))
		}
		log.Info("schema applied")
	}

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	closers = append(closers, func() { _ = rdb.Close() })
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fail(fmt.Errorf("ping redis: %w", err))
	}

	// repositories + use cases
	tx := repo.NewTransactor(db)
	orderRepo := repo.NewMySQLOrderRepo(db)
	warrantyRepo := repo.NewMySQLWarrantyRepo(db)
	supplierRepo := repo.NewMySQLSupplierRepo(db)
	productRepo := repo.NewMySQLProductRepo(db)
	categoryRepo := repo.NewMySQLCategoryRepo(db)
	outboxRepo := repo.NewMySQLOutboxRepo(db)

	orders := usecase.NewOrderLifecycle(tx, orderRepo, outboxRepo,
		usecase.WithOrderCache(cache.NewRedisOrderCache(rdb, cfg.Cache.OrderTTL)),
		usecase.WithIdempotency(cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)),
	)
	warranties := usecase.NewWarrantyRegistration(tx, warrantyRepo, outboxRepo)
	suppliers := usecase.NewSuppliers(supplierRepo)
	catalog := usecase.NewCatalog(tx, productRepo, categoryRepo)
	activity := usecase.NewRecentActivity(cache.NewRedisActivityFeed(rdb, cfg.Cache.ActivityLimit))

	// rabbitmq: one channel publishes (confirm mode), one consumes
	mq, err := amqp.Dial(cfg.Rabbit.URL)
	if err != nil {
		return fail(fmt.Errorf("dial rabbitmq: %w", err))
	}
	closers = append(closers, func() { _ = mq.Close() })
	pubCh, err := mq.Channel()
	if err != nil {
		return fail(fmt.Errorf("open publish channel: %w", err))
	}
	producer, err := queue.NewRabbitProducer(pubCh, queue.Topology{
		Exchange:      cfg.Rabbit.Exchange,
		ActivityQueue: cfg.Rabbit.ActivityQueue,
	})
	if err != nil {
		return fail(err)
	}
	subCh, err := mq.Channel()
	if err != nil {
		return fail(fmt.Errorf("open consume channel: %w", err))
	}
	consumers := queue.NewRouter(subCh, queue.WithPrefetch(cfg.Rabbit.Prefetch))
	consumers.Register(cfg.Rabbit.ActivityQueue, queue.NewActivityHandler(activity))

	relay := queue.NewOutboxRelay(outboxRepo, producer, queue.RelayConfig{
		Interval:   cfg.Outbox.PollInterval,
		BatchSize:  cfg.Outbox.BatchSize,
		MaxRetries: cfg.Outbox.MaxRetries,
	})

	// kafka: supplier delivery updates (optional)
	var delivery *kafka.Consumer
	if len(cfg.Kafka.Brokers) > 0 {
		grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
		if err != nil {
			return fail(fmt.Errorf("kafka group: %w", err))
		}
		closers = append(closers, func() { _ = grp.Close() })
		h := kafka.NewDeliveryStatusHandler(orders)
		delivery = kafka.NewConsumer(grp, []string{cfg.Kafka.DeliveryTopic}, h.Handle)
	} else {
		log.Info("kafka brokers not configured, delivery feed disabled")
	}

	// auth
	accounts := make([]security.Account, 0, len(cfg.Security.Users))
	for _, u := range cfg.Security.Users {
		accounts = append(accounts, security.Account{
			Email:    u.Email,
			Password: u.Password,
			FullName: u.FullName,
			Role:     u.Role,
		})
	}
	users, err := security.NewUserStore(accounts, 0)
	if err != nil {
		return fail(fmt.Errorf("load users: %w", err))
	}

	ready := map[string]httpadapter.ReadyCheck{
		"mysql": db.PingContext,
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		"rabbitmq": func(context.Context) error {
			if mq.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		},
	}

	router := httpadapter.NewRouter(httpadapter.RouterDeps{
		Orders:     httpadapter.NewOrderHandler(orders),
		Warranties: httpadapter.NewWarrantyHandler(warranties),
		Suppliers:  httpadapter.NewSupplierHandler(suppliers),
		Catalog:    httpadapter.NewCatalogHandler(catalog),
		Activity:   httpadapter.NewActivityHandler(activity),
		Token: httpadapter.NewTokenHandler(httpadapter.TokenConfig{
			Secret:   cfg.Security.JWTSecret,
			Issuer:   cfg.Security.Issuer,
			Audience: cfg.Security.Audience,
			TTL:      cfg.Security.TTL,
		}, users),
		Authz: middleware.NewAuthz(middleware.AuthzConfig{
			Secret:   cfg.Security.JWTSecret,
			Issuer:   cfg.Security.Issuer,
			Audience: cfg.Security.Audience,
		}),
		Logger:         logging.New("http"),
		AllowOrigin:    cfg.CORS.AllowOrigin,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		Ready:          ready,
	})

	a := &App{
		server: &http.Server{
			Addr:         cfg.App.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
		},
		health:    NewHealthServer(cfg.GRPC.HealthAddr, ready),
		relay:     relay,
		consumers: consumers,
		delivery:  delivery,
		log:       log,
	}
	return a, cleanup, nil
}

// Run starts every component and blocks until ctx is cancelled or one of the
// servers fails, then shuts the servers down.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.consumers.Start(ctx); err != nil {
		return fmt.Errorf("start rabbitmq consumers: %w", err)
	}
	go a.relay.Run(ctx)

	errc := make(chan error, 3)
	if a.delivery != nil {
		go func() {
			if err := a.delivery.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errc <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}
	go func() {
		if err := a.health.Serve(ctx); err != nil {
			errc <- fmt.Errorf("grpc health: %w", err)
		}
	}()
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown requested")
	case runErr = <-errc:
		a.log.Error("component failed, shutting down", "err", runErr)
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("http shutdown", "err", err)
	}
	a.health.Stop()
	return runErr
}
