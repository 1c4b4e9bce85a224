package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-entitlements/app/bus"
	"github.com/vibast-solutions/ms-go-entitlements/app/catalog"
	"github.com/vibast-solutions/ms-go-entitlements/app/factory"
	"github.com/vibast-solutions/ms-go-entitlements/app/ledger"
	"github.com/vibast-solutions/ms-go-entitlements/app/metrics"
	"github.com/vibast-solutions/ms-go-entitlements/app/notify"
	"github.com/vibast-solutions/ms-go-entitlements/app/payment"
	"github.com/vibast-solutions/ms-go-entitlements/app/repository"
	"github.com/vibast-solutions/ms-go-entitlements/app/service"
	"github.com/vibast-solutions/ms-go-entitlements/app/view"
	"github.com/vibast-solutions/ms-go-entitlements/config"

	_ "github.com/go-sql-driver/mysql"
)

const (
	redisDialTimeout = 5 * time.Second
	redisTimeout     = 3 * time.Second
)

// application is the wired object graph shared by every command.
type application struct {
	cfg        *config.Config
	kv         repository.KVStore
	redis      *redis.Client
	bus        *bus.Bus
	metrics    *metrics.Metrics
	reconciler *service.Reconciler
	views      *view.Manager
	service    *service.EntitlementService

	closers []func()
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}
	return cfg
}

// mustBuildApplication opens storage and the notifier and wires the service. reg may
// be nil for one-shot commands that never expose metrics.
func mustBuildApplication(cfg *config.Config, reg prometheus.Registerer) *application {
	ctx := context.Background()
	app := &application{cfg: cfg}

	kv, err := app.openStorage(ctx)
	if err != nil {
		app.close()
		logrus.WithError(err).WithField("driver", cfg.Storage.Driver).Fatal("Failed to open storage")
	}
	app.kv = kv

	if app.redis == nil && cfg.Bus.RedisChannel != "" {
		client, err := app.openRedis(ctx)
		if err != nil {
			app.close()
			logrus.WithError(err).Fatal("Failed to connect to redis for the bus bridge")
		}
		app.redis = client
	}

	notifier, err := app.openNotifier()
	if err != nil {
		app.close()
		logrus.WithError(err).WithField("driver", cfg.Notifier.Driver).Fatal("Failed to initialize notifier")
	}

	location := cfg.Entitlements.Location
	if location == nil {
		location = time.UTC
	}

	app.bus = bus.New(factory.NewModuleLogger("bus"))
	app.metrics = metrics.New(reg)

	plans := catalog.Default()
	users := repository.NewUserRepository(kv)
	sessions := repository.NewSessionRepository(kv)
	ledgerRepo := repository.NewLedgerRepository(kv)

	store := service.NewRecordStore(users, sessions, app.metrics, factory.NewModuleLogger("record-store"))
	app.reconciler = service.NewReconciler(
		store,
		app.bus,
		notifier,
		app.metrics,
		factory.NewModuleLogger("reconciler"),
		cfg.Entitlements.ExpiringSoonDays,
	)
	app.views = view.NewManager(app.reconciler, app.bus, view.Options{
		Interval: cfg.Entitlements.ReconcileInterval,
		Clock:    func() time.Time { return time.Now().In(location) },
		Logger:   factory.NewModuleLogger("views"),
	})
	app.closers = append(app.closers, app.views.CloseAll)

	app.service = service.NewEntitlementService(
		plans,
		users,
		sessions,
		ledger.NewWriter(plans, ledgerRepo),
		ledgerRepo,
		store,
		app.reconciler,
		app.views,
		payment.NewSandboxGateway(),
		app.bus,
		notifier,
		app.metrics,
		factory.NewModuleLogger("entitlements"),
		cfg.Entitlements,
	)
	return app
}

func (a *application) openStorage(ctx context.Context) (repository.KVStore, error) {
	cfg := a.cfg
	switch cfg.Storage.Driver {
	case config.StorageDriverMySQL:
		db, err := sql.Open("mysql", cfg.MySQL.DSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		a.closers = append(a.closers, closeDB(db))

		db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping mysql: %w", err)
		}
		return ensureSQLStore(ctx, db, repository.DialectMySQL)
	case config.StorageDriverSQLite:
		db, err := repository.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closeDB(db))
		return ensureSQLStore(ctx, db, repository.DialectSQLite)
	case config.StorageDriverRedis:
		client, err := a.openRedis(ctx)
		if err != nil {
			return nil, err
		}
		a.redis = client
		return repository.NewRedisStore(client, cfg.Redis.KeyPrefix), nil
	case config.StorageDriverFile:
		return repository.NewFileStore(cfg.File.Dir, factory.NewModuleLogger("file-store"))
	case config.StorageDriverMemory:
		return repository.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func (a *application) openRedis(ctx context.Context) (*redis.Client, error) {
	client, err := repository.NewRedisClient(ctx, repository.RedisOptions{
		Addr:        a.cfg.Redis.Addr,
		Password:    a.cfg.Redis.Password,
		DB:          a.cfg.Redis.DB,
		KeyPrefix:   a.cfg.Redis.KeyPrefix,
		DialTimeout: redisDialTimeout,
		Timeout:     redisTimeout,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() {
		if err := client.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close redis client")
		}
	})
	return client, nil
}

func (a *application) openNotifier() (service.Notifier, error) {
	switch a.cfg.Notifier.Driver {
	case config.NotifierDriverAMQP:
		n, err := notify.NewAMQPNotifier(a.cfg.Notifier.AMQPURL, a.cfg.Notifier.Exchange, factory.NewModuleLogger("amqp-notifier"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := n.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close amqp notifier")
			}
		})
		return n, nil
	default:
		return notify.NewLogNotifier(factory.NewModuleLogger("notices")), nil
	}
}

// startBackground feeds storage writes made elsewhere into the bus and, when a redis
// client is configured, bridges entitlement changes between processes. Both stop
// when ctx is done.
func (a *application) startBackground(ctx context.Context) {
	if watcher, ok := a.kv.(repository.Watcher); ok {
		go func() {
			err := watcher.Watch(ctx, func(key string) {
				a.bus.Publish(ctx, bus.Event{Topic: bus.TopicStorageChanged, Key: key})
			})
			if err != nil && ctx.Err() == nil {
				logrus.WithError(err).Warn("Storage watch stopped")
			}
		}()
	}

	if a.redis != nil {
		bridge := bus.NewRedisBridge(a.redis, a.cfg.Bus.RedisChannel, a.bus, factory.NewModuleLogger("redis-bridge"))
		go func() {
			if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
				logrus.WithError(err).Warn("Redis bus bridge stopped")
			}
		}()
	}
}

// close releases resources in reverse order of acquisition.
func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func ensureSQLStore(ctx context.Context, db *sql.DB, dialect repository.Dialect) (repository.KVStore, error) {
	store := repository.NewSQLStore(db, dialect)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func closeDB(db *sql.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}
}
