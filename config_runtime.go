package newsclient

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	boltpersistence "github.com/hhszzzz/Graduation-Design/pkg/persistence/bolt"
	"github.com/hhszzzz/Graduation-Design/pkg/persistence/postgres"
	redispersistence "github.com/hhszzzz/Graduation-Design/pkg/persistence/redis"
	httptransport "github.com/hhszzzz/Graduation-Design/pkg/transport/http"

	"github.com/hhszzzz/Graduation-Design/pkg/persistence/memory"
)

type PersistenceBackend string

const (
	PersistenceBackendMemory   PersistenceBackend = "memory"
	PersistenceBackendBolt     PersistenceBackend = "bolt"
	PersistenceBackendRedis    PersistenceBackend = "redis"
	PersistenceBackendPostgres PersistenceBackend = "postgres"
)

type RuntimeConfig struct {
	Persistence PersistenceConfig
	HTTP        HTTPConfig
}

type PersistenceConfig struct {
	Backend  PersistenceBackend
	Bolt     BoltPersistenceConfig
	Redis    RedisPersistenceConfig
	Postgres PostgresConfig
}

type BoltPersistenceConfig struct {
	Path        string
	Bucket      string
	OpenTimeout time.Duration
}

type RedisPersistenceConfig struct {
	Address     string
	Username    string
	Password    string
	Database    int
	Namespace   string
	DialTimeout time.Duration
}

type PostgresConfig struct {
	DriverName      string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	OpenDB          func(driverName string, dsn string) (*sql.DB, error)
}

type HTTPConfig struct {
	BaseURL string
	Timeout time.Duration
}

func (c Config) initialize(ctx context.Context) (func() error, Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	config := c
	config.Logger = resolveLogger(config.Logger)

	closePersistence, config, err := initializePersistence(ctx, config)
	if err != nil {
		return nil, Config{}, err
	}

	config, err = initializeTransport(config)
	if err != nil {
		_ = closePersistence()
		return nil, Config{}, err
	}

	return closePersistence, config, nil
}

func initializePersistence(ctx context.Context, config Config) (func() error, Config, error) {
	if config.Persistence != nil {
		return noopCloser, config, nil
	}

	backend := config.Runtime.Persistence.Backend
	if backend == "" {
		backend = PersistenceBackendMemory
	}

	switch backend {
	case PersistenceBackendMemory:
		config.Persistence = memory.NewAdapter()
		config.Logger.V(1).Info("initialized memory persistence backend")
		return noopCloser, config, nil
	case PersistenceBackendBolt:
		return initializeBolt(config)
	case PersistenceBackendRedis:
		return initializeRedis(config)
	case PersistenceBackendPostgres:
		return initializePostgres(ctx, config)
	default:
		return nil, Config{}, fmt.Errorf("newsclient config: unsupported runtime.persistence.backend %q", backend)
	}
}

func initializeBolt(config Config) (func() error, Config, error) {
	boltConfig := config.Runtime.Persistence.Bolt
	if boltConfig.Path == "" {
		return nil, Config{}, fmt.Errorf("newsclient config: runtime.persistence.bolt.path is required")
	}

	adapter, err := boltpersistence.NewAdapter(boltpersistence.Config{
		Path:        boltConfig.Path,
		Bucket:      boltConfig.Bucket,
		OpenTimeout: boltConfig.OpenTimeout,
	})
	if err != nil {
		return nil, Config{}, fmt.Errorf("newsclient config: failed to initialize bolt adapter: %w", err)
	}

	config.Persistence = adapter
	config.Logger.V(1).Info("initialized bolt persistence backend", "path", boltConfig.Path)
	return adapter.Close, config, nil
}

func initializeRedis(config Config) (func() error, Config, error) {
	redisConfig := config.Runtime.Persistence.Redis
	if redisConfig.Address == "" {
		return nil, Config{}, fmt.Errorf("newsclient config: runtime.persistence.redis.address is required")
	}
	if redisConfig.DialTimeout <= 0 {
		redisConfig.DialTimeout = 5 * time.Second
	}

	adapter, err := redispersistence.NewAdapter(redispersistence.Config{
		Address:     redisConfig.Address,
		Username:    redisConfig.Username,
		Password:    redisConfig.Password,
		Database:    redisConfig.Database,
		Namespace:   redisConfig.Namespace,
		DialTimeout: redisConfig.DialTimeout,
	})
	if err != nil {
		return nil, Config{}, fmt.Errorf("newsclient config: failed to initialize redis adapter: %w", err)
	}

	config.Runtime.Persistence.Redis = redisConfig
	config.Persistence = adapter
	config.Logger.V(1).Info("initialized redis persistence backend", "address", redisConfig.Address, "database", redisConfig.Database, "namespace", redisConfig.Namespace)
	return adapter.Close, config, nil
}

func initializePostgres(ctx context.Context, config Config) (func() error, Config, error) {
	pgConfig := config.Runtime.Persistence.Postgres
	if pgConfig.DSN == "" {
		return nil, Config{}, fmt.Errorf("newsclient config: runtime.persistence.postgres.dsn is required")
	}

	if pgConfig.DriverName == "" {
		pgConfig.DriverName = "pgx"
	}
	if pgConfig.PingTimeout <= 0 {
		pgConfig.PingTimeout = 5 * time.Second
	}
	if pgConfig.OpenDB == nil {
		pgConfig.OpenDB = sql.Open
	}

	db, err := pgConfig.OpenDB(pgConfig.DriverName, pgConfig.DSN)
	if err != nil {
		return nil, Config{}, fmt.Errorf("newsclient config: failed to open postgres database: %w", err)
	}

	if pgConfig.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pgConfig.MaxOpenConns)
	}
	if pgConfig.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pgConfig.MaxIdleConns)
	}
	if pgConfig.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pgConfig.ConnMaxLifetime)
	}
	if pgConfig.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(pgConfig.ConnMaxIdleTime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pgConfig.PingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, Config{}, fmt.Errorf("newsclient config: failed to ping postgres database: %w", err)
	}

	adapter, err := postgres.NewAdapter(db)
	if err != nil {
		_ = db.Close()
		return nil, Config{}, fmt.Errorf("newsclient config: failed to initialize postgres adapter: %w", err)
	}

	closeResource := func() error {
		return stderrors.Join(adapter.Close(), db.Close())
	}

	config.Runtime.Persistence.Postgres = pgConfig
	config.Persistence = adapter
	config.Logger.V(1).Info("initialized postgres persistence backend", "driver", pgConfig.DriverName, "max_open_conns", pgConfig.MaxOpenConns, "max_idle_conns", pgConfig.MaxIdleConns)
	return closeResource, config, nil
}

func initializeTransport(config Config) (Config, error) {
	if config.Transport != nil {
		return config, nil
	}

	httpConfig := config.Runtime.HTTP
	if httpConfig.BaseURL == "" {
		return Config{}, fmt.Errorf("newsclient config: runtime.http.baseurl is required when no transport is supplied")
	}

	transport, err := httptransport.New(httptransport.Config{
		BaseURL: httpConfig.BaseURL,
		Timeout: httpConfig.Timeout,
	})
	if err != nil {
		return Config{}, fmt.Errorf("newsclient config: failed to initialize http transport: %w", err)
	}

	config.Transport = transport
	return config, nil
}

func noopCloser() error {
	return nil
}
