package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverMySQL  = "mysql"
	StorageDriverSQLite = "sqlite"
	StorageDriverRedis  = "redis"
	StorageDriverFile   = "file"
	StorageDriverMemory = "memory"

	NotifierDriverLog  = "log"
	NotifierDriverAMQP = "amqp"
)

type Config struct {
	App               AppConfig
	HTTP              ServerConfig
	GRPC              ServerConfig
	Storage           StorageConfig
	MySQL             MySQLConfig
	SQLite            SQLiteConfig
	Redis             RedisConfig
	File              FileConfig
	Bus               BusConfig
	Notifier          NotifierConfig
	Log               LogConfig
	InternalEndpoints InternalEndpointsConfig
	Entitlements      EntitlementConfig
	Jobs              JobsConfig
	RateLimit         RateLimitConfig
}

type AppConfig struct {
	ServiceName string
}

type ServerConfig struct {
	Host string
	Port string
}

type StorageConfig struct {
	Driver string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type FileConfig struct {
	Dir string
}

type BusConfig struct {
	RedisChannel string
}

type NotifierConfig struct {
	Driver   string
	AMQPURL  string
	Exchange string
}

type LogConfig struct {
	Level string
}

type InternalEndpointsConfig struct {
	AuthGRPCAddr string
}

type EntitlementConfig struct {
	ReconcileInterval time.Duration
	ExpiringSoonDays  int
	AlertWindowDays   int
	Location          *time.Location
}

type JobsConfig struct {
	ReconcileSweepInterval time.Duration
}

type RateLimitConfig struct {
	CheckoutPerSecond float64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	driver := strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverSQLite))
	switch driver {
	case StorageDriverMySQL, StorageDriverSQLite, StorageDriverRedis, StorageDriverFile, StorageDriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", driver)
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if driver == StorageDriverMySQL && mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	notifierDriver := strings.ToLower(getEnv("NOTIFIER_DRIVER", NotifierDriverLog))
	amqpURL := os.Getenv("AMQP_URL")
	if notifierDriver == NotifierDriverAMQP && amqpURL == "" {
		return nil, errors.New("AMQP_URL environment variable is required")
	}

	location, err := time.LoadLocation(getEnv("ENTITLEMENT_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENTITLEMENT_TIMEZONE: %w", err)
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "entitlements-service"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		GRPC: ServerConfig{
			Host: getEnv("GRPC_HOST", "0.0.0.0"),
			Port: getEnv("GRPC_PORT", "9090"),
		},
		Storage: StorageConfig{Driver: driver},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		SQLite: SQLiteConfig{Path: getEnv("SQLITE_PATH", "entitlements.db")},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        getIntEnv("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "entitlements:"),
		},
		File: FileConfig{Dir: getEnv("FILE_STORE_DIR", "data")},
		Bus:  BusConfig{RedisChannel: os.Getenv("BUS_REDIS_CHANNEL")},
		Notifier: NotifierConfig{
			Driver:   notifierDriver,
			AMQPURL:  amqpURL,
			Exchange: getEnv("AMQP_EXCHANGE", "entitlements.notices"),
		},
		Log: LogConfig{Level: getEnv("LOG_LEVEL", "info")},
		InternalEndpoints: InternalEndpointsConfig{
			AuthGRPCAddr: getEnv("AUTH_SERVICE_GRPC_ADDR", "localhost:9090"),
		},
		Entitlements: EntitlementConfig{
			ReconcileInterval: time.Duration(getIntEnv("RECONCILE_INTERVAL_SECONDS", 60)) * time.Second,
			ExpiringSoonDays:  getIntEnv("EXPIRING_SOON_DAYS", 7),
			AlertWindowDays:   getIntEnv("EXPIRY_ALERT_WINDOW_DAYS", 30),
			Location:          location,
		},
		Jobs: JobsConfig{
			ReconcileSweepInterval: getDurationEnv("RECONCILE_SWEEP_INTERVAL_MINUTES", 10*time.Minute),
		},
		RateLimit: RateLimitConfig{
			CheckoutPerSecond: getFloatEnv("CHECKOUT_RATE_LIMIT_PER_SECOND", 5),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}
