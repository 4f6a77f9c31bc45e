package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, queue URLs, etc.), security settings
// - default: Values common across all environments (timezone, timeout, sale protocol constants, etc.)
// -----------------------------------------------------------------------------

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	AWS       AWSConfig
	CORS      CORSConfig
	Log       LogConfig
	JWT       JWTConfig
	Seckill   SeckillConfig
	RateLimit RateLimitConfig
	Reconcile ReconcileConfig
	Worker    WorkerConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"Asia/Tokyo"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"50"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" required:"true"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	PoolSize int    `envconfig:"REDIS_POOL_SIZE" default:"100"`
}

type AWSConfig struct {
	Region               string `envconfig:"AWS_REGION" default:"us-east-1"`
	Endpoint             string `envconfig:"AWS_ENDPOINT_URL" default:""` // localstack etc.
	SettlementQueueURL   string `envconfig:"SQS_SETTLEMENT_QUEUE_URL" required:"true"`
	CancellationQueueURL string `envconfig:"SQS_CANCELLATION_QUEUE_URL" required:"true"`
	MetricsNamespace     string `envconfig:"CLOUDWATCH_NAMESPACE" default:"Seckill"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length,Retry-After"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"Asia/Tokyo"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"32400"` // 9*60*60
}

type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
}

type SeckillConfig struct {
	LockLease          time.Duration `envconfig:"SECKILL_LOCK_LEASE" default:"10s"`
	LockTimeout        time.Duration `envconfig:"SECKILL_LOCK_TIMEOUT" default:"5s"`
	LockRetryInterval  time.Duration `envconfig:"SECKILL_LOCK_RETRY_INTERVAL" default:"50ms"`
	LockLostWait       time.Duration `envconfig:"SECKILL_LOCK_LOST_WAIT" default:"100ms"`
	SoldOutCacheSize   int           `envconfig:"SECKILL_SOLD_OUT_CACHE_SIZE" default:"1000"`
	SoldOutCacheTTL    time.Duration `envconfig:"SECKILL_SOLD_OUT_CACHE_TTL" default:"5m"`
	CatalogCacheTTL    time.Duration `envconfig:"SECKILL_CATALOG_CACHE_TTL" default:"3s"`
	CancelAfter        time.Duration `envconfig:"SECKILL_CANCEL_AFTER" default:"30m"`
	TxCheckTimeout     time.Duration `envconfig:"SECKILL_TX_CHECK_TIMEOUT" default:"600s"`
	TxLookasideSize    int           `envconfig:"SECKILL_TX_LOOKASIDE_SIZE" default:"100000"`
	IdempotenceTTL     time.Duration `envconfig:"SECKILL_IDEMPOTENCE_RETENTION" default:"72h"`
	PreloadOnStart     bool          `envconfig:"SECKILL_PRELOAD_ON_START" default:"false"`
	OutboxCheckDelay   time.Duration `envconfig:"OUTBOX_CHECK_DELAY" default:"10s"`
	OutboxPublishGrace time.Duration `envconfig:"OUTBOX_PUBLISH_GRACE" default:"5s"`
	OutboxMaxChecks    int           `envconfig:"OUTBOX_MAX_CHECKS" default:"15"`
	OutboxBatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
}

type RateLimitConfig struct {
	SeckillRate     float64 `envconfig:"RATE_LIMIT_SECKILL_RATE" default:"0.2"`
	SeckillCapacity int     `envconfig:"RATE_LIMIT_SECKILL_CAPACITY" default:"1"`
	ResultRate      float64 `envconfig:"RATE_LIMIT_RESULT_RATE" default:"1.5"`
	ResultCapacity  int     `envconfig:"RATE_LIMIT_RESULT_CAPACITY" default:"3"`
}

type ReconcileConfig struct {
	Interval          time.Duration `envconfig:"RECONCILE_INTERVAL" default:"30s"`
	Retries           int           `envconfig:"RECONCILE_RETRIES" default:"3"`
	RetryDelay        time.Duration `envconfig:"RECONCILE_RETRY_DELAY" default:"1s"`
	LowStockThreshold float64       `envconfig:"RECONCILE_LOW_STOCK_THRESHOLD" default:"0.3"`
	ReconcileAll      bool          `envconfig:"RECONCILE_ALL" default:"true"`
	AutoCorrect       bool          `envconfig:"RECONCILE_AUTO_CORRECT" default:"false"`
	Concurrency       int           `envconfig:"RECONCILE_CONCURRENCY" default:"4"`
}

type WorkerConfig struct {
	Enabled          bool          `envconfig:"WORKER_ENABLED" default:"true"`
	Concurrency      int           `envconfig:"WORKER_CONCURRENCY" default:"16"`
	WaitTime         time.Duration `envconfig:"WORKER_WAIT_TIME" default:"20s"`
	MaxMessages      int32         `envconfig:"WORKER_MAX_MESSAGES" default:"10"`
	RelayInterval    time.Duration `envconfig:"WORKER_RELAY_INTERVAL" default:"2s"`
	PurgeInterval    time.Duration `envconfig:"WORKER_PURGE_INTERVAL" default:"1h"`
	ShutdownDeadline time.Duration `envconfig:"WORKER_SHUTDOWN_DEADLINE" default:"15s"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "Asia/Tokyo",
			MaxConns: 10,
		},
		Redis: RedisConfig{
			Addr:     "localhost:16379",
			PoolSize: 10,
		},
		AWS: AWSConfig{
			Region:               "us-east-1",
			SettlementQueueURL:   "https://sqs.us-east-1.amazonaws.com/000000000000/seckill-settlement",
			CancellationQueueURL: "https://sqs.us-east-1.amazonaws.com/000000000000/seckill-cancellation",
			MetricsNamespace:     "SeckillTest",
		},
		CORS: CORSConfig{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           time.Hour,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "Asia/Tokyo",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 32400,
		},
		JWT: JWTConfig{
			Secret: "test-secret",
		},
		Seckill: SeckillConfig{
			LockLease:          10 * time.Second,
			LockTimeout:        5 * time.Second,
			LockRetryInterval:  50 * time.Millisecond,
			LockLostWait:       100 * time.Millisecond,
			SoldOutCacheSize:   1000,
			SoldOutCacheTTL:    5 * time.Minute,
			CatalogCacheTTL:    3 * time.Second,
			CancelAfter:        30 * time.Minute,
			TxCheckTimeout:     600 * time.Second,
			TxLookasideSize:    1000,
			IdempotenceTTL:     72 * time.Hour,
			OutboxCheckDelay:   10 * time.Second,
			OutboxPublishGrace: 5 * time.Second,
			OutboxMaxChecks:    15,
			OutboxBatchSize:    100,
		},
		RateLimit: RateLimitConfig{
			SeckillRate:     0.2,
			SeckillCapacity: 1,
			ResultRate:      1.5,
			ResultCapacity:  3,
		},
		Reconcile: ReconcileConfig{
			Interval:          30 * time.Second,
			Retries:           3,
			RetryDelay:        time.Second,
			LowStockThreshold: 0.3,
			ReconcileAll:      true,
			Concurrency:       4,
		},
		Worker: WorkerConfig{
			Enabled:          false, // Tests drive consumers directly
			Concurrency:      4,
			WaitTime:         time.Second,
			MaxMessages:      10,
			RelayInterval:    time.Second,
			PurgeInterval:    time.Hour,
			ShutdownDeadline: 5 * time.Second,
		},
	}
}
