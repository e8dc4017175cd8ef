// Package config loads the settings of both ledger processes from the environment
// (and an optional .env file) and rejects incomplete configurations at startup.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config is shared by the api gateway and the transaction processor; each reads
// only the sections it needs.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Ledger      LedgerConfig
	Metrics     MetricsConfig
}

type ApplicationConfig struct {
	Env  string
	Name string
}

type LoggingConfig struct {
	Level  string
	Format string // json or text
}

// ServerConfig drives the gateway HTTP server and the processor ops server
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

type KafkaConfig struct {
	Brokers           string // comma separated host:port list
	TransactionTopic  string
	NumPartitions     int // used when a topic has to be created
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string
	NotificationTopic string        // read by the notification delivery service
	HandleAttempts    int           // attempts per message before it is dead-lettered
	RetryBackoff      time.Duration // doubled after each failed attempt
}

// BrokerList splits the comma separated KAFKA_BROKERS value
func (k KafkaConfig) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// PostgresConfig configures the account store. The api gateway and the processor
// both migrate on startup, so MigrationsPath must point at the same files.
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig configures the ledger history and audit store
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int // a message is FAILED_TO_PUBLISH after this many attempts

	// ProcessedRetention is how long processed messages are kept; zero keeps them forever
	ProcessedRetention time.Duration
}

// WorkerPoolConfig bounds how many transaction requests the processor runs at once
type WorkerPoolConfig struct {
	Size int
}

// LedgerConfig contains the screening and account-default settings of the ledger core
type LedgerConfig struct {
	Timezone                       string // IANA zone that defines "today" for the daily limit
	AnomalyMultiplier              int64  // Amount above multiplier x historical average is flagged
	DefaultDailyTransferLimit      string // Decimal strings, parsed by ParseLedgerDefaults
	DefaultMaxSingleTransferAmount string
	DefaultMinBalance              string
	DefaultCurrency                string
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// problems collects every failed check so one startup reports all of them
type problems []string

func (p *problems) positive(name string, ok bool) {
	if !ok {
		*p = append(*p, name+" must be greater than 0")
	}
}

func (p *problems) required(name, value string) {
	if value == "" {
		*p = append(*p, name+" is required")
	}
}

func (p *problems) check(ok bool, msg string) {
	if !ok {
		*p = append(*p, msg)
	}
}

func (c *Config) validate() error {
	var p problems

	p.positive("SERVER_PORT", c.Server.Port > 0)
	p.positive("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout > 0)
	p.positive("SERVER_READ_TIMEOUT", c.Server.ReadTimeout > 0)
	p.positive("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout > 0)
	p.positive("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout > 0)

	p.check(len(c.Kafka.BrokerList()) > 0, "KAFKA_BROKERS is required")
	p.required("KAFKA_TRANSACTION_TOPIC", c.Kafka.TransactionTopic)
	p.required("KAFKA_CONSUMER_GROUP", c.Kafka.ConsumerGroup)
	p.required("KAFKA_DLQ_TOPIC", c.Kafka.DLQTopic)
	p.required("KAFKA_NOTIFICATION_TOPIC", c.Kafka.NotificationTopic)
	p.positive("KAFKA_CONSUMER_MIN_BYTES", c.Kafka.MinBytes > 0)
	p.positive("KAFKA_CONSUMER_MAX_BYTES", c.Kafka.MaxBytes > 0)
	p.positive("KAFKA_CONSUMER_MAX_WAIT", c.Kafka.MaxWait > 0)
	p.positive("KAFKA_CONSUMER_HANDLE_ATTEMPTS", c.Kafka.HandleAttempts > 0)

	p.required("POSTGRES_URL", c.Postgres.URL)
	p.positive("POSTGRES_MAX_CONNS", c.Postgres.MaxConns > 0)
	p.positive("POSTGRES_MIN_CONNS", c.Postgres.MinConns > 0)
	p.check(c.Postgres.MinConns <= c.Postgres.MaxConns, "POSTGRES_MIN_CONNS must not exceed POSTGRES_MAX_CONNS")
	p.positive("POSTGRES_MAX_CONN_LIFETIME", c.Postgres.ConnMaxLifetime > 0)
	p.positive("POSTGRES_MAX_CONN_IDLE_TIME", c.Postgres.ConnMaxIdleTime > 0)

	p.required("MONGO_URI", c.MongoDB.URI)
	p.required("MONGO_DATABASE", c.MongoDB.Database)
	p.positive("MONGO_TIMEOUT", c.MongoDB.Timeout > 0)
	p.positive("MONGO_MAX_POOL_SIZE", c.MongoDB.MaxPoolSize > 0)
	p.positive("MONGO_MIN_POOL_SIZE", c.MongoDB.MinPoolSize > 0)
	p.positive("MONGO_MAX_CONN_IDLE_TIME", c.MongoDB.MaxConnIdleTime > 0)

	p.positive("OUTBOX_POLLING_INTERVAL", c.Outbox.PollingInterval > 0)
	p.positive("OUTBOX_BATCH_SIZE", c.Outbox.BatchSize > 0)
	p.positive("OUTBOX_MAX_RETRY_ATTEMPTS", c.Outbox.MaxRetryAttempts > 0)
	p.check(c.Outbox.ProcessedRetention >= 0, "OUTBOX_PROCESSED_RETENTION must not be negative")

	p.positive("WORKER_POOL_SIZE", c.WorkerPool.Size > 0)

	_, tzErr := time.LoadLocation(c.Ledger.Timezone)
	p.check(tzErr == nil, "LEDGER_TIMEZONE must be a valid IANA time zone")
	p.positive("LEDGER_ANOMALY_MULTIPLIER", c.Ledger.AnomalyMultiplier > 0)
	p.check(len(c.Ledger.DefaultCurrency) == 3, "LEDGER_DEFAULT_CURRENCY must be a 3-letter code")
	if _, err := c.Ledger.Defaults(); err != nil {
		p = append(p, err.Error())
	}

	p.check(!c.Metrics.Enabled || strings.HasPrefix(c.Metrics.Path, "/"), "METRICS_PATH must start with /")
	p.check(c.Logging.Format == "" || strings.EqualFold(c.Logging.Format, "json") || strings.EqualFold(c.Logging.Format, "text"),
		"LOG_FORMAT must be json or text")

	if len(p) > 0 {
		return errors.New(strings.Join(p, ", "))
	}
	return nil
}
