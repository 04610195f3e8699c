package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TransportInProcess = "inprocess"
	TransportKafka     = "kafka"
)

type Config struct {
	AppPort  string
	LogLevel string

	DBDriver   string
	SQLitePath string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	EventTransport string
	KafkaBrokers   []string
	KafkaTopic     string
	KafkaGroupID   string

	OutboxPollInterval  time.Duration
	OutboxBatchSize     int
	OutboxRetryMaxTries uint
	OutboxMaxAttempts   int
	OutboxRetention     time.Duration
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getduration(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if n, err := time.ParseDuration(v); err == nil {
			return n
		}
	}
	return d
}

// Load reads the environment, after merging an optional .env file (existing variables win).
func Load() *Config {
	_ = godotenv.Load()

	c := &Config{
		AppPort:    getenv("APP_PORT", "8080"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		DBDriver:   strings.ToLower(getenv("DB_DRIVER", "mysql")),
		SQLitePath: getenv("SQLITE_PATH", "loanapp.db"),
		MySQLHost:  getenv("MYSQL_HOST", "mysql"),
		MySQLPort:  getenv("MYSQL_PORT", "3306"),
		MySQLDB:    getenv("MYSQL_DB", "loanapp"),
		MySQLUser:  getenv("MYSQL_USER", "loanapp"),
		MySQLPass:  getenv("MYSQL_PASS", "loanapp"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:      getint("REDIS_DB", 0),
		IdempTTLSecs: getint("IDEMPOTENCY_TTL_SECONDS", 300),

		EventTransport: strings.ToLower(getenv("EVENT_TRANSPORT", TransportInProcess)),
		KafkaBrokers:   splitList(getenv("KAFKA_BROKERS", "")),
		KafkaTopic:     getenv("KAFKA_TOPIC", "loanapp.approve-loan"),
		KafkaGroupID:   getenv("KAFKA_GROUP_ID", "loanapp-approval"),

		OutboxPollInterval: getduration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:    getint("OUTBOX_BATCH_SIZE", 50),
		OutboxMaxAttempts:  getint("OUTBOX_MAX_ATTEMPTS", 10),
		OutboxRetention:    getduration("OUTBOX_RETENTION", 72*time.Hour),
	}
	c.OutboxRetryMaxTries = uint(getint("OUTBOX_RETRY_MAX_TRIES", 5))
	return c
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want mysql or sqlite)", c.DBDriver)
	}
	switch c.EventTransport {
	case TransportInProcess:
	case TransportKafka:
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" || c.KafkaGroupID == "" {
			return errors.New("kafka transport needs KAFKA_BROKERS, KAFKA_TOPIC and KAFKA_GROUP_ID")
		}
	default:
		return fmt.Errorf("unsupported EVENT_TRANSPORT %q (want inprocess or kafka)", c.EventTransport)
	}
	if c.OutboxPollInterval <= 0 || c.OutboxBatchSize <= 0 || c.OutboxRetryMaxTries == 0 {
		return errors.New("outbox poll interval, batch size and retry tries must be positive")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	return c.MySQLDSN()
}
