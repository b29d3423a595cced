package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

type Config struct {
	Addr string

	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBTimeout  string

	JWTSecret string
	JWTTTL    time.Duration

	AdminDefaultEmail string
	AdminDefaultPass  string

	PaymentBaseURL   string
	PaymentSecretKey string
	PaymentTimeout   time.Duration

	LockTimeoutSec int
	SweepInterval  time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	LogLevel  string
	LogFormat string
}

func Load() Config {
	return Config{
		Addr: getenv("ADDR", ":8080"),

		DBHost:     getenv("DB_HOST", "db"),
		DBPort:     getenv("DB_PORT", "3306"),
		DBName:     getenv("DB_NAME", "roomescape"),
		DBUser:     getenv("DB_USER", "appuser"),
		DBPassword: getenv("DB_PASSWORD", "apppass"),
		DBTimeout:  getenv("DB_TIMEOUT", "5s"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    time.Duration(atoi(getenv("JWT_TTL_MINUTES", "60"), 60)) * time.Minute,

		AdminDefaultEmail: os.Getenv("ADMIN_DEFAULT_EMAIL"),
		AdminDefaultPass:  os.Getenv("ADMIN_DEFAULT_PASSWORD"),

		PaymentBaseURL:   getenv("PAYMENT_BASE_URL", "https://api.tosspayments.com"),
		PaymentSecretKey: os.Getenv("PAYMENT_SECRET_KEY"),
		PaymentTimeout:   duration(getenv("PAYMENT_TIMEOUT", "10s"), 10*time.Second),

		LockTimeoutSec: atoi(getenv("LOCK_TIMEOUT_SECONDS", "5"), 5),
		SweepInterval:  duration(getenv("SWEEP_INTERVAL", "1h"), time.Hour),

		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getenv("KAFKA_TOPIC", "roomescape.reservations"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "text"),
	}
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if strings.TrimSpace(c.PaymentSecretKey) == "" {
		errs = append(errs, errors.New("PAYMENT_SECRET_KEY is required"))
	}
	return errors.Join(errs...)
}

func (c Config) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.DBUser
	cfg.Passwd = c.DBPassword
	cfg.Net = "tcp"
	cfg.Addr = c.DBHost + ":" + c.DBPort
	cfg.DBName = c.DBName
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	cfg.Params["charset"] = "utf8mb4"
	cfg.Params["timeout"] = c.DBTimeout
	return cfg.FormatDSN()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return def
	}
	return v
}

func duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
