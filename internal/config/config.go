package config // package config loads application configuration from environment variables

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable; optional integrations are disabled when their
// variables are empty.
type Config struct {
	Env         string        // application environment (dev, test, prod)
	Port        string        // HTTP port to listen on
	DB          DBConfig      // relational store
	JWTSecret   string        // HS256 key for self-issued tokens
	TokenTTL    time.Duration // lifetime of self-issued tokens
	BcryptCost  int           // bcrypt cost for password hashing
	AppURL      string        // base URL used in notification links
	Firebase    FirebaseConfig
	SMTP        SMTPConfig
	AMQPURL     string // RabbitMQ URL; empty means notifications are sent inline
	NotifyQueue string // queue carrying notification messages
	CORSOrigins []string
}

// DBConfig selects the gorm dialector and its connection settings. DSN,
// when set, is passed to the driver verbatim.
type DBConfig struct {
	Driver          string // mysql, postgres or sqlite
	DSN             string
	Host            string
	Port            string
	User            string
	Pass            string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// FirebaseConfig carries the service account used by the identity provider.
// An empty ServiceAccount and CredentialsFile leave the provider unconfigured.
type FirebaseConfig struct {
	ServiceAccount  string // JSON document
	CredentialsFile string // path to a JSON document
	ProjectID       string
}

// Configured reports whether any credential source is present.
func (f FirebaseConfig) Configured() bool {
	return f.ServiceAccount != "" || f.CredentialsFile != ""
}

// SMTPConfig configures outbound mail. An empty Host selects the log mailer.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Load reads configuration values from the environment, after merging a
// local .env file when one exists. JWT_SECRET is required; a missing value
// logs a fatal error and exits.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}
	return Config{
		Env:  envStr("APP_ENV", "dev"),
		Port: envStr("APP_PORT", "3000"),
		DB: DBConfig{
			Driver:          strings.ToLower(envStr("DB_DRIVER", "postgres")),
			DSN:             os.Getenv("DB_DSN"),
			Host:            envStr("DB_HOST", "localhost"),
			Port:            os.Getenv("DB_PORT"),
			User:            os.Getenv("DB_USER"),
			Pass:            os.Getenv("DB_PASS"),
			Name:            envStr("DB_NAME", "kaku"),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		JWTSecret:  must("JWT_SECRET"),
		TokenTTL:   envDur("TOKEN_TTL", 24*time.Hour),
		BcryptCost: envInt("BCRYPT_COST", 10),
		AppURL:     strings.TrimRight(envStr("APP_URL", "http://localhost:5173"), "/"),
		Firebase: FirebaseConfig{
			ServiceAccount:  os.Getenv("FIREBASE_SERVICE_ACCOUNT"),
			CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
			ProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		},
		SMTP: SMTPConfig{
			Host: os.Getenv("SMTP_HOST"),
			Port: envInt("SMTP_PORT", 587),
			User: os.Getenv("SMTP_USER"),
			Pass: os.Getenv("SMTP_PASS"),
			From: envStr("SMTP_FROM", "no-reply@kaku.local"),
		},
		AMQPURL:     firstEnv("RABBITMQ_URL", "AMQP_URL"),
		NotifyQueue: envStr("NOTIFY_QUEUE", "kaku.notifications"),
		CORSOrigins: splitList(envStr("CORS_ORIGINS", "*")),
	}
}

// DialectorDSN returns the connection string for the configured driver.
func (c DBConfig) DialectorDSN() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	switch c.Driver {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Pass
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, defaultStr(c.Port, "3306"))
		mc.DBName = c.Name
		mc.ParseTime = true // DATETIME -> time.Time
		mc.Loc = time.UTC
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN(), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.Host, defaultStr(c.Port, "5432"), c.Name)
		if c.User != "" {
			dsn += " user=" + c.User
		}
		if c.Pass != "" {
			dsn += " password=" + c.Pass
		}
		return dsn, nil
	case "sqlite":
		return "file:" + c.Name + ".db?_pragma=foreign_keys(1)", nil
	}
	return "", fmt.Errorf("config: unsupported DB_DRIVER %q", c.Driver)
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
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

func defaultStr(v, d string) string {
	if v == "" {
		return d
	}
	return v
}

func envStr(k, d string) string { return defaultStr(os.Getenv(k), d) }

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
