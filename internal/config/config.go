package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultSQLiteDSN = "database/inventory.db"
)

type Config struct {
	HTTPPort         string
	DatabaseDriver   string
	DatabaseDSN      string
	CORSOrigins      string
	LogLevel         string
	LogFormat        string
	StaticDir        string // browser client; empty disables static serving
	DefaultStoreName string
	SQLDebug         bool

	dsnDefaulted bool
}

// Load reads the environment, after merging an optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:         getEnv("HTTP_PORT", "3000"),
		DatabaseDriver:   strings.ToLower(getEnv("DATABASE_DRIVER", DriverSQLite)),
		DatabaseDSN:      getEnv("DATABASE_DSN", ""),
		CORSOrigins:      getEnv("CORS_ALLOWED_ORIGINS", "*"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		StaticDir:        getEnv("STATIC_DIR", ""),
		DefaultStoreName: getEnv("DEFAULT_STORE_NAME", "Default Store"),
		SQLDebug:         getEnvBool("SQL_DEBUG", false),
	}
	cfg.defaultDSN()
	return cfg
}

// Override applies command line values on top of the environment. Empty
// values leave the setting alone. A DSN filled in for the previous driver is
// dropped when the driver changes.
func (c *Config) Override(driver, dsn string) {
	if driver = strings.ToLower(strings.TrimSpace(driver)); driver != "" && driver != c.DatabaseDriver {
		c.DatabaseDriver = driver
		if c.dsnDefaulted {
			c.DatabaseDSN = ""
			c.dsnDefaulted = false
		}
	}
	if dsn != "" {
		c.DatabaseDSN = dsn
		c.dsnDefaulted = false
	}
	c.defaultDSN()
}

func (c *Config) defaultDSN() {
	if c.DatabaseDSN == "" && c.DatabaseDriver == DriverSQLite {
		c.DatabaseDSN = defaultSQLiteDSN
		c.dsnDefaulted = true
	}
}

// Warn reports development defaults that should not reach a shared deployment.
func (c *Config) Warn(l logrus.FieldLogger) {
	if c.DatabaseDriver == DriverSQLite && c.DatabaseDSN == defaultSQLiteDSN {
		l.Warnf("[WARN] DATABASE_DSN not set, using local SQLite file %s.", defaultSQLiteDSN)
	}
	if c.CORSOrigins == "*" {
		l.Warn("[WARN] CORS_ALLOWED_ORIGINS is '*', any origin may call the API.")
	}
}

// Origins splits the comma separated CORS origin list.
func (c *Config) Origins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			res = append(res, p)
		}
	}
	return res
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
