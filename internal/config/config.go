package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Source and output kinds.
const (
	KindCSV = "csv"
	KindSQL = "sql"
)

type Config struct {
	AppPort  string
	LogLevel string

	SourceKind  string
	SourceDir   string
	OutputKind  string
	OutputPath  string
	OutputTable string

	DBDriver  string
	DBDSN     string
	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	StrictDates bool
	AsOf        time.Time

	RedisAddr string
	RedisDB   int

	IdempTTLSecs   int
	RunLockTTLSecs int
	RunSchedule    string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// Load reads .env files when present, then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("load %s: %w", f, err)
			}
		}
	}

	c := &Config{
		AppPort:  getenv("APP_PORT", "8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		SourceKind:  getenv("SOURCE_KIND", KindCSV),
		SourceDir:   getenv("SOURCE_DIR", "data/raw"),
		OutputKind:  getenv("OUTPUT_KIND", KindCSV),
		OutputPath:  getenv("OUTPUT_PATH", "data/processed/loan_master_table.csv"),
		OutputTable: getenv("OUTPUT_TABLE", "loan_master"),

		DBDriver:  getenv("DB_DRIVER", "mysql"),
		DBDSN:     os.Getenv("DB_DSN"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "loan_master"),
		MySQLUser: getenv("MYSQL_USER", "loan_master"),
		MySQLPass: getenv("MYSQL_PASS", "loan_master"),

		RedisAddr:   os.Getenv("REDIS_ADDR"),
		RunSchedule: os.Getenv("RUN_SCHEDULE"),
	}

	var err error
	if c.StrictDates, err = cast.ToBoolE(getenv("STRICT_DATES", "false")); err != nil {
		return nil, fmt.Errorf("invalid STRICT_DATES: %w", err)
	}
	if c.RedisDB, err = cast.ToIntE(getenv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	if c.IdempTTLSecs, err = cast.ToIntE(getenv("IDEMPOTENCY_TTL_SECONDS", "300")); err != nil {
		return nil, fmt.Errorf("invalid IDEMPOTENCY_TTL_SECONDS: %w", err)
	}
	if c.RunLockTTLSecs, err = cast.ToIntE(getenv("RUN_LOCK_TTL_SECONDS", "900")); err != nil {
		return nil, fmt.Errorf("invalid RUN_LOCK_TTL_SECONDS: %w", err)
	}
	if v := os.Getenv("AS_OF"); v != "" {
		if c.AsOf, err = time.Parse("2006-01-02", v); err != nil {
			return nil, fmt.Errorf("invalid AS_OF %q: %w", v, err)
		}
	}
	return c, nil
}

func (c *Config) usesSQL() bool { return c.SourceKind == KindSQL || c.OutputKind == KindSQL }

func (c *Config) Validate() error {
	for key, kind := range map[string]string{"SOURCE_KIND": c.SourceKind, "OUTPUT_KIND": c.OutputKind} {
		if kind != KindCSV && kind != KindSQL {
			return fmt.Errorf("invalid %s %q (want csv or sql)", key, kind)
		}
	}
	if c.SourceKind == KindCSV && c.SourceDir == "" {
		return errors.New("missing SOURCE_DIR")
	}
	if c.OutputKind == KindCSV && c.OutputPath == "" {
		return errors.New("missing OUTPUT_PATH")
	}
	if c.OutputKind == KindSQL && c.OutputTable == "" {
		return errors.New("missing OUTPUT_TABLE")
	}
	if c.usesSQL() {
		switch c.DBDriver {
		case "mysql":
			if c.DBDSN == "" {
				if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
					return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
				}
				// ensure port is valid
				if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
					return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
				}
			}
		case "postgres", "sqlite":
			if c.DBDSN == "" {
				return fmt.Errorf("DB_DSN is required for driver %s", c.DBDriver)
			}
		default:
			return fmt.Errorf("invalid DB_DRIVER %q", c.DBDriver)
		}
	}
	if c.IdempTTLSecs <= 0 || c.RunLockTTLSecs <= 0 {
		return errors.New("IDEMPOTENCY_TTL_SECONDS and RUN_LOCK_TTL_SECONDS must be positive")
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

// DSN returns DB_DSN when set, otherwise the MySQL DSN built from its parts.
func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

func (c *Config) RunLockTTL() time.Duration { return time.Duration(c.RunLockTTLSecs) * time.Second }

func (c *Config) IdempTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }
