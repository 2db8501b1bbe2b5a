package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/aussiebroadwan/petbook/internal/petbook/storage"
)

// Config is read from the environment. A .env file in the working
// directory is loaded first; real environment variables win over it.
type Config struct {
	Env       string `env:"ENV,default=dev"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`
	Port      int    `env:"PORT,default=8080"`

	DBDriver     string `env:"PETBOOK_DB_DRIVER,default=sqlite"` // sqlite, postgres
	DatabaseFile string `env:"PETBOOK_DATABASE_FILE,default=petbook.db"`
	DatabaseURL  string `env:"PETBOOK_DATABASE_URL"` // postgres DSN

	Issuer         string        `env:"PETBOOK_ISSUER,default=petbook"`
	Audience       []string      `env:"PETBOOK_AUDIENCE,default=petbook"`
	NumKeys        int           `env:"PETBOOK_NUM_KEYS,default=2"`
	KeyStorageMode string        `env:"PETBOOK_KEY_STORAGE_MODE,default=ephemeral"` // ephemeral, persistent
	MasterKeyPath  string        `env:"PETBOOK_MASTER_KEY_PATH"`
	PepperFile     string        `env:"PETBOOK_PEPPER_FILE,default=pepper"`
	AccessTTL      time.Duration `env:"PETBOOK_ACCESS_TTL,default=15m"`
	RefreshTTL     time.Duration `env:"PETBOOK_REFRESH_TTL,default=720h"`

	// PublicURL prefixes the links sent by e-mail.
	PublicURL     string `env:"PETBOOK_PUBLIC_URL,default=http://localhost:8080"`
	Timezone      string `env:"PETBOOK_TIMEZONE,default=America/Sao_Paulo"`
	SecureCookies bool   `env:"PETBOOK_SECURE_COOKIES,default=false"`
	HSTS          bool   `env:"PETBOOK_HSTS,default=false"`

	NATSURL string         `env:"PETBOOK_NATS_URL"`
	S3      storage.Config `env:", prefix=PETBOOK_S3_"`

	OTLPEndpoint         string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD,default=10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL,default=1h"`
}

// LoadConfig loads .env (if present) and then reads the process
// environment.
func LoadConfig(ctx context.Context) (Config, error) {
	_ = godotenv.Load()
	return LoadConfigFrom(ctx, envconfig.OsLookuper())
}

// LoadConfigFrom reads the configuration from l and validates it.
func LoadConfigFrom(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("PETBOOK_DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("PETBOOK_DB_DRIVER: unknown driver %q", c.DBDriver))
	}
	switch c.KeyStorageMode {
	case "ephemeral", "persistent":
	default:
		errs = append(errs, fmt.Errorf("PETBOOK_KEY_STORAGE_MODE: unknown mode %q", c.KeyStorageMode))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: %d out of range", c.Port))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("PETBOOK_TIMEZONE: %w", err))
	}
	return errors.Join(errs...)
}

// Location is the shop calendar timezone. Validate has already checked it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
