package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Gateway backends.
const (
	GatewayLog      = "log"
	GatewayWhatsApp = "whatsapp"
)

// Config captures environment driven configuration values for the liturgy service.
type Config struct {
	HTTPPort           int
	Store              string
	SQLiteDSN          string
	Locale             string
	Location           *time.Location
	TextsFile          string
	Gateway            string
	WhatsAppDataDir    string
	DefaultCountryCode string
	GatewayTimeout     time.Duration
	ReminderCron       string
	ReminderHorizon    time.Duration
	CacheTTL           time.Duration
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults. Every missing or invalid variable is
// reported together.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		Store:           StoreSQLite,
		SQLiteDSN:       "liturgy.db",
		Locale:          "en-US",
		Location:        time.UTC,
		Gateway:         GatewayLog,
		WhatsAppDataDir: "data",
		GatewayTimeout:  30 * time.Second,
		ReminderCron:    "0 18 * * *",
		ReminderHorizon: 7 * 24 * time.Hour,
		CacheTTL:        30 * time.Second,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := env("HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, key("HTTP_PORT"))
		} else {
			cfg.HTTPPort = port
		}
	}

	if store := strings.ToLower(env("STORE")); store != "" {
		switch store {
		case StoreSQLite, StoreMemory:
			cfg.Store = store
		default:
			invalid = append(invalid, key("STORE"))
		}
	}

	if dsn := env("SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if locale := env("LOCALE"); locale != "" {
		cfg.Locale = locale
	}

	if tz := env("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, key("TIMEZONE"))
		} else {
			cfg.Location = loc
		}
	}

	cfg.TextsFile = env("TEXTS_FILE")

	if gateway := strings.ToLower(env("GATEWAY")); gateway != "" {
		switch gateway {
		case GatewayLog, GatewayWhatsApp:
			cfg.Gateway = gateway
		default:
			invalid = append(invalid, key("GATEWAY"))
		}
	}

	if dir := env("WHATSAPP_DATA_DIR"); dir != "" {
		cfg.WhatsAppDataDir = dir
	}

	cfg.DefaultCountryCode = strings.TrimPrefix(env("DEFAULT_COUNTRY_CODE"), "+")
	if cfg.DefaultCountryCode != "" {
		if _, err := strconv.Atoi(cfg.DefaultCountryCode); err != nil {
			invalid = append(invalid, key("DEFAULT_COUNTRY_CODE"))
		}
	} else if cfg.Gateway == GatewayWhatsApp {
		missing = append(missing, key("DEFAULT_COUNTRY_CODE"))
	}

	parseDuration("GATEWAY_TIMEOUT", &cfg.GatewayTimeout, &invalid)
	parseDuration("REMINDER_HORIZON", &cfg.ReminderHorizon, &invalid)
	parseDuration("CACHE_TTL", &cfg.CacheTTL, &invalid)

	if spec := env("REMINDER_CRON"); spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			invalid = append(invalid, key("REMINDER_CRON"))
		} else {
			cfg.ReminderCron = spec
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

const envPrefix = "LITURGY_"

func key(name string) string {
	return envPrefix + name
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(key(name)))
}

func parseDuration(name string, target *time.Duration, invalid *[]string) {
	value := env(name)
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		*invalid = append(*invalid, key(name))
		return
	}
	*target = d
}
