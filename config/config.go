// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

type Config struct {
	Port string

	StoreDriver string
	MongoURI    string
	MongoDB     string
	SQLitePath  string

	JWTSecret     string
	AuthRequired  bool
	DefaultUserID primitive.ObjectID

	Location       *time.Location
	ManualLookback time.Duration

	ReminderEnabled    bool
	ReminderSpec       string
	ReminderWebhookURL string

	CORSOrigins []string
	LogLevel    slog.Level
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	// A missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := Config{
		Port:         getenv("PORT", "8080"),
		StoreDriver:  strings.ToLower(getenv("STORE_DRIVER", DriverMongo)),
		MongoURI:     getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getenv("MONGO_DB", "LogbookDB"),
		SQLitePath:   getenv("SQLITE_PATH", "logbook.db"),
		JWTSecret:    getenv("JWT_SECRET", "change_me"),
		ReminderSpec: getenv("REMINDER_SPEC", "0 7 * * *"),
		CORSOrigins:  splitList(getenv("CORS_ORIGINS", "*")),
	}

	// Empty: reminders are only logged.
	cfg.ReminderWebhookURL = strings.TrimSpace(os.Getenv("REMINDER_WEBHOOK_URL"))

	if cfg.StoreDriver != DriverMongo && cfg.StoreDriver != DriverSQLite {
		return cfg, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMongo, DriverSQLite, cfg.StoreDriver)
	}

	var err error
	if cfg.AuthRequired, err = getbool("AUTH_REQUIRED", false); err != nil {
		return cfg, err
	}
	if cfg.ReminderEnabled, err = getbool("REMINDER_ENABLED", true); err != nil {
		return cfg, err
	}

	uid := getenv("DEFAULT_USER_ID", "60c72b2f9f1b2c0015b8d4f4")
	if cfg.DefaultUserID, err = primitive.ObjectIDFromHex(uid); err != nil {
		return cfg, fmt.Errorf("DEFAULT_USER_ID: %w", err)
	}

	tz := getenv("APP_TIMEZONE", "Asia/Ho_Chi_Minh")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return cfg, fmt.Errorf("APP_TIMEZONE: %w", err)
	}

	days, err := strconv.Atoi(getenv("MANUAL_LOOKBACK_DAYS", "30"))
	if err != nil || days <= 0 {
		return cfg, fmt.Errorf("MANUAL_LOOKBACK_DAYS must be a positive integer")
	}
	cfg.ManualLookback = time.Duration(days) * 24 * time.Hour

	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
