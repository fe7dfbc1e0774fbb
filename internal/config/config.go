package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL       string
	NATSURL           string
	NATSDisabled      bool
	NATSSubjectPrefix string
	LogNATSSubjects   bool
	HTTPAddr          string
	MetricsAddr       string
	CORSOrigins       []string

	StartupDelay     time.Duration
	MoveDuration     time.Duration
	DefaultDwell     time.Duration
	FleetTick        time.Duration
	SnapshotInterval time.Duration
	RefreshInterval  time.Duration

	Location *time.Location
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.DatabaseURL = firstNonEmpty(os.Getenv("DATABASE_URL"), "sqlite://tracker.db")
	cfg.NATSURL = getenvDefault("NATS_URL", "nats://127.0.0.1:4222")
	cfg.NATSDisabled = getenvBool("NATS_DISABLED")
	cfg.NATSSubjectPrefix = getenvDefault("NATS_SUBJECT_PREFIX", "tracking")
	cfg.LogNATSSubjects = getenvBool("LOG_NATS_SUBJECTS")
	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", ":8080")

	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	for _, o := range strings.Split(getenvDefault("CORS_ORIGINS", "http://localhost:5173"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	var err error
	if cfg.StartupDelay, err = millis("STARTUP_DELAY_MS", 2000, true); err != nil {
		return nil, err
	}
	if cfg.MoveDuration, err = millis("MOVE_DURATION_MS", 3000, false); err != nil {
		return nil, err
	}
	if cfg.DefaultDwell, err = millis("DEFAULT_DWELL_MS", 2000, false); err != nil {
		return nil, err
	}
	if cfg.FleetTick, err = millis("FLEET_TICK_MS", 2000, false); err != nil {
		return nil, err
	}
	if cfg.SnapshotInterval, err = millis("SNAPSHOT_INTERVAL_MS", 1000, false); err != nil {
		return nil, err
	}

	// Orders refresh interval (seconds)
	if v := os.Getenv("ORDERS_REFRESH_INTERVAL_SEC"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec < 0 {
			return nil, fmt.Errorf("invalid ORDERS_REFRESH_INTERVAL_SEC: %q", v)
		}
		cfg.RefreshInterval = time.Duration(sec) * time.Second
	} else {
		cfg.RefreshInterval = 10 * time.Second
	}

	// Time zone
	tzName := getenvDefault("TZ", "")
	if tzName == "" {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			return nil, fmt.Errorf("invalid TZ: %v", err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

// millis reads a millisecond duration. Zero is accepted only when allowZero.
func millis(key string, def int, allowZero bool) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(def) * time.Millisecond, nil
	}
	ms, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || ms < 0 || (ms == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func getenvBool(k string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
