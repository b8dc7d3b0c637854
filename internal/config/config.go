package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the portal.
type Config struct {
	HTTPAddr         string
	DatabaseURL      string
	TelegramToken    string
	ReportsEnabled   bool
	ReportHour       int
	ReportMinute     int
	GenerateInterval time.Duration
	AdminToken       string // bootstrap superadmin token, empty disables
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:         strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TelegramToken:    strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		GenerateInterval: parseMinutes(strings.TrimSpace(os.Getenv("GENERATE_INTERVAL_MINUTES"))),
		AdminToken:       strings.TrimSpace(os.Getenv("ADMIN_TOKEN")),
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "linecheck.db"
	}

	if cfg.GenerateInterval == 0 {
		cfg.GenerateInterval = 15 * time.Minute
	}

	if raw := strings.TrimSpace(os.Getenv("REPORT_TIME")); raw != "" {
		hour, minute, err := parseClock(raw)
		if err != nil {
			return cfg, err
		}
		cfg.ReportsEnabled = true
		cfg.ReportHour = hour
		cfg.ReportMinute = minute
	}

	return cfg, nil
}

func parseMinutes(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

func parseClock(raw string) (int, int, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("REPORT_TIME %q: expected HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("REPORT_TIME %q: invalid hour", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("REPORT_TIME %q: invalid minute", raw)
	}
	return hour, minute, nil
}
