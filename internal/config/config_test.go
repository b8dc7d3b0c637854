package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr: got %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.DatabaseURL != "linecheck.db" {
		t.Errorf("DatabaseURL: got %q, want linecheck.db", cfg.DatabaseURL)
	}
	if cfg.GenerateInterval != 15*time.Minute {
		t.Errorf("GenerateInterval: got %s, want 15m", cfg.GenerateInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:9090")
	t.Setenv("GENERATE_INTERVAL_MINUTES", "5")
	t.Setenv("REPORT_TIME", "07:30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9090" {
		t.Errorf("HTTPAddr: got %q", cfg.HTTPAddr)
	}
	if cfg.GenerateInterval != 5*time.Minute {
		t.Errorf("GenerateInterval: got %s, want 5m", cfg.GenerateInterval)
	}
	if !cfg.ReportsEnabled || cfg.ReportHour != 7 || cfg.ReportMinute != 30 {
		t.Errorf("report time: got %02d:%02d (enabled=%v), want 07:30", cfg.ReportHour, cfg.ReportMinute, cfg.ReportsEnabled)
	}
}

func TestLoadRejectsBadReportTime(t *testing.T) {
	cases := []string{"25:00", "9", "09:99", "nine:thirty"}
	for _, raw := range cases {
		t.Run(raw, func(t *testing.T) {
			t.Setenv("REPORT_TIME", raw)
			if _, err := Load(); err == nil {
				t.Errorf("Load: expected error for REPORT_TIME=%q", raw)
			}
		})
	}
}
