package config

import (
	"testing"
	"time"

	"github.com/kelseyhightower/envconfig"
)

func TestSettingsDefaults(t *testing.T) {
	var s Settings
	if err := envconfig.Process("SHELLSIGHT_TEST_UNSET", &s); err != nil {
		t.Fatalf("process: %v", err)
	}

	if s.ListenAddr != ":8000" {
		t.Errorf("expected :8000, got %q", s.ListenAddr)
	}
	if s.StoreBackend != "file" {
		t.Errorf("expected file backend, got %q", s.StoreBackend)
	}
	if s.DefaultSpeed != 1 {
		t.Errorf("expected default speed 1, got %v", s.DefaultSpeed)
	}
	if s.IdentityHeader != "X-Forwarded-User" {
		t.Errorf("unexpected identity header %q", s.IdentityHeader)
	}
	if s.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected 10s shutdown timeout, got %s", s.ShutdownTimeout)
	}
	if len(s.AdminUsers) != 0 {
		t.Errorf("expected no admin users, got %v", s.AdminUsers)
	}
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("SHELLSIGHT_KEY_PREFIX", "SSNREC/")
	t.Setenv("SHELLSIGHT_PER_USER_RECORDINGS", "true")
	t.Setenv("SHELLSIGHT_ADMIN_USERS", "alice,bob")
	t.Setenv("SHELLSIGHT_MAX_SPEED", "16")

	var s Settings
	if err := envconfig.Process("SHELLSIGHT", &s); err != nil {
		t.Fatalf("process: %v", err)
	}

	if s.KeyPrefix != "SSNREC/" {
		t.Errorf("expected SSNREC/, got %q", s.KeyPrefix)
	}
	if !s.PerUserRecordings {
		t.Error("expected per-user recordings")
	}
	if s.MaxSpeed != 16 {
		t.Errorf("expected max speed 16, got %v", s.MaxSpeed)
	}
	if !s.IsAdmin("bob") || s.IsAdmin("carol") {
		t.Errorf("unexpected admin set %v", s.AdminUsers)
	}
}
