package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		cfg, err := LoadFrom(map[string]string{"SCHEDULER_SESSION_SECRET": "super-secret"})
		if err != nil {
			t.Fatalf("LoadFrom returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.Store != StoreSQLite || cfg.AuthMode != AuthLocal {
			t.Fatalf("unexpected defaults store=%s auth=%s", cfg.Store, cfg.AuthMode)
		}
		if cfg.SQLiteDSN != "file:scheduler.db?_pragma=foreign_keys(1)" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.MaxSeriesSpan != 366*24*time.Hour {
			t.Fatalf("unexpected series span %s", cfg.MaxSeriesSpan)
		}
		if cfg.RefreshSchedule != "@every 5m" || cfg.WriteRateLimit != 5 {
			t.Fatalf("unexpected refresh/rate defaults %+v", cfg)
		}
		if cfg.Location == nil {
			t.Fatal("expected location to be resolved")
		}
	})

	t.Run("reads the process environment", func(t *testing.T) {
		t.Setenv("SCHEDULER_SESSION_SECRET", "from-env")
		t.Setenv("SCHEDULER_HTTP_PORT", "9090")
		t.Setenv("SCHEDULER_TIMEZONE", "Asia/Tokyo")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 9090 || cfg.SessionSecret != "from-env" {
			t.Fatalf("unexpected config %+v", cfg)
		}
		if cfg.Location.String() != "Asia/Tokyo" {
			t.Fatalf("unexpected location %s", cfg.Location)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		_, err := LoadFrom(map[string]string{})
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "required environment variables are not set: SCHEDULER_SESSION_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("firestore requires a project", func(t *testing.T) {
		_, err := LoadFrom(map[string]string{
			"SCHEDULER_STORE":     "firestore",
			"SCHEDULER_AUTH_MODE": "firebase",
		})
		if err == nil || !strings.Contains(err.Error(), "SCHEDULER_FIREBASE_PROJECT_ID") {
			t.Fatalf("expected missing project error, got %v", err)
		}
	})

	t.Run("reports invalid values by name", func(t *testing.T) {
		_, err := LoadFrom(map[string]string{
			"SCHEDULER_SESSION_SECRET":   "s",
			"SCHEDULER_STORE":            "postgres",
			"SCHEDULER_TIMEZONE":         "Mars/Olympus",
			"SCHEDULER_REFRESH_SCHEDULE": "whenever",
		})
		if err == nil {
			t.Fatal("expected error for invalid values")
		}
		for _, name := range []string{"SCHEDULER_STORE", "SCHEDULER_TIMEZONE", "SCHEDULER_REFRESH_SCHEDULE"} {
			if !strings.Contains(err.Error(), name) {
				t.Fatalf("expected %s in %q", name, err.Error())
			}
		}
	})

	t.Run("rejects malformed numbers", func(t *testing.T) {
		_, err := LoadFrom(map[string]string{
			"SCHEDULER_SESSION_SECRET": "s",
			"SCHEDULER_HTTP_PORT":      "eighty",
		})
		if err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestLoadClassrooms(t *testing.T) {
	write := func(t *testing.T, body string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "classrooms.yaml")
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write seed file: %v", err)
		}
		return path
	}

	t.Run("parses entries", func(t *testing.T) {
		path := write(t, `
classrooms:
  - id: lab-1
    name: " Lab 1 "
    location: Building A
    capacity: 24
  - id: gym
    name: Gym
`)
		classrooms, err := LoadClassrooms(path)
		if err != nil {
			t.Fatalf("LoadClassrooms returned error: %v", err)
		}
		if len(classrooms) != 2 {
			t.Fatalf("expected 2 classrooms, got %d", len(classrooms))
		}
		if classrooms[0].Name != "Lab 1" || classrooms[0].Capacity != 24 || classrooms[0].Location != "Building A" {
			t.Fatalf("unexpected classroom %+v", classrooms[0])
		}
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		path := write(t, "classrooms:\n  - {id: a, name: A}\n  - {id: a, name: B}\n")
		if _, err := LoadClassrooms(path); err == nil || !strings.Contains(err.Error(), "duplicate") {
			t.Fatalf("expected duplicate error, got %v", err)
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		path := write(t, "classrooms:\n  - {id: a, name: A, seats: 3}\n")
		if _, err := LoadClassrooms(path); err == nil {
			t.Fatal("expected error for unknown field")
		}
	})

	t.Run("requires names", func(t *testing.T) {
		path := write(t, "classrooms:\n  - {id: a}\n")
		if _, err := LoadClassrooms(path); err == nil {
			t.Fatal("expected error for missing name")
		}
	})
}
