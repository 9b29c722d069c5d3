package config

import (
	"os"
	"testing"

	"github.com/acolytehq/acolyte/internal/core"
)

func testProject(t *testing.T) core.Project {
	t.Helper()
	project, err := core.InitProject(t.TempDir())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	return project
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	project := testProject(t)

	cfg, err := Load(project)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BackupKeep != 10 || cfg.MonitorInterval != 20 || cfg.MonitorMaxIterations != 5 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.NotifySound {
		t.Fatal("expected sound off by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	project := testProject(t)

	content := "backup_keep: 3\nmonitor_interval_seconds: 5\nnotify_sound: true\ndeny:\n  - \"*rm -rf*\"\n"
	if err := os.WriteFile(project.ConfigPath(), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(project)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BackupKeep != 3 || cfg.MonitorInterval != 5 || !cfg.NotifySound {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	// Unset keys keep their defaults.
	if cfg.MonitorMaxIterations != 5 {
		t.Fatalf("expected default max iterations, got %d", cfg.MonitorMaxIterations)
	}
	if len(cfg.Deny) != 1 {
		t.Fatalf("unexpected deny list: %v", cfg.Deny)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	project := testProject(t)

	if err := os.WriteFile(project.ConfigPath(), []byte("backup_keep: [oops"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(project); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestDeniedBy(t *testing.T) {
	cfg := Config{Deny: []string{"[bad", "*rm -rf*", "*force push*"}}

	if pattern := cfg.DeniedBy("please rm -rf the build dir"); pattern != "*rm -rf*" {
		t.Fatalf("expected rm pattern, got %q", pattern)
	}
	if pattern := cfg.DeniedBy("git push"); pattern != "" {
		t.Fatalf("expected no match, got %q", pattern)
	}
	// The uncompilable pattern is skipped, not fatal.
	if pattern := cfg.DeniedBy("force push to main"); pattern != "*force push*" {
		t.Fatalf("expected force push pattern, got %q", pattern)
	}
}
