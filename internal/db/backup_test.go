package db

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/acolytehq/acolyte/internal/core"
)

func TestBackupCopiesDatabase(t *testing.T) {
	project, err := core.InitProject(t.TempDir())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	if err := os.WriteFile(project.DBPath, []byte("db contents"), 0o644); err != nil {
		t.Fatalf("seed db: %v", err)
	}

	if err := Backup(project, 10); err != nil {
		t.Fatalf("backup: %v", err)
	}

	entries, err := os.ReadDir(project.BackupDir())
	if err != nil {
		t.Fatalf("read backup dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 backup, got %d", len(entries))
	}
	data, err := os.ReadFile(filepath.Join(project.BackupDir(), entries[0].Name()))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(data) != "db contents" {
		t.Fatalf("unexpected backup contents: %q", data)
	}
}

func TestBackupPrunesOldest(t *testing.T) {
	project, err := core.InitProject(t.TempDir())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}

	// Seed more backups than the retention allows, oldest first.
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		path := filepath.Join(project.BackupDir(), fmt.Sprintf("project_old%d.db", i))
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("seed backup: %v", err)
		}
		mtime := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("set mtime: %v", err)
		}
	}

	if err := Backup(project, 3); err != nil {
		t.Fatalf("backup: %v", err)
	}

	entries, err := os.ReadDir(project.BackupDir())
	if err != nil {
		t.Fatalf("read backup dir: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 backups after prune, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.Name() == "project_old0.db" || entry.Name() == "project_old1.db" {
			t.Fatalf("expected oldest backups pruned, found %s", entry.Name())
		}
	}
}
