package db

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/acolytehq/acolyte/internal/core"
)

// Backup copies the database file to backup/project_<YYYYMMDD_HHMM>.db and
// prunes the oldest backups (by mtime) beyond keep. WAL makes a plain file
// copy safe enough for recovery; this is not a transactionally consistent
// snapshot and does not need to be.
func Backup(project core.Project, keep int) error {
	if err := os.MkdirAll(project.BackupDir(), 0o755); err != nil {
		return err
	}

	stamp := time.Now().Format("20060102_1504")
	dest := filepath.Join(project.BackupDir(), fmt.Sprintf("project_%s.db", stamp))

	if err := copyFile(project.DBPath, dest); err != nil {
		return err
	}

	return pruneBackups(project.BackupDir(), keep)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func pruneBackups(dir string, keep int) error {
	if keep <= 0 {
		keep = 10
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	type backup struct {
		path  string
		mtime time.Time
	}
	var backups []backup
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ".db" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backup{
			path:  filepath.Join(dir, name),
			mtime: info.ModTime(),
		})
	}

	if len(backups) <= keep {
		return nil
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].mtime.Before(backups[j].mtime)
	})
	for _, old := range backups[:len(backups)-keep] {
		if err := os.Remove(old.path); err != nil {
			return err
		}
	}
	return nil
}
