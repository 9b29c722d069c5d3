package db

import (
	"database/sql"

	"github.com/acolytehq/acolyte/internal/core"
	_ "modernc.org/sqlite"
)

// Open opens the project database with the store's connection policy:
// WAL journal, synchronous=NORMAL, 30 s busy timeout. Connections are
// opened per invocation and closed by the caller; there is no pool, since
// every process here is short-lived.
func Open(project core.Project) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", project.DBPath)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	return conn, nil
}
