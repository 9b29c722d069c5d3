package command

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/acolytehq/acolyte/internal/cli"
	"github.com/acolytehq/acolyte/internal/core"
	"github.com/acolytehq/acolyte/internal/db"
	"github.com/spf13/cobra"
)

// openProjectDB locates the project from cwd and opens the store with the
// schema applied.
func openProjectDB() (core.Project, *sql.DB, error) {
	project, err := core.DiscoverProject("")
	if err != nil {
		return core.Project{}, nil, err
	}
	conn, err := db.Open(project)
	if err != nil {
		return core.Project{}, nil, err
	}
	if err := db.InitSchema(conn); err != nil {
		_ = conn.Close()
		return core.Project{}, nil, err
	}
	return project, conn, nil
}

// writeJSON pretty-prints v to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeError emits the structured {"error": ...} payload on stdout and
// returns a non-zero exit. User-facing CLI operations propagate errors this
// way; hooks never do.
func writeError(cmd *cobra.Command, err error) error {
	_ = writeJSON(cmd, map[string]string{"error": err.Error()})
	return &cli.ExitError{Code: 1, Err: err}
}

// writeLine prints a plain line to stdout.
func writeLine(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}
