package command

import (
	"github.com/acolytehq/acolyte/internal/core"
	"github.com/acolytehq/acolyte/internal/db"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the project layout and schema in the current directory.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the acolyte project store in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := core.InitProject("")
			if err != nil {
				return writeError(cmd, err)
			}

			conn, err := db.Open(project)
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			if err := db.InitSchema(conn); err != nil {
				return writeError(cmd, err)
			}

			writeLine(cmd, "Initialized acolyte project at %s", project.Root)
			writeLine(cmd, "Database: %s", project.DBPath)
			return nil
		},
	}
	return cmd
}
