package hooks

import (
	"fmt"
	"time"

	"github.com/acolytehq/acolyte/internal/cli"
	"github.com/acolytehq/acolyte/internal/db"
	"github.com/spf13/cobra"
)

// NewPreCompactCmd handles PreCompact. Automatic compaction mid-quest would
// silently drop the coordination context workers depend on, so it is
// vetoed; manual compaction is assumed deliberate.
func NewPreCompactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pre-compact",
		Short: "PreCompact hook handler (internal)",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := readHookInput(cmd)
			if input.Trigger != "auto" {
				return nil
			}

			env, ok := openHookEnv()
			if !ok {
				return nil
			}
			defer env.Close()

			active, err := db.HasActiveQuest(env.DB)
			if err != nil {
				logHook("quest check: %v", err)
				return nil
			}
			if active {
				reason := "auto-compact blocked: a quest is in progress; finish or save quest state first"
				fmt.Fprintln(cmd.ErrOrStderr(), reason)
				return &cli.ExitError{Code: 2, Err: fmt.Errorf("%s", reason)}
			}

			session, err := db.FindActiveSession(env.DB)
			if err != nil || session == nil {
				return nil
			}
			if created, err := time.Parse(time.RFC3339, session.CreatedAt); err == nil {
				age := time.Since(created)
				if age > time.Duration(env.Config.StaleSessionHours)*time.Hour {
					fmt.Fprintf(cmd.ErrOrStderr(),
						"session %s is %.0fh old and unsaved; consider closing it before compaction\n",
						session.ID, age.Hours())
					return cli.Exit(1)
				}
			}

			return nil
		},
	}
	return cmd
}
