package hooks

import (
	"fmt"
	"strings"

	"github.com/acolytehq/acolyte/internal/db"
	"github.com/acolytehq/acolyte/internal/types"
	"github.com/spf13/cobra"
)

// NewSessionStartCmd handles SessionStart: back up the store and hand the
// host a context block rebuilt from the previous session's state.
func NewSessionStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session-start",
		Short: "SessionStart hook handler (internal)",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := readHookInput(cmd)

			env, ok := openHookEnv()
			if !ok {
				return writeSessionStartOutput(cmd, "")
			}
			defer env.Close()

			if err := db.Backup(env.Project, env.Config.BackupKeep); err != nil {
				logHook("backup: %v", err)
			}

			context := buildSessionStartContext(env, input.Source)
			return writeSessionStartOutput(cmd, context)
		},
	}
	return cmd
}

func buildSessionStartContext(env hookEnv, source string) string {
	var b strings.Builder

	if source != "" {
		fmt.Fprintf(&b, "[acolyte] Session %s.\n", source)
	} else {
		b.WriteString("[acolyte] Session start.\n")
	}

	session, err := db.FindActiveSession(env.DB)
	if err != nil {
		logHook("find active session: %v", err)
		return b.String()
	}
	if session == nil {
		if job, err := db.GetActiveJob(env.DB); err == nil && job != nil {
			fmt.Fprintf(&b, "Job %s (%s) is active but has no open session.\n", job.ID, job.Title)
		} else {
			b.WriteString("No active session. Create a job to begin: acolyte job create --title \"...\" --activate\n")
		}
		return b.String()
	}

	fmt.Fprintf(&b, "Session: %s\n", session.ID)

	job, err := db.GetJob(env.DB, session.JobID)
	if err == nil && job != nil {
		fmt.Fprintf(&b, "Job: %s — %s\n", job.ID, job.Title)
		if job.Description != "" {
			fmt.Fprintf(&b, "  %s\n", truncate(job.Description, 300))
		}
	}

	if last, err := db.LastClosedSession(env.DB, session.JobID); err == nil && last != nil {
		b.WriteString("Last session:\n")
		if last.PrimaryRequest != nil && *last.PrimaryRequest != "" {
			fmt.Fprintf(&b, "  Request: %s\n", truncate(*last.PrimaryRequest, 200))
		}
		if last.NextStep != nil && *last.NextStep != "" {
			fmt.Fprintf(&b, "  Next step: %s\n", truncate(*last.NextStep, 200))
		}
		if last.QualityScore != nil {
			fmt.Fprintf(&b, "  Quality: %d/10\n", *last.QualityScore)
		}

		if files, err := db.SessionFilesTouched(env.DB, last.ID, 10); err == nil && len(files) > 0 {
			fmt.Fprintf(&b, "  Files touched: %s\n", strings.Join(files, ", "))
		}
	}

	accomplishments, decisions, bugsFixed, err := db.JobAggregates(env.DB, session.JobID)
	if err == nil {
		writeAggregate(&b, "Accomplishments", accomplishments)
		writeAggregate(&b, "Decisions", decisions)
		writeAggregate(&b, "Bugs fixed", bugsFixed)
	}

	if todos, err := db.ListTodos(env.DB); err == nil && len(todos) > 0 {
		open := 0
		for _, todo := range todos {
			if todo.Status != types.TodoStatusCompleted && todo.Status != types.TodoStatusCancelled {
				open++
			}
		}
		if open > 0 {
			fmt.Fprintf(&b, "Todos: %d open of %d\n", open, len(todos))
		}
	}

	if branch, dirty, ok := gitState(env.Project.Root); ok {
		fmt.Fprintf(&b, "Git: branch %s, %d dirty file(s)\n", branch, dirty)
	}

	return b.String()
}

func writeAggregate(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	limit := len(items)
	if limit > 5 {
		limit = 5
	}
	fmt.Fprintf(b, "%s (%d):\n", label, len(items))
	for _, item := range items[:limit] {
		fmt.Fprintf(b, "  - %s\n", truncate(item, 150))
	}
}
