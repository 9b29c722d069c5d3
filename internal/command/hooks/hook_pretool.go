package hooks

import (
	"encoding/json"
	"fmt"

	"github.com/acolytehq/acolyte/internal/cli"
	"github.com/acolytehq/acolyte/internal/db"
	"github.com/acolytehq/acolyte/internal/types"
	"github.com/spf13/cobra"
)

// toolInputFields is the subset of tool parameters the hooks care about.
type toolInputFields struct {
	FilePath  string           `json:"file_path"`
	Command   string           `json:"command"`
	OldString string           `json:"old_string"`
	NewString string           `json:"new_string"`
	Content   string           `json:"content"`
	Edits     []toolInputEdit  `json:"edits"`
	Todos     []types.TodoItem `json:"todos"`
}

type toolInputEdit struct {
	OldString string `json:"old_string"`
	NewString string `json:"new_string"`
}

func parseToolInput(raw json.RawMessage) toolInputFields {
	var fields toolInputFields
	if len(raw) == 0 {
		return fields
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		logHook("parse tool_input: %v", err)
	}
	return fields
}

// NewPreToolUseCmd handles PreToolUse: provisional tool_logs row, TodoWrite
// mirroring, and the advisory deny-list on shell commands.
func NewPreToolUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pre-tool-use",
		Short: "PreToolUse hook handler (internal)",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := readHookInput(cmd)
			if input.ToolName == "" {
				return nil
			}

			env, ok := openHookEnv()
			if !ok {
				return nil
			}
			defer env.Close()

			sessionID := ""
			if session, err := db.FindActiveSession(env.DB); err == nil && session != nil {
				sessionID = session.ID
			}

			fields := parseToolInput(input.ToolInput)
			logID, err := db.InsertToolLogPre(env.DB, sessionID, input.ToolName,
				truncate(string(input.ToolInput), 2000), fields.FilePath)
			if err != nil {
				logHook("insert tool log: %v", err)
			}

			if input.ToolName == "TodoWrite" {
				if err := db.ReplaceTodos(env.DB, fields.Todos, sessionID); err != nil {
					logHook("todo sync: %v", err)
				}
			}

			if input.ToolName == "Bash" && fields.Command != "" {
				if pattern := env.Config.DeniedBy(fields.Command); pattern != "" {
					reason := fmt.Sprintf("command blocked by policy pattern %q", pattern)
					if logID > 0 {
						if err := db.MarkToolLogBlocked(env.DB, logID, reason); err != nil {
							logHook("mark blocked: %v", err)
						}
					}
					fmt.Fprintln(cmd.ErrOrStderr(), reason)
					return &cli.ExitError{Code: 2, Err: fmt.Errorf("%s", reason)}
				}
			}

			return nil
		},
	}
	return cmd
}
