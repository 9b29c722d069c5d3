package hooks

import (
	"github.com/acolytehq/acolyte/internal/chatlog"
	"github.com/acolytehq/acolyte/internal/db"
	"github.com/acolytehq/acolyte/internal/types"
	"github.com/spf13/cobra"
)

// NewSubagentStopCmd handles SubagentStop: find the Task invocation that
// just completed and record it in the session's acolytes file.
func NewSubagentStopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subagent-stop",
		Short: "SubagentStop hook handler (internal)",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := readHookInput(cmd)
			if input.TranscriptPath == "" {
				return nil
			}

			env, ok := openHookEnv()
			if !ok {
				return nil
			}
			defer env.Close()

			session, err := db.FindActiveSession(env.DB)
			if err != nil || session == nil {
				return nil
			}

			entries, err := readTranscript(input.TranscriptPath)
			if err != nil {
				logHook("read transcript: %v", err)
				return nil
			}

			invocation := lastTaskInvocation(entries)
			if invocation == nil {
				return nil
			}

			err = chatlog.AppendAcolyte(env.Project, types.AcolyteRecord{
				SessionID: session.ID,
				AgentType: invocation.AgentType,
				Prompt:    truncate(invocation.Prompt, 1000),
				Result:    truncate(invocation.Result, 2000),
			})
			if err != nil {
				logHook("append acolyte record: %v", err)
			}

			return nil
		},
	}
	return cmd
}
