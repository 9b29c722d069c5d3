package hooks

import (
	"fmt"

	"github.com/acolytehq/acolyte/internal/chatlog"
	"github.com/acolytehq/acolyte/internal/cli"
	"github.com/acolytehq/acolyte/internal/db"
	"github.com/acolytehq/acolyte/internal/types"
	"github.com/spf13/cobra"
)

// promptReminder is emitted on every prompt so the host keeps the memory
// tooling in scope.
const promptReminder = "[acolyte] Conversation is being recorded. Use 'acolyte quest check' between tasks if you are on a quest."

// NewUserPromptSubmitCmd handles UserPromptSubmit: record the prompt in the
// conversation log and run the advisory deny-list.
func NewUserPromptSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user-prompt-submit",
		Short: "UserPromptSubmit hook handler (internal)",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := readHookInput(cmd)

			env, ok := openHookEnv()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), promptReminder)
				return nil
			}
			defer env.Close()

			if pattern := env.Config.DeniedBy(input.Prompt); pattern != "" {
				reason := fmt.Sprintf("prompt blocked by policy pattern %q", pattern)
				fmt.Fprintln(cmd.ErrOrStderr(), reason)
				return &cli.ExitError{Code: 2, Err: fmt.Errorf("%s", reason)}
			}

			session, err := db.FindActiveSession(env.DB)
			if err != nil {
				logHook("find active session: %v", err)
			}
			if session != nil && input.Prompt != "" {
				if input.SessionID != "" && session.ClaudeSessionID == nil {
					if err := db.SetClaudeSessionID(env.DB, session.ID, input.SessionID); err != nil {
						logHook("set claude session id: %v", err)
					}
				}
				err := chatlog.Append(env.Project, types.ChatMessage{
					SessionID: session.ID,
					Content:   input.Prompt,
					Type:      types.ChatRoleUser,
				})
				if err != nil {
					logHook("append prompt: %v", err)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), promptReminder)
			return nil
		},
	}
	return cmd
}
