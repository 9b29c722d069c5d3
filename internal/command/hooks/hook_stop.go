package hooks

import (
	"github.com/acolytehq/acolyte/internal/chatlog"
	"github.com/acolytehq/acolyte/internal/db"
	"github.com/acolytehq/acolyte/internal/types"
	"github.com/gen2brain/beeep"
	"github.com/spf13/cobra"
)

// NewStopCmd handles Stop: capture the final assistant message from the
// transcript into the conversation log and refresh the Markdown rendering.
func NewStopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop hook handler (internal)",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := readHookInput(cmd)

			env, ok := openHookEnv()
			if !ok {
				return nil
			}
			defer env.Close()

			session, err := db.FindActiveSession(env.DB)
			if err != nil || session == nil {
				return nil
			}

			if input.TranscriptPath != "" {
				entries, err := readTranscript(input.TranscriptPath)
				if err != nil {
					logHook("read transcript: %v", err)
				} else if text := lastAssistantText(entries); text != "" {
					err := chatlog.Append(env.Project, types.ChatMessage{
						SessionID: session.ID,
						Content:   text,
						Type:      types.ChatRoleAssistant,
					})
					if err != nil {
						logHook("append assistant message: %v", err)
					}
				}
			}

			if err := chatlog.Regenerate(env.Project, session.ID); err != nil {
				logHook("regenerate markdown: %v", err)
			}

			if env.Config.NotifySound {
				_ = beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
			}

			return nil
		},
	}
	return cmd
}
