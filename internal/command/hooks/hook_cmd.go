package hooks

import "github.com/spf13/cobra"

// NewHookCmd creates the hook parent command. The handler subcommands are
// called by the host's hook system, not by agents directly, so they are
// hidden from help output.
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Lifecycle-event handlers invoked by Claude Code",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(NewHookInstallCmd())

	for _, sub := range []*cobra.Command{
		NewSessionStartCmd(),
		NewUserPromptSubmitCmd(),
		NewPreToolUseCmd(),
		NewPostToolUseCmd(),
		NewCaptureCodeChangesCmd(),
		NewPreCompactCmd(),
		NewStopCmd(),
		NewSubagentStopCmd(),
	} {
		sub.Hidden = true
		cmd.AddCommand(sub)
	}

	return cmd
}
