package command

import (
	"os"

	"github.com/acolytehq/acolyte/internal/command/hooks"
	"github.com/spf13/cobra"
)

const AppName = "acolyte"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Acolyte - persistent memory and quest coordination for Claude Code",
		Long:          "Acolyte gives an AI coding host persistent project memory and a turn-based quest bus for multi-agent work.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.AddCommand(
		NewInitCmd(),
		NewJobCmd(),
		NewAgentCmd(),
		NewQuestCmd(),
		hooks.NewHookCmd(),
	)

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd(Version).Execute()
}
