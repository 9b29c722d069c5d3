package hooks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/acolytehq/acolyte/internal/core"
	"github.com/spf13/cobra"
)

// NewHookInstallCmd writes the hook matchers into the project's
// .claude/settings.json so the host starts invoking the handlers.
func NewHookInstallCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the acolyte hooks into .claude/settings.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := core.DiscoverProject("")
			if err != nil {
				return err
			}

			settingsPath := filepath.Join(project.Root, ".claude", "settings.json")
			settings := map[string]any{}
			if data, err := os.ReadFile(settingsPath); err == nil {
				_ = json.Unmarshal(data, &settings)
			}
			settings["hooks"] = hookMatchers()

			data, err := json.MarshalIndent(settings, "", "  ")
			if err != nil {
				return err
			}
			data = append(data, '\n')

			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "Would write to: %s\n%s", settingsPath, data)
				return nil
			}

			if err := os.WriteFile(settingsPath, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed hooks in %s\n", settingsPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the settings without writing")
	return cmd
}

func hookMatchers() map[string]any {
	entry := func(command string, timeout int) []any {
		return []any{map[string]any{
			"hooks": []any{map[string]any{
				"type":    "command",
				"command": command,
				"timeout": timeout,
			}},
		}}
	}
	matcherEntry := func(matcher, command string, timeout int) any {
		return map[string]any{
			"matcher": matcher,
			"hooks": []any{map[string]any{
				"type":    "command",
				"command": command,
				"timeout": timeout,
			}},
		}
	}

	return map[string]any{
		"SessionStart":     entry("acolyte hook session-start", 10),
		"UserPromptSubmit": entry("acolyte hook user-prompt-submit", 5),
		"PreToolUse":       entry("acolyte hook pre-tool-use", 5),
		"PostToolUse": []any{
			matcherEntry("Write|Edit|MultiEdit|Update", "acolyte hook capture-code-changes", 10),
			matcherEntry("", "acolyte hook post-tool-use", 5),
		},
		"PreCompact":   entry("acolyte hook pre-compact", 5),
		"Stop":         entry("acolyte hook stop", 10),
		"SubagentStop": entry("acolyte hook subagent-stop", 10),
	}
}
