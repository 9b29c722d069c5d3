package hooks

import (
	"encoding/json"
	"strings"

	"github.com/acolytehq/acolyte/internal/db"
	"github.com/spf13/cobra"
)

// NewPostToolUseCmd handles PostToolUse: fold the result into the most
// recent matching pre-row. An unmatched result is dropped, not an error.
func NewPostToolUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post-tool-use",
		Short: "PostToolUse hook handler (internal)",
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

			result := input.ToolResult
			if len(result) == 0 {
				result = input.ToolResponse
			}
			summary := summarizeResult(result)
			success := input.ToolError == ""

			matched, err := db.UpdateToolLogPost(env.DB, sessionID, input.ToolName,
				success, summary, int64(strings.Count(string(result), "\n")), int64(len(result)))
			if err != nil {
				logHook("update tool log: %v", err)
			} else if !matched {
				logHook("no pre-row match for %s within window", input.ToolName)
			}

			return nil
		},
	}
	return cmd
}

// summarizeResult reduces a tool result of unknown shape to a short string.
func summarizeResult(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return truncate(strings.TrimSpace(asString), 300)
	}

	var asObject map[string]any
	if err := json.Unmarshal(raw, &asObject); err == nil {
		for _, key := range []string{"output", "stdout", "result", "content"} {
			if value, ok := asObject[key].(string); ok && value != "" {
				return truncate(strings.TrimSpace(value), 300)
			}
		}
	}

	return truncate(string(raw), 300)
}
