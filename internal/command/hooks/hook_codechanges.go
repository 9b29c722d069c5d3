package hooks

import (
	"fmt"
	"strings"

	"github.com/acolytehq/acolyte/internal/chatlog"
	"github.com/acolytehq/acolyte/internal/db"
	"github.com/acolytehq/acolyte/internal/types"
	"github.com/spf13/cobra"
)

// NewCaptureCodeChangesCmd handles the post-edit event for
// Write/Edit/MultiEdit/Update: build a best-effort diff, append it to the
// conversation log as a synthetic code_change message, and record a
// code_changes row with a short preview.
func NewCaptureCodeChangesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture-code-changes",
		Short: "Code-change capture hook handler (internal)",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := readHookInput(cmd)
			fields := parseToolInput(input.ToolInput)
			if fields.FilePath == "" {
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

			diff := buildDiff(input.ToolName, fields)

			err = chatlog.Append(env.Project, types.ChatMessage{
				SessionID: session.ID,
				Content:   fmt.Sprintf("%s: %s\n\n```diff\n%s\n```", input.ToolName, fields.FilePath, diff),
				Type:      types.ChatRoleCodeChange,
				Tool:      input.ToolName,
			})
			if err != nil {
				logHook("append code change: %v", err)
			}

			err = db.InsertCodeChange(env.DB, types.CodeChange{
				SessionID:   session.ID,
				Tool:        input.ToolName,
				FilePath:    fields.FilePath,
				ChangeType:  changeType(input.ToolName),
				DiffPreview: truncate(diff, 500),
			})
			if err != nil {
				logHook("insert code change: %v", err)
			}

			return nil
		},
	}
	return cmd
}

func changeType(toolName string) string {
	switch toolName {
	case "Write":
		return "write"
	case "Edit":
		return "edit"
	case "MultiEdit":
		return "multi_edit"
	case "Update":
		return "update"
	}
	return strings.ToLower(toolName)
}

// buildDiff reconstructs a unified-style diff from the tool parameters.
// The file has already been rewritten by the time this hook fires, so the
// old/new strings in the parameters are the only before-state available.
func buildDiff(toolName string, fields toolInputFields) string {
	var b strings.Builder

	switch toolName {
	case "Edit":
		writeHunk(&b, fields.OldString, fields.NewString)
	case "MultiEdit":
		for i, edit := range fields.Edits {
			if i > 0 {
				b.WriteString("\n")
			}
			writeHunk(&b, edit.OldString, edit.NewString)
		}
	case "Write":
		for _, line := range splitLimit(fields.Content, 40) {
			b.WriteString("+ " + line + "\n")
		}
	default:
		writeHunk(&b, fields.OldString, fields.NewString)
	}

	diff := strings.TrimRight(b.String(), "\n")
	if diff == "" {
		diff = "(no diff available)"
	}
	return diff
}

func writeHunk(b *strings.Builder, oldText, newText string) {
	for _, line := range splitLimit(oldText, 40) {
		b.WriteString("- " + line + "\n")
	}
	for _, line := range splitLimit(newText, 40) {
		b.WriteString("+ " + line + "\n")
	}
}

func splitLimit(text string, limit int) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) > limit {
		lines = append(lines[:limit], fmt.Sprintf("... (%d more lines)", len(lines)-limit))
	}
	return lines
}
