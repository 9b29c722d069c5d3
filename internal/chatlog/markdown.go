package chatlog

import (
	"fmt"
	"strings"
	"time"

	"github.com/acolytehq/acolyte/internal/types"
)

// RenderMarkdown renders the transcript deterministically from the message
// array: same input, bit-identical output.
func RenderMarkdown(sessionID string, messages []types.ChatMessage) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Conversation %s\n\n", sessionID))
	if len(messages) > 0 {
		if date := messageDate(messages[0].Timestamp); date != "" {
			b.WriteString(fmt.Sprintf("_%s_\n\n", date))
		}
	}

	for _, msg := range messages {
		b.WriteString(fmt.Sprintf("## %s — %s\n\n", roleHeading(msg), msg.Timestamp))
		b.WriteString(strings.TrimRight(msg.Content, "\n"))
		b.WriteString("\n\n")
	}

	return b.String()
}

func roleHeading(msg types.ChatMessage) string {
	switch msg.Type {
	case types.ChatRoleUser:
		return "User"
	case types.ChatRoleAssistant:
		return "Assistant"
	case types.ChatRoleCodeChange:
		if msg.Tool != "" {
			return fmt.Sprintf("Code change (%s)", msg.Tool)
		}
		return "Code change"
	}
	return string(msg.Type)
}

func messageDate(timestamp string) string {
	parsed, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return ""
	}
	return parsed.Format("2006-01-02")
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
