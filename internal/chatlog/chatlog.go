// Package chatlog owns the per-session conversation record: an append-only
// JSON array plus a Markdown rendering regenerated from it on every append.
// Multiple hooks can fire nearly simultaneously for the same session, so
// writes serialize on a per-session lock file and commit by atomic rename.
package chatlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/acolytehq/acolyte/internal/core"
	"github.com/acolytehq/acolyte/internal/types"
	"github.com/google/uuid"
)

func jsonPath(project core.Project, sessionID string) string {
	return filepath.Join(project.ChatDir(), sessionID+".json")
}

func markdownPath(project core.Project, sessionID string) string {
	return filepath.Join(project.ChatDir(), sessionID+".md")
}

func lockPath(project core.Project, sessionID string) string {
	return filepath.Join(project.ChatDir(), sessionID+".lock")
}

// Append adds one message to the session log and regenerates the Markdown
// transcript. The message uuid and timestamp are filled in when empty.
func Append(project core.Project, msg types.ChatMessage) error {
	if msg.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if msg.UUID == "" {
		msg.UUID = uuid.NewString()
	}
	if msg.Timestamp == "" {
		msg.Timestamp = nowISO()
	}
	if err := os.MkdirAll(project.ChatDir(), 0o755); err != nil {
		return err
	}

	lock := lockPath(project, msg.SessionID)
	if err := acquireLock(lock); err != nil {
		return err
	}
	defer releaseLock(lock)

	messages, err := readMessages(jsonPath(project, msg.SessionID))
	if err != nil {
		return err
	}
	messages = append(messages, msg)

	if err := writeAtomic(jsonPath(project, msg.SessionID), marshalIndent(messages)); err != nil {
		return err
	}
	return writeAtomic(markdownPath(project, msg.SessionID), []byte(RenderMarkdown(msg.SessionID, messages)))
}

// Read returns the full message array for a session. A missing file is an
// empty conversation, not an error.
func Read(project core.Project, sessionID string) ([]types.ChatMessage, error) {
	return readMessages(jsonPath(project, sessionID))
}

// Regenerate rewrites the Markdown transcript from the JSON source of truth.
func Regenerate(project core.Project, sessionID string) error {
	messages, err := readMessages(jsonPath(project, sessionID))
	if err != nil {
		return err
	}
	return writeAtomic(markdownPath(project, sessionID), []byte(RenderMarkdown(sessionID, messages)))
}

func readMessages(path string) ([]types.ChatMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.ChatMessage{}, nil
		}
		return nil, err
	}

	var messages []types.ChatMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		// Corrupt log: fall back to empty rather than wedging every hook.
		fmt.Fprintf(os.Stderr, "chatlog: unreadable %s: %v\n", path, err)
		return []types.ChatMessage{}, nil
	}
	return messages, nil
}

// writeAtomic commits via tmp-file-then-rename so readers never observe a
// partial write.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func marshalIndent(v any) []byte {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return []byte("[]")
	}
	return data
}
