// Package questlog appends per-quest audit lines under
// .claude/logs/quests/. The database is the ground truth for live
// coordination; this log is the ground truth for post-mortem debugging.
package questlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/acolytehq/acolyte/internal/core"
)

// Event types recorded in the audit log.
const (
	EventCreate    = "CREATE"
	EventMessage   = "MESSAGE"
	EventTurn      = "TURN"
	EventUpdate    = "UPDATE"
	EventViolation = "VIOLATION"
	EventError     = "ERROR"
)

// Append writes one audit line: timestamp | EVENT | agent | payload.
// Audit failures are reported but must never fail the operation they
// describe; callers ignore the error outside of tests.
func Append(project core.Project, questID int64, event, agent string, payload any) error {
	if err := os.MkdirAll(project.QuestLogDir(), 0o755); err != nil {
		return err
	}

	line := fmt.Sprintf("%s | %s | %s",
		time.Now().UTC().Format(time.RFC3339), event, agent)
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			line += " | " + string(data)
		}
	}
	line += "\n"

	path := filepath.Join(project.QuestLogDir(), fmt.Sprintf("quest_%d.log", questID))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(line)
	return err
}
