package chatlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/acolytehq/acolyte/internal/core"
	"github.com/acolytehq/acolyte/internal/types"
)

// AppendAcolyte adds a subagent completion record to
// <session_id>_acolytes.json. Same lock + atomic-rename discipline as the
// conversation log.
func AppendAcolyte(project core.Project, record types.AcolyteRecord) error {
	if record.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if record.Timestamp == "" {
		record.Timestamp = nowISO()
	}
	if err := os.MkdirAll(project.AcolytesDir(), 0o755); err != nil {
		return err
	}

	path := filepath.Join(project.AcolytesDir(), record.SessionID+"_acolytes.json")
	lock := path + ".lock"
	if err := acquireLock(lock); err != nil {
		return err
	}
	defer releaseLock(lock)

	var records []types.AcolyteRecord
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &records); err != nil {
			records = nil
		}
	}
	records = append(records, record)

	return writeAtomic(path, marshalIndent(records))
}
