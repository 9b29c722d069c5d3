package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/acolytehq/acolyte/internal/types"
)

// toolPostMatchWindow bounds how old a pre-row may be for the
// post-invocation hook to claim it. True simultaneity of the same tool in
// the same session is rare; mis-attribution inside the window is accepted.
const toolPostMatchWindow = 60 * time.Second

// CategorizeTool maps a host tool name onto the fixed category set.
func CategorizeTool(toolName string) types.ToolCategory {
	if strings.HasPrefix(toolName, "mcp__") {
		return types.ToolCategoryMCP
	}
	switch toolName {
	case "Read", "Write", "Edit", "MultiEdit", "Update", "NotebookEdit":
		return types.ToolCategoryFile
	case "Grep", "Glob", "WebSearch", "WebFetch":
		return types.ToolCategorySearch
	case "Bash", "BashOutput", "KillShell":
		return types.ToolCategoryExecution
	case "Task", "TodoWrite":
		return types.ToolCategoryAI
	}
	return types.ToolCategoryUnknown
}

// InsertToolLogPre writes the provisional row from the pre-invocation hook.
// success starts at 1; the post hook corrects it.
func InsertToolLogPre(conn *sql.DB, sessionID, toolName, parameters, fileAffected string) (int64, error) {
	result, err := conn.Exec(`
		INSERT INTO tool_logs (session_id, tool_name, tool_category, parameters,
			file_affected, blocked_by_hook, success, timestamp)
		VALUES (?, ?, ?, ?, ?, 0, 1, ?)
	`, sessionID, toolName, string(CategorizeTool(toolName)), parameters,
		nullIfEmpty(fileAffected), nowISO())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// MarkToolLogBlocked records a policy block on the pre-row.
func MarkToolLogBlocked(conn *sql.DB, id int64, message string) error {
	_, err := conn.Exec(`
		UPDATE tool_logs SET blocked_by_hook = 1, success = 0, hook_message = ?
		WHERE id = ?
	`, message, id)
	return err
}

// UpdateToolLogPost updates the most recent matching pre-row within the
// 60-second window. A miss leaves the pre-row untouched, which is fine.
func UpdateToolLogPost(conn *sql.DB, sessionID, toolName string, success bool, resultSummary string, linesChanged, bytesProcessed int64) (bool, error) {
	cutoff := time.Now().UTC().Add(-toolPostMatchWindow).Format(time.RFC3339)

	var id int64
	err := conn.QueryRow(`
		SELECT id FROM tool_logs
		WHERE session_id = ? AND tool_name = ? AND timestamp >= ?
		ORDER BY id DESC LIMIT 1
	`, sessionID, toolName, cutoff).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	successFlag := 0
	if success {
		successFlag = 1
	}
	_, err = conn.Exec(`
		UPDATE tool_logs SET success = ?, result_summary = ?,
			lines_changed = ?, bytes_processed = ?
		WHERE id = ?
	`, successFlag, nullIfEmpty(resultSummary), linesChanged, bytesProcessed, id)
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertCodeChange records a file mutation row. The full diff lives in the
// conversation log; only a short preview is stored here.
func InsertCodeChange(conn *sql.DB, change types.CodeChange) error {
	if change.Timestamp == "" {
		change.Timestamp = nowISO()
	}
	_, err := conn.Exec(`
		INSERT INTO code_changes (session_id, tool, file_path, change_type, diff_preview, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, change.SessionID, change.Tool, change.FilePath, change.ChangeType,
		change.DiffPreview, change.Timestamp)
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
