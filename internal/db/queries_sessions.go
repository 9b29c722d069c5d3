package db

import (
	"database/sql"
	"fmt"

	"github.com/acolytehq/acolyte/internal/core"
	"github.com/acolytehq/acolyte/internal/types"
)

// CreateSession opens a fresh session for a job. It refuses to open a second
// session while one is still open for the same job.
func CreateSession(conn *sql.DB, jobID string) (string, error) {
	var open int
	err := conn.QueryRow(
		"SELECT COUNT(*) FROM sessions WHERE job_id = ? AND ended_at IS NULL", jobID,
	).Scan(&open)
	if err != nil {
		return "", err
	}
	if open > 0 {
		return "", fmt.Errorf("job %s already has an open session", jobID)
	}

	sessionID, err := core.GenerateID("session")
	if err != nil {
		return "", err
	}
	_, err = conn.Exec(
		"INSERT INTO sessions (id, job_id, created_at) VALUES (?, ?, ?)",
		sessionID, jobID, nowISO())
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// FindActiveSession returns the newest session with ended_at IS NULL, or nil.
func FindActiveSession(conn *sql.DB) (*types.Session, error) {
	row := conn.QueryRow(`
		SELECT id, job_id, created_at, ended_at, claude_session_id,
		       primary_request, accomplishments, decisions, bugs_fixed,
		       errors_encountered, breakthrough_moment, next_step,
		       quality_score, conversation_flow
		FROM sessions WHERE ended_at IS NULL
		ORDER BY created_at DESC LIMIT 1
	`)
	return scanSession(row)
}

// GetSession returns a session by id, or nil.
func GetSession(conn *sql.DB, sessionID string) (*types.Session, error) {
	row := conn.QueryRow(`
		SELECT id, job_id, created_at, ended_at, claude_session_id,
		       primary_request, accomplishments, decisions, bugs_fixed,
		       errors_encountered, breakthrough_moment, next_step,
		       quality_score, conversation_flow
		FROM sessions WHERE id = ?
	`, sessionID)
	return scanSession(row)
}

// LastClosedSession returns the most recently closed session for a job, or nil.
func LastClosedSession(conn *sql.DB, jobID string) (*types.Session, error) {
	row := conn.QueryRow(`
		SELECT id, job_id, created_at, ended_at, claude_session_id,
		       primary_request, accomplishments, decisions, bugs_fixed,
		       errors_encountered, breakthrough_moment, next_step,
		       quality_score, conversation_flow
		FROM sessions WHERE job_id = ? AND ended_at IS NOT NULL
		ORDER BY ended_at DESC LIMIT 1
	`, jobID)
	return scanSession(row)
}

// SetClaudeSessionID records the best-effort host correlator.
func SetClaudeSessionID(conn *sql.DB, sessionID, claudeSessionID string) error {
	_, err := conn.Exec(
		"UPDATE sessions SET claude_session_id = ? WHERE id = ?",
		claudeSessionID, sessionID)
	return err
}

// CloseSessionAndOpenNext writes summary fields to the outgoing session,
// inserts its conversation aggregate, and opens a fresh session for the same
// job, all in one transaction. Returns the new session id.
func CloseSessionAndOpenNext(conn *sql.DB, sessionID string, summary types.SessionSummary, metrics types.ConversationMetrics) (string, error) {
	session, err := GetSession(conn, sessionID)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", fmt.Errorf("session not found: %s", sessionID)
	}
	if session.EndedAt != nil {
		return "", fmt.Errorf("session %s is already closed", sessionID)
	}

	newID, err := core.GenerateID("session")
	if err != nil {
		return "", err
	}
	now := nowISO()
	score := QualityScore(summary.Accomplishments, summary.Errors, summary.Breakthrough, summary.Decisions, summary.BugsFixed)

	tx, err := conn.Begin()
	if err != nil {
		return "", err
	}

	_, err = tx.Exec(`
		UPDATE sessions SET
			ended_at = ?, primary_request = ?, accomplishments = ?,
			decisions = ?, bugs_fixed = ?, errors_encountered = ?,
			breakthrough_moment = ?, next_step = ?, quality_score = ?,
			conversation_flow = ?
		WHERE id = ?
	`, now, summary.PrimaryRequest,
		marshalJSON(summary.Accomplishments, "[]"),
		marshalJSON(summary.Decisions, "[]"),
		marshalJSON(summary.BugsFixed, "[]"),
		marshalJSON(summary.Errors, "[]"),
		summary.Breakthrough, summary.NextStep, score,
		summary.ConversationFlow, sessionID)
	if err != nil {
		_ = tx.Rollback()
		return "", err
	}

	conversation := metrics.ConversationJSON
	if conversation == "" {
		conversation = "[]"
	}
	_, err = tx.Exec(`
		INSERT INTO messages (session_id, user_messages, assistant_messages,
			first_ts, last_ts, duration_seconds, avg_response_seconds,
			commands, agent_mentions, code_blocks, conversation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sessionID, metrics.UserMessages, metrics.AssistantMessages,
		metrics.FirstTS, metrics.LastTS, metrics.DurationSeconds,
		metrics.AvgResponseSecs,
		marshalJSON(metrics.Commands, "[]"),
		marshalJSON(metrics.AgentMentions, "[]"),
		metrics.CodeBlocks, conversation)
	if err != nil {
		_ = tx.Rollback()
		return "", err
	}

	_, err = tx.Exec(
		"INSERT INTO sessions (id, job_id, created_at) VALUES (?, ?, ?)",
		newID, session.JobID, now)
	if err != nil {
		_ = tx.Rollback()
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return newID, nil
}

// JobAggregates collects accomplishments, decisions and bugs fixed across
// every closed session of a job, newest first.
func JobAggregates(conn *sql.DB, jobID string) (accomplishments, decisions, bugsFixed []string, err error) {
	rows, err := conn.Query(`
		SELECT accomplishments, decisions, bugs_fixed
		FROM sessions WHERE job_id = ? AND ended_at IS NOT NULL
		ORDER BY ended_at DESC
	`, jobID)
	if err != nil {
		return nil, nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a, d, b sql.NullString
		if err := rows.Scan(&a, &d, &b); err != nil {
			return nil, nil, nil, err
		}
		accomplishments = append(accomplishments, unmarshalStrings(a.String)...)
		decisions = append(decisions, unmarshalStrings(d.String)...)
		bugsFixed = append(bugsFixed, unmarshalStrings(b.String)...)
	}
	return accomplishments, decisions, bugsFixed, rows.Err()
}

// SessionFilesTouched returns the distinct files affected by a session's
// tool invocations.
func SessionFilesTouched(conn *sql.DB, sessionID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := conn.Query(`
		SELECT file_affected FROM tool_logs
		WHERE session_id = ? AND file_affected IS NOT NULL AND file_affected != ''
		GROUP BY file_affected ORDER BY MAX(id) DESC LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var file string
		if err := rows.Scan(&file); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func scanSession(row *sql.Row) (*types.Session, error) {
	var s types.Session
	err := row.Scan(&s.ID, &s.JobID, &s.CreatedAt, &s.EndedAt, &s.ClaudeSessionID,
		&s.PrimaryRequest, &s.Accomplishments, &s.Decisions, &s.BugsFixed,
		&s.Errors, &s.Breakthrough, &s.NextStep, &s.QualityScore, &s.ConversationFlow)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
