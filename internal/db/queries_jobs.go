package db

import (
	"database/sql"
	"fmt"

	"github.com/acolytehq/acolyte/internal/core"
	"github.com/acolytehq/acolyte/internal/types"
)

// CreateJob inserts a job. With activate set, any currently active job is
// paused in the same transaction. A paused request is auto-promoted to
// active when no job currently holds the slot.
func CreateJob(conn *sql.DB, title, description string, activate bool) (string, error) {
	if title == "" {
		return "", fmt.Errorf("job title is required")
	}

	jobID, err := core.GenerateID("job")
	if err != nil {
		return "", err
	}
	now := nowISO()

	tx, err := conn.Begin()
	if err != nil {
		return "", err
	}

	status := types.JobStatusPaused
	if activate {
		if err := pauseActiveJobTx(tx, fmt.Sprintf("Switched to job %s", jobID), now); err != nil {
			_ = tx.Rollback()
			return "", err
		}
		status = types.JobStatusActive
	} else {
		var count int
		if err := tx.QueryRow("SELECT COUNT(*) FROM jobs WHERE status = 'active'").Scan(&count); err != nil {
			_ = tx.Rollback()
			return "", err
		}
		if count == 0 {
			status = types.JobStatusActive
		}
	}

	_, err = tx.Exec(`
		INSERT INTO jobs (id, title, description, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, jobID, title, description, string(status), now)
	if err != nil {
		_ = tx.Rollback()
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return jobID, nil
}

// ActivateJob atomically pauses the current active job (if any) and
// activates the requested one. Activating the already-active job is a no-op.
func ActivateJob(conn *sql.DB, jobID string) error {
	now := nowISO()

	tx, err := conn.Begin()
	if err != nil {
		return err
	}

	var status string
	err = tx.QueryRow("SELECT status FROM jobs WHERE id = ?", jobID).Scan(&status)
	if err == sql.ErrNoRows {
		_ = tx.Rollback()
		return fmt.Errorf("job not found: %s", jobID)
	}
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if status == string(types.JobStatusActive) {
		_ = tx.Rollback()
		return nil
	}
	if status == string(types.JobStatusCompleted) {
		_ = tx.Rollback()
		return fmt.Errorf("job %s is completed", jobID)
	}

	if err := pauseActiveJobTx(tx, fmt.Sprintf("Switched to job %s", jobID), now); err != nil {
		_ = tx.Rollback()
		return err
	}

	_, err = tx.Exec(`
		UPDATE jobs SET status = 'active', resumed_at = ?, pause_reason = NULL
		WHERE id = ?
	`, now, jobID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func pauseActiveJobTx(tx *sql.Tx, reason, now string) error {
	_, err := tx.Exec(`
		UPDATE jobs SET status = 'paused', paused_at = ?, pause_reason = ?
		WHERE status = 'active'
	`, now, reason)
	return err
}

// GetActiveJob returns the active job or nil.
func GetActiveJob(conn *sql.DB) (*types.Job, error) {
	row := conn.QueryRow(`
		SELECT id, title, description, status, created_at, paused_at, resumed_at, completed_at, pause_reason
		FROM jobs WHERE status = 'active' LIMIT 1
	`)
	return scanJob(row)
}

// GetJob returns a job by id or nil.
func GetJob(conn *sql.DB, jobID string) (*types.Job, error) {
	row := conn.QueryRow(`
		SELECT id, title, description, status, created_at, paused_at, resumed_at, completed_at, pause_reason
		FROM jobs WHERE id = ?
	`, jobID)
	return scanJob(row)
}

// ListJobs returns the newest jobs, up to limit.
func ListJobs(conn *sql.DB, limit int) ([]types.Job, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := conn.Query(`
		SELECT id, title, description, status, created_at, paused_at, resumed_at, completed_at, pause_reason
		FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []types.Job
	for rows.Next() {
		job, err := scanJobRows(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func scanJob(row *sql.Row) (*types.Job, error) {
	var job types.Job
	var description sql.NullString
	err := row.Scan(&job.ID, &job.Title, &description, &job.Status, &job.CreatedAt,
		&job.PausedAt, &job.ResumedAt, &job.CompletedAt, &job.PauseReason)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	job.Description = description.String
	return &job, nil
}

func scanJobRows(rows *sql.Rows) (types.Job, error) {
	var job types.Job
	var description sql.NullString
	err := rows.Scan(&job.ID, &job.Title, &description, &job.Status, &job.CreatedAt,
		&job.PausedAt, &job.ResumedAt, &job.CompletedAt, &job.PauseReason)
	if err != nil {
		return types.Job{}, err
	}
	job.Description = description.String
	return job, nil
}
