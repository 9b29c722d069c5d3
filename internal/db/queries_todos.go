package db

import (
	"database/sql"

	"github.com/acolytehq/acolyte/internal/types"
)

// ReplaceTodos mirrors the host task list into the todos table:
// clear-and-replace inside a single transaction, so a failed sync leaves the
// prior state intact.
func ReplaceTodos(conn *sql.DB, items []types.TodoItem, sessionID string) error {
	tx, err := conn.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM todos"); err != nil {
		_ = tx.Rollback()
		return err
	}

	now := nowISO()
	for _, item := range items {
		metadata := marshalJSON(map[string]string{
			"host_id":    item.ID,
			"activeForm": item.ActiveForm,
		}, "{}")
		_, err := tx.Exec(`
			INSERT INTO todos (task, status, created_at, metadata, session_id)
			VALUES (?, ?, ?, ?, ?)
		`, item.Content, item.Status, now, metadata, nullIfEmpty(sessionID))
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// ListTodos returns the current mirror in insertion order.
func ListTodos(conn *sql.DB) ([]types.Todo, error) {
	rows, err := conn.Query(`
		SELECT id, task, status, priority, created_at, assigned_to, metadata, context, session_id
		FROM todos ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []types.Todo
	for rows.Next() {
		var todo types.Todo
		var priority, metadata, context sql.NullString
		err := rows.Scan(&todo.ID, &todo.Task, &todo.Status, &priority,
			&todo.CreatedAt, &todo.AssignedTo, &metadata, &context, &todo.SessionID)
		if err != nil {
			return nil, err
		}
		todo.Priority = priority.String
		todo.Metadata = metadata.String
		todo.Context = context.String
		todos = append(todos, todo)
	}
	return todos, rows.Err()
}
