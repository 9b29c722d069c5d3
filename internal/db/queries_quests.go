package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/acolytehq/acolyte/internal/types"
)

// ViolationError marks a quest rule violation (turn rule, terminal mutation,
// bad status). Commands log these to the quest audit log as VIOLATION and
// reject with non-zero exit; they are never silently applied.
type ViolationError struct {
	QuestID int64
	Reason  string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("quest %d: %s", e.QuestID, e.Reason)
}

// CreateQuest inserts a quest with the leader (first recruit) holding the
// turn, status working and an empty broadcast.
func CreateQuest(conn *sql.DB, name, mission, phase string, recruited []string) (*types.Quest, error) {
	if mission == "" {
		return nil, fmt.Errorf("mission is required")
	}
	if len(recruited) < 2 {
		return nil, fmt.Errorf("a quest needs a leader and at least one worker")
	}
	for _, agent := range recruited {
		if strings.TrimSpace(agent) == "" {
			return nil, fmt.Errorf("recruited agent names must not be empty")
		}
	}
	if name == "" {
		name = mission
		if len(name) > 60 {
			name = name[:60]
		}
	}

	leader := recruited[0]
	now := nowISO()
	context := types.QuestContext{Leader: leader, Mission: mission, Phase: phase}

	result, err := conn.Exec(`
		INSERT INTO quests (quest_name, quest_phase, mission, recruited,
			current_agent, status, broadcast, context, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'working', '[]', ?, ?, ?)
	`, name, phase, mission, marshalJSON(recruited, "[]"),
		leader, marshalJSON(context, "{}"), now, now)
	if err != nil {
		return nil, err
	}

	questID, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return GetQuest(conn, questID)
}

// GetQuest returns a quest by id, or nil.
func GetQuest(conn *sql.DB, questID int64) (*types.Quest, error) {
	row := conn.QueryRow(`
		SELECT quest_id, quest_name, quest_phase, mission, recruited,
		       current_agent, status, broadcast, context, result,
		       created_at, updated_at
		FROM quests WHERE quest_id = ?
	`, questID)
	quest, err := scanQuest(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return quest, nil
}

// ListQuestsForAgent returns every quest whose recruited array names agent,
// oldest first.
func ListQuestsForAgent(conn *sql.DB, agent string) ([]types.Quest, error) {
	rows, err := conn.Query(`
		SELECT quest_id, quest_name, quest_phase, mission, recruited,
		       current_agent, status, broadcast, context, result,
		       created_at, updated_at
		FROM quests
		WHERE recruited LIKE ?
		ORDER BY quest_id
	`, fmt.Sprintf("%%%q%%", agent))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quests []types.Quest
	for rows.Next() {
		quest, err := scanQuest(rows.Scan)
		if err != nil {
			return nil, err
		}
		// LIKE over the JSON column is a prefilter; confirm membership.
		if quest.Recruits(agent) {
			quests = append(quests, *quest)
		}
	}
	return quests, rows.Err()
}

// HasActiveQuest reports whether any non-terminal quest exists.
func HasActiveQuest(conn *sql.DB) (bool, error) {
	var count int
	err := conn.QueryRow(`
		SELECT COUNT(*) FROM quests
		WHERE status NOT IN ('completed', 'failed', 'timeout')
	`).Scan(&count)
	return count > 0, err
}

// SendMessage appends to the broadcast and passes the turn to the recipient,
// flipping status to waiting. Rejected unless from currently holds the turn
// and the quest is non-terminal; the whole check-and-write runs in one
// transaction so concurrent senders serialize on the row.
func SendMessage(conn *sql.DB, questID int64, from, to, message string) (*types.Quest, error) {
	if from == "" || to == "" {
		return nil, fmt.Errorf("both --from and --to are required")
	}
	if message == "" {
		return nil, fmt.Errorf("message text is required")
	}

	tx, err := conn.Begin()
	if err != nil {
		return nil, err
	}

	quest, err := getQuestTx(tx, questID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if quest == nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("quest not found: %d", questID)
	}

	if quest.Status.Terminal() {
		_ = tx.Rollback()
		return nil, &ViolationError{QuestID: questID, Reason: fmt.Sprintf("quest is %s; no further messages allowed", quest.Status)}
	}
	if !quest.HoldsTurn(from) {
		_ = tx.Rollback()
		holder := "nobody"
		if quest.CurrentAgent != nil {
			holder = *quest.CurrentAgent
		}
		return nil, &ViolationError{QuestID: questID, Reason: fmt.Sprintf("%s does not hold the turn (current: %s)", from, holder)}
	}
	if !quest.Recruits(to) {
		_ = tx.Rollback()
		return nil, &ViolationError{QuestID: questID, Reason: fmt.Sprintf("%s is not recruited on this quest", to)}
	}

	quest.Broadcast = append(quest.Broadcast, types.BroadcastMessage{
		From:      from,
		To:        to,
		Message:   message,
		Timestamp: nowISO(),
	})
	now := nowISO()

	_, err = tx.Exec(`
		UPDATE quests SET broadcast = ?, current_agent = ?, status = 'waiting', updated_at = ?
		WHERE quest_id = ?
	`, marshalJSON(quest.Broadcast, "[]"), to, now, questID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	quest.CurrentAgent = &to
	quest.Status = types.QuestStatusWaiting
	quest.UpdatedAt = now
	return quest, nil
}

// AppendNote adds a broadcast record without moving the turn, used for
// leader annotations (e.g. entering review). Terminal quests reject it.
func AppendNote(conn *sql.DB, questID int64, from, note string) (*types.Quest, error) {
	tx, err := conn.Begin()
	if err != nil {
		return nil, err
	}

	quest, err := getQuestTx(tx, questID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if quest == nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("quest not found: %d", questID)
	}
	if quest.Status.Terminal() {
		_ = tx.Rollback()
		return nil, &ViolationError{QuestID: questID, Reason: fmt.Sprintf("quest is %s; no further messages allowed", quest.Status)}
	}

	quest.Broadcast = append(quest.Broadcast, types.BroadcastMessage{
		From:      from,
		To:        "all",
		Message:   note,
		Timestamp: nowISO(),
	})
	now := nowISO()

	_, err = tx.Exec(
		"UPDATE quests SET broadcast = ?, updated_at = ? WHERE quest_id = ?",
		marshalJSON(quest.Broadcast, "[]"), now, questID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	quest.UpdatedAt = now
	return quest, nil
}

// AcceptIfWaiting flips a waiting quest to working when read by its turn
// holder, signalling pickup without a separate acknowledge step. Reading a
// reviewing quest does not transition; the leader decides. Returns true when
// the transition happened.
func AcceptIfWaiting(conn *sql.DB, questID int64, agent string) (bool, error) {
	result, err := conn.Exec(`
		UPDATE quests SET status = 'working', updated_at = ?
		WHERE quest_id = ? AND status = 'waiting' AND current_agent = ?
	`, nowISO(), questID, agent)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// SetStatus writes an arbitrary non-terminal-escaping status change.
// Terminal quests reject everything except an idempotent same-value write.
func SetStatus(conn *sql.DB, questID int64, status types.QuestStatus) (*types.Quest, error) {
	if !types.ValidQuestStatus(status) {
		return nil, &ViolationError{QuestID: questID, Reason: fmt.Sprintf("invalid status: %s", status)}
	}

	tx, err := conn.Begin()
	if err != nil {
		return nil, err
	}

	quest, err := getQuestTx(tx, questID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if quest == nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("quest not found: %d", questID)
	}

	if quest.Status.Terminal() {
		_ = tx.Rollback()
		if quest.Status == status {
			return quest, nil
		}
		return nil, &ViolationError{QuestID: questID, Reason: fmt.Sprintf("quest is %s; status is frozen", quest.Status)}
	}

	now := nowISO()
	if status.Terminal() {
		_, err = tx.Exec(`
			UPDATE quests SET status = ?, current_agent = NULL, updated_at = ?
			WHERE quest_id = ?
		`, string(status), now, questID)
	} else {
		_, err = tx.Exec(`
			UPDATE quests SET status = ?, updated_at = ?
			WHERE quest_id = ?
		`, string(status), now, questID)
	}
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	quest.Status = status
	if status.Terminal() {
		quest.CurrentAgent = nil
	}
	quest.UpdatedAt = now
	return quest, nil
}

// ReassignTurn moves the turn to another recruit. Only the current turn
// holder may hand the turn off out-of-band (the leader re-routing work away
// from a non-responsive worker).
func ReassignTurn(conn *sql.DB, questID int64, requester, to string) (*types.Quest, error) {
	tx, err := conn.Begin()
	if err != nil {
		return nil, err
	}

	quest, err := getQuestTx(tx, questID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if quest == nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("quest not found: %d", questID)
	}
	if quest.Status.Terminal() {
		_ = tx.Rollback()
		return nil, &ViolationError{QuestID: questID, Reason: fmt.Sprintf("quest is %s; turn is frozen", quest.Status)}
	}
	if !quest.HoldsTurn(requester) {
		_ = tx.Rollback()
		return nil, &ViolationError{QuestID: questID, Reason: fmt.Sprintf("%s does not hold the turn", requester)}
	}
	if !quest.Recruits(to) {
		_ = tx.Rollback()
		return nil, &ViolationError{QuestID: questID, Reason: fmt.Sprintf("%s is not recruited on this quest", to)}
	}

	now := nowISO()
	_, err = tx.Exec(
		"UPDATE quests SET current_agent = ?, updated_at = ? WHERE quest_id = ?",
		to, now, questID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	quest.CurrentAgent = &to
	quest.UpdatedAt = now
	return quest, nil
}

// CompleteQuest is the terminal transition: status completed, turn cleared,
// result written once. Further mutation of the row is rejected forever.
func CompleteQuest(conn *sql.DB, questID int64, summary, detail string) (*types.Quest, error) {
	tx, err := conn.Begin()
	if err != nil {
		return nil, err
	}

	quest, err := getQuestTx(tx, questID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if quest == nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("quest not found: %d", questID)
	}
	if quest.Status.Terminal() {
		_ = tx.Rollback()
		return nil, &ViolationError{QuestID: questID, Reason: fmt.Sprintf("quest is already %s", quest.Status)}
	}

	result := types.QuestResult{
		Mission: quest.Mission,
		Team:    quest.Recruited,
		Summary: summary,
		Detail:  detail,
	}
	now := nowISO()

	_, err = tx.Exec(`
		UPDATE quests SET status = 'completed', current_agent = NULL,
			result = ?, updated_at = ?
		WHERE quest_id = ?
	`, marshalJSON(result, "{}"), now, questID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	quest.Status = types.QuestStatusCompleted
	quest.CurrentAgent = nil
	quest.Result = &result
	quest.UpdatedAt = now
	return quest, nil
}

func getQuestTx(tx *sql.Tx, questID int64) (*types.Quest, error) {
	row := tx.QueryRow(`
		SELECT quest_id, quest_name, quest_phase, mission, recruited,
		       current_agent, status, broadcast, context, result,
		       created_at, updated_at
		FROM quests WHERE quest_id = ?
	`, questID)
	quest, err := scanQuest(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return quest, err
}

func scanQuest(scan func(dest ...any) error) (*types.Quest, error) {
	var q types.Quest
	var phase, currentAgent, result sql.NullString
	var recruited, broadcast, context string

	err := scan(&q.ID, &q.Name, &phase, &q.Mission, &recruited,
		&currentAgent, &q.Status, &broadcast, &context, &result,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}

	q.Phase = phase.String
	if currentAgent.Valid {
		q.CurrentAgent = &currentAgent.String
	}
	q.Recruited = unmarshalStrings(recruited)

	if err := json.Unmarshal([]byte(broadcast), &q.Broadcast); err != nil {
		q.Broadcast = []types.BroadcastMessage{}
	}
	if q.Broadcast == nil {
		q.Broadcast = []types.BroadcastMessage{}
	}
	if err := json.Unmarshal([]byte(context), &q.Context); err != nil {
		q.Context = types.QuestContext{}
	}
	if result.Valid && result.String != "" {
		var parsed types.QuestResult
		if err := json.Unmarshal([]byte(result.String), &parsed); err == nil {
			q.Result = &parsed
		}
	}
	return &q, nil
}
