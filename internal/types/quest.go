package types

// QuestStatus represents quest lifecycle state.
type QuestStatus string

const (
	QuestStatusWorking   QuestStatus = "working"
	QuestStatusWaiting   QuestStatus = "waiting"
	QuestStatusReviewing QuestStatus = "reviewing"
	QuestStatusCompleted QuestStatus = "completed"
	QuestStatusFailed    QuestStatus = "failed"
	QuestStatusTimeout   QuestStatus = "timeout"
)

// ValidQuestStatus reports whether s is a known status value.
func ValidQuestStatus(s QuestStatus) bool {
	switch s {
	case QuestStatusWorking, QuestStatusWaiting, QuestStatusReviewing,
		QuestStatusCompleted, QuestStatusFailed, QuestStatusTimeout:
		return true
	}
	return false
}

// Terminal reports whether s admits no further mutation.
func (s QuestStatus) Terminal() bool {
	return s == QuestStatusCompleted || s == QuestStatusFailed || s == QuestStatusTimeout
}

// BroadcastMessage is one entry in a quest's append-only broadcast array.
type BroadcastMessage struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// QuestContext is the structured context column. Leader is recruited[0].
type QuestContext struct {
	Leader  string `json:"leader"`
	Mission string `json:"mission"`
	Phase   string `json:"phase,omitempty"`
}

// QuestResult is written once on completion.
type QuestResult struct {
	Mission string   `json:"mission"`
	Team    []string `json:"team"`
	Summary string   `json:"summary,omitempty"`
	Detail  string   `json:"result,omitempty"`
}

// Quest is the shared coordination record. Exactly one agent holds the turn
// (CurrentAgent) at any non-terminal moment.
type Quest struct {
	ID           int64              `json:"quest_id"`
	Name         string             `json:"quest_name"`
	Phase        string             `json:"quest_phase,omitempty"`
	Mission      string             `json:"mission"`
	Recruited    []string           `json:"recruited"`
	CurrentAgent *string            `json:"current_agent,omitempty"`
	Status       QuestStatus        `json:"status"`
	Broadcast    []BroadcastMessage `json:"broadcast"`
	Context      QuestContext       `json:"context"`
	Result       *QuestResult       `json:"result,omitempty"`
	CreatedAt    string             `json:"created_at"`
	UpdatedAt    string             `json:"updated_at"`
}

// Leader returns the quest leader (first recruit) or "".
func (q Quest) Leader() string {
	if len(q.Recruited) == 0 {
		return ""
	}
	return q.Recruited[0]
}

// Recruits reports whether agent is part of the quest.
func (q Quest) Recruits(agent string) bool {
	for _, name := range q.Recruited {
		if name == agent {
			return true
		}
	}
	return false
}

// HoldsTurn reports whether agent is the current turn holder.
func (q Quest) HoldsTurn(agent string) bool {
	return q.CurrentAgent != nil && *q.CurrentAgent == agent
}
