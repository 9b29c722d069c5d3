// Package quest implements the polling monitor each participant runs
// between acts of work. There is no daemon and no IPC: the database is the
// only shared state, so the monitor polls it, and a bounded iteration cap
// turns an unbounded wait into a bounded one. Exiting at the cap does not
// mean the work is finished; the host is told to re-invoke the monitor.
package quest

import (
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/acolytehq/acolyte/internal/core"
	"github.com/acolytehq/acolyte/internal/db"
	"github.com/acolytehq/acolyte/internal/types"
	"github.com/fsnotify/fsnotify"
)

// Role of the monitoring participant.
type Role string

const (
	RoleLeader Role = "leader"
	RoleWorker Role = "worker"
)

// Action tells the host what to do next.
type Action string

const (
	// ActionAct: the agent holds the turn somewhere; go work.
	ActionAct Action = "act"
	// ActionAllDone: every quest the agent is recruited on is terminal.
	ActionAllDone Action = "all_done"
	// ActionReinvoke: time slice used; call the monitor again.
	ActionReinvoke Action = "reinvoke"
)

// Result is the structured return of one monitor invocation.
type Result struct {
	Action  Action       `json:"action"`
	QuestID int64        `json:"quest_id,omitempty"`
	Quest   *types.Quest `json:"quest,omitempty"`
	Message string       `json:"message"`
}

// Monitor is a bounded polling loop bound to one agent.
type Monitor struct {
	Project  core.Project
	Role     Role
	Agent    string
	QuestID  int64 // 0 = all quests the agent is recruited on
	Interval time.Duration
	MaxIters int
	Log      io.Writer

	// sleep is swapped out in tests.
	sleep func(d time.Duration, wake <-chan struct{})
}

// Run polls until the agent has something to do, all quests are done, or
// the iteration cap is hit.
func (m *Monitor) Run(conn *sql.DB) (Result, error) {
	if m.Interval <= 0 {
		m.Interval = 20 * time.Second
	}
	if m.MaxIters <= 0 {
		m.MaxIters = 5
	}
	if m.Log == nil {
		m.Log = io.Discard
	}
	if m.sleep == nil {
		m.sleep = sleepWithWake
	}

	wake, stop := m.watchWAL()
	defer stop()

	for iteration := 1; iteration <= m.MaxIters; iteration++ {
		result, done, err := m.Poll(conn)
		if err != nil {
			// Transient I/O: log and keep polling.
			fmt.Fprintf(m.Log, "[monitor] poll error: %v\n", err)
		} else if done {
			return result, nil
		}

		fmt.Fprintf(m.Log, "[monitor] %s %s: nothing to do (iteration %d/%d)\n",
			m.Role, m.Agent, iteration, m.MaxIters)
		if iteration < m.MaxIters {
			m.sleep(m.Interval, wake)
		}
	}

	return Result{
		Action: ActionReinvoke,
		Message: fmt.Sprintf(
			"MONITOR TIME SLICE USED after %d polls. This does NOT mean work is finished. "+
				"You MUST re-invoke: acolyte quest monitor --role %s --agent %s",
			m.MaxIters, m.Role, m.Agent),
	}, nil
}

// Poll runs a single non-blocking check. done=false means nothing to report
// yet. Exposed directly as `acolyte quest check`.
func (m *Monitor) Poll(conn *sql.DB) (Result, bool, error) {
	quests, err := m.relevantQuests(conn)
	if err != nil {
		return Result{}, false, err
	}
	if len(quests) == 0 {
		return Result{
			Action:  ActionAllDone,
			Message: fmt.Sprintf("no quests recruit %s; nothing to monitor", m.Agent),
		}, true, nil
	}

	allTerminal := true
	for i := range quests {
		quest := quests[i]
		if quest.Status.Terminal() {
			continue
		}
		allTerminal = false

		if quest.HoldsTurn(m.Agent) {
			return Result{
				Action:  ActionAct,
				QuestID: quest.ID,
				Quest:   &quest,
				Message: m.actMessage(quest),
			}, true, nil
		}
	}

	if allTerminal {
		return Result{
			Action:  ActionAllDone,
			QuestID: m.QuestID,
			Message: fmt.Sprintf("all quests for %s are terminal. Shut down.", m.Agent),
		}, true, nil
	}

	return Result{}, false, nil
}

func (m *Monitor) relevantQuests(conn *sql.DB) ([]types.Quest, error) {
	if m.QuestID > 0 {
		quest, err := db.GetQuest(conn, m.QuestID)
		if err != nil {
			return nil, err
		}
		if quest == nil {
			return nil, fmt.Errorf("quest not found: %d", m.QuestID)
		}
		if !quest.Recruits(m.Agent) {
			return nil, fmt.Errorf("%s is not recruited on quest %d", m.Agent, m.QuestID)
		}
		return []types.Quest{*quest}, nil
	}
	return db.ListQuestsForAgent(conn, m.Agent)
}

func (m *Monitor) actMessage(quest types.Quest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "YOUR TURN on quest %d (%s, status %s).\n", quest.ID, quest.Name, quest.Status)
	fmt.Fprintf(&b, "Read it: acolyte quest conversation --quest %d --agent %s\n", quest.ID, m.Agent)
	if m.Role == RoleLeader {
		fmt.Fprintf(&b, "As leader: review the latest response, then message a worker, "+
			"set status reviewing, or complete the quest.")
	} else {
		fmt.Fprintf(&b, "As worker: do the requested work, then respond: "+
			"acolyte quest respond --quest %d --msg \"...\"", quest.ID)
	}
	return b.String()
}

// watchWAL registers an fsnotify watch on the database WAL so a write by
// another participant ends the sleep early. Pure optimization: polling
// still bounds the wait either way. The stop func closes the watcher and
// lets its goroutine drain out.
func (m *Monitor) watchWAL() (<-chan struct{}, func()) {
	wake := make(chan struct{}, 1)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return wake, func() {}
	}
	if err := watcher.Add(m.Project.MemoryDir()); err != nil {
		_ = watcher.Close()
		return wake, func() {}
	}

	go func() {
		for event := range watcher.Events {
			if strings.HasSuffix(event.Name, "project.db-wal") || strings.HasSuffix(event.Name, "project.db") {
				select {
				case wake <- struct{}{}:
				default:
				}
			}
		}
	}()

	return wake, func() { _ = watcher.Close() }
}

func sleepWithWake(d time.Duration, wake <-chan struct{}) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-wake:
	}
}
