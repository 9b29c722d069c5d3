package command

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/acolytehq/acolyte/internal/config"
	"github.com/acolytehq/acolyte/internal/core"
	"github.com/acolytehq/acolyte/internal/db"
	"github.com/acolytehq/acolyte/internal/quest"
	"github.com/acolytehq/acolyte/internal/questlog"
	"github.com/acolytehq/acolyte/internal/types"
	"github.com/spf13/cobra"
)

// NewQuestCmd groups the quest coordination operations.
func NewQuestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quest",
		Short: "Turn-based multi-agent coordination over the project store",
	}
	cmd.AddCommand(
		newQuestCreateCmd(),
		newQuestConversationCmd(),
		newQuestMessageCmd(),
		newQuestRespondCmd(),
		newQuestReassignCmd(),
		newQuestReviewCmd(),
		newQuestStatusCmd(),
		newQuestCompleteCmd(),
		newQuestMonitorCmd(),
		newQuestCheckCmd(),
	)
	return cmd
}

// auditQuestError classifies a failed operation into the audit log before
// propagating it: rule violations as VIOLATION, the rest as ERROR.
func auditQuestError(project core.Project, questID int64, agent string, err error) {
	var violation *db.ViolationError
	if errors.As(err, &violation) {
		_ = questlog.Append(project, questID, questlog.EventViolation, agent,
			map[string]string{"reason": violation.Reason})
		return
	}
	if questID > 0 {
		_ = questlog.Append(project, questID, questlog.EventError, agent,
			map[string]string{"error": err.Error()})
	}
}

func newQuestCreateCmd() *cobra.Command {
	var mission, agents, phase, name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a quest; the first agent listed is the leader",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			var recruited []string
			for _, agent := range strings.Split(agents, ",") {
				if trimmed := strings.TrimSpace(agent); trimmed != "" {
					recruited = append(recruited, trimmed)
				}
			}

			created, err := db.CreateQuest(conn, name, mission, phase, recruited)
			if err != nil {
				return writeError(cmd, err)
			}

			_ = questlog.Append(project, created.ID, questlog.EventCreate, created.Leader(), map[string]any{
				"mission":   mission,
				"recruited": recruited,
				"phase":     phase,
			})

			writeLine(cmd, "quest_id=%d", created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&mission, "mission", "", "what the quest is for")
	cmd.Flags().StringVar(&agents, "agents", "", "comma-separated agent names, leader first")
	cmd.Flags().StringVar(&phase, "phase", "", "display phase like 2/6")
	cmd.Flags().StringVar(&name, "name", "", "short quest name (defaults from mission)")
	_ = cmd.MarkFlagRequired("mission")
	_ = cmd.MarkFlagRequired("agents")
	return cmd
}

func newQuestConversationCmd() *cobra.Command {
	var questID int64
	var agent string
	var accept, raw bool

	cmd := &cobra.Command{
		Use:   "conversation",
		Short: "Render a quest conversation; picks up the turn when waiting on you",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			q, err := db.GetQuest(conn, questID)
			if err != nil {
				return writeError(cmd, err)
			}
			if q == nil {
				return writeError(cmd, fmt.Errorf("quest not found: %d", questID))
			}

			// Auto-accept: reading while holding the turn on a waiting quest
			// silently flips it to working. Reviewing never auto-transitions.
			if accept && agent != "" && q.Status == types.QuestStatusWaiting && q.HoldsTurn(agent) {
				accepted, err := db.AcceptIfWaiting(conn, questID, agent)
				if err != nil {
					auditQuestError(project, questID, agent, err)
					return writeError(cmd, err)
				}
				if accepted {
					q.Status = types.QuestStatusWorking
					_ = questlog.Append(project, questID, questlog.EventUpdate, agent,
						map[string]string{"status": "working", "via": "auto-accept"})
				}
			}

			if raw {
				return writeJSON(cmd, q)
			}

			writeLine(cmd, "Quest %d: %s", q.ID, q.Name)
			if q.Phase != "" {
				writeLine(cmd, "Phase: %s", q.Phase)
			}
			writeLine(cmd, "Mission: %s", q.Mission)
			writeLine(cmd, "Status: %s", q.Status)
			if q.CurrentAgent != nil {
				writeLine(cmd, "Turn: %s", *q.CurrentAgent)
			}
			writeLine(cmd, "Team: %s (leader: %s)", strings.Join(q.Recruited, ", "), q.Leader())
			writeLine(cmd, "")
			if len(q.Broadcast) == 0 {
				writeLine(cmd, "(no messages yet)")
			}
			for _, msg := range q.Broadcast {
				writeLine(cmd, "[%s] %s -> %s: %s", msg.Timestamp, msg.From, msg.To, msg.Message)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&questID, "quest", 0, "quest id")
	cmd.Flags().StringVar(&agent, "agent", "", "reading agent (enables auto-accept)")
	cmd.Flags().BoolVar(&accept, "accept", true, "pick up the turn when the quest is waiting on you")
	cmd.Flags().BoolVar(&raw, "raw", false, "dump the quest row as JSON")
	_ = cmd.MarkFlagRequired("quest")
	return cmd
}

func newQuestMessageCmd() *cobra.Command {
	var questID int64
	var from, to, msg string

	cmd := &cobra.Command{
		Use:   "message",
		Short: "Send a message and pass the turn (sender must hold it)",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			updated, err := db.SendMessage(conn, questID, from, to, msg)
			if err != nil {
				auditQuestError(project, questID, from, err)
				return writeError(cmd, err)
			}

			_ = questlog.Append(project, questID, questlog.EventMessage, from,
				map[string]string{"to": to, "message": msg})
			_ = questlog.Append(project, questID, questlog.EventTurn, from,
				map[string]string{"turn": to, "status": string(updated.Status)})

			return writeJSON(cmd, map[string]any{
				"quest_id": questID,
				"status":   updated.Status,
				"turn":     to,
				"messages": len(updated.Broadcast),
			})
		},
	}

	cmd.Flags().Int64Var(&questID, "quest", 0, "quest id")
	cmd.Flags().StringVar(&from, "from", "", "sending agent (must hold the turn)")
	cmd.Flags().StringVar(&to, "to", "", "receiving agent")
	cmd.Flags().StringVar(&msg, "msg", "", "message text")
	_ = cmd.MarkFlagRequired("quest")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("msg")
	return cmd
}

func newQuestRespondCmd() *cobra.Command {
	var questID int64
	var agent, to, msg, files string

	cmd := &cobra.Command{
		Use:   "respond",
		Short: "Worker convenience: send results back to the leader",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			q, err := db.GetQuest(conn, questID)
			if err != nil {
				return writeError(cmd, err)
			}
			if q == nil {
				return writeError(cmd, fmt.Errorf("quest not found: %d", questID))
			}

			if agent == "" && q.CurrentAgent != nil {
				agent = *q.CurrentAgent
			}
			if to == "" {
				to = q.Leader()
			}

			body := msg
			if files != "" {
				body += "\n\nFiles: " + files
			}

			updated, err := db.SendMessage(conn, questID, agent, to, body)
			if err != nil {
				auditQuestError(project, questID, agent, err)
				return writeError(cmd, err)
			}

			_ = questlog.Append(project, questID, questlog.EventMessage, agent,
				map[string]string{"to": to, "message": body})
			_ = questlog.Append(project, questID, questlog.EventTurn, agent,
				map[string]string{"turn": to, "status": string(updated.Status)})

			return writeJSON(cmd, map[string]any{
				"quest_id": questID,
				"status":   updated.Status,
				"turn":     to,
			})
		},
	}

	cmd.Flags().Int64Var(&questID, "quest", 0, "quest id")
	cmd.Flags().StringVar(&agent, "agent", "", "responding agent (defaults to the turn holder)")
	cmd.Flags().StringVar(&to, "to", "", "recipient (defaults to the leader)")
	cmd.Flags().StringVar(&msg, "msg", "", "response text")
	cmd.Flags().StringVar(&files, "files", "", "comma-separated files touched")
	_ = cmd.MarkFlagRequired("quest")
	_ = cmd.MarkFlagRequired("msg")
	return cmd
}

func newQuestReassignCmd() *cobra.Command {
	var questID int64
	var agent, to string

	cmd := &cobra.Command{
		Use:   "reassign",
		Short: "Hand the turn to another recruit without a message",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			updated, err := db.ReassignTurn(conn, questID, agent, to)
			if err != nil {
				auditQuestError(project, questID, agent, err)
				return writeError(cmd, err)
			}
			_ = questlog.Append(project, questID, questlog.EventTurn, agent,
				map[string]string{"turn": to, "via": "reassign"})

			return writeJSON(cmd, map[string]any{
				"quest_id": questID,
				"status":   updated.Status,
				"turn":     to,
			})
		},
	}

	cmd.Flags().Int64Var(&questID, "quest", 0, "quest id")
	cmd.Flags().StringVar(&agent, "agent", "", "requesting agent (must hold the turn)")
	cmd.Flags().StringVar(&to, "to", "", "recruit receiving the turn")
	_ = cmd.MarkFlagRequired("quest")
	_ = cmd.MarkFlagRequired("agent")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newQuestReviewCmd() *cobra.Command {
	var questID int64
	var agent, message string

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Leader: move the quest into reviewing (turn unchanged)",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			updated, err := db.SetStatus(conn, questID, types.QuestStatusReviewing)
			if err != nil {
				auditQuestError(project, questID, agent, err)
				return writeError(cmd, err)
			}
			_ = questlog.Append(project, questID, questlog.EventUpdate, agent,
				map[string]string{"status": "reviewing"})

			if message != "" {
				if _, err := db.AppendNote(conn, questID, updated.Leader(), message); err != nil {
					auditQuestError(project, questID, agent, err)
					return writeError(cmd, err)
				}
				_ = questlog.Append(project, questID, questlog.EventMessage, updated.Leader(),
					map[string]string{"to": "all", "message": message})
			}

			return writeJSON(cmd, map[string]any{"quest_id": questID, "status": updated.Status})
		},
	}

	cmd.Flags().Int64Var(&questID, "quest", 0, "quest id")
	cmd.Flags().StringVar(&agent, "agent", "", "acting agent (for the audit log)")
	cmd.Flags().StringVar(&message, "message", "", "optional review note")
	_ = cmd.MarkFlagRequired("quest")
	return cmd
}

func newQuestStatusCmd() *cobra.Command {
	var questID int64
	var agent, status string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Set a quest status (leader action; timeout/failed included)",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			updated, err := db.SetStatus(conn, questID, types.QuestStatus(status))
			if err != nil {
				auditQuestError(project, questID, agent, err)
				return writeError(cmd, err)
			}
			_ = questlog.Append(project, questID, questlog.EventUpdate, agent,
				map[string]string{"status": status})

			return writeJSON(cmd, map[string]any{"quest_id": questID, "status": updated.Status})
		},
	}

	cmd.Flags().Int64Var(&questID, "quest", 0, "quest id")
	cmd.Flags().StringVar(&agent, "agent", "", "acting agent (for the audit log)")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	_ = cmd.MarkFlagRequired("quest")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func newQuestCompleteCmd() *cobra.Command {
	var questID int64
	var agent, summary, result string

	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Terminal transition: completed, turn cleared, result written",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			updated, err := db.CompleteQuest(conn, questID, summary, result)
			if err != nil {
				auditQuestError(project, questID, agent, err)
				return writeError(cmd, err)
			}
			_ = questlog.Append(project, questID, questlog.EventUpdate, agent, map[string]any{
				"status":  "completed",
				"summary": summary,
			})

			return writeJSON(cmd, map[string]any{
				"quest_id": questID,
				"status":   updated.Status,
				"result":   updated.Result,
			})
		},
	}

	cmd.Flags().Int64Var(&questID, "quest", 0, "quest id")
	cmd.Flags().StringVar(&agent, "agent", "", "acting agent (for the audit log)")
	cmd.Flags().StringVar(&summary, "summary", "", "completion summary")
	cmd.Flags().StringVar(&result, "result", "", "optional result detail")
	_ = cmd.MarkFlagRequired("quest")
	return cmd
}

func monitorFlags(cmd *cobra.Command, role, agent *string, questID *int64) {
	cmd.Flags().StringVar(role, "role", "", "leader or worker")
	cmd.Flags().StringVar(agent, "agent", "", "monitoring agent name")
	cmd.Flags().Int64Var(questID, "quest", 0, "restrict to one quest")
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("agent")
}

func newQuestMonitorCmd() *cobra.Command {
	var role, agent string
	var questID int64
	var interval int

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Bounded polling loop; exits when it is your turn or the slice is used",
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != string(quest.RoleLeader) && role != string(quest.RoleWorker) {
				return writeError(cmd, fmt.Errorf("--role must be leader or worker"))
			}

			project, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			cfg, err := config.Load(project)
			if err != nil {
				return writeError(cmd, err)
			}
			if interval <= 0 {
				interval = cfg.MonitorInterval
			}

			monitor := quest.Monitor{
				Project:  project,
				Role:     quest.Role(role),
				Agent:    agent,
				QuestID:  questID,
				Interval: time.Duration(interval) * time.Second,
				MaxIters: cfg.MonitorMaxIterations,
				Log:      cmd.ErrOrStderr(),
			}

			result, err := monitor.Run(conn)
			if err != nil {
				return writeError(cmd, err)
			}
			return writeJSON(cmd, result)
		},
	}

	monitorFlags(cmd, &role, &agent, &questID)
	cmd.Flags().IntVar(&interval, "interval", 0, "seconds between polls (default from config, 20)")
	return cmd
}

func newQuestCheckCmd() *cobra.Command {
	var role, agent string
	var questID int64
	var loop int

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Non-blocking poll, optionally repeated",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			monitor := quest.Monitor{
				Project: project,
				Role:    quest.Role(role),
				Agent:   agent,
				QuestID: questID,
			}
			if loop < 1 {
				loop = 1
			}
			for i := 0; i < loop; i++ {
				result, done, err := monitor.Poll(conn)
				if err != nil {
					return writeError(cmd, err)
				}
				if done {
					return writeJSON(cmd, result)
				}
			}
			return writeJSON(cmd, quest.Result{
				Action:  quest.ActionReinvoke,
				Message: fmt.Sprintf("not your turn yet; check again or run the monitor for %s", agent),
			})
		},
	}

	monitorFlags(cmd, &role, &agent, &questID)
	cmd.Flags().IntVar(&loop, "loop", 1, "repeat the poll up to this many times, no sleep between")
	return cmd
}
