package command

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/acolytehq/acolyte/internal/chatlog"
	"github.com/acolytehq/acolyte/internal/config"
	"github.com/acolytehq/acolyte/internal/core"
	"github.com/acolytehq/acolyte/internal/db"
	"github.com/acolytehq/acolyte/internal/types"
	"github.com/spf13/cobra"
)

// NewJobCmd groups job operations: create, activate, list.
func NewJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage jobs (long-lived units of work grouping sessions)",
	}
	cmd.AddCommand(newJobCreateCmd(), newJobActivateCmd(), newJobListCmd(), newJobSaveCmd())
	return cmd
}

func newJobSaveCmd() *cobra.Command {
	var request, breakthrough, nextStep, flow string
	var accomplishments, decisions, bugsFixed, errorsSeen []string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Close the active session with its summary and open a fresh one",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			session, err := db.FindActiveSession(conn)
			if err != nil {
				return writeError(cmd, err)
			}
			if session == nil {
				return writeError(cmd, fmt.Errorf("no active session to save"))
			}

			cfg, err := config.Load(project)
			if err != nil {
				return writeError(cmd, err)
			}
			// Snapshot the store before the close-and-advance write.
			if err := db.Backup(project, cfg.BackupKeep); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "backup: %v\n", err)
			}

			summary := types.SessionSummary{
				PrimaryRequest:   request,
				Accomplishments:  accomplishments,
				Decisions:        decisions,
				BugsFixed:        bugsFixed,
				Errors:           errorsSeen,
				Breakthrough:     breakthrough,
				NextStep:         nextStep,
				ConversationFlow: flow,
			}

			metrics := conversationMetrics(project, session.ID)
			newID, err := db.CloseSessionAndOpenNext(conn, session.ID, summary, metrics)
			if err != nil {
				return writeError(cmd, err)
			}

			closed, err := db.GetSession(conn, session.ID)
			if err != nil {
				return writeError(cmd, err)
			}
			out := map[string]any{"closed": session.ID, "session_id": newID}
			if closed != nil && closed.QualityScore != nil {
				out["quality_score"] = *closed.QualityScore
			}
			return writeJSON(cmd, out)
		},
	}

	cmd.Flags().StringVar(&request, "request", "", "the session's primary request")
	cmd.Flags().StringArrayVar(&accomplishments, "accomplishment", nil, "accomplishment (repeatable)")
	cmd.Flags().StringArrayVar(&decisions, "decision", nil, "decision made (repeatable)")
	cmd.Flags().StringArrayVar(&bugsFixed, "bug-fixed", nil, "bug fixed (repeatable)")
	cmd.Flags().StringArrayVar(&errorsSeen, "error", nil, "error encountered (repeatable)")
	cmd.Flags().StringVar(&breakthrough, "breakthrough", "", "breakthrough moment")
	cmd.Flags().StringVar(&nextStep, "next-step", "", "where to pick up next session")
	cmd.Flags().StringVar(&flow, "flow", "", "conversation flow summary")
	return cmd
}

// conversationMetrics folds the session's chat log into the aggregate row.
// A missing or unreadable log yields zeroes, never an error.
func conversationMetrics(project core.Project, sessionID string) types.ConversationMetrics {
	var metrics types.ConversationMetrics

	messages, err := chatlog.Read(project, sessionID)
	if err != nil || len(messages) == 0 {
		return metrics
	}

	for _, msg := range messages {
		switch msg.Type {
		case types.ChatRoleUser:
			metrics.UserMessages++
		case types.ChatRoleAssistant:
			metrics.AssistantMessages++
		}
		metrics.CodeBlocks += strings.Count(msg.Content, "```") / 2
	}
	metrics.FirstTS = messages[0].Timestamp
	metrics.LastTS = messages[len(messages)-1].Timestamp
	if first, err := time.Parse(time.RFC3339, metrics.FirstTS); err == nil {
		if last, err := time.Parse(time.RFC3339, metrics.LastTS); err == nil {
			metrics.DurationSeconds = int64(last.Sub(first).Seconds())
			if metrics.AssistantMessages > 0 {
				metrics.AvgResponseSecs = float64(metrics.DurationSeconds) / float64(metrics.AssistantMessages)
			}
		}
	}

	if data, err := json.Marshal(messages); err == nil {
		metrics.ConversationJSON = string(data)
	}
	return metrics
}

func newJobCreateCmd() *cobra.Command {
	var title, description string
	var activate bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a job",
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return writeError(cmd, fmt.Errorf("--title is required"))
			}

			_, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			jobID, err := db.CreateJob(conn, title, description, activate)
			if err != nil {
				return writeError(cmd, err)
			}

			job, err := db.GetJob(conn, jobID)
			if err != nil {
				return writeError(cmd, err)
			}

			// Open the first session when the new job took the active slot.
			if job != nil && job.Status == "active" {
				if _, err := db.CreateSession(conn, jobID); err != nil {
					return writeError(cmd, err)
				}
			}

			return writeJSON(cmd, map[string]string{"job_id": jobID, "status": string(job.Status)})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "job title")
	cmd.Flags().StringVar(&description, "description", "", "free text or JSON description")
	cmd.Flags().BoolVar(&activate, "activate", false, "activate immediately, pausing the current job")
	return cmd
}

func newJobActivateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activate <job_id>",
		Short: "Switch the active job (atomic swap)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			if err := db.ActivateJob(conn, args[0]); err != nil {
				return writeError(cmd, err)
			}
			return writeJSON(cmd, map[string]string{"job_id": args[0], "status": "active"})
		},
	}
	return cmd
}

func newJobListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			jobs, err := db.ListJobs(conn, limit)
			if err != nil {
				return writeError(cmd, err)
			}
			return writeJSON(cmd, jobs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum jobs to list")
	return cmd
}
