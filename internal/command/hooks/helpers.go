// Package hooks implements the lifecycle-event handlers the host invokes.
// Every handler follows one rule above all others: never break the host.
// Internal failures degrade to exit 0 with a stderr note; the only non-zero
// exits are the explicit block (2) and warn (1) semantics.
package hooks

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/acolytehq/acolyte/internal/config"
	"github.com/acolytehq/acolyte/internal/core"
	"github.com/acolytehq/acolyte/internal/db"
	"github.com/spf13/cobra"
)

// maxStdinBytes caps stdin reads. Hook payloads are small JSON documents;
// 1 MB is generous headroom against unbounded allocation.
const maxStdinBytes = 1 << 20

// hookInput is the union of every host payload shape. The host's formats
// are observed, not controlled, so parsing is defensive: unknown fields are
// ignored and a bad document yields the zero value.
type hookInput struct {
	Source             string          `json:"source"`
	SessionID          string          `json:"session_id"`
	Prompt             string          `json:"prompt"`
	Cwd                string          `json:"cwd"`
	ToolName           string          `json:"tool_name"`
	ToolInput          json.RawMessage `json:"tool_input"`
	ToolResult         json.RawMessage `json:"tool_result"`
	ToolResponse       json.RawMessage `json:"tool_response"`
	ToolError          string          `json:"tool_error"`
	Trigger            string          `json:"trigger"`
	CustomInstructions string          `json:"custom_instructions"`
	TranscriptPath     string          `json:"transcript_path"`
}

func readHookInput(cmd *cobra.Command) hookInput {
	var input hookInput
	data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxStdinBytes))
	if err != nil {
		logHook("read stdin: %v", err)
		return input
	}
	if len(data) == 0 {
		return input
	}
	if err := json.Unmarshal(data, &input); err != nil {
		logHook("parse stdin: %v", err)
	}
	return input
}

// hookEnv is the shared setup every handler performs: locate the project,
// open the store, load config. ok=false means the hook should no-op.
type hookEnv struct {
	Project core.Project
	DB      *sql.DB
	Config  config.Config
}

func openHookEnv() (hookEnv, bool) {
	project, err := core.DiscoverProject("")
	if err != nil {
		logHook("%v", err)
		return hookEnv{}, false
	}

	conn, err := db.Open(project)
	if err != nil {
		logHook("open store: %v", err)
		return hookEnv{}, false
	}
	if err := db.InitSchema(conn); err != nil {
		logHook("init schema: %v", err)
		_ = conn.Close()
		return hookEnv{}, false
	}

	cfg, err := config.Load(project)
	if err != nil {
		logHook("config: %v", err)
		cfg = config.Default()
	}

	return hookEnv{Project: project, DB: conn, Config: cfg}, true
}

func (env hookEnv) Close() {
	if env.DB != nil {
		_ = env.DB.Close()
	}
}

// logHook writes a best-effort stderr note. Hooks have no other log channel.
func logHook(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[acolyte hook] "+format+"\n", args...)
}

// sessionStartOutput is the stdout schema the host parses for SessionStart.
type sessionStartOutput struct {
	HookSpecificOutput struct {
		HookEventName     string `json:"hookEventName"`
		AdditionalContext string `json:"additionalContext"`
	} `json:"hookSpecificOutput"`
}

func writeSessionStartOutput(cmd *cobra.Command, context string) error {
	var output sessionStartOutput
	output.HookSpecificOutput.HookEventName = "SessionStart"
	output.HookSpecificOutput.AdditionalContext = context
	return json.NewEncoder(cmd.OutOrStdout()).Encode(output)
}

// truncate shortens s for previews and summaries.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
