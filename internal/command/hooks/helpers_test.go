package hooks

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestReadHookInput(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(`{"session_id":"abc","tool_name":"Bash","tool_input":{"command":"ls"}}`))

	input := readHookInput(cmd)
	if input.SessionID != "abc" || input.ToolName != "Bash" {
		t.Fatalf("unexpected input: %+v", input)
	}
	fields := parseToolInput(input.ToolInput)
	if fields.Command != "ls" {
		t.Fatalf("unexpected command: %q", fields.Command)
	}
}

func TestReadHookInputGarbage(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("not json"))

	input := readHookInput(cmd)
	if input.SessionID != "" || input.ToolName != "" {
		t.Fatalf("expected zero value, got %+v", input)
	}
}

func TestWriteSessionStartOutput(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := writeSessionStartOutput(cmd, "context block"); err != nil {
		t.Fatalf("write output: %v", err)
	}

	var parsed sessionStartOutput
	if err := json.Unmarshal(out.Bytes(), &parsed); err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if parsed.HookSpecificOutput.HookEventName != "SessionStart" {
		t.Fatalf("unexpected event name: %s", parsed.HookSpecificOutput.HookEventName)
	}
	if parsed.HookSpecificOutput.AdditionalContext != "context block" {
		t.Fatalf("unexpected context: %s", parsed.HookSpecificOutput.AdditionalContext)
	}
}

func TestSummarizeResult(t *testing.T) {
	if got := summarizeResult(json.RawMessage(`"  plain output  "`)); got != "plain output" {
		t.Fatalf("unexpected summary: %q", got)
	}
	if got := summarizeResult(json.RawMessage(`{"stdout":"build ok","exit":0}`)); got != "build ok" {
		t.Fatalf("unexpected summary: %q", got)
	}
	if got := summarizeResult(nil); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}

	long := `"` + strings.Repeat("x", 400) + `"`
	if got := summarizeResult(json.RawMessage(long)); len(got) != 303 {
		t.Fatalf("expected truncation to 300+ellipsis, got %d", len(got))
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := truncate("0123456789abc", 10); got != "0123456789..." {
		t.Fatalf("unexpected: %q", got)
	}
}
