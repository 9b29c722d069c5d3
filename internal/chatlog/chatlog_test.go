package chatlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/acolytehq/acolyte/internal/core"
	"github.com/acolytehq/acolyte/internal/types"
)

func testProject(t *testing.T) core.Project {
	t.Helper()
	project, err := core.InitProject(t.TempDir())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	return project
}

func TestAppendAndRead(t *testing.T) {
	project := testProject(t)

	err := Append(project, types.ChatMessage{
		SessionID: "session_a",
		Content:   "hello",
		Type:      types.ChatRoleUser,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	err = Append(project, types.ChatMessage{
		SessionID: "session_a",
		Content:   "hi there",
		Type:      types.ChatRoleAssistant,
	})
	if err != nil {
		t.Fatalf("append second: %v", err)
	}

	messages, err := Read(project, "session_a")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].UUID == "" || messages[0].Timestamp == "" {
		t.Fatal("expected uuid and timestamp filled in")
	}
	if messages[0].UUID == messages[1].UUID {
		t.Fatal("expected distinct uuids")
	}

	// Markdown transcript rides along with every append.
	md, err := os.ReadFile(filepath.Join(project.ChatDir(), "session_a.md"))
	if err != nil {
		t.Fatalf("read markdown: %v", err)
	}
	if !strings.Contains(string(md), "## User") || !strings.Contains(string(md), "hi there") {
		t.Fatalf("unexpected markdown:\n%s", md)
	}
}

func TestReadMissingSessionIsEmpty(t *testing.T) {
	project := testProject(t)

	messages, err := Read(project, "session_none")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected empty conversation, got %d", len(messages))
	}
}

func TestAppendSurvivesCorruptLog(t *testing.T) {
	project := testProject(t)

	path := filepath.Join(project.ChatDir(), "session_a.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt log: %v", err)
	}

	err := Append(project, types.ChatMessage{
		SessionID: "session_a",
		Content:   "fresh start",
		Type:      types.ChatRoleUser,
	})
	if err != nil {
		t.Fatalf("append over corrupt log: %v", err)
	}

	messages, err := Read(project, "session_a")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
}

func TestAppendHeldLockTimesOut(t *testing.T) {
	if testing.Short() {
		t.Skip("lock timeout waits out the full retry window")
	}
	project := testProject(t)

	lock := filepath.Join(project.ChatDir(), "session_a.lock")
	if err := os.WriteFile(lock, []byte("9999\n"), 0o644); err != nil {
		t.Fatalf("hold lock: %v", err)
	}

	err := Append(project, types.ChatMessage{
		SessionID: "session_a",
		Content:   "blocked",
		Type:      types.ChatRoleUser,
	})
	if err == nil {
		t.Fatal("expected lock timeout")
	}
	// The append dropped; nothing was written.
	messages, _ := Read(project, "session_a")
	if len(messages) != 0 {
		t.Fatalf("expected dropped append, got %d messages", len(messages))
	}
}

func TestRegenerateRebuildsMarkdown(t *testing.T) {
	project := testProject(t)

	if err := Append(project, types.ChatMessage{
		SessionID: "session_a",
		Content:   "only message",
		Type:      types.ChatRoleUser,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	mdPath := filepath.Join(project.ChatDir(), "session_a.md")
	if err := os.Remove(mdPath); err != nil {
		t.Fatalf("remove markdown: %v", err)
	}
	if err := Regenerate(project, "session_a"); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	md, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("read markdown: %v", err)
	}
	if !strings.Contains(string(md), "only message") {
		t.Fatalf("unexpected markdown:\n%s", md)
	}
}

func TestAppendAcolyte(t *testing.T) {
	project := testProject(t)

	for i := 0; i < 2; i++ {
		err := AppendAcolyte(project, types.AcolyteRecord{
			SessionID: "session_a",
			AgentType: "general-purpose",
			Prompt:    "investigate flaky test",
			Result:    "found a race",
		})
		if err != nil {
			t.Fatalf("append acolyte %d: %v", i, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(project.AcolytesDir(), "session_a_acolytes.json"))
	if err != nil {
		t.Fatalf("read acolytes: %v", err)
	}
	if strings.Count(string(data), "found a race") != 2 {
		t.Fatalf("expected 2 records:\n%s", data)
	}
}
