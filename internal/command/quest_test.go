package command

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/acolytehq/acolyte/internal/core"
	"github.com/acolytehq/acolyte/internal/db"
)

func setupQuestProject(t *testing.T) core.Project {
	t.Helper()
	dir := t.TempDir()
	project, err := core.InitProject(dir)
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	chdir(t, dir)
	return project
}

func runCheck(t *testing.T, args []string) map[string]any {
	t.Helper()
	cmd := newQuestCheckCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("quest check: %v", err)
	}
	var result map[string]any
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("parse output: %v\n%s", err, out.String())
	}
	return result
}

func TestQuestCheckLoop(t *testing.T) {
	project := setupQuestProject(t)

	conn, err := db.Open(project)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := db.InitSchema(conn); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	quest, err := db.CreateQuest(conn, "", "m", "", []string{"@leader", "@worker"})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}

	// The leader holds the turn, so repeated polls still come up empty.
	result := runCheck(t, []string{"--role", "worker", "--agent", "@worker", "--loop", "3"})
	if result["action"] != "reinvoke" {
		t.Fatalf("expected reinvoke, got %v", result["action"])
	}

	if _, err := db.SendMessage(conn, quest.ID, "@leader", "@worker", "go"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	result = runCheck(t, []string{"--role", "worker", "--agent", "@worker", "--loop", "3"})
	if result["action"] != "act" {
		t.Fatalf("expected act, got %v", result["action"])
	}
}
