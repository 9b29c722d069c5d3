package hooks

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/acolytehq/acolyte/internal/cli"
	"github.com/acolytehq/acolyte/internal/core"
	"github.com/acolytehq/acolyte/internal/db"
)

// chdir changes the working directory for the duration of the test,
// restoring the original directory on cleanup (t.Chdir needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}

// setupHookProject initializes a project, chdirs into it so the hook's
// discovery finds it, and returns the project with an initialized store.
func setupHookProject(t *testing.T) core.Project {
	t.Helper()
	dir := t.TempDir()
	project, err := core.InitProject(dir)
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	conn, err := db.Open(project)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := db.InitSchema(conn); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
	chdir(t, dir)
	return project
}

func runPreCompact(t *testing.T, payload string) error {
	t.Helper()
	cmd := NewPreCompactCmd()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetIn(strings.NewReader(payload))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	return cmd.Execute()
}

func TestPreCompactBlocksAutoDuringQuest(t *testing.T) {
	project := setupHookProject(t)

	conn, err := db.Open(project)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := db.CreateQuest(conn, "", "m", "", []string{"@leader", "@worker"}); err != nil {
		t.Fatalf("create quest: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	err = runPreCompact(t, `{"trigger":"auto"}`)
	var exit *cli.ExitError
	if !errors.As(err, &exit) {
		t.Fatalf("expected exit error, got %v", err)
	}
	if exit.Code != 2 {
		t.Fatalf("expected exit code 2, got %d", exit.Code)
	}
	if !strings.Contains(exit.Error(), "auto-compact blocked") {
		t.Fatalf("unexpected message: %s", exit.Error())
	}
}

func TestPreCompactAllowsAutoWithoutQuest(t *testing.T) {
	setupHookProject(t)

	if err := runPreCompact(t, `{"trigger":"auto"}`); err != nil {
		t.Fatalf("expected no error without an active quest, got %v", err)
	}
}

func TestPreCompactIgnoresManualTrigger(t *testing.T) {
	project := setupHookProject(t)

	conn, err := db.Open(project)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := db.CreateQuest(conn, "", "m", "", []string{"@leader", "@worker"}); err != nil {
		t.Fatalf("create quest: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	if err := runPreCompact(t, `{"trigger":"manual"}`); err != nil {
		t.Fatalf("manual compaction must pass, got %v", err)
	}
}
