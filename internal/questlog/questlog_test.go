package questlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/acolytehq/acolyte/internal/core"
)

func TestAppendWritesAuditLines(t *testing.T) {
	project, err := core.InitProject(t.TempDir())
	if err != nil {
		t.Fatalf("init project: %v", err)
	}

	if err := Append(project, 7, EventCreate, "@leader", map[string]string{"mission": "m"}); err != nil {
		t.Fatalf("append create: %v", err)
	}
	if err := Append(project, 7, EventViolation, "@worker", nil); err != nil {
		t.Fatalf("append violation: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(project.QuestLogDir(), "quest_7.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "| CREATE | @leader |") || !strings.Contains(lines[0], `"mission":"m"`) {
		t.Fatalf("unexpected first line: %s", lines[0])
	}
	if !strings.HasSuffix(lines[1], "| VIOLATION | @worker") {
		t.Fatalf("unexpected second line: %s", lines[1])
	}
}
