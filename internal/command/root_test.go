package command

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/acolytehq/acolyte/internal/cli"
)

func TestRootCmdRegistersSubcommands(t *testing.T) {
	root := NewRootCmd("test")

	want := []string{"init", "job", "agent", "quest", "hook"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing subcommand %s", name)
		}
	}
}

func TestWriteErrorPayload(t *testing.T) {
	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)

	err := writeError(root, fmt.Errorf("boom"))
	var exit *cli.ExitError
	if !errors.As(err, &exit) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exit.Code != 1 {
		t.Fatalf("expected exit code 1, got %d", exit.Code)
	}
	if got := out.String(); got != "{\n  \"error\": \"boom\"\n}\n" {
		t.Fatalf("unexpected payload: %q", got)
	}
}

func TestVersionOutput(t *testing.T) {
	root := NewRootCmd("1.2.3")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := out.String(); got != "acolyte version 1.2.3\n" {
		t.Fatalf("unexpected version output: %q", got)
	}
}
