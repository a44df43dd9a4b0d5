package cmd

import (
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	output, err := executeCommand(NewVersionCommand())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"offboard version dev", "commit: unknown", "built: unknown"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestVersionCommandWithBuildInfo(t *testing.T) {
	origVersion, origCommit, origDate := version, commit, buildDate
	defer func() { version, commit, buildDate = origVersion, origCommit, origDate }()

	version, commit, buildDate = "1.2.3", "abc1234", "2026-08-01"

	output, err := executeCommand(NewVersionCommand())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, "offboard version 1.2.3") {
		t.Errorf("output = %q", output)
	}
}
