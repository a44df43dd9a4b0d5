package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/opsdeck/offboard/internal/config"
	"github.com/opsdeck/offboard/internal/migrate"
)

func newTestMailbox() *mockMailbox {
	return &mockMailbox{
		proxies: []string{"smtp:jane.doe@example.com", "smtp:jd@example.com"},
		folders: []string{"Inbox", "Sent Items"},
	}
}

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		mbx         *mockMailbox
		dir         *mockDirectory
		cfg         *config.Config
		wantErr     bool
		wantContain []string
		checkMocks  func(t *testing.T, mbx *mockMailbox, dir *mockDirectory)
	}{
		{
			name:    "requires exactly one email argument",
			args:    []string{},
			mbx:     newTestMailbox(),
			dir:     &mockDirectory{},
			wantErr: true,
		},
		{
			name:    "rejects invalid email before any call",
			args:    []string{"not-an-address"},
			mbx:     newTestMailbox(),
			dir:     &mockDirectory{},
			wantErr: true,
			checkMocks: func(t *testing.T, mbx *mockMailbox, dir *mockDirectory) {
				if mbx.mutations != 0 {
					t.Errorf("mutations = %d before validation passed", mbx.mutations)
				}
			},
		},
		{
			name: "archive migration completes",
			args: []string{"jane.doe@example.com", "--full-access", "manager@example.com"},
			mbx:  newTestMailbox(),
			dir:  &mockDirectory{},
			wantContain: []string{
				"Captured 2 proxy address(es)",
				"Completed steps:",
				migrate.StepCreateMailbox,
				migrate.StepSubmitRestore,
			},
			checkMocks: func(t *testing.T, mbx *mockMailbox, dir *mockDirectory) {
				if len(mbx.created) != 1 || mbx.created[0].DisplayName != "jane doe" {
					t.Errorf("created = %+v", mbx.created)
				}
				if len(mbx.fullAccess) != 1 || mbx.fullAccess[0] != "manager@example.com" {
					t.Errorf("full access = %v", mbx.fullAccess)
				}
			},
		},
		{
			name: "dry run reports without mutating",
			args: []string{"jane.doe@example.com", "--dry-run"},
			mbx:  newTestMailbox(),
			dir:  &mockDirectory{},
			wantContain: []string{
				"[dry-run] would create shared mailbox",
				"Skipped (dry-run) steps:",
			},
			checkMocks: func(t *testing.T, mbx *mockMailbox, dir *mockDirectory) {
				if mbx.mutations != 0 {
					t.Errorf("dry run performed %d mutations", mbx.mutations)
				}
			},
		},
		{
			name: "delete-ad with yes deletes the directory user",
			args: []string{"jane.doe@example.com", "--delete-ad", "--yes"},
			mbx:  newTestMailbox(),
			dir:  &mockDirectory{user: &migrate.UserRef{ID: "u1", Email: "jane.doe@example.com"}},
			wantContain: []string{
				"Deleted directory user jane.doe@example.com",
				migrate.StepWaitConvergence,
			},
			checkMocks: func(t *testing.T, mbx *mockMailbox, dir *mockDirectory) {
				if len(dir.deleted) != 1 {
					t.Errorf("deleted = %v", dir.deleted)
				}
			},
		},
		{
			name: "redirect configures forwarding",
			args: []string{"jane.doe@example.com", "--archive=false", "--redirect", "successor@example.com"},
			mbx:  newTestMailbox(),
			dir:  &mockDirectory{},
			wantContain: []string{
				migrate.StepSetForwarding,
			},
			checkMocks: func(t *testing.T, mbx *mockMailbox, dir *mockDirectory) {
				if len(mbx.forwarding) != 1 || mbx.forwarding[0].Address != "successor@example.com" {
					t.Errorf("forwarding = %+v", mbx.forwarding)
				}
				if len(mbx.created) != 0 {
					t.Errorf("archive disabled but mailbox created: %+v", mbx.created)
				}
			},
		},
		{
			name: "config full-access defaults apply without flags",
			args: []string{"jane.doe@example.com"},
			mbx:  newTestMailbox(),
			dir:  &mockDirectory{},
			cfg:  &config.Config{FullAccess: []string{"fallback@example.com"}},
			checkMocks: func(t *testing.T, mbx *mockMailbox, dir *mockDirectory) {
				if len(mbx.fullAccess) != 1 || mbx.fullAccess[0] != "fallback@example.com" {
					t.Errorf("full access = %v", mbx.fullAccess)
				}
			},
		},
		{
			name: "flag grantees override config defaults",
			args: []string{"jane.doe@example.com", "--full-access", "flag@example.com"},
			mbx:  newTestMailbox(),
			dir:  &mockDirectory{},
			cfg:  &config.Config{FullAccess: []string{"fallback@example.com"}},
			checkMocks: func(t *testing.T, mbx *mockMailbox, dir *mockDirectory) {
				if len(mbx.fullAccess) != 1 || mbx.fullAccess[0] != "flag@example.com" {
					t.Errorf("full access = %v", mbx.fullAccess)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if cfg == nil {
				cfg = config.DefaultConfig()
			}
			cmd := NewRootCommandWithDeps(tt.dir, tt.mbx, &mockConfirmer{confirmed: true}, cfg)

			output, err := executeCommand(cmd, tt.args...)

			if tt.wantErr && err == nil {
				t.Fatalf("expected error, output:\n%s", output)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v\noutput:\n%s", err, output)
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("output missing %q:\n%s", want, output)
				}
			}
			if tt.checkMocks != nil {
				tt.checkMocks(t, tt.mbx, tt.dir)
			}
		})
	}
}

func TestRootCommandJSONOutput(t *testing.T) {
	defer func() { outputFormat = "" }()

	cmd := NewRootCommandWithDeps(&mockDirectory{}, newTestMailbox(), &mockConfirmer{}, config.DefaultConfig())
	output, err := executeCommand(cmd, "jane.doe@example.com", "--output", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v\noutput:\n%s", err, output)
	}

	// Progress lines precede the JSON document; decode from the first brace.
	idx := strings.Index(output, "{")
	if idx < 0 {
		t.Fatalf("no JSON in output:\n%s", output)
	}
	var outcome migrate.Outcome
	if err := json.Unmarshal([]byte(output[idx:]), &outcome); err != nil {
		t.Fatalf("invalid JSON: %v\noutput:\n%s", err, output)
	}
	if len(outcome.StepsCompleted) == 0 {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand(nil)

	for _, name := range []string{
		"proxy-filter", "full-access", "reviewer", "max-wait", "delete-ad",
		"archive", "redirect", "redirect-external", "deliver-and-forward",
		"dry-run", "yes",
	} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("flag --%s not registered", name)
		}
	}
	for _, name := range []string{"verbose", "output"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("persistent flag --%s not registered", name)
		}
	}
	if cmd.Flags().ShorthandLookup("y") == nil {
		t.Error("shorthand -y not registered")
	}
}

func TestBuildRequestMaxWaitPrecedence(t *testing.T) {
	cfg := &config.Config{MaxWaitMinutes: 10}

	// Flag untouched: config wins.
	cmd := newRootCommand(nil)
	req := buildRequest(cmd, "jane.doe@example.com", parseMigrateFlags(cmd), cfg)
	if req.MaxWait != cfg.MaxWait() {
		t.Errorf("max wait = %v, want config default %v", req.MaxWait, cfg.MaxWait())
	}

	// Flag set explicitly: flag wins.
	cmd = newRootCommand(nil)
	if err := cmd.Flags().Set("max-wait", "5"); err != nil {
		t.Fatal(err)
	}
	req = buildRequest(cmd, "jane.doe@example.com", parseMigrateFlags(cmd), cfg)
	if req.MaxWait.Minutes() != 5 {
		t.Errorf("max wait = %v, want 5m", req.MaxWait)
	}
}
