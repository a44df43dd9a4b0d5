package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/opsdeck/offboard/internal/config"
	"github.com/opsdeck/offboard/internal/directory"
	"github.com/opsdeck/offboard/internal/exchange"
	"github.com/opsdeck/offboard/internal/migrate"
	"github.com/opsdeck/offboard/internal/ui"
	"github.com/spf13/cobra"
)

var verbose bool

// migrateFlags holds the command-line flags for a migration run
type migrateFlags struct {
	proxyFilter       string
	fullAccess        []string
	reviewer          []string
	maxWait           int
	deleteAD          bool
	archive           bool
	redirect          string
	redirectExternal  bool
	deliverAndForward bool
	dryRun            bool
	yes               bool
}

// newRootCommand creates the root cobra command with the given RunE function.
// All flag registration and PersistentPreRunE setup is centralized here.
func newRootCommand(runFn func(*cobra.Command, []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offboard <email>",
		Short: "Preserve a departing user's mailbox as a shared mailbox",
		Long: `Migrate a deleted user's mailbox into a persistent shared mailbox.

Deleting a directory user normally cascade-deletes the mailbox after its
recovery window. offboard sequences the administrative steps that keep it:

  1. capture the mailbox's proxy addresses
  2. delete the directory user (--delete-ad)
  3. wait for the deletion to reach the mailbox service
  4. create a shared mailbox under the same primary address
  5. re-apply the captured proxy addresses
  6. grant full access and folder-level reviewer permissions
  7. restore the soft-deleted mailbox contents into the shared mailbox

Examples:
  # Preview everything without touching either service
  offboard jane.doe@example.com --dry-run

  # Full migration with directory deletion and access grants
  offboard jane.doe@example.com --delete-ad \
    --full-access manager@example.com --reviewer assistant@example.com

  # Forward new mail to a successor
  offboard jane.doe@example.com --redirect successor@example.com`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setLogVerbosity(verbose)
			return nil
		},
		RunE: runFn,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format (json)")
	cmd.Flags().String("proxy-filter", "", "regex selecting which proxy addresses are copied (default: all)")
	cmd.Flags().StringSlice("full-access", nil, "grantees for full mailbox access")
	cmd.Flags().StringSlice("reviewer", nil, "grantees for folder-level reviewer access")
	cmd.Flags().Int("max-wait", 30, "minutes to wait for the directory deletion to propagate")
	cmd.Flags().Bool("delete-ad", false, "delete the directory user before migrating")
	cmd.Flags().Bool("archive", true, "run the create+restore sequence")
	cmd.Flags().String("redirect", "", "forward new mail to this address after migration")
	cmd.Flags().Bool("redirect-external", false, "treat the redirect address as external")
	cmd.Flags().Bool("deliver-and-forward", true, "keep a copy in the mailbox when forwarding")
	cmd.Flags().Bool("dry-run", false, "report intended actions without mutating anything")
	cmd.Flags().BoolP("yes", "y", false, "skip confirmation prompts (unattended mode)")

	return cmd
}

var rootCmd = newRootCommand(runMigrateProduction)

// runMigrateProduction is the production RunE for the root command
func runMigrateProduction(cmd *cobra.Command, args []string) error {
	flags := parseMigrateFlags(cmd)

	cfg, cfgPath, err := config.LoadDefaultWithPath()
	if err != nil {
		return err
	}
	if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return fmt.Errorf("missing credentials: set tenant_id, client_id and client_secret in %s (or OFFBOARD_CLIENT_SECRET)", cfgPath)
	}

	cred, err := azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
	if err != nil {
		return fmt.Errorf("failed to build credential: %w", err)
	}

	dirSvc, err := directory.NewService(cred)
	if err != nil {
		return err
	}
	mbxSvc := exchange.NewService(exchange.NewClient(cfg.ExchangeBaseURL, cred), log)

	return runMigrateWithDeps(cmd, args, flags, dirSvc, mbxSvc, ui.Prompter{}, cfg)
}

// NewRootCommandWithDeps creates a root command with injected dependencies for testing
func NewRootCommandWithDeps(
	dir migrate.DirectoryGateway,
	mbx migrate.MailboxGateway,
	confirmer confirmPrompter,
	cfg *config.Config,
) *cobra.Command {
	return newRootCommand(func(cmd *cobra.Command, args []string) error {
		return runMigrateWithDeps(cmd, args, parseMigrateFlags(cmd), dir, mbx, confirmer, cfg)
	})
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if !verbose {
			fmt.Fprintln(os.Stderr, "Hint: re-run with --verbose for more details")
		}
		os.Exit(1)
	}
}

func parseMigrateFlags(cmd *cobra.Command) *migrateFlags {
	flags := &migrateFlags{}
	flags.proxyFilter, _ = cmd.Flags().GetString("proxy-filter")
	flags.fullAccess, _ = cmd.Flags().GetStringSlice("full-access")
	flags.reviewer, _ = cmd.Flags().GetStringSlice("reviewer")
	flags.maxWait, _ = cmd.Flags().GetInt("max-wait")
	flags.deleteAD, _ = cmd.Flags().GetBool("delete-ad")
	flags.archive, _ = cmd.Flags().GetBool("archive")
	flags.redirect, _ = cmd.Flags().GetString("redirect")
	flags.redirectExternal, _ = cmd.Flags().GetBool("redirect-external")
	flags.deliverAndForward, _ = cmd.Flags().GetBool("deliver-and-forward")
	flags.dryRun, _ = cmd.Flags().GetBool("dry-run")
	flags.yes, _ = cmd.Flags().GetBool("yes")
	return flags
}

func runMigrateWithDeps(
	cmd *cobra.Command,
	args []string,
	flags *migrateFlags,
	dir migrate.DirectoryGateway,
	mbx migrate.MailboxGateway,
	confirmer confirmPrompter,
	cfg *config.Config,
) error {
	ctx := context.Background()

	req := buildRequest(cmd, args[0], flags, cfg)

	runner := &migrate.Runner{
		Directory: dir,
		Mailbox:   mbx,
		Confirm:   confirmer,
		Log:       log,
		Out:       cmd.OutOrStdout(),
	}

	outcome, err := runner.Run(ctx, req)

	if isJSONOutput() {
		if jsonErr := writeJSON(cmd.OutOrStdout(), outcome); jsonErr != nil {
			return jsonErr
		}
	} else {
		printOutcome(cmd, outcome)
	}

	// The error already names the failing step; the outcome above tells the
	// operator which steps completed before it, so a manual resume is
	// possible. Per-item grant failures are reported without failing the run.
	return err
}

// buildRequest merges flags with config defaults into an immutable request.
// Config defaults apply only where the flag was left untouched.
func buildRequest(cmd *cobra.Command, email string, flags *migrateFlags, cfg *config.Config) migrate.Request {
	maxWait := time.Duration(flags.maxWait) * time.Minute
	if !cmd.Flags().Changed("max-wait") && cfg.MaxWaitMinutes > 0 {
		maxWait = cfg.MaxWait()
	}

	fullAccess := flags.fullAccess
	if len(fullAccess) == 0 {
		fullAccess = cfg.FullAccess
	}
	reviewers := flags.reviewer
	if len(reviewers) == 0 {
		reviewers = cfg.Reviewers
	}

	return migrate.Request{
		Email:                      email,
		ProxyFilter:                flags.proxyFilter,
		FullAccessEmails:           fullAccess,
		ReviewerEmails:             reviewers,
		MaxWait:                    maxWait,
		DeleteDirectoryUser:        flags.deleteAD,
		Archive:                    flags.archive,
		RedirectEmail:              flags.redirect,
		RedirectExternal:           flags.redirectExternal,
		DeliverToMailboxAndForward: flags.deliverAndForward,
		DryRun:                     flags.dryRun,
		AssumeYes:                  flags.yes,
	}
}

func printOutcome(cmd *cobra.Command, outcome *migrate.Outcome) {
	out := cmd.OutOrStdout()
	if len(outcome.StepsCompleted) > 0 {
		fmt.Fprintf(out, "\nCompleted steps:\n")
		for _, s := range outcome.StepsCompleted {
			fmt.Fprintf(out, "  %s\n", s)
		}
	}
	if len(outcome.StepsSkipped) > 0 {
		fmt.Fprintf(out, "Skipped (dry-run) steps:\n")
		for _, s := range outcome.StepsSkipped {
			fmt.Fprintf(out, "  %s\n", s)
		}
	}
	if len(outcome.Failures) > 0 {
		fmt.Fprintf(out, "Failures:\n")
		for _, f := range outcome.Failures {
			fmt.Fprintf(out, "  %s: %s\n", f.Step, f.Reason)
		}
	}
}
