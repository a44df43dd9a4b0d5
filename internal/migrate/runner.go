package migrate

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// Runner executes the migration workflow in a fixed step order. All
// collaborators are injected; Out receives operator-facing progress lines.
// Runs are strictly sequential and assume exclusive use of the target email
// for the duration of the run.
type Runner struct {
	Directory DirectoryGateway
	Mailbox   MailboxGateway
	Confirm   Confirmer
	Log       Logger
	Out       io.Writer

	// Poller knobs, injectable for tests.
	PollInterval time.Duration
	Now          func() time.Time
	Sleep        func(ctx context.Context, d time.Duration) error
}

// Run validates the request and executes the workflow. The returned Outcome
// is always non-nil and reflects the steps completed before any fatal
// error, so an operator can resume manually. In dry-run mode every mutating
// call is replaced by a "would ..." report computed from real read data.
func (r *Runner) Run(ctx context.Context, req Request) (*Outcome, error) {
	out := &Outcome{}

	if err := ValidateRequest(req); err != nil {
		return out, err
	}
	if req.Archive {
		// The create+restore sequence needs a live mailbox service session
		// before any mutation happens.
		if err := r.Mailbox.Ping(ctx); err != nil {
			return out, &ConnectionError{Err: err}
		}
	}

	var filter *regexp.Regexp
	if req.ProxyFilter != "" {
		filter = regexp.MustCompile(req.ProxyFilter) // validated above
	}

	// Step 1: capture proxy addresses from the existing mailbox. This must
	// happen before the directory deletion; the source mailbox's visible
	// attributes may change or disappear once deletion propagates.
	addresses, err := r.Mailbox.ListProxyAddresses(ctx, req.Email)
	if err != nil {
		return out, fmt.Errorf("%s: %w", StepCaptureProxies, err)
	}
	proxies := FilterAddresses(addresses, filter)
	r.printf("Captured %d proxy address(es) for %s\n", len(proxies), req.Email)
	out.complete(StepCaptureProxies)

	// Steps 2-3: directory deletion and convergence wait.
	if req.DeleteDirectoryUser {
		if err := r.deleteDirectoryUser(ctx, req, out); err != nil {
			return out, err
		}
		if err := r.waitForConvergence(ctx, req, out); err != nil {
			return out, err
		}
	}

	// Steps 4-8: the create+restore sequence.
	if req.Archive {
		if err := r.archiveMailbox(ctx, req, proxies, out); err != nil {
			return out, err
		}
	}

	// Step 9: mail forwarding.
	if req.RedirectEmail != "" {
		params := ForwardingParams{
			Address:           req.RedirectEmail,
			External:          req.RedirectExternal,
			DeliverAndForward: req.DeliverToMailboxAndForward,
		}
		desc := fmt.Sprintf("forward %s to %s", req.Email, req.RedirectEmail)
		err := r.mutate(out, req.DryRun, StepSetForwarding, desc, func() error {
			return r.Mailbox.SetForwarding(ctx, req.Email, params)
		})
		if err != nil {
			return out, fmt.Errorf("%s: %w", StepSetForwarding, err)
		}
	}

	return out, nil
}

func (r *Runner) deleteDirectoryUser(ctx context.Context, req Request, out *Outcome) error {
	user, err := r.Directory.FindUserByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("%s: %w", StepDeleteUser, &DirectoryError{Op: "lookup", Err: err})
	}

	if user == nil {
		r.printf("Directory user %s not found; nothing to delete\n", req.Email)
		if !req.AssumeYes && !req.DryRun {
			ok, err := r.confirm("Directory user not found. Continue with the migration?")
			if err != nil {
				return fmt.Errorf("%s: confirmation failed: %w", StepDeleteUser, err)
			}
			if !ok {
				return fmt.Errorf("%s: migration aborted by operator", StepDeleteUser)
			}
		}
		return nil
	}

	// Pre-deletion warning: objects that would be orphaned. A lookup
	// failure here degrades to an empty list rather than blocking.
	children, err := r.Directory.ListChildObjects(ctx, user)
	if err != nil {
		r.log().Error("failed to list dependent objects for %s: %v", user.Email, err)
	}
	if len(children) > 0 {
		r.printf("Warning: %d object(s) depend on %s:\n", len(children), user.Email)
		for _, c := range children {
			r.printf("  %s (%s)\n", c.DisplayName, c.Type)
		}
	}

	if req.DryRun {
		r.printf("[dry-run] would delete directory user %s\n", user.Email)
		out.skip(StepDeleteUser)
		return nil
	}

	if !req.AssumeYes {
		ok, err := r.confirm(fmt.Sprintf("Delete directory user %s? This cannot be undone.", user.Email))
		if err != nil {
			return fmt.Errorf("%s: confirmation failed: %w", StepDeleteUser, err)
		}
		if !ok {
			return fmt.Errorf("%s: migration aborted by operator", StepDeleteUser)
		}
	}

	if err := r.Directory.DeleteUser(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", StepDeleteUser, &DirectoryError{Op: "delete", Err: err})
	}
	r.printf("Deleted directory user %s\n", user.Email)
	out.complete(StepDeleteUser)
	return nil
}

func (r *Runner) waitForConvergence(ctx context.Context, req Request, out *Outcome) error {
	if req.DryRun {
		r.printf("[dry-run] would wait up to %s for the deletion to propagate\n", req.MaxWait)
		out.skip(StepWaitConvergence)
		return nil
	}

	r.printf("Waiting up to %s for the deletion to reach the mailbox service...\n", req.MaxWait)
	poller := &Poller{
		Mailbox:  r.Mailbox,
		Interval: r.PollInterval,
		Now:      r.Now,
		Sleep:    r.Sleep,
		Log:      r.log(),
	}
	state, err := poller.Wait(ctx, req.Email, req.MaxWait)
	if err != nil {
		return fmt.Errorf("%s: %w", StepWaitConvergence, err)
	}

	// A timeout is a warning, never fatal: the create step fails cleanly
	// with a conflict if the deletion truly has not propagated.
	if state == TimedOut {
		r.printf("Warning: deletion did not propagate within %s; continuing anyway\n", req.MaxWait)
		r.log().Error("convergence wait for %s timed out after %s", req.Email, req.MaxWait)
	} else {
		r.printf("Deletion propagated; source mailbox is now soft-deleted\n")
	}
	out.complete(StepWaitConvergence)
	return nil
}

func (r *Runner) archiveMailbox(ctx context.Context, req Request, proxies []string, out *Outcome) error {
	// Step 4: create the shared mailbox. Display name components come from
	// the local part split on dots: first token is the given name, the rest
	// joined form the family name ("jane@..." has an empty family name).
	given, family := SplitDisplayName(req.Email)
	displayName := strings.TrimSpace(given + " " + family)
	params := CreateMailboxParams{
		DisplayName:  displayName,
		Alias:        localPart(req.Email),
		PrimaryEmail: req.Email,
	}
	desc := fmt.Sprintf("create shared mailbox %q with primary address %s", displayName, req.Email)
	err := r.mutate(out, req.DryRun, StepCreateMailbox, desc, func() error {
		return r.Mailbox.CreateSharedMailbox(ctx, params)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", StepCreateMailbox, err)
	}

	// Step 5: apply the captured proxy addresses, additive only.
	if len(proxies) > 0 {
		desc := fmt.Sprintf("add %d proxy address(es) to %s", len(proxies), req.Email)
		err := r.mutate(out, req.DryRun, StepApplyProxies, desc, func() error {
			return r.Mailbox.AddProxyAddresses(ctx, req.Email, proxies)
		})
		if err != nil {
			return fmt.Errorf("%s: %w", StepApplyProxies, err)
		}
	} else {
		r.printf("No proxy addresses to apply\n")
	}

	// Step 6: mailbox-level full access. Individual grant failures are
	// collected, not fatal; the operator gets a full report.
	if grantees := CleanAddresses(req.FullAccessEmails); len(grantees) > 0 {
		if req.DryRun {
			for _, g := range grantees {
				r.printf("[dry-run] would grant full access on %s to %s\n", req.Email, g)
			}
			out.skip(StepGrantFullAccess)
		} else {
			for _, g := range grantees {
				if err := r.Mailbox.GrantFullAccess(ctx, req.Email, g); err != nil {
					perr := &PermissionError{Grantee: g, Err: err}
					r.printf("Warning: %v\n", perr)
					out.fail(StepGrantFullAccess, perr.Error())
					continue
				}
				r.printf("Granted full access on %s to %s\n", req.Email, g)
			}
			out.complete(StepGrantFullAccess)
		}
	}

	// Step 7: per-folder reviewer access. The folder list is read in both
	// modes so dry-run output reflects the real folder set; a failure on
	// one folder must not abort the remaining folders.
	if reviewers := CleanAddresses(req.ReviewerEmails); len(reviewers) > 0 {
		folders, err := r.Mailbox.ListFolders(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("%s: %w", StepGrantReviewer, err)
		}
		if req.DryRun {
			for _, g := range reviewers {
				r.printf("[dry-run] would grant reviewer access on %d folder(s) of %s to %s\n", len(folders), req.Email, g)
			}
			out.skip(StepGrantReviewer)
		} else {
			for _, g := range reviewers {
				for _, folder := range folders {
					if err := r.Mailbox.GrantFolderReviewer(ctx, req.Email, folder, g); err != nil {
						perr := &PermissionError{Grantee: g, Folder: folder, Err: err}
						r.printf("Warning: %v\n", perr)
						out.fail(StepGrantReviewer, perr.Error())
						continue
					}
				}
				r.printf("Granted reviewer access on %d folder(s) of %s to %s\n", len(folders), req.Email, g)
			}
			out.complete(StepGrantReviewer)
		}
	}

	// Step 8: restore the soft-deleted source into the new mailbox. Both
	// mailbox objects resolve by the same primary address, distinguished by
	// the soft-deleted lookup mode.
	if req.DryRun {
		r.printf("[dry-run] would submit a restore request from the soft-deleted mailbox into the new shared mailbox\n")
		out.skip(StepSubmitRestore)
		return nil
	}
	source, err := r.Mailbox.GetMailbox(ctx, req.Email, true)
	if err != nil {
		return fmt.Errorf("%s: %w", StepSubmitRestore, &RestoreError{Err: fmt.Errorf("soft-deleted source mailbox: %w", err)})
	}
	target, err := r.Mailbox.GetMailbox(ctx, req.Email, false)
	if err != nil {
		return fmt.Errorf("%s: %w", StepSubmitRestore, &RestoreError{Err: fmt.Errorf("target mailbox: %w", err)})
	}
	if err := r.Mailbox.SubmitRestoreRequest(ctx, source.ExchangeGUID, target.ExchangeGUID); err != nil {
		return fmt.Errorf("%s: %w", StepSubmitRestore, err)
	}
	r.printf("Submitted restore request %s -> %s\n", source.ExchangeGUID, target.ExchangeGUID)
	out.complete(StepSubmitRestore)
	return nil
}

// mutate runs one mutating step, or reports it as a dry-run skip.
func (r *Runner) mutate(out *Outcome, dryRun bool, step, desc string, fn func() error) error {
	if dryRun {
		r.printf("[dry-run] would %s\n", desc)
		out.skip(step)
		return nil
	}
	if err := fn(); err != nil {
		return err
	}
	r.printf("Done: %s\n", desc)
	out.complete(step)
	return nil
}

func (r *Runner) confirm(prompt string) (bool, error) {
	if r.Confirm == nil {
		return false, fmt.Errorf("confirmation required but no prompt available; re-run with --yes")
	}
	return r.Confirm.Confirm(prompt)
}

func (r *Runner) printf(format string, v ...interface{}) {
	if r.Out != nil {
		fmt.Fprintf(r.Out, format, v...)
	}
}

func (r *Runner) log() Logger {
	if r.Log != nil {
		return r.Log
	}
	return nopLogger{}
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}
