package migrate

import (
	"context"
	"time"
)

// PollState is the terminal state of a convergence wait.
type PollState int

const (
	// Polling means the wait was interrupted before reaching a terminal
	// state (context cancellation).
	Polling PollState = iota
	// Converged means the active mailbox record disappeared: the directory
	// deletion has propagated to the mailbox service.
	Converged
	// TimedOut means the deadline elapsed with the mailbox still resolving.
	// Callers treat this as a warning; the subsequent create step fails
	// cleanly with a conflict if the deletion truly has not propagated.
	TimedOut
)

func (s PollState) String() string {
	switch s {
	case Converged:
		return "converged"
	case TimedOut:
		return "timed out"
	default:
		return "polling"
	}
}

// DefaultPollInterval is the fixed delay between convergence checks. No
// backoff: external propagation delay dominates, and tight-looping wastes
// API quota.
const DefaultPollInterval = 30 * time.Second

// mailboxResolver is the slice of MailboxGateway the poller needs.
type mailboxResolver interface {
	GetMailbox(ctx context.Context, email string, softDeleted bool) (*Mailbox, error)
}

// Poller rechecks the mailbox service until a prior directory deletion
// becomes visible or a deadline elapses. Now and Sleep are injectable so
// tests run without wall-clock delays and embedding callers can compose
// their own cancellation.
type Poller struct {
	Mailbox  mailboxResolver
	Interval time.Duration
	Now      func() time.Time
	Sleep    func(ctx context.Context, d time.Duration) error
	Log      Logger
}

// Wait polls until the active mailbox for email stops resolving, the
// deadline (now + maxWait) passes, or ctx is cancelled. The returned error
// is non-nil only for cancellation; Converged and TimedOut are both
// ordinary outcomes.
func (p *Poller) Wait(ctx context.Context, email string, maxWait time.Duration) (PollState, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	log := p.Log
	if log == nil {
		log = nopLogger{}
	}

	deadline := now().Add(maxWait)
	for {
		_, err := p.Mailbox.GetMailbox(ctx, email, false)
		switch {
		case err == nil:
			log.Info("mailbox %s still resolves, deletion not yet propagated", email)
		case IsNotFound(err):
			return Converged, nil
		default:
			// Transient failure: keep polling until the deadline. A later
			// create attempt surfaces a conflict if convergence never came.
			log.Error("convergence check failed: %v", err)
		}

		if !now().Before(deadline) {
			return TimedOut, nil
		}
		if err := sleep(ctx, interval); err != nil {
			return Polling, err
		}
	}
}

// sleepContext blocks for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
