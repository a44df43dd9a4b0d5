// Package migrate sequences the offboarding workflow that preserves a
// departed user's mailbox as a shared mailbox: capture proxy addresses,
// delete the directory user, wait for the deletion to propagate, recreate
// the mailbox as shared, copy attributes, grant access, and submit a
// restore request from the soft-deleted source.
package migrate

import (
	"context"
	"strings"
	"time"
)

// Request describes one migration run. It is validated once up front and
// never mutated afterwards.
type Request struct {
	Email                      string
	ProxyFilter                string
	FullAccessEmails           []string
	ReviewerEmails             []string
	MaxWait                    time.Duration
	DeleteDirectoryUser        bool
	Archive                    bool
	RedirectEmail              string
	RedirectExternal           bool
	DeliverToMailboxAndForward bool
	DryRun                     bool
	AssumeYes                  bool
}

// UserRef identifies a directory user.
type UserRef struct {
	ID          string
	Email       string
	DisplayName string
}

// ObjectRef identifies a directory object dependent on a user, shown in the
// pre-deletion warning.
type ObjectRef struct {
	ID          string
	DisplayName string
	Type        string
}

// Mailbox identifies a mailbox object. The same primary address can resolve
// to both an active and a soft-deleted mailbox during a migration; the two
// are distinguished by SoftDeleted and carry different GUIDs.
type Mailbox struct {
	ExchangeGUID   string
	PrimaryAddress string
	DisplayName    string
	SoftDeleted    bool
}

// CreateMailboxParams are the attributes of the shared mailbox to create.
type CreateMailboxParams struct {
	DisplayName  string
	Alias        string
	PrimaryEmail string
}

// ForwardingParams configure mail forwarding on the migrated mailbox.
// External selects the SMTP-address attribute instead of the directory
// recipient attribute.
type ForwardingParams struct {
	Address           string
	External          bool
	DeliverAndForward bool
}

// DirectoryGateway is the directory service surface the workflow needs.
// FindUserByEmail returns (nil, nil) when no user exists for the address.
type DirectoryGateway interface {
	FindUserByEmail(ctx context.Context, email string) (*UserRef, error)
	ListChildObjects(ctx context.Context, user *UserRef) ([]ObjectRef, error)
	DeleteUser(ctx context.Context, user *UserRef) error
}

// MailboxGateway is the mailbox service surface the workflow needs.
type MailboxGateway interface {
	Ping(ctx context.Context) error
	GetMailbox(ctx context.Context, email string, softDeleted bool) (*Mailbox, error)
	ListProxyAddresses(ctx context.Context, email string) ([]string, error)
	CreateSharedMailbox(ctx context.Context, params CreateMailboxParams) error
	AddProxyAddresses(ctx context.Context, email string, addresses []string) error
	GrantFullAccess(ctx context.Context, email, grantee string) error
	ListFolders(ctx context.Context, email string) ([]string, error)
	GrantFolderReviewer(ctx context.Context, email, folder, grantee string) error
	SubmitRestoreRequest(ctx context.Context, sourceGUID, targetGUID string) error
	SetForwarding(ctx context.Context, email string, params ForwardingParams) error
}

// Confirmer asks the operator a yes/no question. Injected so the runner
// stays testable without a live terminal.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// Logger is the printf-style logging interface used across the workflow.
type Logger interface {
	Info(msg string, v ...interface{})
	Error(msg string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Workflow step names, in execution order.
const (
	StepCaptureProxies  = "capture-proxy-addresses"
	StepDeleteUser      = "delete-directory-user"
	StepWaitConvergence = "wait-for-convergence"
	StepCreateMailbox   = "create-shared-mailbox"
	StepApplyProxies    = "apply-proxy-addresses"
	StepGrantFullAccess = "grant-full-access"
	StepGrantReviewer   = "grant-folder-reviewer"
	StepSubmitRestore   = "submit-restore-request"
	StepSetForwarding   = "configure-forwarding"
)

// StepFailure records a non-fatal per-item failure inside a step.
type StepFailure struct {
	Step   string `json:"step"`
	Reason string `json:"reason"`
}

// Outcome is the incremental report of a run. StepsSkipped holds steps whose
// mutations were suppressed by dry-run mode.
type Outcome struct {
	StepsCompleted []string      `json:"steps_completed"`
	StepsSkipped   []string      `json:"steps_skipped,omitempty"`
	Failures       []StepFailure `json:"failures,omitempty"`
}

func (o *Outcome) complete(step string) {
	o.StepsCompleted = append(o.StepsCompleted, step)
}

func (o *Outcome) skip(step string) {
	o.StepsSkipped = append(o.StepsSkipped, step)
}

func (o *Outcome) fail(step, reason string) {
	o.Failures = append(o.Failures, StepFailure{Step: step, Reason: reason})
}

// SplitDisplayName derives given and family name components from the
// local part of an email address, split on the first dot. An address with
// no dot in the local part yields an empty family name.
func SplitDisplayName(email string) (given, family string) {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	parts := strings.Split(local, ".")
	given = parts[0]
	if len(parts) > 1 {
		family = strings.Join(parts[1:], " ")
	}
	return given, family
}
