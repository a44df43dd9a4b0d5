package cmd

import (
	"context"

	"github.com/opsdeck/offboard/internal/migrate"
)

// mockMailbox implements migrate.MailboxGateway. The active mailbox resolves
// only after CreateSharedMailbox ran, so the convergence poll and the restore
// lookup both behave like the post-deletion service state.
type mockMailbox struct {
	proxies   []string
	folders   []string
	pingErr   error
	createErr error

	mutations  int
	created    []migrate.CreateMailboxParams
	fullAccess []string
	forwarding []migrate.ForwardingParams
}

func (m *mockMailbox) Ping(ctx context.Context) error { return m.pingErr }

func (m *mockMailbox) GetMailbox(ctx context.Context, email string, softDeleted bool) (*migrate.Mailbox, error) {
	if softDeleted {
		return &migrate.Mailbox{ExchangeGUID: "guid-source", PrimaryAddress: email, SoftDeleted: true}, nil
	}
	if len(m.created) == 0 {
		return nil, &migrate.NotFoundError{Resource: "mailbox " + email}
	}
	return &migrate.Mailbox{ExchangeGUID: "guid-target", PrimaryAddress: email}, nil
}

func (m *mockMailbox) ListProxyAddresses(ctx context.Context, email string) ([]string, error) {
	return m.proxies, nil
}

func (m *mockMailbox) CreateSharedMailbox(ctx context.Context, params migrate.CreateMailboxParams) error {
	m.mutations++
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, params)
	return nil
}

func (m *mockMailbox) AddProxyAddresses(ctx context.Context, email string, addresses []string) error {
	m.mutations++
	return nil
}

func (m *mockMailbox) GrantFullAccess(ctx context.Context, email, grantee string) error {
	m.mutations++
	m.fullAccess = append(m.fullAccess, grantee)
	return nil
}

func (m *mockMailbox) ListFolders(ctx context.Context, email string) ([]string, error) {
	return m.folders, nil
}

func (m *mockMailbox) GrantFolderReviewer(ctx context.Context, email, folder, grantee string) error {
	m.mutations++
	return nil
}

func (m *mockMailbox) SubmitRestoreRequest(ctx context.Context, sourceGUID, targetGUID string) error {
	m.mutations++
	return nil
}

func (m *mockMailbox) SetForwarding(ctx context.Context, email string, params migrate.ForwardingParams) error {
	m.mutations++
	m.forwarding = append(m.forwarding, params)
	return nil
}

// mockDirectory implements migrate.DirectoryGateway.
type mockDirectory struct {
	user    *migrate.UserRef
	deleted []string
}

func (m *mockDirectory) FindUserByEmail(ctx context.Context, email string) (*migrate.UserRef, error) {
	return m.user, nil
}

func (m *mockDirectory) ListChildObjects(ctx context.Context, user *migrate.UserRef) ([]migrate.ObjectRef, error) {
	return nil, nil
}

func (m *mockDirectory) DeleteUser(ctx context.Context, user *migrate.UserRef) error {
	m.deleted = append(m.deleted, user.Email)
	return nil
}

// mockConfirmer implements confirmPrompter.
type mockConfirmer struct {
	confirmed bool
	prompts   []string
}

func (m *mockConfirmer) Confirm(prompt string) (bool, error) {
	m.prompts = append(m.prompts, prompt)
	return m.confirmed, nil
}
