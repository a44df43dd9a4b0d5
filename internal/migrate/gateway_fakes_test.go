package migrate

import (
	"context"
)

// fakeMailbox implements MailboxGateway for tests. Every call is counted so
// tests can assert which gateway methods ran; mutations counts only the
// mutating operations.
type fakeMailbox struct {
	pingErr      error
	getFunc      func(email string, softDeleted bool) (*Mailbox, error)
	proxies      []string
	proxiesErr   error
	createErr    error
	addErr       error
	grantFunc    func(email, grantee string) error
	folders      []string
	foldersErr   error
	folderGrants func(email, folder, grantee string) error
	restoreErr   error
	forwardErr   error

	calls     map[string]int
	mutations int

	created      []CreateMailboxParams
	added        [][]string
	fullAccess   []string
	folderAccess []string // "folder/grantee"
	restores     [][2]string
	forwarding   []ForwardingParams
}

func (f *fakeMailbox) record(method string) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[method]++
}

func (f *fakeMailbox) Ping(ctx context.Context) error {
	f.record("Ping")
	return f.pingErr
}

func (f *fakeMailbox) GetMailbox(ctx context.Context, email string, softDeleted bool) (*Mailbox, error) {
	f.record("GetMailbox")
	if f.getFunc != nil {
		return f.getFunc(email, softDeleted)
	}
	return &Mailbox{ExchangeGUID: "guid-active", PrimaryAddress: email, SoftDeleted: softDeleted}, nil
}

func (f *fakeMailbox) ListProxyAddresses(ctx context.Context, email string) ([]string, error) {
	f.record("ListProxyAddresses")
	return f.proxies, f.proxiesErr
}

func (f *fakeMailbox) CreateSharedMailbox(ctx context.Context, params CreateMailboxParams) error {
	f.record("CreateSharedMailbox")
	f.mutations++
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, params)
	return nil
}

func (f *fakeMailbox) AddProxyAddresses(ctx context.Context, email string, addresses []string) error {
	f.record("AddProxyAddresses")
	f.mutations++
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, addresses)
	return nil
}

func (f *fakeMailbox) GrantFullAccess(ctx context.Context, email, grantee string) error {
	f.record("GrantFullAccess")
	f.mutations++
	if f.grantFunc != nil {
		if err := f.grantFunc(email, grantee); err != nil {
			return err
		}
	}
	f.fullAccess = append(f.fullAccess, grantee)
	return nil
}

func (f *fakeMailbox) ListFolders(ctx context.Context, email string) ([]string, error) {
	f.record("ListFolders")
	return f.folders, f.foldersErr
}

func (f *fakeMailbox) GrantFolderReviewer(ctx context.Context, email, folder, grantee string) error {
	f.record("GrantFolderReviewer")
	f.mutations++
	if f.folderGrants != nil {
		if err := f.folderGrants(email, folder, grantee); err != nil {
			return err
		}
	}
	f.folderAccess = append(f.folderAccess, folder+"/"+grantee)
	return nil
}

func (f *fakeMailbox) SubmitRestoreRequest(ctx context.Context, sourceGUID, targetGUID string) error {
	f.record("SubmitRestoreRequest")
	f.mutations++
	if f.restoreErr != nil {
		return f.restoreErr
	}
	f.restores = append(f.restores, [2]string{sourceGUID, targetGUID})
	return nil
}

func (f *fakeMailbox) SetForwarding(ctx context.Context, email string, params ForwardingParams) error {
	f.record("SetForwarding")
	f.mutations++
	if f.forwardErr != nil {
		return f.forwardErr
	}
	f.forwarding = append(f.forwarding, params)
	return nil
}

func (f *fakeMailbox) totalCalls() int {
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// fakeDirectory implements DirectoryGateway for tests.
type fakeDirectory struct {
	user      *UserRef
	findErr   error
	children  []ObjectRef
	childErr  error
	deleteErr error

	deleted []string
	calls   map[string]int
}

func (f *fakeDirectory) record(method string) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[method]++
}

func (f *fakeDirectory) FindUserByEmail(ctx context.Context, email string) (*UserRef, error) {
	f.record("FindUserByEmail")
	return f.user, f.findErr
}

func (f *fakeDirectory) ListChildObjects(ctx context.Context, user *UserRef) ([]ObjectRef, error) {
	f.record("ListChildObjects")
	return f.children, f.childErr
}

func (f *fakeDirectory) DeleteUser(ctx context.Context, user *UserRef) error {
	f.record("DeleteUser")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, user.Email)
	return nil
}

// fakeConfirmer implements Confirmer for tests.
type fakeConfirmer struct {
	confirmed bool
	err       error
	prompts   []string
}

func (f *fakeConfirmer) Confirm(prompt string) (bool, error) {
	f.prompts = append(f.prompts, prompt)
	return f.confirmed, f.err
}
