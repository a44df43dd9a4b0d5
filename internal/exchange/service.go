// Package exchange implements the mailbox service gateway against the
// Exchange admin REST API.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/opsdeck/offboard/internal/exchange/models"
	"github.com/opsdeck/offboard/internal/migrate"
)

// httpClient is an interface for making HTTP requests.
// It allows dependency injection for testing.
type httpClient interface {
	Get(ctx context.Context, route string, params interface{}) (*http.Response, error)
	Post(ctx context.Context, route string, body interface{}) (*http.Response, error)
}

// Service provides the mailbox operations of the migration workflow. It
// satisfies migrate.MailboxGateway.
type Service struct {
	httpClient httpClient
}

// NewService wraps a client with request/response logging. l may be nil.
func NewService(client *Client, l logger) *Service {
	var hc httpClient = client
	if l != nil {
		hc = newLoggingClient(client, l)
	}
	return &Service{httpClient: hc}
}

// NewServiceWithClient creates a service with a custom HTTP client.
// This is primarily for testing with mock clients.
func NewServiceWithClient(client httpClient) *Service {
	return &Service{httpClient: client}
}

// Ping probes the service with a lightweight organization read.
// GET /api/v1.0/organization
func (s *Service) Ping(ctx context.Context) error {
	resp, err := s.httpClient.Get(ctx, "/api/v1.0/organization", nil)
	if err != nil {
		return fmt.Errorf("failed to reach mailbox service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp, "organization")
	}
	return nil
}

// GetMailbox resolves a mailbox by primary address, in active or
// soft-deleted lookup mode.
// GET /api/v1.0/mailboxes/{email}
func (s *Service) GetMailbox(ctx context.Context, email string, softDeleted bool) (*migrate.Mailbox, error) {
	route := "/api/v1.0/mailboxes/" + url.PathEscape(email)
	var params interface{}
	if softDeleted {
		params = map[string]string{"softDeleted": "true"}
	}

	mbx, err := s.getMailbox(ctx, route, params, email)
	if err != nil {
		return nil, err
	}
	return &migrate.Mailbox{
		ExchangeGUID:   mbx.ExchangeGUID,
		PrimaryAddress: mbx.PrimarySmtpAddress,
		DisplayName:    mbx.DisplayName,
		SoftDeleted:    mbx.IsSoftDeleted,
	}, nil
}

// ListProxyAddresses returns a mailbox's address aliases. The active
// mailbox is tried first; when it is already gone the soft-deleted mailbox
// covers the case where deletion propagated before addresses were read.
func (s *Service) ListProxyAddresses(ctx context.Context, email string) ([]string, error) {
	route := "/api/v1.0/mailboxes/" + url.PathEscape(email)

	mbx, err := s.getMailbox(ctx, route, nil, email)
	if migrate.IsNotFound(err) {
		mbx, err = s.getMailbox(ctx, route, map[string]string{"softDeleted": "true"}, email)
	}
	if err != nil {
		return nil, err
	}
	return mbx.EmailAddresses, nil
}

func (s *Service) getMailbox(ctx context.Context, route string, params interface{}, email string) (*models.Mailbox, error) {
	resp, err := s.httpClient.Get(ctx, route, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get mailbox: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &migrate.NotFoundError{Resource: "mailbox " + email}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, "mailbox")
	}

	var mbx models.Mailbox
	if err := json.NewDecoder(resp.Body).Decode(&mbx); err != nil {
		return nil, fmt.Errorf("failed to decode mailbox response: %w", err)
	}
	return &mbx, nil
}

// CreateSharedMailbox creates a shared mailbox. A conflict means a mailbox
// with that primary address already exists and is not soft-deleted.
// POST /api/v1.0/mailboxes
func (s *Service) CreateSharedMailbox(ctx context.Context, params migrate.CreateMailboxParams) error {
	body := models.CreateMailboxRequest{
		DisplayName:        params.DisplayName,
		Alias:              params.Alias,
		PrimarySmtpAddress: params.PrimaryEmail,
		Type:               models.MailboxTypeShared,
	}

	resp, err := s.httpClient.Post(ctx, "/api/v1.0/mailboxes", body)
	if err != nil {
		return fmt.Errorf("failed to create shared mailbox: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return &migrate.ConflictError{Resource: "mailbox " + params.PrimaryEmail}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return statusError(resp, "mailbox create")
	}
	return nil
}

// AddProxyAddresses merges addresses into a mailbox's alias set. The merge
// is additive only; existing addresses are never removed.
// POST /api/v1.0/mailboxes/{email}/emailAddresses
func (s *Service) AddProxyAddresses(ctx context.Context, email string, addresses []string) error {
	route := "/api/v1.0/mailboxes/" + url.PathEscape(email) + "/emailAddresses"

	resp, err := s.httpClient.Post(ctx, route, models.EmailAddressesRequest{Add: addresses})
	if err != nil {
		return fmt.Errorf("failed to add proxy addresses: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError(resp, "proxy address update")
	}
	return nil
}

// GrantFullAccess grants mailbox-level full access to a grantee.
// POST /api/v1.0/mailboxes/{email}/permissions
func (s *Service) GrantFullAccess(ctx context.Context, email, grantee string) error {
	route := "/api/v1.0/mailboxes/" + url.PathEscape(email) + "/permissions"
	body := models.PermissionRequest{
		User:         grantee,
		AccessRights: []string{"FullAccess"},
		AutoMapping:  false,
	}

	resp, err := s.httpClient.Post(ctx, route, body)
	if err != nil {
		return fmt.Errorf("failed to grant full access: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError(resp, "permission grant")
	}
	return nil
}

// ListFolders returns the mailbox's folder paths, excluding search folders.
// GET /api/v1.0/mailboxes/{email}/folders
func (s *Service) ListFolders(ctx context.Context, email string) ([]string, error) {
	route := "/api/v1.0/mailboxes/" + url.PathEscape(email) + "/folders"

	resp, err := s.httpClient.Get(ctx, route, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &migrate.NotFoundError{Resource: "mailbox " + email}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, "folder list")
	}

	var result models.FoldersResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode folder response: %w", err)
	}

	var folders []string
	for _, f := range result.Value {
		if f.Type == models.FolderTypeSearch {
			continue
		}
		folders = append(folders, f.Path)
	}
	return folders, nil
}

// GrantFolderReviewer grants reviewer access on a single folder.
// POST /api/v1.0/mailboxes/{email}/folderPermissions
func (s *Service) GrantFolderReviewer(ctx context.Context, email, folder, grantee string) error {
	route := "/api/v1.0/mailboxes/" + url.PathEscape(email) + "/folderPermissions"
	body := models.FolderPermissionRequest{
		Folder:       folder,
		User:         grantee,
		AccessRights: []string{"Reviewer"},
	}

	resp, err := s.httpClient.Post(ctx, route, body)
	if err != nil {
		return fmt.Errorf("failed to grant folder permission: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError(resp, "folder permission grant")
	}
	return nil
}

// SubmitRestoreRequest submits an asynchronous restore of the soft-deleted
// source mailbox into the target mailbox.
// POST /api/v1.0/restoreRequests
func (s *Service) SubmitRestoreRequest(ctx context.Context, sourceGUID, targetGUID string) error {
	body := models.RestoreRequest{
		Name:                  "MailboxRestore-" + uuid.NewString(),
		SourceExchangeGUID:    sourceGUID,
		TargetExchangeGUID:    targetGUID,
		AllowLegacyDNMismatch: true,
	}

	resp, err := s.httpClient.Post(ctx, "/api/v1.0/restoreRequests", body)
	if err != nil {
		return &migrate.RestoreError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return &migrate.RestoreError{Err: statusError(resp, "restore request")}
	}
	return nil
}

// SetForwarding configures mail forwarding on a mailbox. External redirects
// use the SMTP-address attribute; internal ones target a directory
// recipient.
// POST /api/v1.0/mailboxes/{email}/forwarding
func (s *Service) SetForwarding(ctx context.Context, email string, params migrate.ForwardingParams) error {
	route := "/api/v1.0/mailboxes/" + url.PathEscape(email) + "/forwarding"

	body := models.ForwardingRequest{DeliverToMailboxAndForward: params.DeliverAndForward}
	if params.External {
		body.ForwardingSmtpAddress = params.Address
	} else {
		body.ForwardingAddress = params.Address
	}

	resp, err := s.httpClient.Post(ctx, route, body)
	if err != nil {
		return fmt.Errorf("failed to configure forwarding: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError(resp, "forwarding update")
	}
	return nil
}

// statusError renders a non-success response into an error, carrying up to
// 4KiB of the response body.
func statusError(resp *http.Response, what string) error {
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if readErr != nil {
		body = []byte("(failed to read response body)")
	}
	return fmt.Errorf("%s request failed with status %d: %s", what, resp.StatusCode, string(body))
}
