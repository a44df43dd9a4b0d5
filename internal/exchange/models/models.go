// Package models defines the wire types of the Exchange admin API surface
// used by the migration workflow.
package models

// Mailbox is a mailbox object as returned by the admin API. The same
// primary SMTP address can resolve to an active and a soft-deleted mailbox
// with different GUIDs.
type Mailbox struct {
	ExchangeGUID       string   `json:"exchangeGuid"`
	PrimarySmtpAddress string   `json:"primarySmtpAddress"`
	DisplayName        string   `json:"displayName"`
	Alias              string   `json:"alias"`
	RecipientType      string   `json:"recipientTypeDetails"`
	EmailAddresses     []string `json:"emailAddresses"`
	IsSoftDeleted      bool     `json:"isSoftDeleted"`
}

// CreateMailboxRequest creates a shared mailbox.
type CreateMailboxRequest struct {
	DisplayName        string `json:"displayName"`
	Alias              string `json:"alias"`
	PrimarySmtpAddress string `json:"primarySmtpAddress"`
	Type               string `json:"type"`
}

// MailboxTypeShared is the mailbox type for shared mailboxes.
const MailboxTypeShared = "Shared"

// EmailAddressesRequest modifies a mailbox's proxy addresses. Only Add is
// ever populated: the merge is non-destructive and must never remove
// addresses absent from the set.
type EmailAddressesRequest struct {
	Add []string `json:"add"`
}

// PermissionRequest grants mailbox-level access rights.
type PermissionRequest struct {
	User         string   `json:"user"`
	AccessRights []string `json:"accessRights"`
	AutoMapping  bool     `json:"autoMapping"`
}

// FolderPermissionRequest grants folder-level access rights.
type FolderPermissionRequest struct {
	Folder       string   `json:"folder"`
	User         string   `json:"user"`
	AccessRights []string `json:"accessRights"`
}

// Folder is one mailbox folder entry.
type Folder struct {
	Path string `json:"path"`
	Type string `json:"folderType"`
}

// FolderTypeSearch marks search-folder entries, which never receive
// permission grants.
const FolderTypeSearch = "SearchFolder"

// FoldersResponse lists a mailbox's folders.
type FoldersResponse struct {
	Value []Folder `json:"value"`
}

// RestoreRequest submits an asynchronous copy of a soft-deleted mailbox's
// contents into another mailbox, identified by GUIDs. Source and target are
// different mailbox objects sharing only the primary address, so legacy
// distinguished names are allowed to mismatch.
type RestoreRequest struct {
	Name                  string `json:"name"`
	SourceExchangeGUID    string `json:"sourceExchangeGuid"`
	TargetExchangeGUID    string `json:"targetExchangeGuid"`
	AllowLegacyDNMismatch bool   `json:"allowLegacyDNMismatch"`
}

// RestoreResponse is the accepted restore job.
type RestoreResponse struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ForwardingRequest configures mail forwarding. ForwardingAddress targets a
// directory recipient; ForwardingSmtpAddress targets an external SMTP
// address. Exactly one is set.
type ForwardingRequest struct {
	ForwardingAddress          string `json:"forwardingAddress,omitempty"`
	ForwardingSmtpAddress      string `json:"forwardingSmtpAddress,omitempty"`
	DeliverToMailboxAndForward bool   `json:"deliverToMailboxAndForward"`
}

// Organization is the minimal organization record used as a liveness probe.
type Organization struct {
	Name string `json:"name"`
}
