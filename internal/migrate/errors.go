package migrate

import (
	"errors"
	"fmt"
)

// ValidationError reports bad input detected before any gateway call.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConnectionError reports that the mailbox service could not be reached
// during the pre-flight probe.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("mailbox service unreachable: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// NotFoundError reports an absent entity. The convergence poller relies on
// it as a signal that a directory deletion has propagated.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ConflictError reports that the migration target already exists.
type ConflictError struct {
	Resource string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Resource)
}

// PermissionError reports a failed access grant. Folder is empty for
// mailbox-level grants.
type PermissionError struct {
	Grantee string
	Folder  string
	Err     error
}

func (e *PermissionError) Error() string {
	if e.Folder != "" {
		return fmt.Sprintf("failed to grant %q access to folder %q: %v", e.Grantee, e.Folder, e.Err)
	}
	return fmt.Sprintf("failed to grant %q access: %v", e.Grantee, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// RestoreError reports a rejected restore request.
type RestoreError struct {
	Err error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("restore request rejected: %v", e.Err)
}

func (e *RestoreError) Unwrap() error { return e.Err }

// DirectoryError reports a failed directory operation.
type DirectoryError struct {
	Op  string
	Err error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("directory %s failed: %v", e.Op, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }
