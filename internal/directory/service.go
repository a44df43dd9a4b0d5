// Package directory implements the directory service gateway on Microsoft
// Graph.
package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	graphmodels "github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"
	"github.com/opsdeck/offboard/internal/migrate"
)

// GraphScope is the scope requested for Graph tokens. Application
// permissions use the .default scope.
const GraphScope = "https://graph.microsoft.com/.default"

// Service provides directory lookups and the user deletion of the
// migration workflow. It satisfies migrate.DirectoryGateway.
type Service struct {
	client *msgraphsdk.GraphServiceClient
}

// NewService builds a Graph client from the given credential.
func NewService(cred azcore.TokenCredential) (*Service, error) {
	client, err := msgraphsdk.NewGraphServiceClientWithCredentials(cred, []string{GraphScope})
	if err != nil {
		return nil, fmt.Errorf("graph client initialization failed: %w", err)
	}
	return &Service{client: client}, nil
}

// FindUserByEmail resolves a directory user by principal name. It returns
// (nil, nil) when no user exists for the address; absence is an ordinary
// condition for the workflow, not an error.
func (s *Service) FindUserByEmail(ctx context.Context, email string) (*migrate.UserRef, error) {
	user, err := s.client.Users().ByUserId(email).Get(ctx, nil)
	if err != nil {
		if graphStatus(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up user %s: %w", email, graphError(err))
	}

	ref := &migrate.UserRef{Email: email}
	if id := user.GetId(); id != nil {
		ref.ID = *id
	}
	if name := user.GetDisplayName(); name != nil {
		ref.DisplayName = *name
	}
	if upn := user.GetUserPrincipalName(); upn != nil {
		ref.Email = *upn
	}
	return ref, nil
}

// ListChildObjects returns the directory objects dependent on the user:
// group memberships and owned objects. Used only for the pre-deletion
// warning.
func (s *Service) ListChildObjects(ctx context.Context, user *migrate.UserRef) ([]migrate.ObjectRef, error) {
	memberOf, err := s.client.Users().ByUserId(user.ID).MemberOf().Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships for %s: %w", user.Email, graphError(err))
	}
	refs := toObjectRefs(memberOf.GetValue())

	owned, err := s.client.Users().ByUserId(user.ID).OwnedObjects().Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned objects for %s: %w", user.Email, graphError(err))
	}
	return append(refs, toObjectRefs(owned.GetValue())...), nil
}

// DeleteUser deletes the directory user. Irreversible; confirmation happens
// at the workflow layer before this is called.
func (s *Service) DeleteUser(ctx context.Context, user *migrate.UserRef) error {
	if err := s.client.Users().ByUserId(user.ID).Delete(ctx, nil); err != nil {
		return &migrate.DirectoryError{Op: "delete", Err: graphError(err)}
	}
	return nil
}

func toObjectRefs(objects []graphmodels.DirectoryObjectable) []migrate.ObjectRef {
	var refs []migrate.ObjectRef
	for _, obj := range objects {
		ref := migrate.ObjectRef{Type: objectType(obj.GetOdataType())}
		if id := obj.GetId(); id != nil {
			ref.ID = *id
		}
		if named, ok := obj.(interface{ GetDisplayName() *string }); ok {
			if name := named.GetDisplayName(); name != nil {
				ref.DisplayName = *name
			}
		}
		refs = append(refs, ref)
	}
	return refs
}

// objectType trims the Graph type prefix: "#microsoft.graph.group" -> "group".
func objectType(odataType *string) string {
	if odataType == nil {
		return "directoryObject"
	}
	return strings.TrimPrefix(*odataType, "#microsoft.graph.")
}

// graphStatus extracts the HTTP status from a Graph OData error, or 0.
func graphStatus(err error) int {
	var odErr *odataerrors.ODataError
	if errors.As(err, &odErr) {
		return odErr.ResponseStatusCode
	}
	return 0
}

// graphError unwraps a Graph OData error into a readable message; the raw
// error string of an ODataError is an unhelpful generic.
func graphError(err error) error {
	var odErr *odataerrors.ODataError
	if errors.As(err, &odErr) {
		if mainErr := odErr.GetErrorEscaped(); mainErr != nil {
			code, msg := "", ""
			if mainErr.GetCode() != nil {
				code = *mainErr.GetCode()
			}
			if mainErr.GetMessage() != nil {
				msg = *mainErr.GetMessage()
			}
			return fmt.Errorf("graph error %s: %s", code, msg)
		}
	}
	return err
}
