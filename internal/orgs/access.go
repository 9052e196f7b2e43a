package orgs

import (
	"net/http"

	"github.com/aliuyar1234/formforge/internal/apperrors"
)

// NotMemberMessage is the 403 message when the caller has no membership.
const NotMemberMessage = "You don't have access to this organization"

// AccessErrors maps CheckOrgRole failures to responses. Missing membership
// and insufficient rank are both 403.
func AccessErrors(required OrgRole) apperrors.Table {
	return apperrors.Table{
		{Err: ErrNotMember, Status: http.StatusForbidden, Message: NotMemberMessage},
		{Err: ErrInsufficientPermissions, Status: http.StatusForbidden, Message: InsufficientRoleMessage(required)},
	}
}

// WriteAccessError writes the response for a failed CheckOrgRole call.
func WriteAccessError(w http.ResponseWriter, r *http.Request, err error, required OrgRole) {
	AccessErrors(required).Write(w, r, err, "Failed to check permissions")
}
