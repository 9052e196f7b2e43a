package orgs

import "errors"

var (
	ErrMemberNotFound        = errors.New("member not found")
	ErrAlreadyMember         = errors.New("user is already a member of this organization")
	ErrInvalidOrgRole        = errors.New("invalid organization role")
	ErrCannotDemoteLastOwner = errors.New("cannot demote last owner")
	ErrCannotRemoveLastOwner = errors.New("cannot remove last owner")
)
