package moderation

import "prato/internal/domain/accesscontrol"

// Identity is the resolved caller, produced by the auth middleware. A
// zero Identity is an anonymous guest.
type Identity struct {
	UserID int64
	Role   accesscontrol.RoleName
}

func (id Identity) Authenticated() bool {
	return id.UserID != 0
}

// require gates an operation: anonymous callers get ErrUnauthorized,
// authenticated callers below min get ErrForbidden.
func (id Identity) require(min accesscontrol.RoleName) error {
	if !id.Authenticated() {
		return ErrUnauthorized
	}
	if !id.Role.AtLeast(min) {
		return ErrForbidden
	}
	return nil
}
