package auth

import "github.com/google/uuid"

// Actor is the authenticated caller a service acts on behalf of.
type Actor struct {
	UserID uuid.UUID
	Email  string
	Admin  bool
}

// Label identifies the actor in audit history.
func (a Actor) Label() string {
	if a.Email != "" {
		return a.Email
	}
	return a.UserID.String()
}

// CanAccess reports whether the actor may read or change a row owned by ownerID.
func (a Actor) CanAccess(ownerID uuid.UUID) bool {
	return a.Admin || (a.UserID != uuid.Nil && a.UserID == ownerID)
}
