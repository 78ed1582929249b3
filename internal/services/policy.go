package services

import "github.com/inkwell-app/apiserver/types"

// Authorization policy for mutations. Every guard in the service layer
// consults these instead of comparing roles inline, so the role rules
// live in one place.

// IsOwner reports whether the acting user owns a resource created by
// ownerID.
func IsOwner(actor types.User, ownerID int) bool {
	return actor.ID == ownerID
}

// CanModify reports whether the acting user may update or patch a
// resource owned by ownerID. Only the owner may.
func CanModify(actor types.User, ownerID int) bool {
	return IsOwner(actor, ownerID)
}

// CanDelete reports whether the acting user may delete a resource owned
// by ownerID. The owner may, and admins may override.
func CanDelete(actor types.User, ownerID int) bool {
	return IsOwner(actor, ownerID) || actor.IsAdmin()
}

// CanModerate reports whether the acting user may perform admin-only
// operations (tag maintenance, review deletion, user administration).
func CanModerate(actor types.User) bool {
	return actor.IsAdmin()
}
