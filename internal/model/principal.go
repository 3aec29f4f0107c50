package model

import "github.com/google/uuid"

type Role string

const (
	RoleRequester Role = "REQUESTER"
	RoleProvider  Role = "PROVIDER"
)

// Principal identifies the authenticated caller and the side of the booking
// it acts from. Roles are carried explicitly; there is no user type hierarchy.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

func (p Principal) IsRequester() bool {
	return p.Role == RoleRequester
}

func (p Principal) IsProvider() bool {
	return p.Role == RoleProvider
}
