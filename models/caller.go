package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the tag every caller carries. Operations on a service request are
// dispatched on it.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleProvider Role = "PROVIDER"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole accepts the role names in any case.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleCustomer:
		return RoleCustomer, true
	case RoleProvider:
		return RoleProvider, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// Caller is the resolved identity attached to every call.
type Caller struct {
	UserID primitive.ObjectID `json:"userId"`
	Role   Role               `json:"role"`
}

// Is reports whether the caller has one of the given roles.
func (c Caller) Is(roles ...Role) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}
