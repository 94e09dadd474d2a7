package domain

import (
	"context"
	"errors"
	"time"
)

// User is the authenticated identity supplied by the session collaborator.
// The engine trusts it and performs no authentication of its own.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role represents a user's access level.
type Role string

const (
	// RoleAdmin has full access, including reaping and consistency checks
	RoleAdmin Role = "admin"

	// RoleBuyer can create, join, and fund groups
	RoleBuyer Role = "buyer"

	// RoleViewer can only view resources, no mutations
	RoleViewer Role = "viewer"
)

var validRoles = map[Role]bool{
	RoleAdmin:  true,
	RoleBuyer:  true,
	RoleViewer: true,
}

// IsValid checks if the role is a valid role.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanSettle checks if the role may move money.
func (r Role) CanSettle() bool {
	return r == RoleAdmin || r == RoleBuyer
}

// CanAdminister checks if the role may run maintenance operations.
func (r Role) CanAdminister() bool {
	return r == RoleAdmin
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)

type userContextKey struct{}

// ContextWithUser attaches the authenticated user to the context.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the authenticated user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*User)
	return user, ok
}
