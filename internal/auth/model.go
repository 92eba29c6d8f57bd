package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleDonor     Role = "donor"
	RoleHospital  Role = "hospital"
	RoleBloodBank Role = "bloodbank"
	RoleAdmin     Role = "admin"
)

type Account struct {
	ID             uuid.UUID
	Email          string
	PasswordHash   string
	Role           Role
	OrganizationID *uuid.UUID
	DonorID        *uuid.UUID
	CreatedAt      time.Time
}

// Principal is the authenticated caller attached to a request context.
type Principal struct {
	AccountID      uuid.UUID
	Email          string
	Role           Role
	OrganizationID *uuid.UUID
	DonorID        *uuid.UUID
}

func (p Principal) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
