// Package identity carries the authenticated caller through a request context.
package identity

import (
	"context"

	"storyhub/internal/models"
)

type Identity struct {
	UserID      string      `json:"uid"`
	Email       string      `json:"email"`
	DisplayName string      `json:"displayName"`
	Role        models.Role `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || !id.Authenticated() {
		return Identity{}, false
	}
	return id, true
}

func FromUser(u *models.User) Identity {
	return Identity{
		UserID:      u.UserID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
	}
}
