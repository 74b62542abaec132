package auth

import (
	"context"
	"strings"
)

// Claims es la identidad resuelta para el request (token verificado o header de debug).
type Claims struct {
	UserID   string
	Email    string
	TenantID string
}

// Anonymous: no hay usuario resuelto; las rutas de mascotas responden 401.
func (c Claims) Anonymous() bool {
	return strings.TrimSpace(c.UserID) == ""
}

// AuthVerifier verifica un bearer token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// VerifierFunc adapta una función a AuthVerifier.
type VerifierFunc func(ctx context.Context, token string) (Claims, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (Claims, error) {
	return f(ctx, token)
}
