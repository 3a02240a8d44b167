// identity.go — bearer-credential verification against the platform's
// identity endpoint, with an optional local HS256 fast path.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the resolved end user behind a bearer credential.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// identityClaims are the platform token claims used by the local fast path.
type identityClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verify exchanges a bearer credential for the caller's identity.
//
// When the platform JWT secret is configured, the token is verified locally
// (HS256, expiry required) and no network call is made. Otherwise the token
// is sent to the platform's user endpoint, which is the single authority on
// whether a credential is valid. Either way, an invalid or expired credential
// yields ErrUnauthorized.
func (u UserAccess) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	if len(u.c.jwtSecret) > 0 {
		return u.verifyLocal(token)
	}
	return u.verifyRemote(ctx, token)
}

// verifyLocal validates the token signature and expiry against the shared
// platform JWT secret.
func (u UserAccess) verifyLocal(token string) (*Identity, error) {
	claims := &identityClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method: expected HS256")
			}
			return u.c.jwtSecret, nil
		},
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrUnauthorized
	}
	return &Identity{ID: claims.Subject, Email: claims.Email}, nil
}

// verifyRemote asks the platform who the token belongs to.
func (u UserAccess) verifyRemote(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	// The end user's own token, paired with the public anon key. The
	// service-role key must never appear on this call.
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", u.c.anonKey)

	resp, err := u.c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		return nil, &RemoteError{Op: "verify user", Status: resp.StatusCode, Body: truncate(body)}
	}

	var id Identity
	if err := json.Unmarshal(body, &id); err != nil {
		return nil, &RemoteError{Op: "verify user", Status: resp.StatusCode, Body: truncate(body)}
	}
	if id.ID == "" {
		return nil, ErrUnauthorized
	}
	return &id, nil
}
