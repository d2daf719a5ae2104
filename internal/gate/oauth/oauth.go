package oauth

import (
	"context"
	"errors"
)

// ErrInvalidToken wraps every reason an external credential is rejected.
var ErrInvalidToken = errors.New("oauth: invalid identity token")

// Identity is the verified subject of an external credential.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Decoder verifies an opaque external credential and extracts the identity.
type Decoder interface {
	Decode(ctx context.Context, token string) (Identity, error)
}

// GoogleConfig holds the client registration for Google sign-in.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	JWKSURL      string
	// TokenURL replaces Google's token endpoint when set.
	TokenURL string
}

// Enabled reports whether a client id is configured.
func (c GoogleConfig) Enabled() bool { return c.ClientID != "" }
