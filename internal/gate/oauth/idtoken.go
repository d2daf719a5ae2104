package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/aussiebroadwan/toolgate/pkg/jwtx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

const DefaultGoogleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// DefaultRefreshInterval is the minimum gap between key fetches triggered by
// tokens naming an unknown kid.
const DefaultRefreshInterval = time.Minute

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

type idTokenClaims struct {
	jwt.RegisteredClaims

	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// IDTokenDecoder verifies Google-issued ID tokens against the provider's
// published keys. Keys are fetched lazily and refetched when a token names a
// kid the set does not hold, which is how rotations are picked up. Those
// refetches are limited to one per refresh interval.
type IDTokenDecoder struct {
	ClientID   string
	JWKSURL    string
	Issuers    []string
	HTTPClient *http.Client

	keys      *jwtx.KeySet
	refreshMu sync.Mutex
	limiter   *rate.Limiter
}

func NewIDTokenDecoder(cfg GoogleConfig, client *http.Client) *IDTokenDecoder {
	url := cfg.JWKSURL
	if url == "" {
		url = DefaultGoogleJWKSURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &IDTokenDecoder{
		ClientID:   cfg.ClientID,
		JWKSURL:    url,
		Issuers:    googleIssuers,
		HTTPClient: client,
		keys:       jwtx.NewKeySet(),
		limiter:    rate.NewLimiter(rate.Every(DefaultRefreshInterval), 1),
	}
}

// Keys exposes the verification key set for readiness checks.
func (d *IDTokenDecoder) Keys() *jwtx.KeySet { return d.keys }

// Refresh replaces the key set with the provider's current keys. It is not
// limited; only refetches on unknown kids are.
func (d *IDTokenDecoder) Refresh(ctx context.Context) error {
	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()

	set, err := jwtx.FetchJWKS(ctx, d.HTTPClient, d.JWKSURL)
	if err != nil {
		return err
	}
	if err := d.keys.ResetFromJWKS(set); err != nil {
		return err
	}

	slogx.FromContext(ctx).Debug("refreshed identity provider keys",
		slog.Int("keys", len(set.Keys)),
	)
	return nil
}

func (d *IDTokenDecoder) Decode(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(d.ClientID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(30*time.Second),
	)

	var claims idTokenClaims
	if _, err := parser.ParseWithClaims(token, &claims, d.keyFunc(ctx)); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !slices.Contains(d.Issuers, claims.Issuer) {
		return Identity{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}
	if claims.Email == "" {
		return Identity{}, fmt.Errorf("%w: token carries no email", ErrInvalidToken)
	}

	return Identity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}

func (d *IDTokenDecoder) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid")
		}

		key, err := d.keys.Get(kid)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, jwtx.ErrNoKey) {
			return nil, err
		}

		if !d.limiter.Allow() {
			return nil, fmt.Errorf("kid %q: %w", kid, err)
		}
		if err := d.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("fetch signing keys: %w", err)
		}
		return d.keys.Get(kid)
	}
}
