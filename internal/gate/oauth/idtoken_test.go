package oauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/toolgate/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testClientID = "client-123.apps.googleusercontent.com"

// jwksServer serves whatever keys are currently published and counts fetches.
type jwksServer struct {
	*httptest.Server

	mu      sync.Mutex
	set     jwtx.JWKS
	fetches atomic.Int32
}

func newJWKSServer(t *testing.T) *jwksServer {
	t.Helper()
	s := &jwksServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.fetches.Add(1)
		s.mu.Lock()
		defer s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.set)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *jwksServer) publish(kid string, key *rsa.PrivateKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set.Keys = append(s.set.Keys, jwtx.NewRSAJWK(kid, "sig", "RS256", &key.PublicKey))
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims idTokenClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() idTokenClaims {
	now := time.Now()
	return idTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://accounts.google.com",
			Subject:   "1234567890",
			Audience:  jwt.ClaimStrings{testClientID},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email:         "carol@example.com",
		EmailVerified: true,
		Name:          "Carol",
		Picture:       "https://example.com/carol.png",
	}
}

func TestIDTokenDecoder_Decode(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := newJWKSServer(t)
	srv.publish("k1", key)

	dec := NewIDTokenDecoder(GoogleConfig{ClientID: testClientID, JWKSURL: srv.URL}, srv.Client())
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		id, err := dec.Decode(ctx, signToken(t, key, "k1", validClaims()))
		require.NoError(t, err)
		require.Equal(t, "carol@example.com", id.Email)
		require.Equal(t, "Carol", id.Name)
		require.Equal(t, "https://example.com/carol.png", id.Picture)
		require.Equal(t, "1234567890", id.Subject)
		require.True(t, id.EmailVerified)
		require.True(t, dec.Keys().IsReady())
	})

	tests := []struct {
		name  string
		token func() string
	}{
		{name: "empty", token: func() string { return "" }},
		{name: "garbage", token: func() string { return "not.a.jwt" }},
		{name: "wrong audience", token: func() string {
			c := validClaims()
			c.Audience = jwt.ClaimStrings{"someone-else"}
			return signToken(t, key, "k1", c)
		}},
		{name: "expired", token: func() string {
			c := validClaims()
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
			return signToken(t, key, "k1", c)
		}},
		{name: "no expiry", token: func() string {
			c := validClaims()
			c.ExpiresAt = nil
			return signToken(t, key, "k1", c)
		}},
		{name: "wrong issuer", token: func() string {
			c := validClaims()
			c.Issuer = "https://evil.example.com"
			return signToken(t, key, "k1", c)
		}},
		{name: "missing email", token: func() string {
			c := validClaims()
			c.Email = ""
			return signToken(t, key, "k1", c)
		}},
		{name: "signed by unknown key", token: func() string {
			return signToken(t, other, "k1", validClaims())
		}},
		{name: "unknown kid", token: func() string {
			return signToken(t, other, "nope", validClaims())
		}},
		{name: "hmac", token: func() string {
			tok := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
			tok.Header["kid"] = "k1"
			s, err := tok.SignedString([]byte("secret"))
			require.NoError(t, err)
			return s
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := dec.Decode(ctx, tc.token())
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIDTokenDecoder_RefetchesOnRotation(t *testing.T) {
	first, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	second, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := newJWKSServer(t)
	srv.publish("k1", first)

	dec := NewIDTokenDecoder(GoogleConfig{ClientID: testClientID, JWKSURL: srv.URL}, srv.Client())
	ctx := context.Background()

	require.NoError(t, dec.Refresh(ctx))
	require.EqualValues(t, 1, srv.fetches.Load())

	// cached key, no fetch
	_, err = dec.Decode(ctx, signToken(t, first, "k1", validClaims()))
	require.NoError(t, err)
	require.EqualValues(t, 1, srv.fetches.Load())

	// provider rotates; the unknown kid triggers exactly one refetch
	srv.publish("k2", second)
	_, err = dec.Decode(ctx, signToken(t, second, "k2", validClaims()))
	require.NoError(t, err)
	require.EqualValues(t, 2, srv.fetches.Load())
}

func TestIDTokenDecoder_UnknownKidRefetchIsLimited(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	forger, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := newJWKSServer(t)
	srv.publish("k1", key)

	dec := NewIDTokenDecoder(GoogleConfig{ClientID: testClientID, JWKSURL: srv.URL}, srv.Client())
	ctx := context.Background()
	require.NoError(t, dec.Refresh(ctx))

	for i := range 50 {
		_, err := dec.Decode(ctx, signToken(t, forger, fmt.Sprintf("bogus-%d", i), validClaims()))
		require.ErrorIs(t, err, ErrInvalidToken)
	}

	// the priming fetch plus one refetch for the first unknown kid
	require.EqualValues(t, 2, srv.fetches.Load())

	_, err = dec.Decode(ctx, signToken(t, key, "k1", validClaims()))
	require.NoError(t, err)
	require.EqualValues(t, 2, srv.fetches.Load())
}

func TestGoogleProvider(t *testing.T) {
	p := NewGoogleProvider(GoogleConfig{
		ClientID:     testClientID,
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/v1/auth/google/callback",
	})
	require.Equal(t, "google", p.Name())

	url := p.ConsentURL("state-xyz")
	require.Contains(t, url, "accounts.google.com")
	require.Contains(t, url, "state=state-xyz")
	require.Contains(t, url, "scope=openid+email+profile")

	t.Run("exchange returns id_token", func(t *testing.T) {
		tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			if r.PostForm.Get("code") != "good" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600,"id_token":"the-id-token"}`))
		}))
		defer tokenSrv.Close()

		p := NewGoogleProvider(GoogleConfig{ClientID: testClientID, TokenURL: tokenSrv.URL})

		idToken, err := p.ExchangeIDToken(context.Background(), "good")
		require.NoError(t, err)
		require.Equal(t, "the-id-token", idToken)

		_, err = p.ExchangeIDToken(context.Background(), "bad")
		require.Error(t, err)
	})
}

func TestGoogleConfigEnabled(t *testing.T) {
	require.False(t, GoogleConfig{}.Enabled())
	require.True(t, GoogleConfig{ClientID: "x"}.Enabled())
}
