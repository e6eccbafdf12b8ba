package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   "reporting-ui",
		Issuer:    "glreport",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func TestVerify(t *testing.T) {
	v := NewVerifier(Config{Secret: secret, Issuer: "glreport"})

	sub, err := v.Verify(sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "reporting-ui", sub)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "someone-else"
	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	cases := map[string]string{
		"expired":      sign(t, jwt.SigningMethodHS256, []byte(secret), expired),
		"wrong issuer": sign(t, jwt.SigningMethodHS256, []byte(secret), wrongIssuer),
		"no expiry":    sign(t, jwt.SigningMethodHS256, []byte(secret), noExpiry),
		"wrong secret": sign(t, jwt.SigningMethodHS256, []byte("other"), validClaims()),
		"wrong alg":    sign(t, jwt.SigningMethodHS384, []byte(secret), validClaims()),
		"garbage":      "not.a.token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier(Config{Secret: secret})
	var rejected error
	var subject string
	h := v.Middleware(func(w http.ResponseWriter, _ *http.Request, err error) {
		rejected = err
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = Subject(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.True(t, errors.Is(rejected, ErrMissingToken))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims()))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "reporting-ui", subject)
}

func TestConfigEnabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Secret: "x"}.Enabled())
}
