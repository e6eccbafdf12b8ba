package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey type for context keys
type ContextKey string

// SubjectKey holds the authenticated token subject.
const SubjectKey ContextKey = "auth_subject"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Config configures HS256 bearer token validation. An empty Secret
// disables authentication.
type Config struct {
	Secret string
	Issuer string
	Leeway time.Duration
}

func (c Config) Enabled() bool { return c.Secret != "" }

// Verifier validates bearer tokens on API requests.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(config Config) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(config.Leeway),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	return &Verifier{secret: []byte(config.Secret), parser: jwt.NewParser(opts...)}
}

// Verify parses tokenString and returns its subject.
func (v *Verifier) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims.Subject, nil
}

// Middleware rejects requests without a valid "Authorization: Bearer"
// token by calling onReject.
func (v *Verifier) Middleware(onReject func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				onReject(w, r, ErrMissingToken)
				return
			}
			subject, err := v.Verify(token)
			if err != nil {
				onReject(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), SubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Subject returns the authenticated subject stored by Middleware.
func Subject(ctx context.Context) string {
	if s, ok := ctx.Value(SubjectKey).(string); ok {
		return s
	}
	return ""
}
