package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ErrInvalidToken covers every way a bearer token can fail verification.
var ErrInvalidToken = errors.New("invalid token")

// Verifier checks HS256 access tokens issued by the account service and
// extracts the subject. Token issuance lives elsewhere; this service
// only consumes them.
type Verifier struct {
	Secret    []byte
	Issuer    string
	ClockSkew time.Duration
	Now       func() time.Time
}

// Subject verifies the token and returns its subject (the user id).
func (v Verifier) Subject(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" || len(v.Secret) == 0 {
		return "", ErrInvalidToken
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(jwa.HS256, v.Secret))
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}

	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now() })),
	}
	if v.ClockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(v.ClockSkew))
	}
	if v.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.Issuer))
	}
	if err := jwt.Validate(parsed, options...); err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}
	subject := parsed.Subject()
	if subject == "" {
		return "", ErrInvalidToken
	}
	return subject, nil
}
