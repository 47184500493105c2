package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/rundown/plugin/ai/timeout"
)

const (
	// tokenIssuer is the iss claim of session tokens.
	tokenIssuer = "rundown"
	// tokenAudience is the aud claim of session tokens.
	tokenAudience = "rundown.chat"
)

var errNoToken = errors.New("no session token")

// sessionTokens issues and verifies HS256 bearer tokens whose subject is
// the chat session id.
type sessionTokens struct {
	secret []byte
	ttl    time.Duration
}

func newSessionTokens(secret string) *sessionTokens {
	return &sessionTokens{secret: []byte(secret), ttl: timeout.SessionTTL}
}

// NewSessionID returns a fresh session id.
func NewSessionID() string {
	return shortuuid.New()
}

// Issue signs a token for sessionID.
func (t *sessionTokens) Issue(sessionID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   sessionID,
		Audience:  jwt.ClaimStrings{tokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign session token")
	}
	return signed, nil
}

// Parse verifies raw and returns its session id.
func (t *sessionTokens) Parse(raw string, now time.Time) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(token *jwt.Token) (any, error) {
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return "", errors.Wrap(err, "invalid session token")
	}
	if claims.Subject == "" {
		return "", errors.New("session token has no subject")
	}
	return claims.Subject, nil
}

// FromRequest reads the bearer token of r. A request without one returns errNoToken.
func (t *sessionTokens) FromRequest(r *http.Request, now time.Time) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errNoToken
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", errors.New("authorization header must use the Bearer scheme")
	}
	return t.Parse(strings.TrimSpace(raw), now)
}
