package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned when a token is opaque or cannot be decoded.
var ErrNotJWT = errors.New("token is not a decodable JWT")

// Claims is the subset of registered claims the client cares about.
type Claims struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// HasExpiry reports whether the token carried an exp claim.
func (c Claims) HasExpiry() bool {
	return !c.ExpiresAt.IsZero()
}

var parser = jwt.NewParser()

// Peek decodes token's registered claims without checking the signature.
func Peek(token string) (Claims, error) {
	if strings.Count(token, ".") != 2 {
		return Claims{}, ErrNotJWT
	}
	var rc jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(token, &rc); err != nil {
		return Claims{}, errors.Join(ErrNotJWT, err)
	}

	c := Claims{
		Subject: rc.Subject,
		Issuer:  rc.Issuer,
	}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	return c, nil
}

// ExpiresWithin reports whether token expires at or before now+leeway.
// Opaque tokens and tokens without exp never report true.
func ExpiresWithin(token string, leeway time.Duration, now time.Time) bool {
	if token == "" || leeway <= 0 {
		return false
	}
	c, err := Peek(token)
	if err != nil || !c.HasExpiry() {
		return false
	}
	return !c.ExpiresAt.After(now.Add(leeway))
}
