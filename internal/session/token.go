package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Payload holds the claims the client cares about. The signature is not
// checked here: only the server holds the key.
type Payload struct {
	Subject   string
	Username  string
	ExpiresAt *time.Time
}

var parser = jwt.NewParser()

// Decode reads the claims segment only; the header is not inspected, so
// tokens with a missing or unknown alg still decode.
func Decode(raw string) (*Payload, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty token")
	}

	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("token is missing its claims segment")
	}
	segment, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid claims encoding: %w", err)
	}

	claims := jwt.MapClaims{}
	if err := json.Unmarshal(segment, &claims); err != nil {
		return nil, fmt.Errorf("invalid claims: %w", err)
	}

	p := &Payload{}
	p.Username, _ = claims["username"].(string)
	p.Subject, _ = claims["sub"].(string)

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, err
	}
	if exp != nil {
		t := exp.Time
		p.ExpiresAt = &t
	}
	return p, nil
}

// DisplayName prefers the username claim, then the subject.
func (p *Payload) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.Username != "" {
		return p.Username
	}
	return p.Subject
}

// Expired reports whether exp is at or before now. Tokens without exp never expire.
func (p *Payload) Expired(now time.Time) bool {
	if p == nil || p.ExpiresAt == nil {
		return false
	}
	return !p.ExpiresAt.After(now)
}
