package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"edis-portal/internal/models"
)

type contextKey string

const (
	UsernameKey contextKey = "username"
	TokenKey    contextKey = "token"
)

// Blacklist reports revoked tokens.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

type JWTAuth struct {
	Secret     []byte
	Expiration time.Duration
	Blacklist  Blacklist
}

func NewJWTAuth(secret string, expiration time.Duration) *JWTAuth {
	return &JWTAuth{Secret: []byte(secret), Expiration: expiration}
}

// GenerateToken signs an HS256 token whose subject is the username.
func (j *JWTAuth) GenerateToken(username, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      username,
		"username": username,
		"role":     role,
		"iat":      now.Unix(),
		"exp":      now.Add(j.Expiration).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// Parse verifies tokenStr and returns its claims.
func (j *JWTAuth) Parse(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// RemainingLifetime is how long tokenStr stays valid, zero when it cannot be
// parsed or has already expired.
func (j *JWTAuth) RemainingLifetime(tokenStr string) time.Duration {
	claims, err := j.Parse(tokenStr)
	if err != nil {
		return 0
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	if d := time.Until(exp.Time); d > 0 {
		return d
	}
	return 0
}

// Middleware validates the bearer token and attaches the username and raw
// token to the request context.
func (j *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := BearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header")
			return
		}

		claims, err := j.Parse(tokenStr)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "Token has expired")
			} else {
				writeError(w, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		username, err := claims.GetSubject()
		if err != nil || username == "" {
			writeError(w, http.StatusUnauthorized, "Invalid token subject")
			return
		}

		if j.Blacklist != nil {
			revoked, err := j.Blacklist.IsBlacklisted(r.Context(), tokenStr)
			if err != nil {
				log.Printf("[auth] blacklist lookup failed: %v", err)
			}
			if revoked {
				writeError(w, http.StatusUnauthorized, "Token has been revoked")
				return
			}
		}

		ctx := context.WithValue(r.Context(), UsernameKey, username)
		ctx = context.WithValue(ctx, TokenKey, tokenStr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func GetUsername(ctx context.Context) string {
	name, _ := ctx.Value(UsernameKey).(string)
	return name
}

func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(TokenKey).(string)
	return token
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.Failure(message, nil))
}
