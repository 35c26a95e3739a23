package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"edis-portal/internal/middleware"
	"edis-portal/internal/models"
)

const blacklistPrefix = "auth:blacklist:"

const msgInvalidCredentials = "Invalid username or password"

type AuthService struct {
	users    UserStore
	marks    TokenMarks
	jwt      *middleware.JWTAuth
	hashCost int
}

func NewAuthService(users UserStore, marks TokenMarks, jwt *middleware.JWTAuth) *AuthService {
	return &AuthService{
		users:    users,
		marks:    marks,
		jwt:      jwt,
		hashCost: 12,
	}
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	_, err := s.users.GetByUsername(ctx, req.Username)
	if err == nil {
		return nil, &ConflictError{Message: msgUsernameTaken}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, translateDBError(err)
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnauthorizedError{Message: msgInvalidCredentials}
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: msgInvalidCredentials}
	}

	token, err := s.jwt.GenerateToken(user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &models.LoginResponse{Token: token, Username: user.Username}, nil
}

// Logout revokes token for the rest of its lifetime. Expired tokens need no
// revocation.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	ttl := s.jwt.RemainingLifetime(token)
	if ttl <= 0 {
		return nil
	}
	if err := s.marks.Mark(ctx, blacklistPrefix+token, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *AuthService) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return s.marks.Exists(ctx, blacklistPrefix+token)
}

// EnsureAdmin creates the bootstrap admin account, or resets its password when
// the configured one changed.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if user != nil {
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil {
			return nil
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		log.Printf("[auth] admin %q password updated", username)
		return s.users.UpdatePassword(ctx, user.ID, string(hash))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	admin := &models.User{Username: username, PasswordHash: string(hash), Role: models.RoleAdmin}
	if err := s.users.Create(ctx, admin); err != nil {
		return translateDBError(err)
	}
	log.Printf("[auth] admin %q created", username)
	return nil
}

// DeleteAccount removes username and revokes the token used to ask for it.
func (s *AuthService) DeleteAccount(ctx context.Context, username, token string) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return notFound(err, "User not found")
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}
	return s.Logout(ctx, token)
}
