// Package auth issues and verifies access tokens for UniPulse accounts.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"unipulse/backend/internal/access"
	"unipulse/backend/internal/shared"
	"unipulse/backend/internal/store"
)

const tokenType = "bearer"

// Service implements account, login and session operations
type Service struct {
	users    store.Users
	sessions store.Sessions
	config   shared.SecurityConfig
	logger   *zap.Logger
	now      func() time.Time
}

// CustomClaims for JWT. Subject carries the student_id.
type CustomClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewService creates a new auth Service
func NewService(users store.Users, sessions store.Sessions, config shared.SecurityConfig, logger *zap.Logger) *Service {
	if config.BCryptCost == 0 {
		config.BCryptCost = bcrypt.DefaultCost
	}
	return &Service{users: users, sessions: sessions, config: config, logger: logger, now: time.Now}
}

// RegisterInput is a self-service sign-up
type RegisterInput struct {
	StudentID string `json:"student_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

// CreateUserInput is an admin-created account of any role
type CreateUserInput struct {
	RegisterInput
	Role string `json:"role" validate:"required,oneof=student admin"`
}

// LoginInput holds login credentials
type LoginInput struct {
	StudentID string `json:"student_id" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

// ChangePasswordInput holds a password change request
type ChangePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// LoginResult is returned by a successful login
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *shared.User `json:"user"`
}

// Register creates a student account. The role is always student.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*shared.User, error) {
	return s.createUser(ctx, in, shared.RoleStudent)
}

// CreateUser lets an admin create an account with any role
func (s *Service) CreateUser(ctx context.Context, caller access.Identity, in CreateUserInput) (*shared.User, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}
	return s.createUser(ctx, in.RegisterInput, in.Role)
}

func (s *Service) createUser(ctx context.Context, in RegisterInput, role string) (*shared.User, error) {
	if in.Password == "" {
		return nil, shared.Validation("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.config.BCryptCost)
	if err != nil {
		return nil, shared.Internal("failed to process password", err)
	}

	now := s.now().UTC()
	user := &shared.User{
		ID:           uuid.NewString(),
		StudentID:    strings.TrimSpace(in.StudentID),
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if shared.IsKind(err, shared.KindConflict) {
			return nil, shared.Conflict("student ID already registered")
		}
		return nil, err
	}

	s.logger.Info("user created", zap.String("student_id", user.StudentID), zap.String("role", user.Role))
	return user, nil
}

// Login verifies credentials and opens a session
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if in.StudentID == "" || in.Password == "" {
		return nil, shared.Validation("student_id and password are required")
	}

	// 1. Find user
	user, err := s.users.FindByStudentID(ctx, in.StudentID)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			return nil, shared.Unauthenticated("invalid student ID or password")
		}
		return nil, err
	}

	// 2. Check password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, shared.Unauthenticated("invalid student ID or password")
	}

	// 3. Sign token
	token, expiresAt, err := s.generateToken(user.StudentID, user.Role)
	if err != nil {
		return nil, shared.Internal("failed to generate token", err)
	}

	// 4. Record session for server-side revocation
	session := &shared.Session{
		ID:        uuid.NewString(),
		UserID:    user.StudentID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: s.now().UTC(),
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		return nil, err
	}

	return &LoginResult{AccessToken: token, TokenType: tokenType, ExpiresAt: expiresAt, User: user}, nil
}

// ValidateToken checks the signature, the session and the account behind
// token and returns the caller identity.
func (s *Service) ValidateToken(ctx context.Context, token string) (access.Identity, error) {
	if token == "" {
		return access.Identity{}, shared.Unauthenticated("token missing")
	}

	// 1. Signature and expiry
	claims, err := s.parseToken(token)
	if err != nil {
		return access.Identity{}, shared.Unauthenticated("invalid or expired token")
	}

	// 2. Revocation
	active, err := s.sessions.Active(ctx, token)
	if err != nil {
		return access.Identity{}, err
	}
	if !active {
		return access.Identity{}, shared.Unauthenticated("session expired or revoked")
	}

	// 3. Account still exists; role comes from the stored user
	user, err := s.users.FindByStudentID(ctx, claims.Subject)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			return access.Identity{}, shared.Unauthenticated("user not found")
		}
		return access.Identity{}, err
	}

	return access.Identity{StudentID: user.StudentID, Role: user.Role}, nil
}

// Me returns the caller's account
func (s *Service) Me(ctx context.Context, caller access.Identity) (*shared.User, error) {
	return s.users.FindByStudentID(ctx, caller.StudentID)
}

// Logout revokes the session of token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return shared.Validation("token is required")
	}
	n, err := s.sessions.DeleteByToken(ctx, token)
	if err != nil {
		return err
	}
	if n == 0 {
		s.logger.Debug("logout for unknown session")
	}
	return nil
}

// ChangePassword replaces the caller's password and revokes every session
func (s *Service) ChangePassword(ctx context.Context, caller access.Identity, in ChangePasswordInput) error {
	if in.OldPassword == "" || in.NewPassword == "" {
		return shared.Validation("old_password and new_password are required")
	}

	// 1. Fetch user
	user, err := s.users.FindByStudentID(ctx, caller.StudentID)
	if err != nil {
		return err
	}

	// 2. Verify old password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.OldPassword)); err != nil {
		return shared.Validation("incorrect old password")
	}

	// 3. Hash and store new password
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.config.BCryptCost)
	if err != nil {
		return shared.Internal("failed to process password", err)
	}
	if err := s.users.UpdatePassword(ctx, user.StudentID, string(hash)); err != nil {
		return err
	}

	// 4. Force logout everywhere
	n, err := s.sessions.DeleteByUser(ctx, user.StudentID)
	if err != nil {
		s.logger.Warn("failed to revoke sessions", zap.String("student_id", user.StudentID), zap.Error(err))
		return nil
	}
	s.logger.Info("password changed", zap.String("student_id", user.StudentID), zap.Int64("sessions_revoked", n))
	return nil
}

// ============================================================================
// Internal Helpers
// ============================================================================

// generateToken creates a signed JWT for studentID
func (s *Service) generateToken(studentID, role string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.config.TokenLifetime)

	claims := CustomClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: studentID,
			// jti keeps tokens unique even when issued in the same second
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "unipulse",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	return signed, expiresAt, err
}

// parseToken validates the JWT signature and extracts claims
func (s *Service) parseToken(tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
