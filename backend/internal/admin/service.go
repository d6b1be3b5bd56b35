// Package admin provides account management and system overview for admins.
package admin

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"unipulse/backend/internal/access"
	"unipulse/backend/internal/shared"
	"unipulse/backend/internal/store"
)

// Service implements the admin operations
type Service struct {
	store      *store.Store
	bcryptCost int
	logger     *zap.Logger
}

// NewService creates a new admin Service
func NewService(st *store.Store, bcryptCost int, logger *zap.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: st, bcryptCost: bcryptCost, logger: logger}
}

// SystemStats is a count of the main collections
type SystemStats struct {
	TotalStudents     int64 `json:"total_students"`
	TotalAdmins       int64 `json:"total_admins"`
	AttendanceRecords int64 `json:"attendance_records"`
	Results           int64 `json:"results"`
	PYQDocuments      int64 `json:"pyq_documents"`
}

// ResetResult carries the generated password back to the admin
type ResetResult struct {
	StudentID       string `json:"student_id"`
	InitialPassword string `json:"initial_password"`
}

// ListUsers returns accounts, optionally of one role
func (s *Service) ListUsers(ctx context.Context, caller access.Identity, role string) ([]shared.User, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if role != "" && role != shared.RoleStudent && role != shared.RoleAdmin {
		return nil, shared.Validation(fmt.Sprintf("role %q must be student or admin", role))
	}
	return s.store.Users.List(ctx, role)
}

// ResetPassword replaces a user's password with a random one and revokes
// their sessions.
func (s *Service) ResetPassword(ctx context.Context, caller access.Identity, studentID string) (*ResetResult, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}

	password, err := generateRandomPassword()
	if err != nil {
		return nil, shared.Internal("failed to generate password", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, shared.Internal("failed to process password", err)
	}

	if err := s.store.Users.UpdatePassword(ctx, studentID, string(hash)); err != nil {
		return nil, err
	}
	if _, err := s.store.Sessions.DeleteByUser(ctx, studentID); err != nil {
		s.logger.Warn("failed to revoke sessions", zap.String("student_id", studentID), zap.Error(err))
	}

	s.logger.Info("password reset", zap.String("student_id", studentID), zap.String("by", caller.StudentID))
	return &ResetResult{StudentID: studentID, InitialPassword: password}, nil
}

// Stats counts students, admins and stored documents
func (s *Service) Stats(ctx context.Context, caller access.Identity) (*SystemStats, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}

	var stats SystemStats
	counts := []struct {
		dst *int64
		fn  func(context.Context) (int64, error)
	}{
		{&stats.TotalStudents, func(ctx context.Context) (int64, error) { return s.store.Users.Count(ctx, shared.RoleStudent) }},
		{&stats.TotalAdmins, func(ctx context.Context) (int64, error) { return s.store.Users.Count(ctx, shared.RoleAdmin) }},
		{&stats.AttendanceRecords, s.store.Attendance.Count},
		{&stats.Results, s.store.Results.Count},
		{&stats.PYQDocuments, s.store.PYQ.Count},
	}
	for _, c := range counts {
		n, err := c.fn(ctx)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return &stats, nil
}

func generateRandomPassword() (string, error) {
	b := make([]byte, 9)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
