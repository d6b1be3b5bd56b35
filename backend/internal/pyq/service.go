// Package pyq stores previous-year question papers.
package pyq

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unipulse/backend/internal/access"
	"unipulse/backend/internal/shared"
	"unipulse/backend/internal/storage"
	"unipulse/backend/internal/store"
)

const fileSubdir = "pyq"

var allowedExtensions = map[string]bool{".pdf": true, ".doc": true, ".docx": true}

// Service implements the PYQ operations
type Service struct {
	docs   store.PYQ
	blob   storage.Blob
	logger *zap.Logger
}

// NewService creates a new PYQ Service
func NewService(docs store.PYQ, blob storage.Blob, logger *zap.Logger) *Service {
	return &Service{docs: docs, blob: blob, logger: logger}
}

// UploadInput carries the metadata of an uploaded paper
type UploadInput struct {
	Subject  string
	Semester int
	Year     int
	ExamType string
	File     *storage.Upload
}

// Upload stores the file and records the document. The file is removed
// again if the document cannot be written.
func (s *Service) Upload(ctx context.Context, caller access.Identity, in UploadInput) (*shared.PYQDocument, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if in.File == nil || len(in.File.Data) == 0 {
		return nil, shared.Validation("file is required")
	}
	if !allowedExtensions[storage.Ext(in.File.Filename)] {
		return nil, shared.Validation("only PDF and DOC files are allowed")
	}

	doc := &shared.PYQDocument{
		ID:         uuid.NewString(),
		Subject:    strings.TrimSpace(in.Subject),
		Semester:   in.Semester,
		Year:       in.Year,
		ExamType:   strings.ToLower(strings.TrimSpace(in.ExamType)),
		UploadedBy: caller.StudentID,
		UploadedAt: time.Now().UTC(),
	}
	if doc.Subject == "" || doc.ExamType == "" {
		return nil, shared.Validation("subject and exam_type are required")
	}
	if doc.Semester <= 0 || doc.Year <= 0 {
		return nil, shared.Validation("semester and year must be positive")
	}

	url, name, err := s.blob.Store(ctx, in.File.Data, in.File.Filename, fileSubdir)
	if err != nil {
		return nil, err
	}
	doc.FileURL = url
	doc.FileName = name

	if err := s.docs.Insert(ctx, doc); err != nil {
		if delErr := s.blob.Delete(ctx, url); delErr != nil {
			s.logger.Warn("failed to remove orphaned pyq file", zap.String("file_url", url), zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("pyq uploaded",
		zap.String("id", doc.ID),
		zap.String("subject", doc.Subject),
		zap.Int("year", doc.Year))
	return doc, nil
}

// List returns matching papers, latest year and semester first
func (s *Service) List(ctx context.Context, f shared.PYQFilter) ([]shared.PYQDocument, error) {
	f.Subject = strings.TrimSpace(f.Subject)
	f.ExamType = strings.ToLower(strings.TrimSpace(f.ExamType))
	return s.docs.Find(ctx, f)
}

// Subjects returns the distinct subjects that have papers
func (s *Service) Subjects(ctx context.Context) ([]string, error) {
	return s.docs.Subjects(ctx)
}

// Get returns one paper
func (s *Service) Get(ctx context.Context, id string) (*shared.PYQDocument, error) {
	return s.docs.Get(ctx, id)
}

// Delete removes the document, then its file. A failed file removal is
// logged and does not fail the call.
func (s *Service) Delete(ctx context.Context, caller access.Identity, id string) error {
	if err := access.RequireAdmin(caller); err != nil {
		return err
	}

	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.blob.Delete(ctx, doc.FileURL); err != nil {
		s.logger.Warn("failed to delete pyq file",
			zap.String("id", id),
			zap.String("file_url", doc.FileURL),
			zap.Error(err))
	}
	return nil
}
