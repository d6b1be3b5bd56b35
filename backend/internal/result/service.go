// Package result publishes semester results and computes CGPA.
package result

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unipulse/backend/internal/access"
	"unipulse/backend/internal/shared"
	"unipulse/backend/internal/storage"
	"unipulse/backend/internal/store"
)

const fileSubdir = "results"

var allowedExtensions = map[string]bool{".pdf": true, ".png": true, ".jpg": true, ".jpeg": true}

// Service implements the result operations
type Service struct {
	results store.Results
	blob    storage.Blob
	logger  *zap.Logger
}

// NewService creates a new result Service
func NewService(results store.Results, blob storage.Blob, logger *zap.Logger) *Service {
	return &Service{results: results, blob: blob, logger: logger}
}

// UpsertInput carries a result upload. Subjects is a JSON array of
// {subject, grade, marks?, credits?}; an empty string means no subjects.
type UpsertInput struct {
	StudentID    string
	Semester     int
	AcademicYear string
	Subjects     string
	SGPA         *float64
	CGPA         *float64
	File         *storage.Upload
}

// Upsert creates the result for (student_id, semester, academic_year) or
// overwrites it in place. Without a new file the stored file_url is kept.
func (s *Service) Upsert(ctx context.Context, caller access.Identity, in UpsertInput) (*shared.ResultRecord, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}

	// 1. Build and validate the record before touching storage
	subjects, err := parseSubjects(in.Subjects)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	rec := &shared.ResultRecord{
		StudentID:    strings.TrimSpace(in.StudentID),
		Semester:     in.Semester,
		AcademicYear: strings.TrimSpace(in.AcademicYear),
		Subjects:     subjects,
		SGPA:         in.SGPA,
		CGPA:         in.CGPA,
		UploadedBy:   caller.StudentID,
		UploadedAt:   now,
		PublishedAt:  now,
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	// 2. Store the new file, if any
	var newURL string
	if in.File != nil {
		if !allowedExtensions[storage.Ext(in.File.Filename)] {
			return nil, shared.Validation("result file must be pdf, png or jpg")
		}
		newURL, _, err = s.blob.Store(ctx, in.File.Data, in.File.Filename, fileSubdir)
		if err != nil {
			return nil, err
		}
	}

	// 3. Write, keeping the existing id and file when present
	oldURL, err := s.write(ctx, rec, newURL)
	if err != nil {
		if newURL != "" {
			s.discard(ctx, newURL)
		}
		return nil, err
	}
	if newURL != "" && oldURL != "" && oldURL != newURL {
		s.discard(ctx, oldURL)
	}
	return rec, nil
}

// write inserts or replaces rec and returns the file URL it superseded
func (s *Service) write(ctx context.Context, rec *shared.ResultRecord, newURL string) (string, error) {
	existing, err := s.results.FindByKey(ctx, rec.StudentID, rec.Semester, rec.AcademicYear)
	switch {
	case err == nil:
	case shared.IsKind(err, shared.KindNotFound):
		rec.ID = uuid.NewString()
		rec.FileURL = newURL
		err = s.results.Insert(ctx, rec)
		if !shared.IsKind(err, shared.KindConflict) {
			return "", err
		}
		// Lost an insert race; overwrite the winner
		if existing, err = s.results.FindByKey(ctx, rec.StudentID, rec.Semester, rec.AcademicYear); err != nil {
			return "", err
		}
	default:
		return "", err
	}

	rec.ID = existing.ID
	rec.FileURL = existing.FileURL
	if newURL != "" {
		rec.FileURL = newURL
	}
	if err := s.results.Replace(ctx, rec); err != nil {
		return "", err
	}
	return existing.FileURL, nil
}

func (s *Service) discard(ctx context.Context, url string) {
	if err := s.blob.Delete(ctx, url); err != nil {
		s.logger.Warn("failed to delete result file", zap.String("file_url", url), zap.Error(err))
	}
}

func parseSubjects(raw string) ([]shared.SubjectGrade, error) {
	subjects := []shared.SubjectGrade{}
	if strings.TrimSpace(raw) == "" {
		return subjects, nil
	}
	if err := json.Unmarshal([]byte(raw), &subjects); err != nil {
		return nil, shared.Validation(fmt.Sprintf("subjects must be a JSON array of {subject, grade}: %v", err))
	}
	return subjects, nil
}

// List returns results newest first. Admins must name a student.
func (s *Service) List(ctx context.Context, caller access.Identity, studentID string, semester int) ([]shared.ResultRecord, error) {
	target, err := access.RequireTarget(caller, studentID)
	if err != nil {
		return nil, err
	}
	return s.results.Find(ctx, shared.ResultFilter{StudentID: target, Semester: semester})
}

// Get returns one result. Students may only read their own.
func (s *Service) Get(ctx context.Context, caller access.Identity, id string) (*shared.ResultRecord, error) {
	rec, err := s.results.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanRead(caller, rec.StudentID) {
		return nil, shared.AccessDenied("access denied")
	}
	return rec, nil
}

// CGPA rolls up every result of a student
func (s *Service) CGPA(ctx context.Context, caller access.Identity, studentID string) (*CGPAReport, error) {
	target, err := access.RequireTarget(caller, studentID)
	if err != nil {
		return nil, err
	}

	results, err := s.results.Find(ctx, shared.ResultFilter{StudentID: target})
	if err != nil {
		return nil, err
	}

	report := Rollup(target, results)
	return &report, nil
}
