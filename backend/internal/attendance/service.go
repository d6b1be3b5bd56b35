// Package attendance records class attendance and reports on it.
package attendance

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unipulse/backend/internal/access"
	"unipulse/backend/internal/metrics"
	"unipulse/backend/internal/shared"
	"unipulse/backend/internal/store"
)

// ListLimit caps the records returned by List
const ListLimit = 100

// Service implements the attendance operations
type Service struct {
	records store.Attendance
	logger  *zap.Logger
}

// NewService creates a new attendance Service
func NewService(records store.Attendance, logger *zap.Logger) *Service {
	return &Service{records: records, logger: logger}
}

// RecordInput is a single attendance mark
type RecordInput struct {
	StudentID string `json:"student_id" validate:"required"`
	Subject   string `json:"subject" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Status    string `json:"status" validate:"required"`
}

// BulkReport summarizes a CSV upload. Total counts rows that parsed.
type BulkReport struct {
	Message  string `json:"message"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
	Total    int    `json:"total"`
}

// ListQuery filters List. Dates are inclusive YYYY-MM-DD bounds.
type ListQuery struct {
	StudentID string
	Subject   string
	StartDate string
	EndDate   string
}

// Stats is the overall tally for one student
type Stats struct {
	StudentID string `json:"student_id"`
	Subject   string `json:"subject,omitempty"`
	Tally
}

// SubjectStats is the tally of one subject
type SubjectStats struct {
	Subject string `json:"subject"`
	Tally
}

// SubjectWise lists per-subject tallies sorted by subject
type SubjectWise struct {
	StudentID string         `json:"student_id"`
	Subjects  []SubjectStats `json:"subjects"`
}

// Record stores one attendance mark. A second mark for the same student,
// subject and date is a Conflict.
func (s *Service) Record(ctx context.Context, caller access.Identity, in RecordInput) (*shared.AttendanceRecord, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}

	// 1. Normalize input
	date, ok := ParseDate(in.Date)
	if !ok {
		return nil, shared.Validation(fmt.Sprintf("invalid date %q", in.Date))
	}
	status, ok := StrictStatus(in.Status)
	if !ok {
		return nil, shared.Validation(fmt.Sprintf("status %q must be present or absent", in.Status))
	}
	studentID := strings.TrimSpace(in.StudentID)
	subject := strings.TrimSpace(in.Subject)

	// 2. Reject duplicates
	exists, err := s.records.Exists(ctx, studentID, subject, date)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.Conflict("attendance already marked for this date")
	}

	// 3. Insert
	rec := &shared.AttendanceRecord{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Subject:   subject,
		Date:      date,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.records.Insert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// BulkUpload ingests a CSV file. Rows already on record, including rows
// inserted earlier in the same file, are skipped. A store failure aborts the
// upload; rows inserted before it stay.
func (s *Service) BulkUpload(ctx context.Context, caller access.Identity, filename string, data []byte) (*BulkReport, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, shared.Validation("only CSV files are allowed")
	}

	rows, rejected, err := ParseCSV(data)
	metrics.IngestRows.WithLabelValues(metrics.OutcomeRejected).Add(float64(rejected))
	if err != nil {
		return nil, err
	}

	report := &BulkReport{Total: len(rows)}
	for _, row := range rows {
		inserted, err := s.ingest(ctx, row)
		if err != nil {
			s.logger.Error("bulk attendance upload aborted",
				zap.String("file", filename),
				zap.Int("inserted", report.Inserted),
				zap.Error(err),
			)
			return nil, err
		}
		if inserted {
			report.Inserted++
			metrics.IngestRows.WithLabelValues(metrics.OutcomeInserted).Inc()
		} else {
			report.Skipped++
			metrics.IngestRows.WithLabelValues(metrics.OutcomeSkipped).Inc()
		}
	}

	report.Message = fmt.Sprintf("Successfully uploaded %d records", report.Inserted)
	s.logger.Info("bulk attendance upload",
		zap.String("file", filename),
		zap.Int("inserted", report.Inserted),
		zap.Int("skipped", report.Skipped),
		zap.Int("rejected", rejected),
	)
	return report, nil
}

func (s *Service) ingest(ctx context.Context, row Row) (bool, error) {
	exists, err := s.records.Exists(ctx, row.StudentID, row.Subject, row.Date)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	err = s.records.Insert(ctx, &shared.AttendanceRecord{
		ID:        uuid.NewString(),
		StudentID: row.StudentID,
		Subject:   row.Subject,
		Date:      row.Date,
		Status:    row.Status,
		CreatedAt: time.Now().UTC(),
	})
	if shared.IsKind(err, shared.KindConflict) {
		return false, nil
	}
	return err == nil, err
}

// List returns up to ListLimit records, newest first. Students only see
// their own; admins may leave StudentID empty to see everyone.
func (s *Service) List(ctx context.Context, caller access.Identity, q ListQuery) ([]shared.AttendanceRecord, error) {
	target, err := access.ResolveTarget(caller, q.StudentID)
	if err != nil {
		return nil, err
	}

	filter := shared.AttendanceFilter{
		StudentID: target,
		Subject:   q.Subject,
		Limit:     ListLimit,
	}
	if filter.StartDate, err = boundDate("start_date", q.StartDate); err != nil {
		return nil, err
	}
	if filter.EndDate, err = boundDate("end_date", q.EndDate); err != nil {
		return nil, err
	}

	return s.records.Find(ctx, filter)
}

func boundDate(name, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if _, err := time.Parse(shared.DateLayout, value); err != nil {
		return "", shared.Validation(fmt.Sprintf("%s must be in YYYY-MM-DD format", name))
	}
	return value, nil
}

// Stats tallies a student's attendance, optionally for one subject
func (s *Service) Stats(ctx context.Context, caller access.Identity, studentID, subject string) (*Stats, error) {
	target, err := access.RequireTarget(caller, studentID)
	if err != nil {
		return nil, err
	}

	records, err := s.records.Find(ctx, shared.AttendanceFilter{StudentID: target, Subject: subject})
	if err != nil {
		return nil, err
	}

	return &Stats{StudentID: target, Subject: subject, Tally: Aggregate(records)}, nil
}

// SubjectWise tallies each subject a student has records for
func (s *Service) SubjectWise(ctx context.Context, caller access.Identity, studentID string) (*SubjectWise, error) {
	target, err := access.RequireTarget(caller, studentID)
	if err != nil {
		return nil, err
	}

	records, err := s.records.Find(ctx, shared.AttendanceFilter{StudentID: target})
	if err != nil {
		return nil, err
	}

	return &SubjectWise{StudentID: target, Subjects: sortedSubjects(AggregateBySubject(records))}, nil
}

func sortedSubjects(bySubject map[string]Tally) []SubjectStats {
	out := make([]SubjectStats, 0, len(bySubject))
	for subject, t := range bySubject {
		out = append(out, SubjectStats{Subject: subject, Tally: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out
}
