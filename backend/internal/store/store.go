// Package store persists UniPulse documents. Every implementation validates
// records before writing and reports failures as *shared.Error values:
// NotFound for empty lookups, Conflict for duplicate natural keys and
// Upstream for database failures.
package store

import (
	"context"

	"unipulse/backend/internal/shared"
)

// Users persists accounts keyed by student_id
type Users interface {
	Insert(ctx context.Context, u *shared.User) error
	FindByStudentID(ctx context.Context, studentID string) (*shared.User, error)
	UpdatePassword(ctx context.Context, studentID, hash string) error
	// List returns accounts ordered by student_id; an empty role matches all
	List(ctx context.Context, role string) ([]shared.User, error)
	Count(ctx context.Context, role string) (int64, error)
}

// Sessions tracks issued tokens so they can be revoked
type Sessions interface {
	Insert(ctx context.Context, s *shared.Session) error
	Active(ctx context.Context, token string) (bool, error)
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// Attendance persists attendance records, unique per (student_id, subject, date)
type Attendance interface {
	Exists(ctx context.Context, studentID, subject, date string) (bool, error)
	Insert(ctx context.Context, rec *shared.AttendanceRecord) error
	// Find returns matching records, newest date first
	Find(ctx context.Context, f shared.AttendanceFilter) ([]shared.AttendanceRecord, error)
	Count(ctx context.Context) (int64, error)
}

// Results persists semester results, unique per (student_id, semester, academic_year)
type Results interface {
	Get(ctx context.Context, id string) (*shared.ResultRecord, error)
	FindByKey(ctx context.Context, studentID string, semester int, academicYear string) (*shared.ResultRecord, error)
	Insert(ctx context.Context, r *shared.ResultRecord) error
	Replace(ctx context.Context, r *shared.ResultRecord) error
	// Find returns matching results, latest academic year and semester first
	Find(ctx context.Context, f shared.ResultFilter) ([]shared.ResultRecord, error)
	Count(ctx context.Context) (int64, error)
}

// Timetable persists day schedules, unique per (student_id or common, day)
type Timetable interface {
	FindByKey(ctx context.Context, studentID, day string) (*shared.TimetableEntry, error)
	Insert(ctx context.Context, e *shared.TimetableEntry) error
	Replace(ctx context.Context, e *shared.TimetableEntry) error
	Find(ctx context.Context, f shared.TimetableFilter) ([]shared.TimetableEntry, error)
}

// PYQ persists previous-year question documents
type PYQ interface {
	Insert(ctx context.Context, p *shared.PYQDocument) error
	Get(ctx context.Context, id string) (*shared.PYQDocument, error)
	Delete(ctx context.Context, id string) error
	// Find returns matching documents, latest year and semester first
	Find(ctx context.Context, f shared.PYQFilter) ([]shared.PYQDocument, error)
	Subjects(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
}

// Store groups the per-collection stores
type Store struct {
	Users      Users
	Sessions   Sessions
	Attendance Attendance
	Results    Results
	Timetable  Timetable
	PYQ        PYQ
}
