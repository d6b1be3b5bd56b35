// ============================================================================
// backend/internal/shared/models.go
// Shared data models for MongoDB documents
// ============================================================================

package shared

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ============================================================================
// User Models
// ============================================================================

// User represents an account. StudentID is the natural key for every role.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	StudentID    string    `bson:"student_id" json:"student_id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email,omitempty" json:"email,omitempty"`
	Role         string    `bson:"role" json:"role"`       // student, admin
	PasswordHash string    `bson:"password_hash" json:"-"` // Never expose in JSON
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// Session represents an issued token that has not been revoked
type Session struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"` // student_id of the owner
	Token     string    `bson:"token" json:"token"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// IsExpired checks if a session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// ============================================================================
// Attendance Models
// ============================================================================

// AttendanceRecord is one class-day mark for a student in a subject.
// Date is stored as YYYY-MM-DD so that range filters compare lexically.
type AttendanceRecord struct {
	ID        string    `bson:"_id" json:"id"`
	StudentID string    `bson:"student_id" json:"student_id"`
	Subject   string    `bson:"subject" json:"subject"`
	Date      string    `bson:"date" json:"date"`
	Status    string    `bson:"status" json:"status"` // present, absent
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// AttendanceFilter narrows attendance queries. Empty fields are ignored.
type AttendanceFilter struct {
	StudentID string
	Subject   string
	StartDate string
	EndDate   string
	Limit     int64
}

// ============================================================================
// Result Models
// ============================================================================

// SubjectGrade is one line of a semester result
type SubjectGrade struct {
	Subject string   `bson:"subject" json:"subject" validate:"required"`
	Grade   string   `bson:"grade" json:"grade" validate:"required"`
	Marks   *float64 `bson:"marks,omitempty" json:"marks,omitempty"`
	Credits *float64 `bson:"credits,omitempty" json:"credits,omitempty"`
}

// ResultRecord is a published semester result
type ResultRecord struct {
	ID           string         `bson:"_id" json:"id"`
	StudentID    string         `bson:"student_id" json:"student_id"`
	Semester     int            `bson:"semester" json:"semester"`
	AcademicYear string         `bson:"academic_year" json:"academic_year"` // e.g. "2023-24"
	Subjects     []SubjectGrade `bson:"subjects" json:"subjects"`
	SGPA         *float64       `bson:"sgpa" json:"sgpa"`
	CGPA         *float64       `bson:"cgpa" json:"cgpa"`
	FileURL      string         `bson:"file_url,omitempty" json:"file_url,omitempty"`
	UploadedBy   string         `bson:"uploaded_by" json:"uploaded_by"`
	UploadedAt   time.Time      `bson:"uploaded_at" json:"uploaded_at"`
	PublishedAt  time.Time      `bson:"published_at" json:"published_at"`
}

// ResultFilter narrows result queries
type ResultFilter struct {
	StudentID string
	Semester  int
}

// ============================================================================
// Timetable Models
// ============================================================================

// TimeSlot is one class period within a day
type TimeSlot struct {
	StartTime string `bson:"start_time" json:"start_time" validate:"required,hhmm"`
	EndTime   string `bson:"end_time" json:"end_time" validate:"required,hhmm"`
	Subject   string `bson:"subject" json:"subject" validate:"required"`
	Faculty   string `bson:"faculty,omitempty" json:"faculty,omitempty"`
	Room      string `bson:"room,omitempty" json:"room,omitempty"`
}

// TimetableEntry is the schedule of a single day. An empty StudentID marks
// the common schedule shared by every student.
type TimetableEntry struct {
	ID        string     `bson:"_id" json:"id"`
	StudentID string     `bson:"student_id,omitempty" json:"student_id,omitempty"`
	Day       string     `bson:"day" json:"day"`
	TimeSlots []TimeSlot `bson:"time_slots" json:"time_slots"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// IsCommon reports whether the entry belongs to the common schedule
func (t *TimetableEntry) IsCommon() bool {
	return t.StudentID == ""
}

// TimetableFilter selects entries for listing. When IncludeCommon is set the
// common schedule is returned alongside StudentID's entries.
type TimetableFilter struct {
	StudentID     string
	IncludeCommon bool
	Day           string
}

// ============================================================================
// PYQ Models
// ============================================================================

// PYQDocument is a previous-year question paper
type PYQDocument struct {
	ID         string    `bson:"_id" json:"id"`
	Subject    string    `bson:"subject" json:"subject"`
	Semester   int       `bson:"semester" json:"semester"`
	Year       int       `bson:"year" json:"year"`
	ExamType   string    `bson:"exam_type" json:"exam_type"` // midterm, final, quiz
	FileURL    string    `bson:"file_url" json:"file_url"`
	FileName   string    `bson:"file_name" json:"file_name"`
	UploadedBy string    `bson:"uploaded_by" json:"uploaded_by"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

// PYQFilter narrows PYQ queries
type PYQFilter struct {
	Subject  string
	Semester int
	Year     int
	ExamType string
}

// ============================================================================
// Validation Constants
// ============================================================================

const (
	// User roles
	RoleStudent = "student"
	RoleAdmin   = "admin"

	// Attendance statuses
	StatusPresent = "present"
	StatusAbsent  = "absent"

	// DateLayout is the storage format of attendance dates
	DateLayout = "2006-01-02"

	// Collections
	CollectionUsers      = "users"
	CollectionSessions   = "sessions"
	CollectionAttendance = "attendance"
	CollectionResults    = "results"
	CollectionTimetable  = "timetable"
	CollectionPYQ        = "pyq"
)

// Weekdays is the fixed domain of timetable days, in display order
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayIndex returns the position of day in Weekdays, or -1
func WeekdayIndex(day string) int {
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return -1
}

var hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// IsHHMM checks the "HH:MM" 24-hour format used by time slots
func IsHHMM(s string) bool {
	return hhmmPattern.MatchString(s)
}

// ============================================================================
// Store Boundary Validation
// ============================================================================

// Validate checks an attendance record before it is written
func (a *AttendanceRecord) Validate() error {
	if strings.TrimSpace(a.StudentID) == "" {
		return Validation("student_id is required")
	}
	if strings.TrimSpace(a.Subject) == "" {
		return Validation("subject is required")
	}
	if _, err := time.Parse(DateLayout, a.Date); err != nil {
		return Validation(fmt.Sprintf("date %q must be in YYYY-MM-DD format", a.Date))
	}
	if a.Status != StatusPresent && a.Status != StatusAbsent {
		return Validation(fmt.Sprintf("status %q must be present or absent", a.Status))
	}
	return nil
}

// Validate checks a result record before it is written
func (r *ResultRecord) Validate() error {
	if strings.TrimSpace(r.StudentID) == "" {
		return Validation("student_id is required")
	}
	if r.Semester <= 0 {
		return Validation("semester must be a positive integer")
	}
	if strings.TrimSpace(r.AcademicYear) == "" {
		return Validation("academic_year is required")
	}
	for i, s := range r.Subjects {
		if s.Subject == "" || s.Grade == "" {
			return Validation(fmt.Sprintf("subjects[%d] needs subject and grade", i))
		}
	}
	return nil
}

// Validate checks a timetable entry before it is written
func (t *TimetableEntry) Validate() error {
	if WeekdayIndex(t.Day) < 0 {
		return Validation(fmt.Sprintf("day %q must be one of %s", t.Day, strings.Join(Weekdays, ", ")))
	}
	for i, slot := range t.TimeSlots {
		if !IsHHMM(slot.StartTime) || !IsHHMM(slot.EndTime) {
			return Validation(fmt.Sprintf("time_slots[%d] times must be HH:MM", i))
		}
		if slot.StartTime >= slot.EndTime {
			return Validation(fmt.Sprintf("time_slots[%d] must start before it ends", i))
		}
		if slot.Subject == "" {
			return Validation(fmt.Sprintf("time_slots[%d] subject is required", i))
		}
	}
	return nil
}

// Validate checks a PYQ document before it is written
func (p *PYQDocument) Validate() error {
	if p.Subject == "" || p.ExamType == "" {
		return Validation("subject and exam_type are required")
	}
	if p.Semester <= 0 || p.Year <= 0 {
		return Validation("semester and year must be positive")
	}
	if p.FileURL == "" {
		return Validation("file_url is required")
	}
	return nil
}

// Validate checks a user before it is written
func (u *User) Validate() error {
	if strings.TrimSpace(u.StudentID) == "" || strings.TrimSpace(u.Name) == "" {
		return Validation("student_id and name are required")
	}
	if u.Role != RoleStudent && u.Role != RoleAdmin {
		return Validation(fmt.Sprintf("role %q must be student or admin", u.Role))
	}
	if u.PasswordHash == "" {
		return Validation("password hash is required")
	}
	return nil
}
