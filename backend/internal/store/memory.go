package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"unipulse/backend/internal/shared"
)

// NewMemory returns a Store held in process memory. It enforces the same
// natural keys, validation and ordering as the MongoDB store.
func NewMemory() *Store {
	return &Store{
		Users:      &memUsers{byStudent: map[string]shared.User{}},
		Sessions:   &memSessions{byToken: map[string]shared.Session{}},
		Attendance: &memAttendance{},
		Results:    &memResults{},
		Timetable:  &memTimetable{},
		PYQ:        &memPYQ{},
	}
}

// ============================================================================
// Users
// ============================================================================

type memUsers struct {
	mu        sync.RWMutex
	byStudent map[string]shared.User
}

func (s *memUsers) Insert(_ context.Context, u *shared.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byStudent[u.StudentID]; ok {
		return shared.Conflict("user already exists")
	}
	s.byStudent[u.StudentID] = *u
	return nil
}

func (s *memUsers) FindByStudentID(_ context.Context, studentID string) (*shared.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byStudent[studentID]
	if !ok {
		return nil, shared.NotFound("user not found")
	}
	return &u, nil
}

func (s *memUsers) UpdatePassword(_ context.Context, studentID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byStudent[studentID]
	if !ok {
		return shared.NotFound("user not found")
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	s.byStudent[studentID] = u
	return nil
}

func (s *memUsers) List(_ context.Context, role string) ([]shared.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []shared.User{}
	for _, u := range s.byStudent {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (s *memUsers) Count(ctx context.Context, role string) (int64, error) {
	users, err := s.List(ctx, role)
	return int64(len(users)), err
}

// ============================================================================
// Sessions
// ============================================================================

type memSessions struct {
	mu      sync.RWMutex
	byToken map[string]shared.Session
}

func (s *memSessions) Insert(_ context.Context, sess *shared.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byToken[sess.Token] = *sess
	return nil
}

func (s *memSessions) Active(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.byToken[token]
	return ok && !sess.IsExpired(), nil
}

func (s *memSessions) DeleteByToken(_ context.Context, token string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byToken[token]; !ok {
		return 0, nil
	}
	delete(s.byToken, token)
	return 1, nil
}

func (s *memSessions) DeleteByUser(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for token, sess := range s.byToken {
		if sess.UserID == userID {
			delete(s.byToken, token)
			n++
		}
	}
	return n, nil
}

// ============================================================================
// Attendance
// ============================================================================

type memAttendance struct {
	mu      sync.RWMutex
	records []shared.AttendanceRecord
}

func (s *memAttendance) exists(studentID, subject, date string) bool {
	for _, r := range s.records {
		if r.StudentID == studentID && r.Subject == subject && r.Date == date {
			return true
		}
	}
	return false
}

func (s *memAttendance) Exists(_ context.Context, studentID, subject, date string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exists(studentID, subject, date), nil
}

func (s *memAttendance) Insert(_ context.Context, rec *shared.AttendanceRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exists(rec.StudentID, rec.Subject, rec.Date) {
		return shared.Conflict("attendance record already exists")
	}
	s.records = append(s.records, *rec)
	return nil
}

func (s *memAttendance) Find(_ context.Context, f shared.AttendanceFilter) ([]shared.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []shared.AttendanceRecord{}
	for _, r := range s.records {
		if f.StudentID != "" && r.StudentID != f.StudentID {
			continue
		}
		if f.Subject != "" && r.Subject != f.Subject {
			continue
		}
		if f.StartDate != "" && r.Date < f.StartDate {
			continue
		}
		if f.EndDate != "" && r.Date > f.EndDate {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if f.Limit > 0 && int64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *memAttendance) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// ============================================================================
// Results
// ============================================================================

type memResults struct {
	mu      sync.RWMutex
	results []shared.ResultRecord
}

func cloneResult(r shared.ResultRecord) shared.ResultRecord {
	r.Subjects = append([]shared.SubjectGrade(nil), r.Subjects...)
	return r
}

func (s *memResults) Get(_ context.Context, id string) (*shared.ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.results {
		if r.ID == id {
			c := cloneResult(r)
			return &c, nil
		}
	}
	return nil, shared.NotFound("result not found")
}

func (s *memResults) FindByKey(_ context.Context, studentID string, semester int, academicYear string) (*shared.ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.results {
		if r.StudentID == studentID && r.Semester == semester && r.AcademicYear == academicYear {
			c := cloneResult(r)
			return &c, nil
		}
	}
	return nil, shared.NotFound("result not found")
}

func (s *memResults) Insert(_ context.Context, r *shared.ResultRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.results {
		if existing.ID == r.ID || (existing.StudentID == r.StudentID && existing.Semester == r.Semester && existing.AcademicYear == r.AcademicYear) {
			return shared.Conflict("result already exists")
		}
	}
	s.results = append(s.results, cloneResult(*r))
	return nil
}

func (s *memResults) Replace(_ context.Context, r *shared.ResultRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.results {
		if existing.ID == r.ID {
			s.results[i] = cloneResult(*r)
			return nil
		}
	}
	return shared.NotFound("result not found")
}

func (s *memResults) Find(_ context.Context, f shared.ResultFilter) ([]shared.ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []shared.ResultRecord{}
	for _, r := range s.results {
		if f.StudentID != "" && r.StudentID != f.StudentID {
			continue
		}
		if f.Semester > 0 && r.Semester != f.Semester {
			continue
		}
		out = append(out, cloneResult(r))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AcademicYear != out[j].AcademicYear {
			return out[i].AcademicYear > out[j].AcademicYear
		}
		return out[i].Semester > out[j].Semester
	})
	return out, nil
}

func (s *memResults) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.results)), nil
}

// ============================================================================
// Timetable
// ============================================================================

type memTimetable struct {
	mu      sync.RWMutex
	entries []shared.TimetableEntry
}

func cloneEntry(e shared.TimetableEntry) shared.TimetableEntry {
	e.TimeSlots = append([]shared.TimeSlot(nil), e.TimeSlots...)
	return e
}

func (s *memTimetable) FindByKey(_ context.Context, studentID, day string) (*shared.TimetableEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.StudentID == studentID && e.Day == day {
			c := cloneEntry(e)
			return &c, nil
		}
	}
	return nil, shared.NotFound("timetable entry not found")
}

func (s *memTimetable) Insert(_ context.Context, e *shared.TimetableEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.entries {
		if existing.StudentID == e.StudentID && existing.Day == e.Day {
			return shared.Conflict("timetable entry already exists")
		}
	}
	s.entries = append(s.entries, cloneEntry(*e))
	return nil
}

func (s *memTimetable) Replace(_ context.Context, e *shared.TimetableEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.entries {
		if existing.ID == e.ID {
			s.entries[i] = cloneEntry(*e)
			return nil
		}
	}
	return shared.NotFound("timetable entry not found")
}

func (s *memTimetable) Find(_ context.Context, f shared.TimetableFilter) ([]shared.TimetableEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []shared.TimetableEntry{}
	for _, e := range s.entries {
		owned := f.StudentID != "" && e.StudentID == f.StudentID
		common := e.IsCommon() && (f.StudentID == "" || f.IncludeCommon)
		if !owned && !common {
			continue
		}
		if f.Day != "" && e.Day != f.Day {
			continue
		}
		out = append(out, cloneEntry(e))
	}
	SortTimetable(out)
	return out, nil
}

// ============================================================================
// PYQ
// ============================================================================

type memPYQ struct {
	mu   sync.RWMutex
	docs []shared.PYQDocument
}

func (s *memPYQ) Insert(_ context.Context, p *shared.PYQDocument) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, *p)
	return nil
}

func (s *memPYQ) Get(_ context.Context, id string) (*shared.PYQDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.docs {
		if p.ID == id {
			doc := p
			return &doc, nil
		}
	}
	return nil, shared.NotFound("pyq not found")
}

func (s *memPYQ) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.docs {
		if p.ID == id {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			return nil
		}
	}
	return shared.NotFound("pyq not found")
}

func (s *memPYQ) Find(_ context.Context, f shared.PYQFilter) ([]shared.PYQDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []shared.PYQDocument{}
	for _, p := range s.docs {
		if f.Subject != "" && p.Subject != f.Subject {
			continue
		}
		if f.Semester > 0 && p.Semester != f.Semester {
			continue
		}
		if f.Year > 0 && p.Year != f.Year {
			continue
		}
		if f.ExamType != "" && p.ExamType != f.ExamType {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Semester > out[j].Semester
	})
	return out, nil
}

func (s *memPYQ) Subjects(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]bool{}
	subjects := []string{}
	for _, p := range s.docs {
		if !seen[p.Subject] {
			seen[p.Subject] = true
			subjects = append(subjects, p.Subject)
		}
	}
	sort.Strings(subjects)
	return subjects, nil
}

func (s *memPYQ) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.docs)), nil
}
