// Package timetable manages common and per-student weekly schedules.
package timetable

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unipulse/backend/internal/access"
	"unipulse/backend/internal/shared"
	"unipulse/backend/internal/store"
)

// Service implements the timetable operations
type Service struct {
	entries store.Timetable
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a new timetable Service
func NewService(entries store.Timetable, logger *zap.Logger) *Service {
	return &Service{entries: entries, logger: logger, now: time.Now}
}

// UpsertInput is the schedule of one day. An empty StudentID targets the
// common schedule.
type UpsertInput struct {
	StudentID string            `json:"student_id"`
	Day       string            `json:"day" validate:"required,weekday"`
	TimeSlots []shared.TimeSlot `json:"time_slots" validate:"dive"`
}

// Week is the resolved weekly schedule
type Week struct {
	Timetable []DaySchedule `json:"timetable"`
}

// Upsert creates or replaces the entry for (student_id or common, day),
// keeping the original created_at.
func (s *Service) Upsert(ctx context.Context, caller access.Identity, in UpsertInput) (*shared.TimetableEntry, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	entry := &shared.TimetableEntry{
		StudentID: strings.TrimSpace(in.StudentID),
		Day:       in.Day,
		TimeSlots: in.TimeSlots,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if entry.TimeSlots == nil {
		entry.TimeSlots = []shared.TimeSlot{}
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.entries.FindByKey(ctx, entry.StudentID, entry.Day)
	switch {
	case err == nil:
	case shared.IsKind(err, shared.KindNotFound):
		entry.ID = uuid.NewString()
		err = s.entries.Insert(ctx, entry)
		if !shared.IsKind(err, shared.KindConflict) {
			if err != nil {
				return nil, err
			}
			return entry, nil
		}
		// Lost an insert race; overwrite the winner
		if existing, err = s.entries.FindByKey(ctx, entry.StudentID, entry.Day); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	entry.ID = existing.ID
	entry.CreatedAt = existing.CreatedAt
	if err := s.entries.Replace(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns the entries visible to the caller in weekday order. Students
// get their own plus the common schedule; admins get studentID's plus the
// common schedule, or only the common schedule when studentID is empty.
func (s *Service) List(ctx context.Context, caller access.Identity, studentID, day string) ([]shared.TimetableEntry, error) {
	target, err := access.ResolveTarget(caller, studentID)
	if err != nil {
		return nil, err
	}
	if day != "" && shared.WeekdayIndex(day) < 0 {
		return nil, shared.Validation("day must be one of " + strings.Join(shared.Weekdays, ", "))
	}

	return s.entries.Find(ctx, shared.TimetableFilter{
		StudentID:     target,
		IncludeCommon: true,
		Day:           day,
	})
}

// CurrentWeek resolves the caller's week. Admins see the common week unless
// they name a student.
func (s *Service) CurrentWeek(ctx context.Context, caller access.Identity, studentID string) (*Week, error) {
	target, err := access.ResolveTarget(caller, studentID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries.Find(ctx, shared.TimetableFilter{StudentID: target, IncludeCommon: true})
	if err != nil {
		return nil, err
	}
	return &Week{Timetable: ResolveWeek(entries, target)}, nil
}
