package timetable

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"unipulse/backend/internal/access"
	"unipulse/backend/internal/shared"
	"unipulse/backend/internal/store"
)

var (
	admin   = access.Identity{StudentID: "ADMIN", Role: shared.RoleAdmin}
	student = access.Identity{StudentID: "S1", Role: shared.RoleStudent}
)

func newTestService(t *testing.T) *Service {
	svc := NewService(store.NewMemory().Timetable, zaptest.NewLogger(t))
	// Thursday, 2024-03-14
	svc.now = func() time.Time { return time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC) }
	return svc
}

func seed(t *testing.T, svc *Service) {
	inputs := []UpsertInput{
		{Day: "Monday", TimeSlots: []shared.TimeSlot{{StartTime: "09:00", EndTime: "10:00", Subject: "Math", Room: "A1"}}},
		{Day: "Tuesday", TimeSlots: []shared.TimeSlot{{StartTime: "11:00", EndTime: "12:00", Subject: "Physics"}}},
		{StudentID: "S1", Day: "Monday", TimeSlots: []shared.TimeSlot{
			{StartTime: "08:00", EndTime: "09:00", Subject: "Lab", Faculty: "Dr. Rao"},
			{StartTime: "10:00", EndTime: "11:00", Subject: "Math"},
		}},
		{StudentID: "S2", Day: "Friday", TimeSlots: []shared.TimeSlot{{StartTime: "09:00", EndTime: "10:00", Subject: "Art"}}},
	}
	for _, in := range inputs {
		if _, err := svc.Upsert(context.Background(), admin, in); err != nil {
			t.Fatalf("seed %+v failed: %v", in, err)
		}
	}
}

func TestService_Upsert(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, admin, UpsertInput{Day: "Monday", TimeSlots: []shared.TimeSlot{{StartTime: "09:00", EndTime: "10:00", Subject: "Math"}}})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	t.Run("Replace Keeps Id And CreatedAt", func(t *testing.T) {
		later := svc.now().Add(time.Hour)
		svc.now = func() time.Time { return later }

		second, err := svc.Upsert(ctx, admin, UpsertInput{Day: "Monday", TimeSlots: []shared.TimeSlot{{StartTime: "13:00", EndTime: "14:00", Subject: "Chem"}}})
		if err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		if second.ID != first.ID || !second.CreatedAt.Equal(first.CreatedAt) {
			t.Errorf("Expected id and created_at kept, got %+v vs %+v", second, first)
		}
		if !second.UpdatedAt.After(first.UpdatedAt) {
			t.Errorf("Expected updated_at to advance")
		}

		all, _ := svc.List(ctx, admin, "", "Monday")
		if len(all) != 1 || all[0].TimeSlots[0].Subject != "Chem" {
			t.Errorf("Expected one replaced Monday entry, got %+v", all)
		}
	})

	t.Run("Rejects Bad Slots", func(t *testing.T) {
		bad := []UpsertInput{
			{Day: "Someday"},
			{Day: "Monday", TimeSlots: []shared.TimeSlot{{StartTime: "10:00", EndTime: "09:00", Subject: "Math"}}},
			{Day: "Monday", TimeSlots: []shared.TimeSlot{{StartTime: "9am", EndTime: "10:00", Subject: "Math"}}},
		}
		for _, in := range bad {
			if _, err := svc.Upsert(ctx, admin, in); !shared.IsKind(err, shared.KindValidation) {
				t.Errorf("Expected Validation for %+v, got %v", in, err)
			}
		}
	})

	t.Run("Student Denied", func(t *testing.T) {
		if _, err := svc.Upsert(ctx, student, UpsertInput{Day: "Monday"}); !shared.IsKind(err, shared.KindAccessDenied) {
			t.Errorf("Expected AccessDenied, got %v", err)
		}
	})
}

func TestService_List(t *testing.T) {
	svc := newTestService(t)
	seed(t, svc)
	ctx := context.Background()

	t.Run("Student Own Plus Common", func(t *testing.T) {
		got, err := svc.List(ctx, student, "", "")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("Expected 3 entries, got %+v", got)
		}
		for _, e := range got {
			if e.StudentID == "S2" {
				t.Errorf("Student saw another student's entry: %+v", e)
			}
		}
		if got[len(got)-1].Day != "Tuesday" {
			t.Errorf("Expected weekday order, got %+v", got)
		}
	})

	t.Run("Admin Without Student Sees Common", func(t *testing.T) {
		got, _ := svc.List(ctx, admin, "", "")
		for _, e := range got {
			if !e.IsCommon() {
				t.Errorf("Expected only common entries, got %+v", e)
			}
		}
		if len(got) != 2 {
			t.Errorf("Expected 2 common entries, got %d", len(got))
		}
	})

	t.Run("Admin With Student", func(t *testing.T) {
		got, _ := svc.List(ctx, admin, "S2", "")
		if len(got) != 3 || got[2].Day != "Friday" {
			t.Errorf("Unexpected entries %+v", got)
		}
	})

	t.Run("Bad Day Filter", func(t *testing.T) {
		if _, err := svc.List(ctx, student, "", "monday"); !shared.IsKind(err, shared.KindValidation) {
			t.Errorf("Expected Validation, got %v", err)
		}
	})
}

func TestService_CurrentWeek(t *testing.T) {
	svc := newTestService(t)
	seed(t, svc)
	ctx := context.Background()

	week, err := svc.CurrentWeek(ctx, student, "")
	if err != nil {
		t.Fatalf("CurrentWeek failed: %v", err)
	}
	if len(week.Timetable) != 2 || week.Timetable[0].TimeSlots[0].Subject != "Lab" {
		t.Errorf("Expected student Monday override, got %+v", week.Timetable)
	}

	common, _ := svc.CurrentWeek(ctx, admin, "")
	if len(common.Timetable) != 2 || common.Timetable[0].TimeSlots[0].Subject != "Math" {
		t.Errorf("Expected common Monday, got %+v", common.Timetable)
	}

	if _, err := svc.CurrentWeek(ctx, student, "S2"); !shared.IsKind(err, shared.KindAccessDenied) {
		t.Errorf("Expected AccessDenied, got %v", err)
	}
}

func TestService_CalendarICS(t *testing.T) {
	svc := newTestService(t)
	seed(t, svc)

	feed, err := svc.CalendarICS(context.Background(), student, "")
	if err != nil {
		t.Fatalf("CalendarICS failed: %v", err)
	}

	// Monday has two student slots, Tuesday one common slot
	if got := strings.Count(feed, "BEGIN:VEVENT"); got != 3 {
		t.Errorf("Expected 3 events, got %d:\n%s", got, feed)
	}
	if strings.Count(feed, "RRULE:FREQ=WEEKLY") != 3 {
		t.Errorf("Expected weekly recurrence on every event")
	}
	// Week of Thursday 2024-03-14 starts Monday 2024-03-11
	if !strings.Contains(feed, "20240311T080000") {
		t.Errorf("Expected Lab to start Monday 08:00:\n%s", feed)
	}
	if !strings.Contains(feed, "SUMMARY:Lab") || !strings.Contains(feed, "Dr. Rao") {
		t.Errorf("Expected slot details in feed:\n%s", feed)
	}
}

func TestWeekStart(t *testing.T) {
	sunday := time.Date(2024, 3, 17, 23, 0, 0, 0, time.UTC)
	if got := weekStart(sunday); got.Day() != 11 || got.Weekday() != time.Monday {
		t.Errorf("Expected Monday 11th, got %v", got)
	}
	monday := time.Date(2024, 3, 11, 0, 30, 0, 0, time.UTC)
	if got := weekStart(monday); got.Day() != 11 {
		t.Errorf("Expected same Monday, got %v", got)
	}
}
