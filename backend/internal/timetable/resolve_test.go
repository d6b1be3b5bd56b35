package timetable

import (
	"testing"

	"unipulse/backend/internal/shared"
)

func slot(subject string) []shared.TimeSlot {
	return []shared.TimeSlot{{StartTime: "09:00", EndTime: "10:00", Subject: subject}}
}

func TestResolveWeek(t *testing.T) {
	entries := []shared.TimetableEntry{
		{Day: "Wednesday", TimeSlots: slot("Common Wed")},
		{Day: "Monday", TimeSlots: slot("Common Mon")},
		{StudentID: "S1", Day: "Monday", TimeSlots: slot("S1 Mon")},
		{StudentID: "S1", Day: "Friday", TimeSlots: slot("S1 Fri")},
		{StudentID: "S2", Day: "Wednesday", TimeSlots: slot("S2 Wed")},
	}

	t.Run("Student Overrides Common", func(t *testing.T) {
		week := ResolveWeek(entries, "S1")
		want := []struct{ day, subject string }{
			{"Monday", "S1 Mon"},
			{"Wednesday", "Common Wed"},
			{"Friday", "S1 Fri"},
		}
		if len(week) != len(want) {
			t.Fatalf("Expected %d days, got %+v", len(want), week)
		}
		for i, w := range want {
			if week[i].Day != w.day || week[i].TimeSlots[0].Subject != w.subject {
				t.Errorf("Position %d: expected %v, got %+v", i, w, week[i])
			}
		}
	})

	t.Run("Common Only", func(t *testing.T) {
		week := ResolveWeek(entries, "")
		if len(week) != 2 || week[0].Day != "Monday" || week[0].TimeSlots[0].Subject != "Common Mon" {
			t.Errorf("Unexpected common week %+v", week)
		}
	})

	t.Run("Order Independent", func(t *testing.T) {
		reversed := make([]shared.TimetableEntry, len(entries))
		for i, e := range entries {
			reversed[len(entries)-1-i] = e
		}
		a, b := ResolveWeek(entries, "S1"), ResolveWeek(reversed, "S1")
		for i := range a {
			if a[i].Day != b[i].Day || a[i].TimeSlots[0].Subject != b[i].TimeSlots[0].Subject {
				t.Errorf("Input order changed result at %d: %+v vs %+v", i, a[i], b[i])
			}
		}
	})

	t.Run("Empty", func(t *testing.T) {
		week := ResolveWeek(nil, "S1")
		if week == nil || len(week) != 0 {
			t.Errorf("Expected empty non-nil week, got %#v", week)
		}
	})
}
