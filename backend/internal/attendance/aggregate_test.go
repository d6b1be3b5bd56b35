package attendance

import (
	"testing"

	"unipulse/backend/internal/shared"
)

func recs(subject string, statuses ...string) []shared.AttendanceRecord {
	out := make([]shared.AttendanceRecord, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, shared.AttendanceRecord{StudentID: "S1", Subject: subject, Status: st})
	}
	return out
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		records []shared.AttendanceRecord
		want    Tally
	}{
		{"Empty", nil, Tally{}},
		{"All Present", recs("Math", "present", "present"), Tally{TotalClasses: 2, Present: 2, Absent: 0, Percentage: 100}},
		{"Two Of Three", recs("Math", "present", "present", "absent"), Tally{TotalClasses: 3, Present: 2, Absent: 1, Percentage: 66.67}},
		{"Unknown Status Is Absent", recs("Math", "present", "late"), Tally{TotalClasses: 2, Present: 1, Absent: 1, Percentage: 50}},
		{"One Of Three", recs("Math", "present", "absent", "absent"), Tally{TotalClasses: 3, Present: 1, Absent: 2, Percentage: 33.33}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.records)
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestAggregateBySubject(t *testing.T) {
	records := append(recs("Math", "present", "absent"), recs("Physics", "present", "present", "absent")...)

	got := AggregateBySubject(records)
	if len(got) != 2 {
		t.Fatalf("Expected 2 subjects, got %d", len(got))
	}
	if got["Math"].Percentage != 50 {
		t.Errorf("Math: expected 50, got %v", got["Math"].Percentage)
	}
	if got["Physics"].Percentage != 66.67 || got["Physics"].Absent != 1 {
		t.Errorf("Physics: unexpected %+v", got["Physics"])
	}

	// Subject totals add up to the overall tally
	overall := Aggregate(records)
	sum := 0
	for _, tally := range got {
		sum += tally.TotalClasses
	}
	if sum != overall.TotalClasses {
		t.Errorf("Expected subject totals %d to equal overall %d", sum, overall.TotalClasses)
	}
}
