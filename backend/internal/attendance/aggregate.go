package attendance

import (
	"math"

	"unipulse/backend/internal/shared"
)

// Tally summarizes a set of attendance records
type Tally struct {
	TotalClasses int     `json:"total_classes"`
	Present      int     `json:"present"`
	Absent       int     `json:"absent"`
	Percentage   float64 `json:"percentage"`
}

func (t *Tally) add(status string) {
	t.TotalClasses++
	if status == shared.StatusPresent {
		t.Present++
	}
}

func (t *Tally) finish() {
	t.Absent = t.TotalClasses - t.Present
	if t.TotalClasses > 0 {
		t.Percentage = round2(float64(t.Present) / float64(t.TotalClasses) * 100)
	} else {
		t.Percentage = 0
	}
}

// Aggregate counts records; any status other than present counts as absent.
// Zero records give a zero percentage.
func Aggregate(records []shared.AttendanceRecord) Tally {
	var t Tally
	for _, r := range records {
		t.add(r.Status)
	}
	t.finish()
	return t
}

// AggregateBySubject tallies each subject independently
func AggregateBySubject(records []shared.AttendanceRecord) map[string]Tally {
	tallies := make(map[string]*Tally)
	for _, r := range records {
		t, ok := tallies[r.Subject]
		if !ok {
			t = &Tally{}
			tallies[r.Subject] = t
		}
		t.add(r.Status)
	}

	out := make(map[string]Tally, len(tallies))
	for subject, t := range tallies {
		t.finish()
		out[subject] = *t
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
