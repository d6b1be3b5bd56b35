package timetable

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"unipulse/backend/internal/access"
	"unipulse/backend/internal/shared"
)

// CalendarICS renders the caller's current week as weekly recurring events
// anchored on the Monday of the current week.
func (s *Service) CalendarICS(ctx context.Context, caller access.Identity, studentID string) (string, error) {
	week, err := s.CurrentWeek(ctx, caller, studentID)
	if err != nil {
		return "", err
	}

	now := s.now()
	return BuildCalendar(week.Timetable, weekStart(now), now), nil
}

// BuildCalendar emits one VEVENT per time slot
func BuildCalendar(days []DaySchedule, monday, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//UniPulse//Timetable//EN")

	for _, day := range days {
		date := monday.AddDate(0, 0, shared.WeekdayIndex(day.Day))
		for i, slot := range day.TimeSlots {
			start, err1 := atClock(date, slot.StartTime)
			end, err2 := atClock(date, slot.EndTime)
			if err1 != nil || err2 != nil {
				continue
			}

			event := cal.AddEvent(fmt.Sprintf("%s-%d-%s@unipulse", day.Day, i, slot.StartTime))
			event.SetDtStampTime(stamp)
			event.SetStartAt(start)
			event.SetEndAt(end)
			event.SetSummary(slot.Subject)
			if slot.Room != "" {
				event.SetLocation(slot.Room)
			}
			if slot.Faculty != "" {
				event.SetDescription("Faculty: " + slot.Faculty)
			}
			event.AddProperty(ics.ComponentPropertyRrule, "FREQ=WEEKLY")
		}
	}
	return cal.Serialize()
}

// weekStart returns midnight of the Monday of t's ISO week, in t's location
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func atClock(date time.Time, hhmm string) (time.Time, error) {
	clock, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, date.Location()), nil
}
