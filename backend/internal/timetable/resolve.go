package timetable

import "unipulse/backend/internal/shared"

// DaySchedule is the resolved schedule of one weekday
type DaySchedule struct {
	Day       string            `json:"day"`
	TimeSlots []shared.TimeSlot `json:"time_slots"`
}

// ResolveWeek merges the common schedule with studentID's own entries. A
// student entry replaces the common entry of the same day. Days without any
// entry are left out; the rest follow Monday..Sunday order.
func ResolveWeek(entries []shared.TimetableEntry, studentID string) []DaySchedule {
	byDay := make(map[string]shared.TimetableEntry, len(shared.Weekdays))

	// 1. Common entries
	for _, e := range entries {
		if e.IsCommon() {
			byDay[e.Day] = e
		}
	}

	// 2. Student entries override
	if studentID != "" {
		for _, e := range entries {
			if e.StudentID == studentID {
				byDay[e.Day] = e
			}
		}
	}

	week := []DaySchedule{}
	for _, day := range shared.Weekdays {
		if e, ok := byDay[day]; ok {
			slots := e.TimeSlots
			if slots == nil {
				slots = []shared.TimeSlot{}
			}
			week = append(week, DaySchedule{Day: day, TimeSlots: slots})
		}
	}
	return week
}
