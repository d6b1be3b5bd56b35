package shared

import "testing"

func TestIsHHMM(t *testing.T) {
	for s, want := range map[string]bool{
		"00:00": true, "09:30": true, "23:59": true,
		"24:00": false, "9:30": false, "12:60": false, "noon": false,
	} {
		if got := IsHHMM(s); got != want {
			t.Errorf("IsHHMM(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestWeekdayIndex(t *testing.T) {
	if WeekdayIndex("Monday") != 0 || WeekdayIndex("Sunday") != 6 {
		t.Error("Expected Monday first and Sunday last")
	}
	if WeekdayIndex("monday") != -1 {
		t.Error("Day names are case sensitive")
	}
}

func TestRecordValidation(t *testing.T) {
	tests := []struct {
		name    string
		check   func() error
		wantErr bool
	}{
		{"attendance ok", (&AttendanceRecord{StudentID: "S1", Subject: "Math", Date: "2024-02-29", Status: StatusPresent}).Validate, false},
		{"attendance bad date", (&AttendanceRecord{StudentID: "S1", Subject: "Math", Date: "2023-02-29", Status: StatusPresent}).Validate, true},
		{"attendance bad status", (&AttendanceRecord{StudentID: "S1", Subject: "Math", Date: "2024-01-01", Status: "late"}).Validate, true},
		{"result no semester", (&ResultRecord{StudentID: "S1", AcademicYear: "2023-24"}).Validate, true},
		{"result subject without grade", (&ResultRecord{StudentID: "S1", Semester: 1, AcademicYear: "2023-24", Subjects: []SubjectGrade{{Subject: "Math"}}}).Validate, true},
		{"timetable reversed slot", (&TimetableEntry{Day: "Monday", TimeSlots: []TimeSlot{{StartTime: "10:00", EndTime: "09:00", Subject: "Math"}}}).Validate, true},
		{"timetable empty day ok", (&TimetableEntry{Day: "Sunday"}).Validate, false},
		{"pyq missing file", (&PYQDocument{Subject: "Math", ExamType: "final", Semester: 1, Year: 2023}).Validate, true},
		{"user bad role", (&User{StudentID: "S1", Name: "One", Role: "dean", PasswordHash: "h"}).Validate, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsKind(err, KindValidation) {
				t.Errorf("Expected validation kind, got %s", KindOf(err))
			}
		})
	}
}
