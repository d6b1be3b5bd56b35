package result

import (
	"math"
	"sort"

	"unipulse/backend/internal/shared"
)

// SemesterSGPA is one contribution to a CGPA
type SemesterSGPA struct {
	Semester     int     `json:"semester"`
	AcademicYear string  `json:"academic_year"`
	SGPA         float64 `json:"sgpa"`
}

// CGPAReport is the rollup of a student's semester results
type CGPAReport struct {
	StudentID      string         `json:"student_id"`
	CGPA           *float64       `json:"cgpa"`
	TotalSemesters int            `json:"total_semesters"`
	Semesters      []SemesterSGPA `json:"semesters"`
}

// Rollup averages SGPA over every result that has one. The mean is
// unweighted; credits are not consulted. Contributions are listed in
// (academic_year, semester) order.
func Rollup(studentID string, results []shared.ResultRecord) CGPAReport {
	sorted := make([]shared.ResultRecord, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].AcademicYear != sorted[j].AcademicYear {
			return sorted[i].AcademicYear < sorted[j].AcademicYear
		}
		return sorted[i].Semester < sorted[j].Semester
	})

	report := CGPAReport{StudentID: studentID, Semesters: []SemesterSGPA{}}
	var sum float64
	for _, r := range sorted {
		if r.SGPA == nil {
			continue
		}
		sum += *r.SGPA
		report.Semesters = append(report.Semesters, SemesterSGPA{
			Semester:     r.Semester,
			AcademicYear: r.AcademicYear,
			SGPA:         *r.SGPA,
		})
	}

	report.TotalSemesters = len(report.Semesters)
	if report.TotalSemesters > 0 {
		cgpa := math.Round(sum/float64(report.TotalSemesters)*100) / 100
		report.CGPA = &cgpa
	}
	return report
}
