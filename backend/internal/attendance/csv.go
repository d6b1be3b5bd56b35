package attendance

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"unipulse/backend/internal/shared"
)

// Row is one surviving line of an attendance CSV, already normalized
type Row struct {
	StudentID string
	Subject   string
	Date      string
	Status    string
}

var requiredColumns = []string{"student_id", "subject", "date", "status"}

// dateLayouts are tried in order when reading dates from uploads
var dateLayouts = []string{
	shared.DateLayout,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseDate reads a date in any accepted layout and returns it as YYYY-MM-DD
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(shared.DateLayout), true
		}
	}
	return "", false
}

// NormalizeStatus maps loose CSV statuses: present or p is present, anything else absent
func NormalizeStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "present", "p":
		return shared.StatusPresent
	default:
		return shared.StatusAbsent
	}
}

// StrictStatus accepts present, p, absent or a in any case
func StrictStatus(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "present", "p":
		return shared.StatusPresent, true
	case "absent", "a":
		return shared.StatusAbsent, true
	default:
		return "", false
	}
}

// ParseCSV reads an attendance upload. Rows with an empty id or subject, an
// unparsable date or too few fields are dropped and counted in rejected.
func ParseCSV(data []byte) (rows []Row, rejected int, err error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, 0, shared.Validation("CSV file is empty")
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, 0, shared.Validation(fmt.Sprintf("failed to read CSV header: %v", err))
	}

	// 1. Locate required columns
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, 0, shared.Validation("CSV missing required columns: " + strings.Join(missing, ", "))
	}

	// 2. Read and normalize rows
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rejected++
			continue
		}

		row, ok := parseRow(record, index)
		if !ok {
			rejected++
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, rejected, shared.Validation("no valid attendance records found in CSV")
	}
	return rows, rejected, nil
}

func parseRow(record []string, index map[string]int) (Row, bool) {
	field := func(name string) (string, bool) {
		i := index[name]
		if i >= len(record) {
			return "", false
		}
		return strings.TrimSpace(record[i]), true
	}

	studentID, ok1 := field("student_id")
	subject, ok2 := field("subject")
	rawDate, ok3 := field("date")
	status, ok4 := field("status")
	if !ok1 || !ok2 || !ok3 || !ok4 || studentID == "" || subject == "" {
		return Row{}, false
	}

	date, ok := ParseDate(rawDate)
	if !ok {
		return Row{}, false
	}

	return Row{
		StudentID: studentID,
		Subject:   subject,
		Date:      date,
		Status:    NormalizeStatus(status),
	}, true
}
