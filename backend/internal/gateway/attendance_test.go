package gateway_test

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestGateway_Attendance(t *testing.T) {
	env := setupGatewayTestEnv(t)

	t.Run("Record", func(t *testing.T) {
		body := map[string]string{"student_id": "S1", "subject": "Math", "date": "2024-01-10", "status": "P"}

		rr := env.do(t, http.MethodPost, "/api/attendance", env.StudentToken, body)
		expectStatus(t, rr, http.StatusForbidden)

		rr = env.do(t, http.MethodPost, "/api/attendance", env.AdminToken, body)
		expectStatus(t, rr, http.StatusCreated)

		rr = env.do(t, http.MethodPost, "/api/attendance", env.AdminToken, body)
		expectStatus(t, rr, http.StatusConflict)

		body["date"] = "2024-01-11"
		body["status"] = "late"
		rr = env.do(t, http.MethodPost, "/api/attendance", env.AdminToken, body)
		expectStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("Bulk Upload", func(t *testing.T) {
		csv := strings.Join([]string{
			"student_id,subject,date,status",
			"S1,Math,2024-01-10,present", // already recorded
			"S1,Math,2024-01-12,absent",
			"S1,Physics,2024-01-12,present",
			"S1,Physics,not-a-date,present",
		}, "\n")

		rr := env.upload(t, "/api/attendance/bulk-upload", env.AdminToken, nil, "marks.csv", []byte(csv))
		expectStatus(t, rr, http.StatusOK)

		var resp struct {
			Data struct {
				Inserted int `json:"inserted"`
				Skipped  int `json:"skipped"`
				Total    int `json:"total"`
			} `json:"data"`
		}
		decode(t, rr, &resp)
		if resp.Data.Inserted != 2 || resp.Data.Skipped != 1 || resp.Data.Total != 3 {
			t.Errorf("Unexpected report %s", rr.Body.String())
		}

		rr = env.upload(t, "/api/attendance/bulk-upload", env.AdminToken, nil, "marks.txt", []byte(csv))
		expectStatus(t, rr, http.StatusBadRequest)

		rr = env.upload(t, "/api/attendance/bulk-upload", env.AdminToken, nil, "", nil)
		expectStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("Bulk Upload Too Large", func(t *testing.T) {
		big := append([]byte("student_id,subject,date,status\n"), bytes.Repeat([]byte("x"), testMaxUpload)...)
		rr := env.upload(t, "/api/attendance/bulk-upload", env.AdminToken, nil, "big.csv", big)
		expectStatus(t, rr, http.StatusRequestEntityTooLarge)
	})

	t.Run("List", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/api/attendance?subject=Math&start_date=2024-01-11", env.StudentToken, nil)
		expectStatus(t, rr, http.StatusOK)

		var resp struct {
			Data []struct {
				Date string `json:"date"`
			} `json:"data"`
		}
		decode(t, rr, &resp)
		if len(resp.Data) != 1 || resp.Data[0].Date != "2024-01-12" {
			t.Errorf("Unexpected records %s", rr.Body.String())
		}

		rr = env.do(t, http.MethodGet, "/api/attendance?student_id=S9", env.StudentToken, nil)
		expectStatus(t, rr, http.StatusForbidden)
	})

	t.Run("Stats", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/api/attendance/stats", env.StudentToken, nil)
		expectStatus(t, rr, http.StatusOK)

		var resp struct {
			Data struct {
				StudentID    string  `json:"student_id"`
				TotalClasses int     `json:"total_classes"`
				Present      int     `json:"present"`
				Percentage   float64 `json:"percentage"`
			} `json:"data"`
		}
		decode(t, rr, &resp)
		if resp.Data.StudentID != "S1" || resp.Data.TotalClasses != 3 || resp.Data.Present != 2 || resp.Data.Percentage != 66.67 {
			t.Errorf("Unexpected stats %s", rr.Body.String())
		}

		rr = env.do(t, http.MethodGet, "/api/attendance/stats", env.AdminToken, nil)
		expectStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("Subject Wise", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/api/attendance/stats/subject-wise?student_id=S1", env.AdminToken, nil)
		expectStatus(t, rr, http.StatusOK)

		var resp struct {
			Data struct {
				Subjects []struct {
					Subject    string  `json:"subject"`
					Percentage float64 `json:"percentage"`
				} `json:"subjects"`
			} `json:"data"`
		}
		decode(t, rr, &resp)
		if len(resp.Data.Subjects) != 2 || resp.Data.Subjects[0].Subject != "Math" || resp.Data.Subjects[0].Percentage != 50 {
			t.Errorf("Unexpected subject stats %s", rr.Body.String())
		}
	})

	t.Run("Export", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/api/attendance/export", env.StudentToken, nil)
		expectStatus(t, rr, http.StatusOK)

		if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
			t.Errorf("Unexpected content type %q", ct)
		}
		if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, ".xlsx") {
			t.Errorf("Unexpected content disposition %q", cd)
		}

		f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
		if err != nil {
			t.Fatalf("Failed to open workbook: %v", err)
		}
		defer f.Close()
		if idx, _ := f.GetSheetIndex("Summary"); idx < 0 {
			t.Errorf("Expected Summary sheet, got %v", f.GetSheetList())
		}
	})
}
