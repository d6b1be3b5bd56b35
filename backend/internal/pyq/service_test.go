package pyq

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	"unipulse/backend/internal/access"
	"unipulse/backend/internal/shared"
	"unipulse/backend/internal/storage"
	"unipulse/backend/internal/store"
)

var (
	admin   = access.Identity{StudentID: "ADMIN", Role: shared.RoleAdmin}
	student = access.Identity{StudentID: "S1", Role: shared.RoleStudent}
)

type failingPYQ struct{ store.PYQ }

func (failingPYQ) Insert(context.Context, *shared.PYQDocument) error {
	return shared.Upstream("database unavailable", nil)
}

func paper(subject string, semester, year int, examType string) UploadInput {
	return UploadInput{
		Subject: subject, Semester: semester, Year: year, ExamType: examType,
		File: &storage.Upload{Filename: "paper.pdf", Data: []byte("%PDF-1.4")},
	}
}

func TestService_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("Stores File And Lower-cases Exam Type", func(t *testing.T) {
		blob := storage.NewMemory()
		svc := NewService(store.NewMemory().PYQ, blob, zaptest.NewLogger(t))

		doc, err := svc.Upload(ctx, admin, paper("Math", 1, 2023, "  MidTerm "))
		if err != nil {
			t.Fatalf("Upload failed: %v", err)
		}
		if doc.ExamType != "midterm" {
			t.Errorf("Expected exam_type 'midterm', got %q", doc.ExamType)
		}
		if doc.FileName != "paper.pdf" || doc.UploadedBy != "ADMIN" {
			t.Errorf("Unexpected document %+v", doc)
		}
		if !blob.Has(doc.FileURL) {
			t.Errorf("Expected file %s to be stored", doc.FileURL)
		}
	})

	t.Run("Rejects Bad Input", func(t *testing.T) {
		blob := storage.NewMemory()
		svc := NewService(store.NewMemory().PYQ, blob, zaptest.NewLogger(t))

		exe := paper("Math", 1, 2023, "final")
		exe.File.Filename = "paper.exe"
		noFile := paper("Math", 1, 2023, "final")
		noFile.File = nil

		cases := map[string]UploadInput{
			"extension":    exe,
			"missing file": noFile,
			"semester":     paper("Math", 0, 2023, "final"),
			"subject":      paper(" ", 1, 2023, "final"),
		}
		for name, in := range cases {
			if _, err := svc.Upload(ctx, admin, in); !shared.IsKind(err, shared.KindValidation) {
				t.Errorf("%s: expected Validation, got %v", name, err)
			}
		}
		if blob.Len() != 0 {
			t.Errorf("Expected nothing stored, got %d files", blob.Len())
		}
	})

	t.Run("Student Denied", func(t *testing.T) {
		svc := NewService(store.NewMemory().PYQ, storage.NewMemory(), zaptest.NewLogger(t))
		if _, err := svc.Upload(ctx, student, paper("Math", 1, 2023, "final")); !shared.IsKind(err, shared.KindAccessDenied) {
			t.Errorf("Expected AccessDenied, got %v", err)
		}
	})

	t.Run("Insert Failure Removes File", func(t *testing.T) {
		blob := storage.NewMemory()
		svc := NewService(failingPYQ{store.NewMemory().PYQ}, blob, zaptest.NewLogger(t))

		if _, err := svc.Upload(ctx, admin, paper("Math", 1, 2023, "final")); !shared.IsKind(err, shared.KindUpstream) {
			t.Fatalf("Expected Upstream, got %v", err)
		}
		if blob.Len() != 0 {
			t.Errorf("Expected orphaned file removed, got %d files", blob.Len())
		}
	})

	t.Run("Oversize Rejected Before Storage", func(t *testing.T) {
		blob := storage.NewMemory()
		svc := NewService(store.NewMemory().PYQ, storage.WithLimit(blob, 4), zaptest.NewLogger(t))

		if _, err := svc.Upload(ctx, admin, paper("Math", 1, 2023, "final")); !shared.IsKind(err, shared.KindTooLarge) {
			t.Fatalf("Expected TooLarge, got %v", err)
		}
		if blob.Len() != 0 {
			t.Errorf("Expected nothing stored, got %d files", blob.Len())
		}
	})
}

func TestService_ListAndSubjects(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory().PYQ, storage.NewMemory(), zaptest.NewLogger(t))

	for _, in := range []UploadInput{
		paper("Physics", 2, 2022, "final"),
		paper("Math", 1, 2023, "final"),
		paper("Math", 2, 2023, "midterm"),
		paper("Math", 1, 2021, "final"),
	} {
		if _, err := svc.Upload(ctx, admin, in); err != nil {
			t.Fatalf("Upload failed: %v", err)
		}
	}

	t.Run("Sorted Newest First", func(t *testing.T) {
		docs, err := svc.List(ctx, shared.PYQFilter{Subject: "Math"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(docs) != 3 {
			t.Fatalf("Expected 3 Math papers, got %d", len(docs))
		}
		if docs[0].Year != 2023 || docs[0].Semester != 2 || docs[2].Year != 2021 {
			t.Errorf("Unexpected order %+v", docs)
		}
	})

	t.Run("Exam Type Filter Is Case Insensitive", func(t *testing.T) {
		docs, _ := svc.List(ctx, shared.PYQFilter{ExamType: "FINAL", Year: 2023})
		if len(docs) != 1 || docs[0].Subject != "Math" {
			t.Errorf("Expected one 2023 final, got %+v", docs)
		}
	})

	t.Run("Subjects", func(t *testing.T) {
		subjects, err := svc.Subjects(ctx)
		if err != nil {
			t.Fatalf("Subjects failed: %v", err)
		}
		if len(subjects) != 2 || subjects[0] != "Math" || subjects[1] != "Physics" {
			t.Errorf("Expected [Math Physics], got %v", subjects)
		}
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Removes Document And File", func(t *testing.T) {
		blob := storage.NewMemory()
		svc := NewService(store.NewMemory().PYQ, blob, zaptest.NewLogger(t))
		doc, _ := svc.Upload(ctx, admin, paper("Math", 1, 2023, "final"))

		if err := svc.Delete(ctx, admin, doc.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if blob.Has(doc.FileURL) {
			t.Error("Expected file removed")
		}
		if _, err := svc.Get(ctx, doc.ID); !shared.IsKind(err, shared.KindNotFound) {
			t.Errorf("Expected NotFound, got %v", err)
		}
	})

	t.Run("Blob Failure Is Ignored", func(t *testing.T) {
		blob := storage.NewMemory()
		svc := NewService(store.NewMemory().PYQ, blob, zaptest.NewLogger(t))
		doc, _ := svc.Upload(ctx, admin, paper("Math", 1, 2023, "final"))

		blob.FailDelete = true
		if err := svc.Delete(ctx, admin, doc.ID); err != nil {
			t.Fatalf("Expected delete to succeed, got %v", err)
		}
		if _, err := svc.Get(ctx, doc.ID); !shared.IsKind(err, shared.KindNotFound) {
			t.Errorf("Expected document removed, got %v", err)
		}
	})

	t.Run("Missing And Denied", func(t *testing.T) {
		svc := NewService(store.NewMemory().PYQ, storage.NewMemory(), zaptest.NewLogger(t))
		if err := svc.Delete(ctx, admin, "nope"); !shared.IsKind(err, shared.KindNotFound) {
			t.Errorf("Expected NotFound, got %v", err)
		}
		if err := svc.Delete(ctx, student, "nope"); !shared.IsKind(err, shared.KindAccessDenied) {
			t.Errorf("Expected AccessDenied, got %v", err)
		}
	})
}
