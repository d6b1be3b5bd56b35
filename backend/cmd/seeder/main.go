package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"unipulse/backend/internal/access"
	"unipulse/backend/internal/attendance"
	"unipulse/backend/internal/auth"
	"unipulse/backend/internal/result"
	"unipulse/backend/internal/shared"
	"unipulse/backend/internal/storage"
	"unipulse/backend/internal/store"
	"unipulse/backend/internal/timetable"
)

// Demo accounts
const (
	DemoStudent1 = "2024CS001" // Asha Rao
	DemoStudent2 = "2024CS002" // Vikram Shah
	DemoPassword = "password"

	DemoYear = "2024-25"
)

// seeder acts as this identity when calling admin-only operations
var seederIdentity = access.Identity{StudentID: "seeder", Role: shared.RoleAdmin}

func main() {
	adminID := flag.String("admin-id", "admin", "student_id of the admin account")
	adminName := flag.String("admin-name", "Administrator", "display name of the admin account")
	adminPassword := flag.String("admin-password", "", "admin password (required)")
	demo := flag.Bool("demo", false, "also seed demo students, attendance and timetable")
	drop := flag.Bool("drop", false, "drop the database before seeding")
	flag.Parse()

	if err := shared.LoadEnv(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := shared.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := shared.NewLogger(cfg.LogLevel, "console")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if *adminPassword == "" {
		logger.Fatal("-admin-password is required")
	}

	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB, logger)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer shared.DisconnectMongoDB(client)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if *drop {
		if err := db.Drop(ctx); err != nil {
			logger.Fatal("failed to drop database", zap.Error(err))
		}
		logger.Info("database cleared")
	}
	if err := shared.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal("failed to create indexes", zap.Error(err))
	}

	st := store.NewMongo(db)
	authSvc := auth.NewService(st.Users, st.Sessions, cfg.Security, logger)

	// --- 1. Seed Admin ---
	seedUser(ctx, logger, authSvc, auth.CreateUserInput{
		RegisterInput: auth.RegisterInput{StudentID: *adminID, Name: *adminName, Password: *adminPassword},
		Role:          shared.RoleAdmin,
	})

	if !*demo {
		logger.Info("seeding completed")
		return
	}

	// --- 2. Seed Demo Students ---
	for _, u := range []auth.RegisterInput{
		{StudentID: DemoStudent1, Name: "Asha Rao", Email: "asha@example.com", Password: DemoPassword},
		{StudentID: DemoStudent2, Name: "Vikram Shah", Email: "vikram@example.com", Password: DemoPassword},
	} {
		seedUser(ctx, logger, authSvc, auth.CreateUserInput{RegisterInput: u, Role: shared.RoleStudent})
	}

	// --- 3. Seed Attendance ---
	seedAttendance(ctx, logger, attendance.NewService(st.Attendance, logger))

	// --- 4. Seed Timetable ---
	seedTimetable(ctx, logger, timetable.NewService(st.Timetable, logger))

	// --- 5. Seed Results ---
	blob, err := storage.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open blob storage", zap.Error(err))
	}
	seedResults(ctx, logger, result.NewService(st.Results, blob, logger))

	logger.Info("seeding completed")
}

// ============================================================================
// SEEDING FUNCTIONS
// ============================================================================

func seedUser(ctx context.Context, logger *zap.Logger, svc *auth.Service, in auth.CreateUserInput) {
	_, err := svc.CreateUser(ctx, seederIdentity, in)
	switch {
	case err == nil:
		logger.Info("seeded user", zap.String("student_id", in.StudentID), zap.String("role", in.Role))
	case shared.IsKind(err, shared.KindConflict):
		logger.Info("user already exists", zap.String("student_id", in.StudentID))
	default:
		logger.Fatal("failed to seed user", zap.String("student_id", in.StudentID), zap.Error(err))
	}
}

// seedAttendance marks the last ten weekdays for both demo students
func seedAttendance(ctx context.Context, logger *zap.Logger, svc *attendance.Service) {
	subjects := []string{"Data Structures", "Discrete Mathematics"}
	day := time.Now().UTC()
	marked := 0

	for n := 0; n < 10; {
		day = day.AddDate(0, 0, -1)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		n++

		for i, subject := range subjects {
			for j, studentID := range []string{DemoStudent1, DemoStudent2} {
				status := shared.StatusPresent
				if (n+i+j)%4 == 0 {
					status = shared.StatusAbsent
				}
				_, err := svc.Record(ctx, seederIdentity, attendance.RecordInput{
					StudentID: studentID,
					Subject:   subject,
					Date:      day.Format(shared.DateLayout),
					Status:    status,
				})
				if err != nil && !shared.IsKind(err, shared.KindConflict) {
					logger.Fatal("failed to seed attendance", zap.Error(err))
				}
				if err == nil {
					marked++
				}
			}
		}
	}
	logger.Info("seeded attendance", zap.Int("records", marked))
}

func seedTimetable(ctx context.Context, logger *zap.Logger, svc *timetable.Service) {
	common := []shared.TimeSlot{
		{StartTime: "09:00", EndTime: "10:00", Subject: "Data Structures", Faculty: "Dr. Mehta", Room: "LH-1"},
		{StartTime: "10:15", EndTime: "11:15", Subject: "Discrete Mathematics", Faculty: "Prof. Iyer", Room: "LH-2"},
	}
	inputs := []timetable.UpsertInput{
		{Day: "Monday", TimeSlots: common},
		{Day: "Wednesday", TimeSlots: common},
		{Day: "Friday", TimeSlots: common[:1]},
		// Student override: lab replaces the common Wednesday
		{StudentID: DemoStudent1, Day: "Wednesday", TimeSlots: []shared.TimeSlot{
			{StartTime: "14:00", EndTime: "16:00", Subject: "Data Structures Lab", Faculty: "Dr. Mehta", Room: "CL-3"},
		}},
	}

	for _, in := range inputs {
		if _, err := svc.Upsert(ctx, seederIdentity, in); err != nil {
			logger.Fatal("failed to seed timetable", zap.String("day", in.Day), zap.Error(err))
		}
	}
	logger.Info("seeded timetable", zap.Int("entries", len(inputs)))
}

func seedResults(ctx context.Context, logger *zap.Logger, svc *result.Service) {
	sgpa := func(v float64) *float64 { return &v }
	inputs := []result.UpsertInput{
		{StudentID: DemoStudent1, Semester: 1, AcademicYear: DemoYear, SGPA: sgpa(8.7),
			Subjects: `[{"subject":"Programming in C","grade":"A","credits":4},{"subject":"Calculus","grade":"B+","credits":3}]`},
		{StudentID: DemoStudent1, Semester: 2, AcademicYear: DemoYear, SGPA: sgpa(9.1),
			Subjects: `[{"subject":"Data Structures","grade":"A+","credits":4}]`},
		{StudentID: DemoStudent2, Semester: 1, AcademicYear: DemoYear, SGPA: sgpa(7.9),
			Subjects: `[{"subject":"Programming in C","grade":"B","credits":4}]`},
	}

	for _, in := range inputs {
		if _, err := svc.Upsert(ctx, seederIdentity, in); err != nil {
			logger.Fatal("failed to seed result", zap.String("student_id", in.StudentID), zap.Error(err))
		}
	}
	logger.Info("seeded results", zap.Int("results", len(inputs)))
}
