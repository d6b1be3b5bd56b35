package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"unipulse/backend/internal/shared"
)

const queryTimeout = 10 * time.Second

// NewMongo wires every store to its collection in db
func NewMongo(db *mongo.Database) *Store {
	return &Store{
		Users:      &mongoUsers{col: db.Collection(shared.CollectionUsers)},
		Sessions:   &mongoSessions{col: db.Collection(shared.CollectionSessions)},
		Attendance: &mongoAttendance{col: db.Collection(shared.CollectionAttendance)},
		Results:    &mongoResults{col: db.Collection(shared.CollectionResults)},
		Timetable:  &mongoTimetable{col: db.Collection(shared.CollectionTimetable)},
		PYQ:        &mongoPYQ{col: db.Collection(shared.CollectionPYQ)},
	}
}

// translate maps driver errors onto the shared taxonomy
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return shared.NotFound(entity + " not found")
	case mongo.IsDuplicateKeyError(err):
		return shared.Conflict(entity + " already exists")
	default:
		return shared.Upstream("database error", err)
	}
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter interface{}, opts *options.FindOptions, entity string) ([]T, error) {
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err, entity)
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, translate(err, entity)
	}
	return out, nil
}

func count(ctx context.Context, col *mongo.Collection, filter interface{}) (int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	n, err := col.CountDocuments(queryCtx, filter)
	if err != nil {
		return 0, shared.Upstream("database error", err)
	}
	return n, nil
}

// ============================================================================
// Users
// ============================================================================

type mongoUsers struct{ col *mongo.Collection }

func (s *mongoUsers) Insert(ctx context.Context, u *shared.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.col.InsertOne(queryCtx, u)
	return translate(err, "user")
}

func (s *mongoUsers) FindByStudentID(ctx context.Context, studentID string) (*shared.User, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user shared.User
	if err := s.col.FindOne(queryCtx, bson.M{"student_id": studentID}).Decode(&user); err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (s *mongoUsers) UpdatePassword(ctx context.Context, studentID, hash string) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.col.UpdateOne(queryCtx, bson.M{"student_id": studentID}, bson.M{
		"$set": bson.M{"password_hash": hash, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return translate(err, "user")
	}
	if res.MatchedCount == 0 {
		return shared.NotFound("user not found")
	}
	return nil
}

func roleFilter(role string) bson.M {
	if role == "" {
		return bson.M{}
	}
	return bson.M{"role": role}
}

func (s *mongoUsers) List(ctx context.Context, role string) ([]shared.User, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "student_id", Value: 1}})
	return findAll[shared.User](queryCtx, s.col, roleFilter(role), opts, "user")
}

func (s *mongoUsers) Count(ctx context.Context, role string) (int64, error) {
	return count(ctx, s.col, roleFilter(role))
}

// ============================================================================
// Sessions
// ============================================================================

type mongoSessions struct{ col *mongo.Collection }

func (s *mongoSessions) Insert(ctx context.Context, sess *shared.Session) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.col.InsertOne(queryCtx, sess)
	return translate(err, "session")
}

func (s *mongoSessions) Active(ctx context.Context, token string) (bool, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	count, err := s.col.CountDocuments(queryCtx, bson.M{
		"token":      token,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	})
	if err != nil {
		return false, translate(err, "session")
	}
	return count > 0, nil
}

func (s *mongoSessions) DeleteByToken(ctx context.Context, token string) (int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// DeleteMany keeps logout idempotent
	res, err := s.col.DeleteMany(queryCtx, bson.M{"token": token})
	if err != nil {
		return 0, translate(err, "session")
	}
	return res.DeletedCount, nil
}

func (s *mongoSessions) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.col.DeleteMany(queryCtx, bson.M{"user_id": userID})
	if err != nil {
		return 0, translate(err, "session")
	}
	return res.DeletedCount, nil
}

// ============================================================================
// Attendance
// ============================================================================

type mongoAttendance struct{ col *mongo.Collection }

func (s *mongoAttendance) Exists(ctx context.Context, studentID, subject, date string) (bool, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	count, err := s.col.CountDocuments(queryCtx, bson.M{
		"student_id": studentID,
		"subject":    subject,
		"date":       date,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, translate(err, "attendance record")
	}
	return count > 0, nil
}

func (s *mongoAttendance) Insert(ctx context.Context, rec *shared.AttendanceRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.col.InsertOne(queryCtx, rec)
	return translate(err, "attendance record")
}

func (s *mongoAttendance) Find(ctx context.Context, f shared.AttendanceFilter) ([]shared.AttendanceRecord, error) {
	filter := bson.M{}
	if f.StudentID != "" {
		filter["student_id"] = f.StudentID
	}
	if f.Subject != "" {
		filter["subject"] = f.Subject
	}
	if f.StartDate != "" || f.EndDate != "" {
		dateRange := bson.M{}
		if f.StartDate != "" {
			dateRange["$gte"] = f.StartDate
		}
		if f.EndDate != "" {
			dateRange["$lte"] = f.EndDate
		}
		filter["date"] = dateRange
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return findAll[shared.AttendanceRecord](queryCtx, s.col, filter, opts, "attendance record")
}

func (s *mongoAttendance) Count(ctx context.Context) (int64, error) {
	return count(ctx, s.col, bson.M{})
}

// ============================================================================
// Results
// ============================================================================

type mongoResults struct{ col *mongo.Collection }

func (s *mongoResults) Get(ctx context.Context, id string) (*shared.ResultRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var r shared.ResultRecord
	if err := s.col.FindOne(queryCtx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, translate(err, "result")
	}
	return &r, nil
}

func (s *mongoResults) FindByKey(ctx context.Context, studentID string, semester int, academicYear string) (*shared.ResultRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var r shared.ResultRecord
	err := s.col.FindOne(queryCtx, bson.M{
		"student_id":    studentID,
		"semester":      semester,
		"academic_year": academicYear,
	}).Decode(&r)
	if err != nil {
		return nil, translate(err, "result")
	}
	return &r, nil
}

func (s *mongoResults) Insert(ctx context.Context, r *shared.ResultRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.col.InsertOne(queryCtx, r)
	return translate(err, "result")
}

func (s *mongoResults) Replace(ctx context.Context, r *shared.ResultRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.col.ReplaceOne(queryCtx, bson.M{"_id": r.ID}, r)
	if err != nil {
		return translate(err, "result")
	}
	if res.MatchedCount == 0 {
		return shared.NotFound("result not found")
	}
	return nil
}

func (s *mongoResults) Find(ctx context.Context, f shared.ResultFilter) ([]shared.ResultRecord, error) {
	filter := bson.M{}
	if f.StudentID != "" {
		filter["student_id"] = f.StudentID
	}
	if f.Semester > 0 {
		filter["semester"] = f.Semester
	}
	opts := options.Find().SetSort(bson.D{{Key: "academic_year", Value: -1}, {Key: "semester", Value: -1}})

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return findAll[shared.ResultRecord](queryCtx, s.col, filter, opts, "result")
}

func (s *mongoResults) Count(ctx context.Context) (int64, error) {
	return count(ctx, s.col, bson.M{})
}

// ============================================================================
// Timetable
// ============================================================================

type mongoTimetable struct{ col *mongo.Collection }

// ownerFilter matches a student's entries, or the common schedule for ""
func ownerFilter(studentID string) interface{} {
	if studentID == "" {
		return nil
	}
	return studentID
}

func (s *mongoTimetable) FindByKey(ctx context.Context, studentID, day string) (*shared.TimetableEntry, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var e shared.TimetableEntry
	err := s.col.FindOne(queryCtx, bson.M{"student_id": ownerFilter(studentID), "day": day}).Decode(&e)
	if err != nil {
		return nil, translate(err, "timetable entry")
	}
	return &e, nil
}

func (s *mongoTimetable) Insert(ctx context.Context, e *shared.TimetableEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.col.InsertOne(queryCtx, e)
	return translate(err, "timetable entry")
}

func (s *mongoTimetable) Replace(ctx context.Context, e *shared.TimetableEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.col.ReplaceOne(queryCtx, bson.M{"_id": e.ID}, e)
	if err != nil {
		return translate(err, "timetable entry")
	}
	if res.MatchedCount == 0 {
		return shared.NotFound("timetable entry not found")
	}
	return nil
}

func (s *mongoTimetable) Find(ctx context.Context, f shared.TimetableFilter) ([]shared.TimetableEntry, error) {
	var filter bson.M
	switch {
	case f.StudentID != "" && f.IncludeCommon:
		filter = bson.M{"$or": []bson.M{
			{"student_id": f.StudentID},
			{"student_id": nil},
		}}
	case f.StudentID != "":
		filter = bson.M{"student_id": f.StudentID}
	default:
		filter = bson.M{"student_id": nil}
	}
	if f.Day != "" {
		filter["day"] = f.Day
	}

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	entries, err := findAll[shared.TimetableEntry](queryCtx, s.col, filter, options.Find(), "timetable entry")
	if err != nil {
		return nil, err
	}
	SortTimetable(entries)
	return entries, nil
}

// SortTimetable orders entries by weekday, common entries before specific ones
func SortTimetable(entries []shared.TimetableEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := shared.WeekdayIndex(entries[i].Day), shared.WeekdayIndex(entries[j].Day)
		if di != dj {
			return di < dj
		}
		return entries[i].IsCommon() && !entries[j].IsCommon()
	})
}

// ============================================================================
// PYQ
// ============================================================================

type mongoPYQ struct{ col *mongo.Collection }

func (s *mongoPYQ) Insert(ctx context.Context, p *shared.PYQDocument) error {
	if err := p.Validate(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.col.InsertOne(queryCtx, p)
	return translate(err, "pyq")
}

func (s *mongoPYQ) Get(ctx context.Context, id string) (*shared.PYQDocument, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p shared.PYQDocument
	if err := s.col.FindOne(queryCtx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err, "pyq")
	}
	return &p, nil
}

func (s *mongoPYQ) Delete(ctx context.Context, id string) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.col.DeleteOne(queryCtx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "pyq")
	}
	if res.DeletedCount == 0 {
		return shared.NotFound("pyq not found")
	}
	return nil
}

func (s *mongoPYQ) Find(ctx context.Context, f shared.PYQFilter) ([]shared.PYQDocument, error) {
	filter := bson.M{}
	if f.Subject != "" {
		filter["subject"] = f.Subject
	}
	if f.Semester > 0 {
		filter["semester"] = f.Semester
	}
	if f.Year > 0 {
		filter["year"] = f.Year
	}
	if f.ExamType != "" {
		filter["exam_type"] = f.ExamType
	}
	opts := options.Find().SetSort(bson.D{{Key: "year", Value: -1}, {Key: "semester", Value: -1}})

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return findAll[shared.PYQDocument](queryCtx, s.col, filter, opts, "pyq")
}

func (s *mongoPYQ) Subjects(ctx context.Context) ([]string, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	values, err := s.col.Distinct(queryCtx, "subject", bson.D{})
	if err != nil {
		return nil, translate(err, "pyq")
	}

	subjects := make([]string, 0, len(values))
	for _, v := range values {
		if str, ok := v.(string); ok {
			subjects = append(subjects, str)
		}
	}
	sort.Strings(subjects)
	return subjects, nil
}

func (s *mongoPYQ) Count(ctx context.Context) (int64, error) {
	return count(ctx, s.col, bson.M{})
}
