package sqlxrepos

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
)

const (
	studentColumns   = `id, name, class_label, roll_no, parent_email, parent_push_token, created_at`
	recordColumns    = `student_id, date, status, marked_at`
	aggregateColumns = `id, class_label, date, entries, submitted_at`
)

type (
	studentRow struct {
		ID              string    `db:"id"`
		Name            string    `db:"name"`
		ClassLabel      string    `db:"class_label"`
		RollNo          int       `db:"roll_no"`
		ParentEmail     string    `db:"parent_email"`
		ParentPushToken string    `db:"parent_push_token"`
		CreatedAt       time.Time `db:"created_at"`
	}

	recordRow struct {
		StudentID string    `db:"student_id"`
		Date      string    `db:"date"`
		Status    string    `db:"status"`
		MarkedAt  time.Time `db:"marked_at"`
	}

	// entries is stored as JSONB.
	entries []attendance.Entry

	aggregateRow struct {
		ID          string    `db:"id"`
		ClassLabel  string    `db:"class_label"`
		Date        string    `db:"date"`
		Entries     entries   `db:"entries"`
		SubmittedAt time.Time `db:"submitted_at"`
	}
)

func (e entries) Value() (driver.Value, error) {
	if e == nil {
		e = entries{}
	}
	return json.Marshal(e)
}

func (e *entries) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*e = entries{}
		return nil
	default:
		return errors.Errorf("unsupported entries type %T", src)
	}
	return json.Unmarshal(data, e)
}

func (r studentRow) student() attendance.Student {
	return attendance.Student{
		ID:         r.ID,
		Name:       r.Name,
		ClassLabel: r.ClassLabel,
		RollNo:     r.RollNo,
		Parent:     attendance.Parent{Email: r.ParentEmail, PushToken: r.ParentPushToken},
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

func (r recordRow) record() attendance.Record {
	return attendance.Record{StudentID: r.StudentID, Date: r.Date, Status: r.Status, MarkedAt: r.MarkedAt.UTC()}
}

func (r aggregateRow) aggregate() attendance.DailyAggregate {
	return attendance.DailyAggregate{
		ID:          r.ID,
		ClassLabel:  r.ClassLabel,
		Date:        r.Date,
		Entries:     []attendance.Entry(r.Entries),
		SubmittedAt: r.SubmittedAt.UTC(),
	}
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) QueryStudents(ctx context.Context, classLabel string) ([]attendance.Student, error) {
	var rows []studentRow
	q := `SELECT ` + studentColumns + ` FROM student WHERE class_label = $1 ORDER BY roll_no`
	if err := repo.db.SelectContext(ctx, &rows, q, classLabel); err != nil {
		return nil, core.NewStoreError(err, "querying students")
	}
	students := make([]attendance.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.student())
	}
	return students, nil
}

func (repo *attendanceRepository) getStudent(ctx context.Context, where string, arg interface{}) (attendance.Student, error) {
	var row studentRow
	q := `SELECT ` + studentColumns + ` FROM student WHERE ` + where + ` ORDER BY created_at LIMIT 1`
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		return attendance.Student{}, trapErr(err, attendance.ErrStudentNotFound, "finding student")
	}
	return row.student(), nil
}

func (repo *attendanceRepository) GetStudent(ctx context.Context, id string) (attendance.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.Student{}, attendance.ErrStudentNotFound
	}
	return repo.getStudent(ctx, "id = $1", id)
}

func (repo *attendanceRepository) GetStudentByParentEmail(ctx context.Context, email string) (attendance.Student, error) {
	return repo.getStudent(ctx, "parent_email = $1", email)
}

func (repo *attendanceRepository) CreateStudent(ctx context.Context, s attendance.Student) (attendance.Student, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := studentRow{
		ID:              s.ID,
		Name:            s.Name,
		ClassLabel:      s.ClassLabel,
		RollNo:          s.RollNo,
		ParentEmail:     s.Parent.Email,
		ParentPushToken: s.Parent.PushToken,
		CreatedAt:       s.CreatedAt.UTC(),
	}
	q := `INSERT INTO student (` + studentColumns + `)
		VALUES (:id, :name, :class_label, :roll_no, :parent_email, :parent_push_token, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return attendance.Student{}, attendance.ErrRollNoExists
		}
		return attendance.Student{}, core.NewStoreError(err, "inserting student")
	}
	return row.student(), nil
}

func (repo *attendanceRepository) SetParentPushToken(ctx context.Context, studentID, token string) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE student SET parent_push_token = $1 WHERE id = $2`, token, studentID)
	if err != nil {
		return core.NewStoreError(err, "setting parent push token")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.ErrStudentNotFound
	}
	return nil
}

func (repo *attendanceRepository) selectRecords(ctx context.Context, q string, args ...interface{}) ([]attendance.Record, error) {
	var rows []recordRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, core.NewStoreError(err, "querying records")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return records, nil
}

func (repo *attendanceRepository) QueryRecordsByDate(ctx context.Context, date string) ([]attendance.Record, error) {
	return repo.selectRecords(ctx, `SELECT `+recordColumns+` FROM attendance_record WHERE date = $1`, date)
}

func (repo *attendanceRepository) QueryStudentRecords(ctx context.Context, studentID, from, to string) ([]attendance.Record, error) {
	q := `SELECT ` + recordColumns + ` FROM attendance_record WHERE student_id = ?`
	args := []interface{}{studentID}
	if from != "" {
		q += ` AND date >= ?`
		args = append(args, from)
	}
	if to != "" {
		q += ` AND date <= ?`
		args = append(args, to)
	}
	return repo.selectRecords(ctx, repo.db.Rebind(q+` ORDER BY date DESC`), args...)
}

func (repo *attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	rec.MarkedAt = time.Now().UTC()
	q := `INSERT INTO attendance_record (` + recordColumns + `)
		VALUES (:student_id, :date, :status, :marked_at)
		ON CONFLICT (student_id, date) DO UPDATE SET status = EXCLUDED.status, marked_at = EXCLUDED.marked_at`
	row := recordRow{StudentID: rec.StudentID, Date: rec.Date, Status: rec.Status, MarkedAt: rec.MarkedAt}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return attendance.Record{}, core.NewStoreError(err, "upserting record")
	}
	return rec, nil
}

func (repo *attendanceRepository) CreateAggregate(ctx context.Context, agg attendance.DailyAggregate) (attendance.DailyAggregate, error) {
	if agg.ID == "" {
		agg.ID = uuid.NewString()
	}
	row := aggregateRow{
		ID:          agg.ID,
		ClassLabel:  agg.ClassLabel,
		Date:        agg.Date,
		Entries:     entries(agg.Entries),
		SubmittedAt: agg.SubmittedAt.UTC(),
	}
	q := `INSERT INTO daily_aggregate (` + aggregateColumns + `)
		VALUES (:id, :class_label, :date, :entries, :submitted_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return attendance.DailyAggregate{}, attendance.ErrAlreadySubmitted
		}
		return attendance.DailyAggregate{}, core.NewStoreError(err, "inserting daily aggregate")
	}
	return row.aggregate(), nil
}

func (repo *attendanceRepository) GetAggregate(ctx context.Context, classLabel, date string) (attendance.DailyAggregate, error) {
	q := `SELECT ` + aggregateColumns + ` FROM daily_aggregate WHERE date = ?`
	args := []interface{}{date}
	if classLabel != "" {
		q += ` AND class_label = ?`
		args = append(args, classLabel)
	}
	q = repo.db.Rebind(q + ` ORDER BY submitted_at LIMIT 1`)

	var row aggregateRow
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return attendance.DailyAggregate{}, trapErr(err, attendance.ErrAggregateNotFound, "finding daily aggregate")
	}
	return row.aggregate(), nil
}

func (repo *attendanceRepository) QueryAggregates(ctx context.Context, date string) ([]attendance.DailyAggregate, error) {
	var rows []aggregateRow
	q := `SELECT ` + aggregateColumns + ` FROM daily_aggregate WHERE date = $1 ORDER BY class_label`
	if err := repo.db.SelectContext(ctx, &rows, q, date); err != nil {
		return nil, core.NewStoreError(err, "querying daily aggregates")
	}
	aggs := make([]attendance.DailyAggregate, 0, len(rows))
	for _, r := range rows {
		aggs = append(aggs, r.aggregate())
	}
	return aggs, nil
}
