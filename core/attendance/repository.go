package attendance

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrStudentNotFound   = errors.New("student not found")
	ErrAggregateNotFound = errors.New("daily aggregate not found")
	ErrAlreadySubmitted  = errors.New("attendance already submitted for this class and date")
	ErrRollNoExists      = errors.New("a student with this roll number already exists in the class")
)

// Repository is the attendance store. Implementations wrap transport/driver failures with core.NewStoreError.
type Repository interface {
	// QueryStudents returns the students of classLabel, in no particular order.
	QueryStudents(ctx context.Context, classLabel string) ([]Student, error)
	GetStudent(ctx context.Context, id string) (Student, error)
	// GetStudentByParentEmail returns the first student whose parent has this email.
	GetStudentByParentEmail(ctx context.Context, email string) (Student, error)
	CreateStudent(ctx context.Context, s Student) (Student, error)
	SetParentPushToken(ctx context.Context, studentID, token string) error

	// QueryRecordsByDate returns every record of date, across all students.
	QueryRecordsByDate(ctx context.Context, date string) ([]Record, error)
	// QueryStudentRecords returns the records of a student dated within [from, to]; an empty bound is open.
	QueryStudentRecords(ctx context.Context, studentID, from, to string) ([]Record, error)
	// UpsertRecord creates or replaces the record at (StudentID, Date), setting MarkedAt.
	UpsertRecord(ctx context.Context, rec Record) (Record, error)

	// CreateAggregate fails with ErrAlreadySubmitted if (ClassLabel, Date) already exists.
	CreateAggregate(ctx context.Context, agg DailyAggregate) (DailyAggregate, error)
	// GetAggregate returns the aggregate of (classLabel, date). An empty classLabel matches any class.
	GetAggregate(ctx context.Context, classLabel, date string) (DailyAggregate, error)
	QueryAggregates(ctx context.Context, date string) ([]DailyAggregate, error)
}
