package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/rollcall/core/attendance"
)

type attendanceRepository struct {
	students   *studentTable
	records    *recordTable
	aggregates *aggregateTable
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{
		students:   db.student,
		records:    db.record,
		aggregates: db.aggregates,
	}
}

func (repo *attendanceRepository) QueryStudents(_ context.Context, classLabel string) ([]attendance.Student, error) {
	repo.students.mutex.RLock()
	defer repo.students.mutex.RUnlock()

	students := make([]attendance.Student, 0)
	for _, s := range repo.students.table {
		if s.ClassLabel == classLabel {
			students = append(students, *s)
		}
	}
	return students, nil
}

func (repo *attendanceRepository) GetStudent(_ context.Context, id string) (attendance.Student, error) {
	repo.students.mutex.RLock()
	defer repo.students.mutex.RUnlock()

	if s, ok := repo.students.table[id]; ok {
		return *s, nil
	}
	return attendance.Student{}, attendance.ErrStudentNotFound
}

func (repo *attendanceRepository) GetStudentByParentEmail(_ context.Context, email string) (attendance.Student, error) {
	repo.students.mutex.RLock()
	defer repo.students.mutex.RUnlock()

	var found *attendance.Student
	for _, s := range repo.students.table {
		// oldest enrollment wins, the map order is random
		if s.Parent.Email == email && (found == nil || s.CreatedAt.Before(found.CreatedAt)) {
			found = s
		}
	}
	if found == nil {
		return attendance.Student{}, attendance.ErrStudentNotFound
	}
	return *found, nil
}

func (repo *attendanceRepository) CreateStudent(_ context.Context, s attendance.Student) (attendance.Student, error) {
	repo.students.mutex.Lock()
	defer repo.students.mutex.Unlock()

	for _, st := range repo.students.table {
		if st.ClassLabel == s.ClassLabel && st.RollNo == s.RollNo {
			return attendance.Student{}, attendance.ErrRollNoExists
		}
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	repo.students.table[s.ID] = &s
	return s, nil
}

func (repo *attendanceRepository) SetParentPushToken(_ context.Context, studentID, token string) error {
	repo.students.mutex.Lock()
	defer repo.students.mutex.Unlock()

	s, ok := repo.students.table[studentID]
	if !ok {
		return attendance.ErrStudentNotFound
	}
	s.Parent.PushToken = token
	return nil
}

func (repo *attendanceRepository) QueryRecordsByDate(_ context.Context, date string) ([]attendance.Record, error) {
	repo.records.mutex.RLock()
	defer repo.records.mutex.RUnlock()

	records := make([]attendance.Record, 0)
	for key, rec := range repo.records.table {
		if key.date == date {
			records = append(records, *rec)
		}
	}
	return records, nil
}

func (repo *attendanceRepository) QueryStudentRecords(_ context.Context, studentID, from, to string) ([]attendance.Record, error) {
	repo.records.mutex.RLock()
	defer repo.records.mutex.RUnlock()

	records := make([]attendance.Record, 0)
	for key, rec := range repo.records.table {
		if key.studentID != studentID {
			continue
		}
		if (from != "" && key.date < from) || (to != "" && key.date > to) {
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

func (repo *attendanceRepository) UpsertRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.records.mutex.Lock()
	defer repo.records.mutex.Unlock()

	rec.MarkedAt = time.Now().UTC()
	repo.records.table[recordKey{studentID: rec.StudentID, date: rec.Date}] = &rec
	return rec, nil
}

func (repo *attendanceRepository) CreateAggregate(_ context.Context, agg attendance.DailyAggregate) (attendance.DailyAggregate, error) {
	repo.aggregates.mutex.Lock()
	defer repo.aggregates.mutex.Unlock()

	for _, a := range repo.aggregates.rows {
		if a.ClassLabel == agg.ClassLabel && a.Date == agg.Date {
			return attendance.DailyAggregate{}, attendance.ErrAlreadySubmitted
		}
	}
	if agg.ID == "" {
		agg.ID = uuid.NewString()
	}
	agg.Entries = append([]attendance.Entry(nil), agg.Entries...)
	repo.aggregates.rows = append(repo.aggregates.rows, &agg)
	return agg, nil
}

func (repo *attendanceRepository) GetAggregate(_ context.Context, classLabel, date string) (attendance.DailyAggregate, error) {
	repo.aggregates.mutex.RLock()
	defer repo.aggregates.mutex.RUnlock()

	for _, a := range repo.aggregates.rows {
		if a.Date == date && (classLabel == "" || a.ClassLabel == classLabel) {
			return *a, nil
		}
	}
	return attendance.DailyAggregate{}, attendance.ErrAggregateNotFound
}

func (repo *attendanceRepository) QueryAggregates(_ context.Context, date string) ([]attendance.DailyAggregate, error) {
	repo.aggregates.mutex.RLock()
	defer repo.aggregates.mutex.RUnlock()

	aggs := make([]attendance.DailyAggregate, 0)
	for _, a := range repo.aggregates.rows {
		if a.Date == date {
			aggs = append(aggs, *a)
		}
	}
	return aggs, nil
}
