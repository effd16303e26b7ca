package firestorerepos

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
)

type (
	parentDoc struct {
		Email     string `firestore:"email"`
		PushToken string `firestore:"pushToken,omitempty"`
	}

	studentDoc struct {
		Name       string    `firestore:"name"`
		ClassLabel string    `firestore:"classLabel"`
		RollNo     int       `firestore:"rollNo"`
		Parent     parentDoc `firestore:"parent"`
		CreatedAt  time.Time `firestore:"createdAt"`
	}

	recordDoc struct {
		StudentID string    `firestore:"studentId"`
		Date      string    `firestore:"date"`
		Status    string    `firestore:"status"`
		MarkedAt  time.Time `firestore:"markedAt,serverTimestamp"`
	}

	entryDoc struct {
		StudentID string `firestore:"studentId"`
		Name      string `firestore:"name"`
		RollNo    int    `firestore:"rollNo"`
		Status    string `firestore:"status"`
	}

	aggregateDoc struct {
		ID          string     `firestore:"id"`
		ClassLabel  string     `firestore:"classLabel"`
		Date        string     `firestore:"date"`
		Entries     []entryDoc `firestore:"entries"`
		SubmittedAt time.Time  `firestore:"submittedAt"`
	}
)

func (d studentDoc) student(id string) attendance.Student {
	return attendance.Student{
		ID:         id,
		Name:       d.Name,
		ClassLabel: d.ClassLabel,
		RollNo:     d.RollNo,
		Parent:     attendance.Parent{Email: d.Parent.Email, PushToken: d.Parent.PushToken},
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

func (d recordDoc) record() attendance.Record {
	return attendance.Record{StudentID: d.StudentID, Date: d.Date, Status: d.Status, MarkedAt: d.MarkedAt.UTC()}
}

func toAggregateDoc(agg attendance.DailyAggregate) aggregateDoc {
	doc := aggregateDoc{
		ID:          agg.ID,
		ClassLabel:  agg.ClassLabel,
		Date:        agg.Date,
		Entries:     make([]entryDoc, 0, len(agg.Entries)),
		SubmittedAt: agg.SubmittedAt.UTC(),
	}
	for _, e := range agg.Entries {
		doc.Entries = append(doc.Entries, entryDoc(e))
	}
	return doc
}

func (d aggregateDoc) aggregate() attendance.DailyAggregate {
	agg := attendance.DailyAggregate{
		ID:          d.ID,
		ClassLabel:  d.ClassLabel,
		Date:        d.Date,
		Entries:     make([]attendance.Entry, 0, len(d.Entries)),
		SubmittedAt: d.SubmittedAt.UTC(),
	}
	for _, e := range d.Entries {
		agg.Entries = append(agg.Entries, attendance.Entry(e))
	}
	return agg
}

type attendanceRepository struct {
	client *firestore.Client
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(client *firestore.Client) attendance.Repository {
	return &attendanceRepository{client: client}
}

func (repo *attendanceRepository) students() *firestore.CollectionRef {
	return repo.client.Collection(studentsCollection)
}

func (repo *attendanceRepository) records() *firestore.CollectionRef {
	return repo.client.Collection(attendanceCollection)
}

func (repo *attendanceRepository) aggregates() *firestore.CollectionRef {
	return repo.client.Collection(aggregatesCollection)
}

func queryStudents(ctx context.Context, q firestore.Query) ([]attendance.Student, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	students := make([]attendance.Student, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, core.NewStoreError(err, "querying students")
		}
		var doc studentDoc
		if err = snap.DataTo(&doc); err != nil {
			return nil, core.NewStoreError(err, "decoding student")
		}
		students = append(students, doc.student(snap.Ref.ID))
	}
	return students, nil
}

func (repo *attendanceRepository) QueryStudents(ctx context.Context, classLabel string) ([]attendance.Student, error) {
	return queryStudents(ctx, repo.students().Where("classLabel", "==", classLabel))
}

func (repo *attendanceRepository) GetStudent(ctx context.Context, id string) (attendance.Student, error) {
	if id == "" {
		return attendance.Student{}, attendance.ErrStudentNotFound
	}
	snap, err := repo.students().Doc(id).Get(ctx)
	if err != nil {
		return attendance.Student{}, trapErr(err, attendance.ErrStudentNotFound, "getting student")
	}
	var doc studentDoc
	if err = snap.DataTo(&doc); err != nil {
		return attendance.Student{}, core.NewStoreError(err, "decoding student")
	}
	return doc.student(snap.Ref.ID), nil
}

func (repo *attendanceRepository) GetStudentByParentEmail(ctx context.Context, email string) (attendance.Student, error) {
	students, err := queryStudents(ctx, repo.students().Where("parent.email", "==", email).Limit(1))
	if err != nil {
		return attendance.Student{}, err
	}
	if len(students) == 0 {
		return attendance.Student{}, attendance.ErrStudentNotFound
	}
	return students[0], nil
}

func (repo *attendanceRepository) CreateStudent(ctx context.Context, s attendance.Student) (attendance.Student, error) {
	taken, err := queryStudents(ctx, repo.students().
		Where("classLabel", "==", s.ClassLabel).
		Where("rollNo", "==", s.RollNo).
		Limit(1))
	if err != nil {
		return attendance.Student{}, err
	}
	if len(taken) > 0 {
		return attendance.Student{}, attendance.ErrRollNoExists
	}

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	doc := studentDoc{
		Name:       s.Name,
		ClassLabel: s.ClassLabel,
		RollNo:     s.RollNo,
		Parent:     parentDoc{Email: s.Parent.Email, PushToken: s.Parent.PushToken},
		CreatedAt:  s.CreatedAt.UTC(),
	}
	if _, err = repo.students().Doc(s.ID).Create(ctx, doc); err != nil {
		return attendance.Student{}, core.NewStoreError(err, "creating student")
	}
	return s, nil
}

func (repo *attendanceRepository) SetParentPushToken(ctx context.Context, studentID, token string) error {
	_, err := repo.students().Doc(studentID).Update(ctx, []firestore.Update{{Path: "parent.pushToken", Value: token}})
	return trapErr(err, attendance.ErrStudentNotFound, "setting parent push token")
}

func queryRecords(ctx context.Context, q firestore.Query) ([]attendance.Record, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	records := make([]attendance.Record, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, core.NewStoreError(err, "querying records")
		}
		var doc recordDoc
		if err = snap.DataTo(&doc); err != nil {
			return nil, core.NewStoreError(err, "decoding record")
		}
		records = append(records, doc.record())
	}
	return records, nil
}

func (repo *attendanceRepository) QueryRecordsByDate(ctx context.Context, date string) ([]attendance.Record, error) {
	return queryRecords(ctx, repo.records().Where("date", "==", date))
}

func (repo *attendanceRepository) QueryStudentRecords(ctx context.Context, studentID, from, to string) ([]attendance.Record, error) {
	q := repo.records().Where("studentId", "==", studentID)
	if from != "" {
		q = q.Where("date", ">=", from)
	}
	if to != "" {
		q = q.Where("date", "<=", to)
	}
	return queryRecords(ctx, q)
}

func (repo *attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	doc := recordDoc{StudentID: rec.StudentID, Date: rec.Date, Status: rec.Status} // MarkedAt: server timestamp
	res, err := repo.records().Doc(compositeID(rec.StudentID, rec.Date)).Set(ctx, doc)
	if err != nil {
		return attendance.Record{}, core.NewStoreError(err, "upserting record")
	}
	rec.MarkedAt = res.UpdateTime.UTC()
	return rec, nil
}

func (repo *attendanceRepository) CreateAggregate(ctx context.Context, agg attendance.DailyAggregate) (attendance.DailyAggregate, error) {
	if agg.ID == "" {
		agg.ID = uuid.NewString()
	}
	_, err := repo.aggregates().Doc(compositeID(agg.ClassLabel, agg.Date)).Create(ctx, toAggregateDoc(agg))
	if err != nil {
		if isCode(err, codes.AlreadyExists) {
			return attendance.DailyAggregate{}, attendance.ErrAlreadySubmitted
		}
		return attendance.DailyAggregate{}, core.NewStoreError(err, "creating daily aggregate")
	}
	return agg, nil
}

func (repo *attendanceRepository) GetAggregate(ctx context.Context, classLabel, date string) (attendance.DailyAggregate, error) {
	if classLabel != "" {
		snap, err := repo.aggregates().Doc(compositeID(classLabel, date)).Get(ctx)
		if err != nil {
			return attendance.DailyAggregate{}, trapErr(err, attendance.ErrAggregateNotFound, "getting daily aggregate")
		}
		var doc aggregateDoc
		if err = snap.DataTo(&doc); err != nil {
			return attendance.DailyAggregate{}, core.NewStoreError(err, "decoding daily aggregate")
		}
		return doc.aggregate(), nil
	}

	aggs, err := repo.queryAggregates(ctx, repo.aggregates().Where("date", "==", date).Limit(1))
	if err != nil {
		return attendance.DailyAggregate{}, err
	}
	if len(aggs) == 0 {
		return attendance.DailyAggregate{}, attendance.ErrAggregateNotFound
	}
	return aggs[0], nil
}

func (repo *attendanceRepository) QueryAggregates(ctx context.Context, date string) ([]attendance.DailyAggregate, error) {
	return repo.queryAggregates(ctx, repo.aggregates().Where("date", "==", date))
}

func (repo *attendanceRepository) queryAggregates(ctx context.Context, q firestore.Query) ([]attendance.DailyAggregate, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	aggs := make([]attendance.DailyAggregate, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, core.NewStoreError(err, "querying daily aggregates")
		}
		var doc aggregateDoc
		if err = snap.DataTo(&doc); err != nil {
			return nil, core.NewStoreError(err, "decoding daily aggregate")
		}
		aggs = append(aggs, doc.aggregate())
	}
	return aggs, nil
}
