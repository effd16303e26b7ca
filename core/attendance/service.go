package attendance

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/user"
)

const dailyReportTemplate = "daily_report"

var ErrForbidden = errors.New("permission denied")

// AdminDirectory lists the admins who receive the daily report.
type AdminDirectory interface {
	Admins(ctx context.Context) ([]user.User, error)
}

type Service struct {
	repo           Repository
	notifier       Notifier
	admins         AdminDirectory
	mailSvc        core.EmailService
	notifyOnSubmit bool
}

func NewService(
	repo Repository,
	notifier Notifier,
	admins AdminDirectory,
	mailSvc core.EmailService,
	conf *core.Config,
) *Service {
	return &Service{
		repo:           repo,
		notifier:       notifier,
		admins:         admins,
		mailSvc:        mailSvc,
		notifyOnSubmit: conf.Attendance.NotifyOnSubmit,
	}
}

// Reconcile merges the roster of classLabel with the records of date. It has no side effects.
func (svc *Service) Reconcile(ctx context.Context, classLabel, date string) (ClassAttendance, error) {
	students, err := svc.repo.QueryStudents(ctx, classLabel)
	if err != nil {
		return ClassAttendance{}, errors.Wrap(err, "querying students")
	}
	records, err := svc.repo.QueryRecordsByDate(ctx, date)
	if err != nil {
		return ClassAttendance{}, errors.Wrap(err, "querying records by date")
	}
	return Reconcile(students, records), nil
}

// ClassAttendance is Reconcile on behalf of sess.
func (svc *Service) ClassAttendance(ctx context.Context, sess *user.Session, classLabel, date string) (ClassAttendance, error) {
	if !sess.CanAccessClass(classLabel) {
		return ClassAttendance{}, ErrForbidden
	}
	return svc.Reconcile(ctx, classLabel, date)
}

// IsSubmitted tells whether a DailyAggregate exists for (classLabel, date).
func (svc *Service) IsSubmitted(ctx context.Context, classLabel, date string) (bool, error) {
	if _, err := svc.repo.GetAggregate(ctx, classLabel, date); err != nil {
		if errors.Cause(err) == ErrAggregateNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "getting aggregate")
	}
	return true, nil
}

func (svc *Service) Student(ctx context.Context, id string) (Student, error) {
	student, err := svc.repo.GetStudent(ctx, id)
	return student, errors.Wrap(err, "getting student")
}

// MarkStatus upserts the record of (studentID, date).
func (svc *Service) MarkStatus(ctx context.Context, sess *user.Session, studentID, date, status string) (Record, error) {
	if !IsValidStatus(status) {
		return Record{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: statusText})
	}
	student, err := svc.repo.GetStudent(ctx, studentID)
	if err != nil {
		return Record{}, errors.Wrap(err, "getting student")
	}
	if !sess.CanAccessClass(student.ClassLabel) {
		return Record{}, ErrForbidden
	}
	rec, err := svc.repo.UpsertRecord(ctx, Record{StudentID: studentID, Date: date, Status: status})
	return rec, errors.Wrap(err, "upserting record")
}

// MarkAllPresent marks every student of classLabel Present, one after the other.
// The first failure stops the loop; records already written are kept.
func (svc *Service) MarkAllPresent(ctx context.Context, sess *user.Session, classLabel, date string) (int, error) {
	if !sess.CanAccessClass(classLabel) {
		return 0, ErrForbidden
	}
	students, err := svc.repo.QueryStudents(ctx, classLabel)
	if err != nil {
		return 0, errors.Wrap(err, "querying students")
	}
	sort.SliceStable(students, func(i, j int) bool { return students[i].RollNo < students[j].RollNo })

	var marked int
	for _, s := range students {
		if _, err = svc.repo.UpsertRecord(ctx, Record{StudentID: s.ID, Date: date, Status: StatusPresent}); err != nil {
			return marked, errors.Wrapf(err, "marking student %s present", s.ID)
		}
		marked++
	}
	return marked, nil
}

// Submit snapshots the reconciled attendance of (classLabel, date) into a DailyAggregate.
// When enabled, the parents of the absentees are notified once the aggregate is written.
func (svc *Service) Submit(ctx context.Context, sess *user.Session, classLabel, date string) (SubmitResult, error) {
	if !sess.CanAccessClass(classLabel) {
		return SubmitResult{}, ErrForbidden
	}
	ca, err := svc.Reconcile(ctx, classLabel, date)
	if err != nil {
		return SubmitResult{}, errors.Wrap(err, "reconciling")
	}

	agg, err := svc.repo.CreateAggregate(ctx, DailyAggregate{
		ID:          uuid.NewString(),
		ClassLabel:  classLabel,
		Date:        date,
		Entries:     ca.Entries(),
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		return SubmitResult{}, errors.Wrap(err, "creating aggregate")
	}

	res := SubmitResult{Aggregate: agg}
	if svc.notifyOnSubmit {
		absent := ca.Absentees()
		if len(absent) > 0 {
			res.Notifications = make(map[string]NotifyResult, len(absent))
		}
		for _, s := range absent {
			res.Notifications[s.ID] = svc.notifier.NotifyAbsence(ctx, s.ID, s.Name, date)
		}
	}
	return res, nil
}

// RegisterPushToken stores the device token of the parent in sess on their child.
func (svc *Service) RegisterPushToken(ctx context.Context, sess *user.Session, token string) error {
	if !sess.IsParent() {
		return ErrForbidden
	}
	student, err := svc.repo.GetStudentByParentEmail(ctx, sess.Email)
	if err != nil {
		return errors.Wrap(err, "getting student by parent email")
	}
	return errors.Wrap(svc.repo.SetParentPushToken(ctx, student.ID, token), "setting parent push token")
}

// EnrollStudent adds a Student to a class. Roll numbers are unique within a class.
func (svc *Service) EnrollStudent(ctx context.Context, ns NewStudent) (Student, error) {
	students, err := svc.repo.QueryStudents(ctx, ns.ClassLabel)
	if err != nil {
		return Student{}, errors.Wrap(err, "querying students")
	}
	for _, s := range students {
		if s.RollNo == ns.RollNo {
			return Student{}, core.NewValidationError(
				ErrRollNoExists,
				core.FieldError{Field: "roll_no", Error: ErrRollNoExists.Error()},
			)
		}
	}

	student, err := svc.repo.CreateStudent(ctx, Student{
		Name:       ns.Name,
		ClassLabel: ns.ClassLabel,
		RollNo:     ns.RollNo,
		Parent:     Parent{Email: ns.ParentEmail},
		CreatedAt:  time.Now().UTC(),
	})
	return student, errors.Wrap(err, "creating student")
}

// SummarizeMonth computes the attendance percentage of studentID since the first day of ref's month
// and lists its most recent records.
func (svc *Service) SummarizeMonth(ctx context.Context, studentID string, ref time.Time) (MonthSummary, error) {
	records, err := svc.repo.QueryStudentRecords(ctx, studentID, monthStartDate(ref), "")
	if err != nil {
		return MonthSummary{}, errors.Wrap(err, "querying student records")
	}
	return SummarizeRecords(records), nil
}

// StudentSummary is SummarizeMonth on behalf of sess.
func (svc *Service) StudentSummary(ctx context.Context, sess *user.Session, studentID string, ref time.Time) (MonthSummary, error) {
	student, err := svc.repo.GetStudent(ctx, studentID)
	if err != nil {
		return MonthSummary{}, errors.Wrap(err, "getting student")
	}
	if !sess.CanAccessClass(student.ClassLabel) {
		return MonthSummary{}, ErrForbidden
	}
	return svc.SummarizeMonth(ctx, studentID, ref)
}

// ParentOverview finds the child of the parent in sess and summarizes its month.
// A parent without a linked student gets an empty overview, not an error.
func (svc *Service) ParentOverview(ctx context.Context, sess *user.Session, ref time.Time) (ParentOverview, error) {
	if !sess.IsParent() {
		return ParentOverview{}, ErrForbidden
	}
	student, err := svc.repo.GetStudentByParentEmail(ctx, sess.Email)
	if err != nil {
		if errors.Cause(err) == ErrStudentNotFound {
			return ParentOverview{MonthSummary: MonthSummary{Recent: []Record{}}}, nil
		}
		return ParentOverview{}, errors.Wrap(err, "getting student by parent email")
	}

	ms, err := svc.SummarizeMonth(ctx, student.ID, ref)
	if err != nil {
		return ParentOverview{}, err
	}
	return ParentOverview{Student: &student, MonthSummary: ms}, nil
}

// SummarizeDaily counts the statuses of the aggregate submitted for (classLabel, date).
// An empty classLabel selects the first aggregate of the date. No aggregate yields zero counts.
func (svc *Service) SummarizeDaily(ctx context.Context, classLabel, date string) (DailySummary, error) {
	agg, err := svc.repo.GetAggregate(ctx, classLabel, date)
	if err != nil {
		if errors.Cause(err) == ErrAggregateNotFound {
			return DailySummary{Absentees: []Entry{}}, nil
		}
		return DailySummary{}, errors.Wrap(err, "getting aggregate")
	}
	return SummarizeAggregate(agg), nil
}

// NotifyAbsence alerts the parent of studentID. See AbsenceNotifier.
// A student outside the classes of sess is refused; lookup failures are left to the notifier's result.
func (svc *Service) NotifyAbsence(ctx context.Context, sess *user.Session, studentID, studentName, date string) (NotifyResult, error) {
	if studentID != "" {
		if student, err := svc.repo.GetStudent(ctx, studentID); err == nil && !sess.CanAccessClass(student.ClassLabel) {
			return NotifyResult{}, ErrForbidden
		}
	}
	return svc.notifier.NotifyAbsence(ctx, studentID, studentName, date), nil
}

// DailyReport summarizes every class submitted on date and emails the result to the active admins.
func (svc *Service) DailyReport(ctx context.Context, date string) ([]ClassReport, error) {
	aggs, err := svc.repo.QueryAggregates(ctx, date)
	if err != nil {
		return nil, errors.Wrap(err, "querying aggregates")
	}
	sort.Slice(aggs, func(i, j int) bool { return aggs[i].ClassLabel < aggs[j].ClassLabel })

	reports := make([]ClassReport, 0, len(aggs))
	for _, agg := range aggs {
		ds := SummarizeAggregate(agg)
		reports = append(reports, ClassReport{ClassLabel: agg.ClassLabel, Summary: ds.Summary, Absentees: ds.Absentees})
	}

	admins, err := svc.admins.Admins(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying admins")
	}
	if len(admins) == 0 {
		return reports, nil
	}

	to := make([]mail.Address, 0, len(admins))
	for _, adm := range admins {
		to = append(to, mail.Address{Name: adm.Name, Address: adm.Email})
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           to,
		Subject:      fmt.Sprintf("Attendance report for %s", date),
		TemplateName: dailyReportTemplate,
		TemplateData: map[string]interface{}{"Date": date, "Classes": reports},
	})
	return reports, nil
}

// MonthlyRegister lists, for every student of classLabel, its statuses on each day of month.
func (svc *Service) MonthlyRegister(ctx context.Context, sess *user.Session, classLabel string, month time.Time) (MonthlyRegister, error) {
	if !sess.CanAccessClass(classLabel) {
		return MonthlyRegister{}, ErrForbidden
	}
	students, err := svc.repo.QueryStudents(ctx, classLabel)
	if err != nil {
		return MonthlyRegister{}, errors.Wrap(err, "querying students")
	}
	sort.SliceStable(students, func(i, j int) bool { return students[i].RollNo < students[j].RollNo })

	dates := monthDates(month)
	reg := MonthlyRegister{
		ClassLabel: classLabel,
		Month:      month.Format(core.MonthLayout),
		Dates:      dates,
		Rows:       make([]RegisterRow, 0, len(students)),
	}
	for _, s := range students {
		records, err := svc.repo.QueryStudentRecords(ctx, s.ID, dates[0], dates[len(dates)-1])
		if err != nil {
			return MonthlyRegister{}, errors.Wrapf(err, "querying records of student %s", s.ID)
		}
		row := RegisterRow{Student: s, Days: make(map[string]string, len(records))}
		for _, rec := range records {
			row.Days[rec.Date] = rec.Status
		}
		row.Percent = SummarizeRecords(records).Percent
		reg.Rows = append(reg.Rows, row)
	}
	return reg, nil
}
