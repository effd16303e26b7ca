package attendance

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/rollcall/core"
)

// Statuses
const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
	StatusLate    = "Late"
)

var AllStatuses = []string{StatusPresent, StatusAbsent, StatusLate}

// IsValidStatus tells whether s is one of AllStatuses.
func IsValidStatus(s string) bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

type (
	Parent struct {
		Email     string `json:"email"`
		PushToken string `json:"push_token,omitempty"`
	}

	Student struct {
		ID         string    `json:"id"`
		Name       string    `json:"name"`
		ClassLabel string    `json:"class_label"`
		RollNo     int       `json:"roll_no"`
		Parent     Parent    `json:"parent"`
		CreatedAt  time.Time `json:"created_at"` // UTC
	}

	// Record is the status of one student on one day. (StudentID, Date) is unique.
	Record struct {
		StudentID string    `json:"student_id"`
		Date      string    `json:"date"` // YYYY-MM-DD
		Status    string    `json:"status"`
		MarkedAt  time.Time `json:"marked_at"` // UTC
	}

	Entry struct {
		StudentID string `json:"student_id"`
		Name      string `json:"name"`
		RollNo    int    `json:"roll_no"`
		Status    string `json:"status"`
	}

	// DailyAggregate is the immutable snapshot of a class' attendance, written on submission.
	DailyAggregate struct {
		ID          string    `json:"id"`
		ClassLabel  string    `json:"class_label"`
		Date        string    `json:"date"`
		Entries     []Entry   `json:"entries"`
		SubmittedAt time.Time `json:"submitted_at"` // UTC
	}
)

type (
	ClassAttendance struct {
		Students     []Student         `json:"students"` // ascending by RollNo
		Attendance   map[string]string `json:"attendance"`
		AllSubmitted bool              `json:"all_submitted"`
	}

	// MonthSummary holds the attendance percentage of the month (nil when there are no records)
	// and the most recent records, newest first.
	MonthSummary struct {
		Percent *int     `json:"percent"`
		Recent  []Record `json:"recent"`
	}

	Summary struct {
		Present int `json:"present"`
		Absent  int `json:"absent"`
		Late    int `json:"late"`
	}

	DailySummary struct {
		Summary   Summary `json:"summary"`
		Absentees []Entry `json:"absentees"`
	}

	ParentOverview struct {
		Student *Student `json:"student"`
		MonthSummary
	}

	// NotifyResult reports the outcome of an absence notification. Failures are values, not errors.
	NotifyResult struct {
		Success bool   `json:"success"`
		Error   string `json:"error,omitempty"`
	}

	SubmitResult struct {
		Aggregate     DailyAggregate          `json:"aggregate"`
		Notifications map[string]NotifyResult `json:"notifications,omitempty"` // by student ID
	}

	// ClassReport is the DailySummary of one submitted class.
	ClassReport struct {
		ClassLabel string  `json:"class_label"`
		Summary    Summary `json:"summary"`
		Absentees  []Entry `json:"absentees"`
	}

	// RegisterRow is one student's line in a monthly register.
	RegisterRow struct {
		Student Student           `json:"student"`
		Days    map[string]string `json:"days"` // date -> status
		Percent *int              `json:"percent"`
	}

	MonthlyRegister struct {
		ClassLabel string        `json:"class_label"`
		Month      string        `json:"month"` // YYYY-MM
		Dates      []string      `json:"dates"` // every day of the month
		Rows       []RegisterRow `json:"rows"`
	}
)

// NewStudent contains information needed to enroll a Student.
type NewStudent struct {
	Name        string `json:"name" validate:"required,notblank"`
	ClassLabel  string `json:"class_label" validate:"required,notblank,classlabel"`
	RollNo      int    `json:"roll_no" validate:"required,min=1"`
	ParentEmail string `json:"parent_email" validate:"required,email"`
}

func (ns *NewStudent) Clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.ClassLabel = core.CleanString(ns.ClassLabel)
	ns.ParentEmail = core.CleanString(ns.ParentEmail, true /* lower */)
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Clean()
	return validate.Struct(ns)
}

// Mark is a request to set the status of a student on a day.
type Mark struct {
	Date   string `json:"date" validate:"required,isodate"`
	Status string `json:"status" validate:"required,attendance_status"`
}

func (m *Mark) Validate(validate *validator.Validate) error {
	m.Date = core.CleanString(m.Date)
	m.Status = core.CleanString(m.Status)
	return validate.Struct(m)
}

// ClassDay targets a class on a day (mark-all, submit).
type ClassDay struct {
	Date string `json:"date" validate:"required,isodate"`
}

func (cd *ClassDay) Validate(validate *validator.Validate) error {
	cd.Date = core.CleanString(cd.Date)
	return validate.Struct(cd)
}

// AbsenceNotice is a request to alert a student's parent about an absence.
type AbsenceNotice struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Date        string `json:"date"`
}

// Notifier sends absence alerts.
type Notifier interface {
	NotifyAbsence(ctx context.Context, studentID, studentName, date string) NotifyResult
}
