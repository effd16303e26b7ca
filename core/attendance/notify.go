package attendance

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
)

const absenceAlertTitle = "Attendance Alert"

var (
	errMissingStudentID = "missing studentId"
	errNoToken          = "no token registered"
)

// AbsenceNotifier pushes absence alerts to the parent device registered on a student.
type AbsenceNotifier struct {
	repo Repository
	push core.PushService
}

func NewAbsenceNotifier(repo Repository, push core.PushService) *AbsenceNotifier {
	return &AbsenceNotifier{repo: repo, push: push}
}

// NotifyAbsence sends exactly one push message to the parent of studentID.
// Every failure is reported in the result; nothing is retried.
func (n *AbsenceNotifier) NotifyAbsence(ctx context.Context, studentID, studentName, date string) NotifyResult {
	if studentID == "" {
		return NotifyResult{Error: errMissingStudentID}
	}

	student, err := n.repo.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Cause(err) == ErrStudentNotFound {
			return NotifyResult{Error: errNoToken}
		}
		return NotifyResult{Error: err.Error()}
	}
	if student.Parent.PushToken == "" {
		return NotifyResult{Error: errNoToken}
	}

	msg := &core.PushMessage{
		Token: student.Parent.PushToken,
		Title: absenceAlertTitle,
		Body:  AbsenceAlertBody(studentName, date),
		Data:  map[string]string{"student_id": studentID, "date": date},
	}
	if err = n.push.Send(ctx, msg); err != nil {
		return NotifyResult{Error: err.Error()}
	}
	return NotifyResult{Success: true}
}

func AbsenceAlertBody(studentName, date string) string {
	return fmt.Sprintf("%s was marked Absent on %s", studentName, date)
}
