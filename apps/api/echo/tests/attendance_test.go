package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	. "github.com/trezcool/rollcall/apps/api/echo"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/user"
	"github.com/trezcool/rollcall/services/export"
	"github.com/trezcool/rollcall/tests"
)

const date = "2024-03-04"

type staff struct {
	admin, teacher, other, parent string // tokens
}

func (f *fixture) staff(t *testing.T) staff {
	admin := testutil.CreateUser(t, f.usrRepo, "Admin", "admin@test.cd", pwd, user.RoleAdmin, "", true)
	teacher := testutil.CreateUser(t, f.usrRepo, "Teacher", "teacher@test.cd", pwd, user.RoleTeacher, "5B", true)
	other := testutil.CreateUser(t, f.usrRepo, "Other", "other@test.cd", pwd, user.RoleTeacher, "6A", true)
	parent := testutil.CreateUser(t, f.usrRepo, "Parent", "parent1.5B@test.cd", pwd, user.RoleParent, "", true)
	return staff{
		admin:   f.token(t, admin),
		teacher: f.token(t, teacher),
		other:   f.token(t, other),
		parent:  f.token(t, parent),
	}
}

func Test_attendanceApi_classAttendance(t *testing.T) {
	f := setup(t)
	tokens := f.staff(t)
	students := testutil.CreateClass(t, f.repo, "5B", 3)
	testutil.Mark(t, f.repo, students[0].ID, date, attendance.StatusPresent)
	testutil.Mark(t, f.repo, students[2].ID, date, attendance.StatusLate)

	forbidden := marchallObj(t, httpErr{Error: "permission denied"})
	tests := []httpTest{
		{
			name:     "no token",
			path:     "/v1/classes/5B/attendance?date=" + date,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "parent",
			path:     "/v1/classes/5B/attendance?date=" + date,
			token:    tokens.parent,
			wantCode: http.StatusForbidden,
			wantData: forbidden,
		},
		{
			name:     "teacher of another class",
			path:     "/v1/classes/5B/attendance?date=" + date,
			token:    tokens.other,
			wantCode: http.StatusForbidden,
			wantData: forbidden,
		},
		{
			name:     "invalid date",
			path:     "/v1/classes/5B/attendance?date=04/03/2024",
			token:    tokens.teacher,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"date":"must be a date formatted as YYYY-MM-DD"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodGet
			checkCodeAndData(t, tt, f.do(tt))
		})
	}

	for _, token := range []string{tokens.teacher, tokens.admin} {
		rec := f.do(httpTest{method: http.MethodGet, path: "/v1/classes/5B/attendance?date=" + date, token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var ca attendance.ClassAttendance
		unmarshal(t, rec, &ca)
		require.Len(t, ca.Students, 3)
		assert.Equal(t, map[string]string{
			students[0].ID: attendance.StatusPresent,
			students[1].ID: attendance.StatusAbsent,
			students[2].ID: attendance.StatusLate,
		}, ca.Attendance)
		assert.False(t, ca.AllSubmitted)
	}
}

func Test_attendanceApi_markAndSubmit(t *testing.T) {
	f := setup(t)
	tokens := f.staff(t)
	students := testutil.CreateClass(t, f.repo, "5B", 3)
	other := testutil.CreateClass(t, f.repo, "6A", 1)

	markPath := func(id string) string { return "/v1/classes/5B/attendance/" + id }
	t.Run("mark validation", func(t *testing.T) {
		tests := []httpTest{
			{
				name:     "invalid status",
				body:     []byte(`{"date":"` + date + `","status":"Sick"}`),
				wantCode: http.StatusBadRequest,
				wantData: []byte(`{"status":"status must be one of Present, Absent, Late"}`),
			},
			{
				name:     "missing date",
				body:     []byte(`{"status":"Late"}`),
				wantCode: http.StatusBadRequest,
				wantData: []byte(`{"date":"this field is required"}`),
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tt.method, tt.path, tt.token = http.MethodPut, markPath(students[0].ID), tokens.teacher
				checkCodeAndData(t, tt, f.do(tt))
			})
		}
	})

	t.Run("mark unknown student", func(t *testing.T) {
		rec := f.do(httpTest{
			method: http.MethodPut,
			path:   markPath("nope"),
			token:  tokens.teacher,
			body:   []byte(`{"date":"` + date + `","status":"Late"}`),
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("mark student of another class", func(t *testing.T) {
		rec := f.do(httpTest{
			method: http.MethodPut,
			path:   markPath(other[0].ID),
			token:  tokens.teacher,
			body:   []byte(`{"date":"` + date + `","status":"Late"}`),
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("mark all then override one", func(t *testing.T) {
		rec := f.do(httpTest{
			method: http.MethodPost,
			path:   "/v1/classes/5B/attendance/mark-all",
			token:  tokens.teacher,
			body:   []byte(`{"date":"` + date + `"}`),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"marked":3}`, rec.Body.String())

		rec = f.do(httpTest{
			method: http.MethodPut,
			path:   markPath(students[1].ID),
			token:  tokens.teacher,
			body:   []byte(`{"date":"` + date + `","status":"Absent"}`),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var saved attendance.Record
		unmarshal(t, rec, &saved)
		assert.Equal(t, attendance.StatusAbsent, saved.Status)
		assert.False(t, saved.MarkedAt.IsZero())
	})

	t.Run("submit", func(t *testing.T) {
		rec := f.do(httpTest{
			method: http.MethodPost,
			path:   "/v1/classes/5B/attendance/submit",
			token:  tokens.teacher,
			body:   []byte(`{"date":"` + date + `"}`),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res attendance.SubmitResult
		unmarshal(t, rec, &res)
		assert.Equal(t, "5B", res.Aggregate.ClassLabel)
		require.Len(t, res.Aggregate.Entries, 3)
		assert.Equal(t, attendance.StatusAbsent, res.Aggregate.Entries[1].Status)
		assert.Equal(t, map[string]attendance.NotifyResult{students[1].ID: {Success: true}}, res.Notifications)

		sent := f.push.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "token-5B-2", sent[0].Token)
		assert.Equal(t, "Student 5B-2 was marked Absent on "+date, sent[0].Body)
	})

	t.Run("writes once submitted", func(t *testing.T) {
		conflict := marchallObj(t, httpErr{Error: "attendance already submitted"})
		tests := []httpTest{
			{
				name:   "mark",
				method: http.MethodPut,
				path:   markPath(students[0].ID),
				body:   []byte(`{"date":"` + date + `","status":"Late"}`),
			},
			{
				name:   "mark all",
				method: http.MethodPost,
				path:   "/v1/classes/5B/attendance/mark-all",
				body:   []byte(`{"date":"` + date + `"}`),
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tt.token, tt.wantCode, tt.wantData = tokens.teacher, http.StatusConflict, conflict
				checkCodeAndData(t, tt, f.do(tt))
			})
		}

		rec := f.do(httpTest{
			method: http.MethodPost,
			path:   "/v1/classes/5B/attendance/submit",
			token:  tokens.admin,
			body:   []byte(`{"date":"` + date + `"}`),
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"error":"`+attendance.ErrAlreadySubmitted.Error()+`"}`, rec.Body.String())

		// other days stay open
		rec = f.do(httpTest{
			method: http.MethodPut,
			path:   markPath(students[0].ID),
			token:  tokens.teacher,
			body:   []byte(`{"date":"2024-03-05","status":"Late"}`),
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("daily summary", func(t *testing.T) {
		tests := []httpTest{
			{
				name:     "teacher",
				path:     "/v1/summary?date=" + date,
				token:    tokens.teacher,
				wantCode: http.StatusForbidden,
			},
			{
				name:     "slash in class",
				path:     "/v1/summary?date=" + date + "&class=5%2FB",
				token:    tokens.admin,
				wantCode: http.StatusBadRequest,
				wantData: []byte(`{"class":"class label cannot contain '/'"}`),
			},
			{
				name:     "unsubmitted day",
				path:     "/v1/summary?date=2024-03-05&class=5B",
				token:    tokens.admin,
				wantCode: http.StatusOK,
				wantData: []byte(`{"summary":{"present":0,"absent":0,"late":0},"absentees":[]}`),
			},
			{
				name:     "submitted day",
				path:     "/v1/summary?date=" + date + "&class=5B",
				token:    tokens.admin,
				wantCode: http.StatusOK,
				wantData: marchallObj(t, attendance.DailySummary{
					Summary: attendance.Summary{Present: 2, Absent: 1},
					Absentees: []attendance.Entry{{
						StudentID: students[1].ID,
						Name:      students[1].Name,
						RollNo:    2,
						Status:    attendance.StatusAbsent,
					}},
				}),
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tt.method = http.MethodGet
				checkCodeAndData(t, tt, f.do(tt))
			})
		}
	})
}

func Test_attendanceApi_students(t *testing.T) {
	f := setup(t)
	tokens := f.staff(t)
	students := testutil.CreateClass(t, f.repo, "5B", 2)

	t.Run("enroll", func(t *testing.T) {
		body := []byte(`{"name":"New Kid","class_label":"5B","roll_no":3,"parent_email":"Kid.Parent@test.cd"}`)
		tt := httpTest{method: http.MethodPost, path: "/v1/students", token: tokens.teacher, body: body, wantCode: http.StatusForbidden}
		checkCodeAndData(t, tt, f.do(tt))

		rec := f.do(httpTest{method: http.MethodPost, path: "/v1/students", token: tokens.admin, body: body})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var s attendance.Student
		unmarshal(t, rec, &s)
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, "kid.parent@test.cd", s.Parent.Email)

		// same roll number
		tt = httpTest{
			method:   http.MethodPost,
			path:     "/v1/students",
			token:    tokens.admin,
			body:     body,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"roll_no":"` + attendance.ErrRollNoExists.Error() + `"}`),
		}
		checkCodeAndData(t, tt, f.do(tt))
	})

	t.Run("summary", func(t *testing.T) {
		tt := httpTest{method: http.MethodGet, path: "/v1/students/" + students[0].ID + "/summary", token: tokens.other, wantCode: http.StatusForbidden}
		checkCodeAndData(t, tt, f.do(tt))

		tt = httpTest{method: http.MethodGet, path: "/v1/students/nope/summary", token: tokens.admin, wantCode: http.StatusNotFound}
		checkCodeAndData(t, tt, f.do(tt))

		rec := f.do(httpTest{method: http.MethodGet, path: "/v1/students/" + students[0].ID + "/summary", token: tokens.teacher})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"percent":null,"recent":[]}`, rec.Body.String())
	})
}

func Test_attendanceApi_register(t *testing.T) {
	f := setup(t)
	tokens := f.staff(t)
	students := testutil.CreateClass(t, f.repo, "5B", 2)
	testutil.Mark(t, f.repo, students[0].ID, "2024-03-01", attendance.StatusPresent)
	testutil.Mark(t, f.repo, students[1].ID, "2024-03-01", attendance.StatusAbsent)

	tt := httpTest{
		method:   http.MethodGet,
		path:     "/v1/classes/5B/register?month=2024-3",
		token:    tokens.teacher,
		wantCode: http.StatusBadRequest,
		wantData: []byte(`{"month":"must be a month formatted as YYYY-MM"}`),
	}
	checkCodeAndData(t, tt, f.do(tt))

	rec := f.do(httpTest{method: http.MethodGet, path: "/v1/classes/5B/register?month=2024-03", token: tokens.teacher})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, exportsvc.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	book, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer book.Close()
	assert.Equal(t, 1, book.SheetCount)
}

func Test_attendanceApi_notifyAbsence(t *testing.T) {
	f := setup(t)
	tokens := f.staff(t)
	students := testutil.CreateClass(t, f.repo, "5B", 2)
	noToken := testutil.CreateStudent(t, f.repo, "Quiet", "5B", 3, "quiet@test.cd", "")
	f.push.Failures["token-5B-2"] = errors.New("messaging: unregistered token")

	tests := []struct {
		name string
		body string
		want attendance.NotifyResult
	}{
		{"missing student", `{"student_name":"X","date":"` + date + `"}`, attendance.NotifyResult{Error: "missing studentId"}},
		{"unknown student", `{"student_id":"nope","student_name":"X","date":"` + date + `"}`, attendance.NotifyResult{Error: "no token registered"}},
		{"no token", `{"student_id":"` + noToken.ID + `","student_name":"Quiet","date":"` + date + `"}`, attendance.NotifyResult{Error: "no token registered"}},
		{"transport failure", `{"student_id":"` + students[1].ID + `","student_name":"S2","date":"` + date + `"}`, attendance.NotifyResult{Error: "messaging: unregistered token"}},
		{"sent", `{"student_id":"` + students[0].ID + `","student_name":"S1","date":"` + date + `"}`, attendance.NotifyResult{Success: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(httpTest{method: http.MethodPost, path: "/v1/notifications/absence", token: tokens.teacher, body: []byte(tc.body)})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var got attendance.NotifyResult
			unmarshal(t, rec, &got)
			assert.Equal(t, tc.want, got)
		})
	}

	sent := f.push.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Attendance Alert", sent[0].Title)
	assert.Equal(t, "S1 was marked Absent on "+date, sent[0].Body)

	rec := f.do(httpTest{method: http.MethodPost, path: "/v1/notifications/absence", token: tokens.parent, body: []byte(`{}`)})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	t.Run("other class", func(t *testing.T) {
		other := testutil.CreateStudent(t, f.repo, "Bo", "6A", 1, "bo.parent@test.cd", "token-6A-1")
		body := []byte(`{"student_id":"` + other.ID + `","student_name":"Bo","date":"` + date + `"}`)

		rec := f.do(httpTest{method: http.MethodPost, path: "/v1/notifications/absence", token: tokens.teacher, body: body})
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
		assert.Len(t, f.push.Sent(), 1)

		rec = f.do(httpTest{method: http.MethodPost, path: "/v1/notifications/absence", token: tokens.admin, body: body})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got attendance.NotifyResult
		unmarshal(t, rec, &got)
		assert.Equal(t, attendance.NotifyResult{Success: true}, got)
		assert.Len(t, f.push.Sent(), 2)
	})
}

func Test_parentApi(t *testing.T) {
	f := setup(t)
	tokens := f.staff(t)
	students := testutil.CreateClass(t, f.repo, "5B", 2)

	t.Run("staff cannot use parent endpoints", func(t *testing.T) {
		rec := f.do(httpTest{method: http.MethodGet, path: "/v1/parent/overview", token: tokens.teacher})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("overview", func(t *testing.T) {
		rec := f.do(httpTest{method: http.MethodGet, path: "/v1/parent/overview", token: tokens.parent})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var ov attendance.ParentOverview
		unmarshal(t, rec, &ov)
		require.NotNil(t, ov.Student)
		assert.Equal(t, students[0].ID, ov.Student.ID)
	})

	t.Run("overview without a child", func(t *testing.T) {
		lonely := testutil.CreateUser(t, f.usrRepo, "Lonely", "lonely@test.cd", pwd, user.RoleParent, "", true)
		rec := f.do(httpTest{method: http.MethodGet, path: "/v1/parent/overview", token: f.token(t, lonely)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"student":null,"percent":null,"recent":[]}`, rec.Body.String())
	})

	t.Run("push token", func(t *testing.T) {
		tt := httpTest{
			method:   http.MethodPut,
			path:     "/v1/parent/push-token",
			token:    tokens.parent,
			body:     []byte(`{"token":"  "}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"token":"this field is required"}`),
		}
		checkCodeAndData(t, tt, f.do(tt))

		tt.body = marchallObj(t, PushTokenRequest{Token: "new-device"})
		tt.wantCode, tt.wantData = http.StatusNoContent, nil
		checkCodeAndData(t, tt, f.do(tt))

		s, err := f.repo.GetStudent(context.Background(), students[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "new-device", s.Parent.PushToken)
	})
}
