package echoapi

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/user"
	"github.com/trezcool/rollcall/services/export"
)

type attendanceApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	svc *attendance.Service,
	validate *validator.Validate,
) {
	api := attendanceApi{
		svc:      svc,
		validate: validate,
	}
	staff := roleMiddleware(user.RoleTeacher, user.RoleAdmin)
	admin := roleMiddleware(user.RoleAdmin)

	ag := g.Group("", authed...)
	ag.POST("/students", api.enroll, admin)
	ag.GET("/students/:id/summary", api.studentSummary, staff)
	ag.GET("/summary", api.dailySummary, admin)
	ag.POST("/notifications/absence", api.notifyAbsence, staff)

	cg := ag.Group("/classes/:class", staff, classMiddleware)
	cg.GET("/attendance", api.classAttendance)
	cg.PUT("/attendance/:studentID", api.mark)
	cg.POST("/attendance/mark-all", api.markAll)
	cg.POST("/attendance/submit", api.submit)
	cg.GET("/register", api.register)
}

type (
	DayQuery struct {
		Date  string `query:"date" validate:"omitempty,isodate"`
		Class string `query:"class" validate:"omitempty,classlabel"`
	}

	MonthQuery struct {
		Month string `query:"month" validate:"omitempty,isomonth"`
	}

	MarkAllResponse struct {
		Marked int `json:"marked"`
	}
)

// bindDay reads the `date` & `class` query params. date defaults to today.
func (api *attendanceApi) bindDay(ctx echo.Context) (DayQuery, error) {
	q := DayQuery{
		Date:  core.CleanString(ctx.QueryParam("date")),
		Class: core.CleanString(ctx.QueryParam("class")),
	}
	if err := api.validate.Struct(q); err != nil {
		return q, err
	}
	if q.Date == "" {
		q.Date = core.Today()
	}
	return q, nil
}

// bindMonth reads the `month` query param. month defaults to the current one.
func (api *attendanceApi) bindMonth(ctx echo.Context) (time.Time, error) {
	q := MonthQuery{Month: core.CleanString(ctx.QueryParam("month"))}
	if err := api.validate.Struct(q); err != nil {
		return time.Time{}, err
	}
	if q.Month == "" {
		return core.MonthStart(core.NowFunc()), nil
	}
	month, err := time.ParseInLocation(core.MonthLayout, q.Month, time.Local)
	return month, errors.Wrap(err, "parsing month")
}

// refuseSubmitted rejects writes on a day whose attendance was already submitted.
func (api *attendanceApi) refuseSubmitted(ctx echo.Context, date string) error {
	submitted, err := api.svc.IsSubmitted(ctx.Request().Context(), ctx.Param("class"), date)
	if err != nil {
		return errors.Wrap(err, "checking submission")
	}
	if submitted {
		return errHttpSubmitted
	}
	return nil
}

// Handlers

func (api *attendanceApi) classAttendance(ctx echo.Context) error {
	q, err := api.bindDay(ctx)
	if err != nil {
		return err
	}
	ca, err := api.svc.ClassAttendance(ctx.Request().Context(), getSession(ctx), ctx.Param("class"), q.Date)
	if err != nil {
		return errors.Wrap(err, "reconciling class attendance")
	}
	return ctx.JSON(http.StatusOK, ca)
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.Mark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Mark")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := api.refuseSubmitted(ctx, data.Date); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	student, err := api.svc.Student(reqCtx, ctx.Param("studentID"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	if student.ClassLabel != ctx.Param("class") {
		return errHttpNotFound
	}

	rec, err := api.svc.MarkStatus(reqCtx, getSession(ctx), student.ID, data.Date, data.Status)
	if err != nil {
		return errors.Wrap(err, "marking status")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) markAll(ctx echo.Context) error {
	var data attendance.ClassDay
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassDay")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := api.refuseSubmitted(ctx, data.Date); err != nil {
		return err
	}

	marked, err := api.svc.MarkAllPresent(ctx.Request().Context(), getSession(ctx), ctx.Param("class"), data.Date)
	if err != nil {
		return errors.Wrap(err, "marking all present")
	}
	return ctx.JSON(http.StatusOK, MarkAllResponse{Marked: marked})
}

func (api *attendanceApi) submit(ctx echo.Context) error {
	var data attendance.ClassDay
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassDay")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Submit(ctx.Request().Context(), getSession(ctx), ctx.Param("class"), data.Date)
	if err != nil {
		return errors.Wrap(err, "submitting attendance")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *attendanceApi) register(ctx echo.Context) error {
	month, err := api.bindMonth(ctx)
	if err != nil {
		return err
	}
	reg, err := api.svc.MonthlyRegister(ctx.Request().Context(), getSession(ctx), ctx.Param("class"), month)
	if err != nil {
		return errors.Wrap(err, "building monthly register")
	}

	var buf bytes.Buffer
	if err = exportsvc.WriteRegister(&buf, reg); err != nil {
		return errors.Wrap(err, "writing register")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+exportsvc.RegisterFilename(reg)+`"`)
	return ctx.Blob(http.StatusOK, exportsvc.ContentTypeXLSX, buf.Bytes())
}

func (api *attendanceApi) enroll(ctx echo.Context) error {
	var data attendance.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	student, err := api.svc.EnrollStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, student)
}

func (api *attendanceApi) studentSummary(ctx echo.Context) error {
	ms, err := api.svc.StudentSummary(ctx.Request().Context(), getSession(ctx), ctx.Param("id"), core.NowFunc())
	if err != nil {
		return errors.Wrap(err, "summarizing month")
	}
	return ctx.JSON(http.StatusOK, ms)
}

func (api *attendanceApi) dailySummary(ctx echo.Context) error {
	q, err := api.bindDay(ctx)
	if err != nil {
		return err
	}
	ds, err := api.svc.SummarizeDaily(ctx.Request().Context(), q.Class, q.Date)
	if err != nil {
		return errors.Wrap(err, "summarizing day")
	}
	return ctx.JSON(http.StatusOK, ds)
}

func (api *attendanceApi) notifyAbsence(ctx echo.Context) error {
	var data attendance.AbsenceNotice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AbsenceNotice")
	}
	res, err := api.svc.NotifyAbsence(ctx.Request().Context(), getSession(ctx), data.StudentID, data.StudentName, data.Date)
	if err != nil {
		return errors.Wrap(err, "notifying absence")
	}
	return ctx.JSON(http.StatusOK, res)
}
