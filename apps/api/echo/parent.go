package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/user"
)

type parentApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

func registerParentAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	svc *attendance.Service,
	validate *validator.Validate,
) {
	api := parentApi{
		svc:      svc,
		validate: validate,
	}

	pg := g.Group("/parent", append(authed, roleMiddleware(user.RoleParent))...)
	pg.GET("/overview", api.overview)
	pg.PUT("/push-token", api.setPushToken)
}

type PushTokenRequest struct {
	Token string `json:"token" validate:"required,notblank"`
}

func (pr *PushTokenRequest) Validate(validate *validator.Validate) error {
	pr.Token = core.CleanString(pr.Token)
	return validate.Struct(pr)
}

// Handlers

func (api *parentApi) overview(ctx echo.Context) error {
	ov, err := api.svc.ParentOverview(ctx.Request().Context(), getSession(ctx), core.NowFunc())
	if err != nil {
		return errors.Wrap(err, "getting parent overview")
	}
	return ctx.JSON(http.StatusOK, ov)
}

func (api *parentApi) setPushToken(ctx echo.Context) error {
	var data PushTokenRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PushTokenRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := api.svc.RegisterPushToken(ctx.Request().Context(), getSession(ctx), data.Token); err != nil {
		return errors.Wrap(err, "registering push token")
	}
	return ctx.NoContent(http.StatusNoContent)
}
