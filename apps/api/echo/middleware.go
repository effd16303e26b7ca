package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// sessionMiddleware builds the Session of the JWT authenticated User.
func sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		sess := claims.Session()
		if !sess.Active() {
			return errUnauthorized
		}
		ctx.Set(sessionContextKey, sess)
		return next(ctx)
	}
}

// roleMiddleware only lets through Sessions with one of roles.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess := getSession(ctx)
			if sess.Active() {
				for _, role := range roles {
					if sess.Role == role {
						return next(ctx)
					}
				}
			}
			return errHttpForbidden
		}
	}
}

// classMiddleware only lets through Sessions allowed to access the `:class` path param.
func classMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if getSession(ctx).CanAccessClass(ctx.Param("class")) {
			return next(ctx)
		}
		return errHttpForbidden
	}
}
