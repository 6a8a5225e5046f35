package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// adminMiddleware restricts the route to admin accounts.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Role.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// managerMiddleware restricts the route to accounts that manage others
// (admins and instructors).
func managerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Role.IsAdmin() || claims.Role.IsInstructor() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
