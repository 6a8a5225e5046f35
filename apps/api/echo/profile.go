package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bossmaker/core"
	"github.com/trezcool/bossmaker/core/user"
	"github.com/trezcool/bossmaker/storage/files"
)

type profileApi struct {
	svc      user.ServiceInterface
	store    *files.Local
	validate *validator.Validate
}

func registerProfileAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := profileApi{svc: opts.UserSvc, store: opts.FileStore, validate: opts.Validate}

	pg := g.Group("/profile", jwt)
	pg.GET("", api.retrieve)
	pg.PUT("/update", api.update)
	pg.POST("/changePassword", api.changePassword)
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	pwd, err := usr.PlainPassword()
	if err != nil {
		return errors.Wrap(err, "decrypting password")
	}
	usr.ProfileImage = core.Conf.FileURL("users", usr.ProfileImage)
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":  true,
		"message": "User profile fetched successfully",
		"data":    userWithPassword{usr, pwd},
	})
}

func (api *profileApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.UpdateProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	var profileImage string
	if fh, ferr := ctx.FormFile("profile_image"); ferr == nil {
		if profileImage, err = api.store.SaveImage("users", fh); err != nil {
			return err
		}
	}

	updated, err := api.svc.UpdateProfile(ctx.Request().Context(), usr, data, profileImage)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	ctx.Set(contextUserKey, updated)

	updated.ProfileImage = core.Conf.FileURL("users", updated.ProfileImage)
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":  true,
		"message": "Profile updated successfully",
		"data":    updated,
	})
}

func (api *profileApi) changePassword(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.ChangePassword
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.svc.ChangePassword(ctx.Request().Context(), usr, data); err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			return echo.NewHTTPError(http.StatusUnauthorized, "Old password is incorrect.")
		}
		return errors.Wrap(err, "changing password")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": true, "message": "Password changed successfully"})
}
