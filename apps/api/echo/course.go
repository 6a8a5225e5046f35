package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bossmaker/core"
	"github.com/trezcool/bossmaker/core/course"
	"github.com/trezcool/bossmaker/core/user"
)

type courseApi struct {
	svc      course.ServiceInterface
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := courseApi{svc: opts.CourseSvc, usrSvc: opts.UserSvc, validate: opts.Validate}

	cg := g.Group("/course", jwt)
	cg.POST("/create", api.create, managerMiddleware())
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/update/:id", api.update, managerMiddleware())
	cg.DELETE("/delete", api.destroy, managerMiddleware())
	cg.PATCH("/status", api.updateStatus, managerMiddleware())
}

func (api *courseApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	courses, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":  true,
		"message": "Course created Successfully",
		"data":    courses,
	})
}

func (api *courseApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var filter course.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()

	courses, total, err := api.svc.Filter(ctx.Request().Context(), usr, filter)
	if err != nil {
		return errors.Wrap(err, "filtering courses")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":     true,
		"message":    "Courses retrieved successfully",
		"data":       courses,
		"pagination": core.NewPagination(total, filter.Page, filter.Limit),
	})
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	detail, err := api.svc.GetDetail(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Course not found")
		}
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": true, "course": detail})
}

func (api *courseApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	crs, duplicated, err := api.svc.Update(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Course not found")
		}
		return errors.Wrap(err, "updating course")
	}

	msg := "Course updated successfully"
	if duplicated {
		msg = "New course(s) assigned to instructors successfully"
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": true, "message": msg, "data": crs})
}

func (api *courseApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data IDRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to IDRequest")
	}
	if data.ID == "" {
		return core.NewValidationError(errors.New("Course ID is required"))
	}

	if err = api.svc.Delete(ctx.Request().Context(), usr, data.ID); err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Course not found")
		}
		return errors.Wrap(err, "deleting course")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": true, "message": "Course deleted successfully"})
}

func (api *courseApi) updateStatus(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data StatusRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusRequest")
	}
	if data.ID == "" || data.Status == nil {
		return core.NewValidationError(errors.New("Course ID and status are required"))
	}

	if err = api.svc.SetStatus(ctx.Request().Context(), usr, data.ID, *data.Status); err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Course not found")
		}
		return errors.Wrap(err, "updating course status")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": true, "message": "Course status updated successfully"})
}
