package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bossmaker/core"
	"github.com/trezcool/bossmaker/core/category"
	"github.com/trezcool/bossmaker/core/user"
)

type categoryApi struct {
	svc      category.ServiceInterface
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerCategoryAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := categoryApi{svc: opts.CategorySvc, usrSvc: opts.UserSvc, validate: opts.Validate}

	cg := g.Group("/categories", jwt, managerMiddleware())
	cg.POST("/create", api.create)
	cg.GET("", api.query)
	cg.GET("/findbyid/:id", api.retrieve)
	cg.GET("/usercategory", api.queryOwn)
	cg.GET("/finduserbycategory/:id", api.queryByAssignee)
	cg.PUT("/update/:id", api.update)
	cg.DELETE("/delete", api.destroy)
	cg.PATCH("/status", api.updateStatus)
}

func (api *categoryApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data category.NewCategory
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCategory")
	}
	// instructors create categories for themselves; admins pick the assignee
	if !usr.Role.IsAdmin() {
		data.Assignee = usr.ID
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	cat, err := api.svc.Create(ctx.Request().Context(), data, usr)
	if err != nil {
		return errors.Wrap(err, "creating category")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":  true,
		"message": "Category has been created successfully.",
		"data":    cat,
	})
}

func (api *categoryApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var filter category.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	if usr.Role.IsAdmin() {
		filter.CreatedBy = usr.ID
	} else {
		filter.Assignee = usr.ID
	}
	filter.Clean()

	cats, total, err := api.svc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "filtering categories")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":     true,
		"pagination": core.NewPagination(total, filter.Page, filter.Limit),
		"data":       cats,
	})
}

func (api *categoryApi) retrieve(ctx echo.Context) error {
	cat, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == category.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Category not found")
		}
		return errors.Wrap(err, "getting category")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": true, "data": cat})
}

// queryOwn lists the categories the caller owns or is assigned to, unpaginated.
func (api *categoryApi) queryOwn(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cats, err := api.svc.QueryForUser(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying user categories")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": true, "data": cats})
}

func (api *categoryApi) queryByAssignee(ctx echo.Context) error {
	cats, err := api.svc.QueryForUser(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying categories by assignee")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":  true,
		"message": "Categories fetched successfully",
		"data":    cats,
	})
}

func (api *categoryApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data category.UpdateCategory
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCategory")
	}
	if !usr.Role.IsAdmin() {
		data.Assignee = usr.ID
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	cat, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == category.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Category not found")
		}
		return errors.Wrap(err, "updating category")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":   true,
		"message":  "Category has been updated successfully.",
		"category": cat,
	})
}

func (api *categoryApi) destroy(ctx echo.Context) error {
	var data IDRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to IDRequest")
	}
	if data.ID == "" {
		return core.NewValidationError(errors.New("Category ID is required"))
	}

	if err := api.svc.Delete(ctx.Request().Context(), data.ID); err != nil {
		if errors.Cause(err) == category.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Category not found")
		}
		return errors.Wrap(err, "deleting category")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":  true,
		"message": "Category and its related courses have been disabled successfully.",
	})
}

func (api *categoryApi) updateStatus(ctx echo.Context) error {
	var data StatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusRequest")
	}
	if data.ID == "" || data.Status == nil {
		return core.NewValidationError(errors.New("Category ID and status are required"))
	}

	if err := api.svc.SetStatus(ctx.Request().Context(), data.ID, *data.Status); err != nil {
		if errors.Cause(err) == category.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Category not found")
		}
		return errors.Wrap(err, "updating category status")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": true, "message": "Status changed successfully."})
}
