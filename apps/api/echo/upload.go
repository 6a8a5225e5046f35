package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bossmaker/core"
	"github.com/trezcool/bossmaker/core/upload"
)

type uploadApi struct {
	svc upload.ServiceInterface
}

func registerUploadAPI(g *echo.Group, opts *Options) {
	api := uploadApi{svc: opts.UploadSvc}

	ug := g.Group("/uploadFile")
	ug.POST("", api.create)
	ug.DELETE("/delete", api.destroy)
}

func (api *uploadApi) create(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(errors.New("No file uploaded."))
	}

	rec, err := api.svc.Create(ctx.Request().Context(), "sections", fh)
	if err != nil {
		return errors.Wrap(err, "storing upload")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":  true,
		"message": "File uploaded successfully.",
		"data":    rec,
	})
}

func (api *uploadApi) destroy(ctx echo.Context) error {
	var data struct {
		IDs []string `json:"ids"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding upload IDs")
	}
	if len(data.IDs) == 0 {
		return core.NewValidationError(errors.New("No file IDs provided."))
	}

	n, err := api.svc.Delete(ctx.Request().Context(), data.IDs...)
	if err != nil {
		if errors.Cause(err) == upload.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "No matching files found.")
		}
		return errors.Wrap(err, "deleting uploads")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":  true,
		"message": fmt.Sprintf("%d file(s) deleted successfully.", n),
	})
}
