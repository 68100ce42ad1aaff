package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ums/core/report"
	"github.com/trezcool/ums/core/user"
)

type reportApi struct {
	svc    report.Service
	usrSvc user.Service
}

// registerReportAPI registers the report endpoints on the user detail group.
func registerReportAPI(dg *echo.Group, api *reportApi) {
	dg.GET("/report", api.download)
	dg.POST("/report/email", api.email, adminMiddleware(api.usrSvc))
}

// Handlers

func (api *reportApi) download(ctx echo.Context) error {
	usr, err := getContextObject(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}

	rep, err := api.svc.Build(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "building report")
	}
	var buf bytes.Buffer
	if err = api.svc.Render(&buf, rep); err != nil {
		return err
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", rep.Filename()))
	return ctx.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

func (api *reportApi) email(ctx echo.Context) error {
	usr, err := getContextObject(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}

	if err = api.svc.Email(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "emailing report")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: fmt.Sprintf("The report has been sent to %s.", usr.Email)})
}
