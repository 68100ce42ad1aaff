package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/course"
	"github.com/trezcool/ums/core/enrollment"
	"github.com/trezcool/ums/core/user"
)

type enrollmentApi struct {
	svc      enrollment.Service
	usrSvc   user.Service
	validate *validator.Validate
}

// registerEnrollmentAPI registers the enrollment endpoints; dg is the user detail group.
func registerEnrollmentAPI(g, dg *echo.Group, jwt echo.MiddlewareFunc, api *enrollmentApi) {
	eg := g.Group("/enrollments", jwt, roleMiddleware(api.usrSvc, user.RoleAdmin, user.RoleStudent))
	eg.POST("", api.enroll)
	eg.DELETE("/:code", api.drop)

	dg.GET("/courses", api.queryCourses)
}

// studentID returns the student acted upon: students act for themselves, admins for anyone.
func (api *enrollmentApi) studentID(ctx echo.Context, requested string) (string, error) {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}
	if usr.IsAdmin() {
		if requested = core.CleanString(requested); requested == "" {
			return "", core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "this field is required"})
		}
		return requested, nil
	}
	return usr.ID, nil
}

// Handlers

func (api *enrollmentApi) enroll(ctx echo.Context) error {
	var data enrollment.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	data.CourseCode = core.CleanString(data.CourseCode)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	studentID, err := api.studentID(ctx, data.StudentID)
	if err != nil {
		return err
	}

	e, err := api.svc.Enroll(ctx.Request().Context(), studentID, data.CourseCode)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *enrollmentApi) drop(ctx echo.Context) error {
	studentID, err := api.studentID(ctx, ctx.QueryParam("student_id"))
	if err != nil {
		return err
	}

	if err = api.svc.Drop(ctx.Request().Context(), studentID, ctx.Param("code")); err != nil {
		return errors.Wrap(err, "dropping course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *enrollmentApi) queryCourses(ctx echo.Context) error {
	usr, err := getContextObject(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}

	courses, err := api.svc.CoursesByStudent(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying student courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}
