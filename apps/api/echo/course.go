package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ums/core/course"
	"github.com/trezcool/ums/core/enrollment"
	"github.com/trezcool/ums/core/quiz"
	"github.com/trezcool/ums/core/user"
)

type courseApi struct {
	svc       course.Service
	usrSvc    user.Service
	enrollSvc enrollment.Service
	quizSvc   quiz.Service
	validate  *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, api *courseApi) {
	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, adminMiddleware(api.usrSvc))

	dg := cg.Group("/:code")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware(api.usrSvc))
	dg.DELETE("", api.destroy, adminMiddleware(api.usrSvc))
	dg.PUT("/instructor", api.assignInstructor, adminMiddleware(api.usrSvc))
	dg.GET("/students", api.queryStudents, staffMiddleware(api.usrSvc))
	dg.GET("/quizzes", api.queryQuizzes)
}

// checkCourseInstructor only lets admins and the instructor of c through.
func checkCourseInstructor(ctx echo.Context, usrSvc user.Service, c course.Course) error {
	actor, err := getContextUser(ctx, usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !actor.IsAdmin() && !c.HasInstructor(actor.ID) {
		return errHttpForbidden
	}
	return nil
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.validate, api.svc); err != nil {
		return err
	}

	c, err := api.svc.Add(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "adding course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	ordering, ok := bindList(ctx, filter)
	if !ok {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}

	courses, err := api.svc.Query(ctx.Request().Context(), filter, ordering)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.GetByCode(ctx.Request().Context(), ctx.Param("code"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	c, err := api.svc.GetByCode(reqCtx, ctx.Param("code"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}

	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(c, api.validate); err != nil {
		return err
	}

	c, err = api.svc.Update(reqCtx, c.Code, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("code")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) assignInstructor(ctx echo.Context) error {
	var data course.AssignInstructor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignInstructor")
	}
	if data.InstructorID != nil && *data.InstructorID == "" {
		data.InstructorID = nil
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	c, err := api.svc.AssignInstructor(ctx.Request().Context(), ctx.Param("code"), data.InstructorID)
	if err != nil {
		return errors.Wrap(err, "assigning instructor")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) queryStudents(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	c, err := api.svc.GetByCode(reqCtx, ctx.Param("code"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}
	if err = checkCourseInstructor(ctx, api.usrSvc, c); err != nil {
		return err
	}

	students, err := api.enrollSvc.StudentsByCourse(reqCtx, c.Code)
	if err != nil {
		return errors.Wrap(err, "querying course students")
	}
	if students == nil {
		students = []user.User{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *courseApi) queryQuizzes(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	c, err := api.svc.GetByCode(reqCtx, ctx.Param("code"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}

	quizzes, err := api.quizSvc.QueryByCourse(reqCtx, c.Code)
	if err != nil {
		return errors.Wrap(err, "querying course quizzes")
	}
	if quizzes == nil {
		quizzes = []quiz.Quiz{}
	}
	return ctx.JSON(http.StatusOK, quizzes)
}
