package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ums/core/course"
	"github.com/trezcool/ums/core/quiz"
	"github.com/trezcool/ums/core/user"
)

type quizApi struct {
	svc       quiz.Service
	usrSvc    user.Service
	courseSvc course.Service
	validate  *validator.Validate
}

// registerQuizAPI registers the quiz endpoints; dg is the user detail group.
func registerQuizAPI(g, dg *echo.Group, jwt echo.MiddlewareFunc, api *quizApi) {
	staff := staffMiddleware(api.usrSvc)

	qg := g.Group("/quizzes", jwt)
	qg.GET("", api.query)
	qg.POST("", api.create, staff)
	qg.GET("/:id", api.retrieve)
	qg.PUT("/:id", api.update, staff)
	qg.DELETE("/:id", api.destroy, staff)
	qg.POST("/:id/questions", api.addQuestion, staff)
	qg.POST("/:id/submit", api.submit, roleMiddleware(api.usrSvc, user.RoleStudent))
	qg.GET("/:id/results", api.queryResults, staff)

	sg := g.Group("/questions", jwt, staff)
	sg.PUT("/:id", api.updateQuestion)
	sg.DELETE("/:id", api.destroyQuestion)

	dg.GET("/results", api.queryStudentResults)
}

// Handlers

func (api *quizApi) create(ctx echo.Context) error {
	var data quiz.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	qz, err := api.svc.Create(ctx.Request().Context(), data, actor)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, qz)
}

func (api *quizApi) query(ctx echo.Context) error {
	filter := new(quiz.QueryFilter)
	if _, ok := bindList(ctx, filter); !ok {
		return ctx.JSON(http.StatusOK, []quiz.Quiz{})
	}

	quizzes, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying quizzes")
	}
	if quizzes == nil {
		quizzes = []quiz.Quiz{}
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *quizApi) retrieve(ctx echo.Context) error {
	qz, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding quiz")
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	// students do not get to see the answers
	if usr.IsStudent() {
		return ctx.JSON(http.StatusOK, qz.ForStudent())
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	qz, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding quiz")
	}

	var data quiz.UpdateQuiz
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuiz")
	}
	if err = data.Validate(qz, api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	qz, err = api.svc.Update(reqCtx, qz.ID, data, actor)
	if err != nil {
		return errors.Wrap(err, "updating quiz")
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) destroy(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), actor); err != nil {
		return errors.Wrap(err, "deleting quiz")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *quizApi) addQuestion(ctx echo.Context) error {
	var data quiz.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	q, err := api.svc.AddQuestion(ctx.Request().Context(), ctx.Param("id"), data, actor)
	if err != nil {
		return errors.Wrap(err, "adding question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *quizApi) updateQuestion(ctx echo.Context) error {
	var data quiz.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	q, err := api.svc.UpdateQuestion(ctx.Request().Context(), ctx.Param("id"), data, actor)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *quizApi) destroyQuestion(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.DeleteQuestion(ctx.Request().Context(), ctx.Param("id"), actor); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *quizApi) submit(ctx echo.Context) error {
	var data quiz.Submission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	r, err := api.svc.Submit(ctx.Request().Context(), usr.ID, ctx.Param("id"), data.Answers)
	if err != nil {
		return errors.Wrap(err, "submitting quiz")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *quizApi) queryResults(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	qz, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding quiz")
	}
	c, err := api.courseSvc.GetByCode(reqCtx, qz.CourseCode)
	if err != nil {
		return errors.Wrap(err, "finding quiz course")
	}
	if err = checkCourseInstructor(ctx, api.usrSvc, c); err != nil {
		return err
	}

	results, err := api.svc.ResultsByQuiz(reqCtx, qz.ID)
	if err != nil {
		return errors.Wrap(err, "querying quiz results")
	}
	return ctx.JSON(http.StatusOK, newResultsResponse(results))
}

func (api *quizApi) queryStudentResults(ctx echo.Context) error {
	usr, err := getContextObject(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}

	results, err := api.svc.ResultsByStudent(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying student results")
	}
	return ctx.JSON(http.StatusOK, newResultsResponse(results))
}

// ResultsResponse lists quiz results along with their average percentage (null when empty).
type ResultsResponse struct {
	Results []quiz.Result `json:"results"`
	Average *float64      `json:"average"`
}

func newResultsResponse(results []quiz.Result) ResultsResponse {
	if results == nil {
		results = []quiz.Result{}
	}
	return ResultsResponse{Results: results, Average: quiz.AverageScore(results)}
}
