package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/academia/lms/core"
	"github.com/academia/lms/core/quiz"
)

type quizApi struct {
	svc *quiz.Service
}

func registerQuizAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := quizApi{svc: deps.QuizSvc}
	staff := roleMiddleware(core.RoleInstructor, core.RoleAdmin)

	qg := g.Group("/quizzes", authed...)
	qg.POST("/lesson/:lessonId", api.create, staff)
	qg.GET("/lesson/:lessonId", api.retrieve)
	qg.POST(
		"/lesson/:lessonId/submit", api.submit,
		roleMiddleware(core.RoleStudent), rateLimitMiddleware(deps.Limiter, deps.Logger, "quiz"),
	)
	qg.PUT("/question/:questionId", api.updateQuestion, staff)
	qg.DELETE("/question/:questionId", api.destroyQuestion, staff)
}

// Handlers

func (api *quizApi) create(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data quiz.NewQuiz
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}

	questions, err := api.svc.Create(ctx.Request().Context(), p, ctx.Param("lessonId"), data)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Quiz created successfully", "quiz": questions})
}

func (api *quizApi) retrieve(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	questions, err := api.svc.Get(ctx.Request().Context(), p, ctx.Param("lessonId"))
	if err != nil {
		return errors.Wrap(err, "getting quiz")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Quiz fetched", "quiz": questions})
}

func (api *quizApi) submit(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data quiz.SubmitQuiz
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitQuiz")
	}

	res, err := api.svc.Submit(ctx.Request().Context(), p, ctx.Param("lessonId"), data)
	if err != nil {
		return errors.Wrap(err, "submitting quiz")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message":         "Quiz submitted",
		"score":           res.Score,
		"total_questions": res.TotalQuestions,
		"correct_answers": res.CorrectAnswers,
		"results":         res.Results,
	})
}

func (api *quizApi) updateQuestion(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data quiz.UpdateQuestion
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuestion")
	}

	qn, err := api.svc.UpdateQuestion(ctx.Request().Context(), p, ctx.Param("questionId"), data)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Question updated", "question": qn})
}

func (api *quizApi) destroyQuestion(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteQuestion(ctx.Request().Context(), p, ctx.Param("questionId")); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Question deleted successfully"})
}
