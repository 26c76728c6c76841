package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/academia/lms/core"
	"github.com/academia/lms/core/assignment"
)

type assignmentApi struct {
	svc *assignment.Service
}

func registerAssignmentAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc *assignment.Service) {
	api := assignmentApi{svc: svc}
	staff := roleMiddleware(core.RoleInstructor, core.RoleAdmin)

	ag := g.Group("/assignments", authed...)
	ag.POST("/lesson/:lessonId", api.create, staff)
	ag.GET("/lesson/:lessonId", api.retrieve)
	ag.POST("/:assignmentId/submit", api.submit, roleMiddleware(core.RoleStudent))
	ag.PUT("/submission/:submissionId/grade", api.grade, staff)
	ag.GET("/:assignmentId/submissions", api.querySubmissions, staff)
}

// Handlers

func (api *assignmentApi) create(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data assignment.NewAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}

	a, err := api.svc.Create(ctx.Request().Context(), p, ctx.Param("lessonId"), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Assignment created successfully", "assignment": a})
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	detail, err := api.svc.Get(ctx.Request().Context(), p, ctx.Param("lessonId"))
	if err != nil {
		return errors.Wrap(err, "getting assignment")
	}

	resp := echo.Map{"message": "Assignment fetched", "assignment": detail.Assignment}
	if detail.IsStudent {
		resp["submission"] = detail.Submission // null when not submitted yet
	} else {
		resp["submission_count"] = detail.SubmissionCount
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *assignmentApi) submit(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data assignment.NewSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), p, ctx.Param("assignmentId"), data)
	if err != nil {
		return errors.Wrap(err, "submitting assignment")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Assignment submitted successfully", "submission": sub})
}

func (api *assignmentApi) grade(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data assignment.GradeSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeSubmission")
	}

	sub, err := api.svc.Grade(ctx.Request().Context(), p, ctx.Param("submissionId"), data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Assignment graded successfully", "submission": sub})
}

func (api *assignmentApi) querySubmissions(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	subs, err := api.svc.ListSubmissions(ctx.Request().Context(), p, ctx.Param("assignmentId"))
	if err != nil {
		return errors.Wrap(err, "listing submissions")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Submissions fetched", "submissions": subs})
}
