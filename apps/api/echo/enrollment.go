package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/academia/lms/core"
	"github.com/academia/lms/core/enrollment"
)

type enrollmentApi struct {
	svc *enrollment.Service
}

func registerEnrollmentAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc *enrollment.Service) {
	api := enrollmentApi{svc: svc}
	student := roleMiddleware(core.RoleStudent)

	eg := g.Group("/enrollments", authed...)
	eg.POST("/enroll", api.enroll, student)
	eg.GET("/my-courses", api.myCourses, student)
	eg.GET("/course/:courseId/students", api.courseStudents, roleMiddleware(core.RoleInstructor, core.RoleAdmin))
	eg.PUT("/:id/progress", api.updateProgress, student)
	eg.GET("/stats", api.stats, roleMiddleware(core.RoleAdmin))
}

// Handlers

func (api *enrollmentApi) enroll(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data enrollment.NewEnrollment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}

	e, err := api.svc.Enroll(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Enrolled successfully", "enrollment": e})
}

func (api *enrollmentApi) myCourses(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	enrollments, err := api.svc.MyCourses(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "listing enrollments")
	}
	if enrollments == nil {
		enrollments = []enrollment.CourseEnrollment{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Enrollments fetched", "enrollments": enrollments})
}

func (api *enrollmentApi) courseStudents(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.CourseStudents(ctx.Request().Context(), p, ctx.Param("courseId"))
	if err != nil {
		return errors.Wrap(err, "listing course students")
	}
	if students == nil {
		students = []enrollment.StudentEnrollment{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Course students fetched", "students": students})
}

func (api *enrollmentApi) updateProgress(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data enrollment.UpdateProgress
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProgress")
	}

	e, err := api.svc.UpdateProgress(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating progress")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Progress updated", "enrollment": e})
}

func (api *enrollmentApi) stats(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	stats, err := api.svc.Stats(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "computing enrollment stats")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Enrollment statistics", "stats": stats})
}
