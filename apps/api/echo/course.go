package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/academia/lms/core"
	"github.com/academia/lms/core/course"
)

type courseApi struct {
	svc *course.Service
}

func registerCourseAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc *course.Service) {
	api := courseApi{svc: svc}
	staff := roleMiddleware(core.RoleInstructor, core.RoleAdmin)

	cg := g.Group("/courses", authed...)
	cg.POST("", api.create, staff)
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.PATCH("/:id", api.update, staff)
	cg.DELETE("/:id", api.destroy, staff)
	cg.PATCH("/:id/approve", api.approve, roleMiddleware(core.RoleAdmin))
	cg.POST("/:id/modules", api.createModule, staff)
	cg.GET("/:id/modules", api.queryModules)

	mg := g.Group("/modules", authed...)
	mg.POST("/:id/lessons", api.createLesson, staff)
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}

	c, err := api.svc.Create(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Course created successfully", "course": c})
}

func (api *courseApi) query(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var ord Ordering
	ord.Bind(ctx)

	courses, err := api.svc.List(ctx.Request().Context(), p, boolParam(ctx, mineParam), ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "listing courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Courses fetched", "courses": courses})
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.Get(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Course details fetched", "course": c})
}

func (api *courseApi) update(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}

	c, err := api.svc.Update(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Course updated", "course": c})
}

func (api *courseApi) destroy(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), p, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Course deleted"})
}

func (api *courseApi) approve(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.Approve(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving course")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Course approved", "course": c})
}

func (api *courseApi) createModule(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data course.NewModule
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewModule")
	}

	m, err := api.svc.CreateModule(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating module")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Module created successfully", "module": m})
}

func (api *courseApi) queryModules(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	modules, err := api.svc.ListModules(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing modules")
	}
	if modules == nil {
		modules = []course.Module{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Modules fetched", "modules": modules})
}

func (api *courseApi) createLesson(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data course.NewLesson
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}

	l, err := api.svc.CreateLesson(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Lesson created successfully", "lesson": l})
}
