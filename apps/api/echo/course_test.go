package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academia/lms/core"
	"github.com/academia/lms/core/course"
	testutil "github.com/academia/lms/tests"
)

func Test_courseApi(t *testing.T) {
	app := setup(t)
	owner := app.createUser(t, "Owner", "owner@test.cd", core.RoleInstructor)
	other := app.createUser(t, "Other", "other@test.cd", core.RoleInstructor)
	student := app.createUser(t, "Student", "student@test.cd", core.RoleStudent)
	admin := app.createUser(t, "Admin", "admin@test.cd", core.RoleAdmin)
	ownerToken, otherToken := app.token(t, owner), app.token(t, other)
	studentToken, adminToken := app.token(t, student), app.token(t, admin)

	approved := testutil.CreateCourse(t, app.courseRepo, owner.ID, "Approved", true)
	draft := testutil.CreateCourse(t, app.courseRepo, owner.ID, "Draft", false)
	testutil.CreateCourse(t, app.courseRepo, other.ID, "Other's", false)

	notOwner := &httpErr{Error: "You are not the instructor of this course"}
	notFound := &httpErr{Error: "course not found"}
	forbidden := &httpErr{Error: "permission denied"}

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/api/courses", wantCode: http.StatusUnauthorized, wantErr: &errMissingToken},
		{
			name: "student cannot create", method: http.MethodPost, path: "/api/courses", token: studentToken,
			body: course.NewCourse{Title: "Nope"}, wantCode: http.StatusForbidden, wantErr: forbidden,
		},
		{
			name: "blank title", method: http.MethodPost, path: "/api/courses", token: ownerToken,
			body: course.NewCourse{Title: "   "}, wantCode: http.StatusBadRequest,
			wantErr: &httpErr{Error: "invalid input", Fields: map[string]string{"title": "this field is required"}},
		},
		{name: "draft hidden from students", path: "/api/courses/" + draft.ID, token: studentToken, wantCode: http.StatusNotFound, wantErr: notFound},
		{name: "draft hidden from other instructors", path: "/api/courses/" + draft.ID, token: otherToken, wantCode: http.StatusNotFound, wantErr: notFound},
		{name: "draft visible to owner", path: "/api/courses/" + draft.ID, token: ownerToken, wantCode: http.StatusOK},
		{name: "draft visible to admin", path: "/api/courses/" + draft.ID, token: adminToken, wantCode: http.StatusOK},
		{name: "approved visible to students", path: "/api/courses/" + approved.ID, token: studentToken, wantCode: http.StatusOK},
		{name: "unknown course", path: "/api/courses/" + testutil.UnknownID, token: adminToken, wantCode: http.StatusNotFound, wantErr: notFound},
		{
			name: "other instructor cannot update", method: http.MethodPatch, path: "/api/courses/" + approved.ID,
			token: otherToken, body: map[string]string{"title": "Mine now"}, wantCode: http.StatusForbidden, wantErr: notOwner,
		},
		{
			name: "other instructor cannot delete", method: http.MethodDelete, path: "/api/courses/" + approved.ID,
			token: otherToken, wantCode: http.StatusForbidden, wantErr: notOwner,
		},
		{
			name: "instructor cannot approve", method: http.MethodPatch, path: "/api/courses/" + draft.ID + "/approve",
			token: ownerToken, wantCode: http.StatusForbidden, wantErr: forbidden,
		},
		{
			name: "other instructor cannot add modules", method: http.MethodPost, path: "/api/courses/" + approved.ID + "/modules",
			token: otherToken, body: course.NewModule{Title: "Intruder"}, wantCode: http.StatusForbidden, wantErr: notOwner,
		},
		{
			name: "module of unknown course", method: http.MethodPost, path: "/api/courses/" + testutil.UnknownID + "/modules",
			token: adminToken, body: course.NewModule{Title: "Lost"}, wantCode: http.StatusNotFound, wantErr: notFound,
		},
		{
			name: "lesson of unknown module", method: http.MethodPost, path: "/api/modules/" + testutil.UnknownID + "/lessons",
			token: adminToken, body: course.NewLesson{Title: "Lost"}, wantCode: http.StatusNotFound,
			wantErr: &httpErr{Error: "module not found"},
		},
	})

	t.Run("list", func(t *testing.T) {
		tests := []struct {
			name      string
			path      string
			token     string
			wantTitle []string
		}{
			{name: "students see approved courses", path: "/api/courses", token: studentToken, wantTitle: []string{"Approved"}},
			{name: "admins see every course", path: "/api/courses?ordering=title", token: adminToken, wantTitle: []string{"Approved", "Draft", "Other's"}},
			{name: "mine", path: "/api/courses?mine=true&ordering=-title", token: ownerToken, wantTitle: []string{"Draft", "Approved"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := app.do(http.MethodGet, tt.path, tt.token, nil)
				require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
				var courses []course.Course
				decodeInto(t, rec, "courses", &courses)
				titles := make([]string, 0, len(courses))
				for _, c := range courses {
					titles = append(titles, c.Title)
				}
				assert.Equal(t, tt.wantTitle, titles)
			})
		}
	})

	t.Run("lifecycle", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/courses", ownerToken, course.NewCourse{Title: " Go Concurrency ", Description: "Channels"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var c course.Course
		decodeInto(t, rec, "course", &c)
		assert.Equal(t, "Go Concurrency", c.Title)
		assert.Equal(t, owner.ID, c.InstructorID)
		assert.False(t, c.IsApproved)

		rec = app.do(http.MethodPatch, "/api/courses/"+c.ID+"/approve", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decodeInto(t, rec, "course", &c)
		assert.True(t, c.IsApproved)

		rec = app.do(http.MethodPatch, "/api/courses/"+c.ID, ownerToken, map[string]string{"description": "Goroutines"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decodeInto(t, rec, "course", &c)
		assert.Equal(t, "Go Concurrency", c.Title)
		assert.Equal(t, "Goroutines", c.Description)

		// modules & lessons
		rec = app.do(http.MethodPost, "/api/courses/"+c.ID+"/modules", ownerToken, course.NewModule{Title: "Channels"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var m course.Module
		decodeInto(t, rec, "module", &m)
		assert.Equal(t, 0, m.Position)

		for _, title := range []string{"Unbuffered", "Buffered"} {
			rec = app.do(http.MethodPost, "/api/modules/"+m.ID+"/lessons", ownerToken, course.NewLesson{Title: title})
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		}

		rec = app.do(http.MethodGet, "/api/courses/"+c.ID+"/modules", studentToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var modules []course.Module
		decodeInto(t, rec, "modules", &modules)
		require.Len(t, modules, 1)
		require.Len(t, modules[0].Lessons, 2)
		assert.Equal(t, "Unbuffered", modules[0].Lessons[0].Title)
		assert.Equal(t, "Buffered", modules[0].Lessons[1].Title)
		assert.Equal(t, 1, modules[0].Lessons[1].Position)

		rec = app.do(http.MethodDelete, "/api/courses/"+c.ID, ownerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = app.do(http.MethodGet, "/api/courses/"+c.ID, adminToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
