package course_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academia/lms/core"
	"github.com/academia/lms/core/course"
	sqlxrepos "github.com/academia/lms/storage/database/sqlx"
	testutil "github.com/academia/lms/tests"
)

var (
	admin   = core.Principal{ID: "admin", Role: core.RoleAdmin}
	student = core.Principal{ID: "student", Role: core.RoleStudent}
)

func setup(t *testing.T) (*course.Service, core.Principal, core.Principal) {
	t.Helper()

	db := testutil.PrepareDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)
	svc := course.NewService(sqlxrepos.NewCourseRepository(db), testutil.NewValidator())

	owner := testutil.CreateUser(t, usrRepo, "Prof", "prof@test.cd", "", core.RoleInstructor, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", core.RoleInstructor, true)
	return svc, owner.Principal(), other.Principal()
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestAuthorize(t *testing.T) {
	o := course.Owner{CourseID: "c", InstructorID: "prof"}
	tests := []struct {
		name string
		p    core.Principal
		want bool
	}{
		{name: "admin", p: admin, want: true},
		{name: "owner", p: core.Principal{ID: "prof", Role: core.RoleInstructor}, want: true},
		{name: "other instructor", p: core.Principal{ID: "nope", Role: core.RoleInstructor}},
		{name: "student with owner id", p: core.Principal{ID: "prof", Role: core.RoleStudent}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := course.Authorize(tt.p, o)
			assert.Equal(t, tt.want, d.Allowed)
			if tt.want {
				assert.NoError(t, d.Err())
			} else {
				assert.Equal(t, core.KindForbidden, core.KindOf(d.Err()))
				assert.Equal(t, "You are not the instructor of this course", d.Reason)
			}
		})
	}
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc, owner, other := setup(t)

	_, err := svc.Create(ctx, student, course.NewCourse{Title: "Go 101"})
	assert.ErrorIs(t, err, course.ErrCannotCreate)
	_, err = svc.Create(ctx, owner, course.NewCourse{Title: "  "})
	assert.Equal(t, core.KindInvalidInput, core.KindOf(err))

	c, err := svc.Create(ctx, owner, course.NewCourse{Title: " Go 101 ", Description: "Learn Go"})
	require.NoError(t, err)
	assert.Equal(t, "Go 101", c.Title)
	assert.Equal(t, owner.ID, c.InstructorID)
	assert.False(t, c.IsApproved)

	// unapproved courses are hidden from everyone but their owner and admins
	_, err = svc.Get(ctx, student, c.ID)
	assert.ErrorIs(t, err, course.ErrNotFound)
	_, err = svc.Get(ctx, other, c.ID)
	assert.ErrorIs(t, err, course.ErrNotFound)
	_, err = svc.Get(ctx, owner, c.ID)
	assert.NoError(t, err)

	listed, err := svc.List(ctx, student, false, nil)
	require.NoError(t, err)
	assert.Empty(t, listed)
	listed, err = svc.List(ctx, owner, true, nil)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
	listed, err = svc.List(ctx, admin, false, nil)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	_, err = svc.Approve(ctx, owner, c.ID)
	assert.ErrorIs(t, err, course.ErrAdminOnly)
	c, err = svc.Approve(ctx, admin, c.ID)
	require.NoError(t, err)
	assert.True(t, c.IsApproved)

	got, err := svc.Get(ctx, student, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = svc.Update(ctx, other, c.ID, course.UpdateCourse{Title: strPtr("Mine now")})
	assert.Equal(t, core.KindForbidden, core.KindOf(err))
	c, err = svc.Update(ctx, owner, c.ID, course.UpdateCourse{Description: strPtr(" Learn Go, fast ")})
	require.NoError(t, err)
	assert.Equal(t, "Go 101", c.Title)
	assert.Equal(t, "Learn Go, fast", c.Description)

	assert.Equal(t, core.KindForbidden, core.KindOf(svc.Delete(ctx, other, c.ID)))
	require.NoError(t, svc.Delete(ctx, owner, c.ID))
	assert.ErrorIs(t, svc.Delete(ctx, owner, c.ID), course.ErrNotFound)
}

func TestService_Modules(t *testing.T) {
	ctx := context.Background()
	svc, owner, other := setup(t)
	c, err := svc.Create(ctx, owner, course.NewCourse{Title: "Go 101"})
	require.NoError(t, err)

	_, err = svc.CreateModule(ctx, other, c.ID, course.NewModule{Title: "Basics"})
	assert.Equal(t, core.KindForbidden, core.KindOf(err))
	_, err = svc.CreateModule(ctx, owner, testutil.UnknownID, course.NewModule{Title: "Basics"})
	assert.ErrorIs(t, err, course.ErrNotFound)

	m1, err := svc.CreateModule(ctx, owner, c.ID, course.NewModule{Title: "Basics"})
	require.NoError(t, err)
	assert.Equal(t, 0, m1.Position)
	m0, err := svc.CreateModule(ctx, owner, c.ID, course.NewModule{Title: "Intro", Position: intPtr(0)})
	require.NoError(t, err)
	m2, err := svc.CreateModule(ctx, owner, c.ID, course.NewModule{Title: "Advanced"})
	require.NoError(t, err)
	assert.Equal(t, 1, m2.Position)

	_, err = svc.CreateLesson(ctx, other, m1.ID, course.NewLesson{Title: "Hello"})
	assert.Equal(t, core.KindForbidden, core.KindOf(err))
	_, err = svc.CreateLesson(ctx, owner, testutil.UnknownID, course.NewLesson{Title: "Hello"})
	assert.ErrorIs(t, err, course.ErrModuleNotFound)
	l1, err := svc.CreateLesson(ctx, owner, m1.ID, course.NewLesson{Title: "Hello", Content: "fmt.Println"})
	require.NoError(t, err)
	l2, err := svc.CreateLesson(ctx, owner, m1.ID, course.NewLesson{Title: "Types"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, []int{l1.Position, l2.Position})

	// hidden until approved
	_, err = svc.ListModules(ctx, student, c.ID)
	assert.ErrorIs(t, err, course.ErrNotFound)

	modules, err := svc.ListModules(ctx, owner, c.ID)
	require.NoError(t, err)
	require.Len(t, modules, 3)
	ids := []string{modules[0].ID, modules[1].ID, modules[2].ID}
	assert.ElementsMatch(t, []string{m0.ID, m1.ID, m2.ID}, ids)
	for _, m := range modules {
		if m.ID == m1.ID {
			require.Len(t, m.Lessons, 2)
			assert.Equal(t, l1.ID, m.Lessons[0].ID)
		} else {
			assert.Empty(t, m.Lessons)
		}
	}
}
