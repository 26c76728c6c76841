package echoapi_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/academia/lms/apps/api/echo"
	"github.com/academia/lms/core"
	"github.com/academia/lms/core/user"
	testutil "github.com/academia/lms/tests"
)

func Test_userApi_register(t *testing.T) {
	app := setup(t)
	app.createUser(t, "Taken", "taken@test.cd", core.RoleStudent)

	newUser := func(name, email, pwd, role string) user.NewUser {
		return user.NewUser{Name: name, Email: email, Password: pwd, PasswordConfirm: pwd, Role: role}
	}

	runHTTPTests(t, app, []httpTest{
		{
			name: "invalid data", method: http.MethodPost, path: "/api/users/register",
			body:     user.NewUser{Email: "nope", Role: "admin"},
			wantCode: http.StatusBadRequest,
			wantErr: &httpErr{Error: "invalid input", Fields: map[string]string{
				"name":             "this field is required",
				"email":            "email must be a valid email address",
				"password":         "this field is required",
				"password_confirm": "this field is required",
				"role":             "invalid role",
			}},
		},
		{
			name: "numeric password", method: http.MethodPost, path: "/api/users/register",
			body:     newUser("Ada", "ada@test.cd", "1234567890", core.RoleStudent),
			wantCode: http.StatusBadRequest,
			wantErr: &httpErr{Error: "invalid input", Fields: map[string]string{
				"password": "password cannot be entirely numeric",
			}},
		},
		{
			name: "duplicate email", method: http.MethodPost, path: "/api/users/register",
			body:     newUser("Taken Again", " TAKEN@test.cd ", "correct-horse-42", core.RoleStudent),
			wantCode: http.StatusConflict,
			wantErr:  &httpErr{Error: "a user with this email already exists"},
		},
		{
			name: "ok", method: http.MethodPost, path: "/api/users/register",
			body:     newUser("Grace", "Grace@test.cd", "correct-horse-42", core.RoleInstructor),
			wantCode: http.StatusCreated,
		},
	})

	usr, err := app.usrRepo.GetUserByEmail(context.Background(), "grace@test.cd")
	require.NoError(t, err)
	assert.Equal(t, core.RoleInstructor, usr.Role)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword("correct-horse-42"))
}

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	usr := app.createUser(t, "Ada", "ada@test.cd", core.RoleStudent)
	testutil.CreateUser(t, app.usrRepo, "Gone", "gone@test.cd", "Pa$$w0rd!", core.RoleStudent, false)

	login := func(email, pwd string) user.LoginRequest {
		return user.LoginRequest{Email: email, Password: pwd}
	}
	invalidCreds := &httpErr{Error: "invalid credentials"}

	runHTTPTests(t, app, []httpTest{
		{
			name: "missing data", method: http.MethodPost, path: "/api/users/login", body: user.LoginRequest{},
			wantCode: http.StatusBadRequest,
			wantErr: &httpErr{Error: "invalid input", Fields: map[string]string{
				"email":    "this field is required",
				"password": "this field is required",
			}},
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/api/users/login",
			body: login("who@test.cd", "Pa$$w0rd!"), wantCode: http.StatusBadRequest, wantErr: invalidCreds,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/api/users/login",
			body: login("ada@test.cd", "nope"), wantCode: http.StatusBadRequest, wantErr: invalidCreds,
		},
		{
			name: "deactivated", method: http.MethodPost, path: "/api/users/login",
			body: login("gone@test.cd", "Pa$$w0rd!"), wantCode: http.StatusForbidden,
			wantErr: &httpErr{Error: "account deactivated"},
		},
	})

	rec := app.do(http.MethodPost, "/api/users/login", "", login(" ADA@test.cd", "Pa$$w0rd!"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var token string
	decodeInto(t, rec, "token", &token)
	require.NotEmpty(t, token)

	// the issued token authenticates the user
	rec = app.do(http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me user.User
	decodeInto(t, rec, "user", &me)
	assert.Equal(t, usr.ID, me.ID)
	assert.Equal(t, usr.Email, me.Email)
	assert.NotContains(t, rec.Body.String(), "password")
}

func Test_userApi_loginRateLimit(t *testing.T) {
	app := setup(t, func(conf *core.Config) { conf.Server.RateLimit = 2 })
	app.createUser(t, "Ada", "ada@test.cd", core.RoleStudent)

	body := user.LoginRequest{Email: "ada@test.cd", Password: "nope"}
	for i := 0; i < 2; i++ {
		rec := app.do(http.MethodPost, "/api/users/login", "", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec := app.do(http.MethodPost, "/api/users/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, httpErr{Error: "too many requests, please try again later"}, decodeErr(t, rec))
}

func Test_userApi_loginRateLimitForwardedFor(t *testing.T) {
	body := user.LoginRequest{Email: "ada@test.cd", Password: "nope"}
	login := func(app testApp, i int) int {
		headers := http.Header{}
		headers.Set(echo.HeaderXForwardedFor, fmt.Sprintf("203.0.113.%d", i))
		return app.doWithHeaders(http.MethodPost, "/api/users/login", "", body, headers).Code
	}

	t.Run("untrusted peer", func(t *testing.T) {
		app := setup(t)
		app.createUser(t, "Ada", "ada@test.cd", core.RoleStudent)

		for i := 0; i < app.conf.Server.RateLimit; i++ {
			assert.Equal(t, http.StatusBadRequest, login(app, i), "attempt #%d", i)
		}
		for i := app.conf.Server.RateLimit; i < 3*app.conf.Server.RateLimit; i++ {
			assert.Equal(t, http.StatusTooManyRequests, login(app, i), "attempt #%d", i)
		}
	})

	t.Run("trusted proxy", func(t *testing.T) {
		// httptest requests come from 192.0.2.1
		app := setup(t, func(conf *core.Config) { conf.Server.TrustedProxies = []string{"192.0.2.0/24"} })
		app.createUser(t, "Ada", "ada@test.cd", core.RoleStudent)

		for i := 0; i < 3*app.conf.Server.RateLimit; i++ {
			assert.Equal(t, http.StatusBadRequest, login(app, i), "attempt #%d", i)
		}
	})
}

func Test_userApi_me(t *testing.T) {
	app := setup(t)
	usr := app.createUser(t, "Ada", "ada@test.cd", core.RoleStudent)

	expired := echoapi.GetUserClaims(usr, app.conf)
	expired.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	expiredToken, err := echoapi.GenerateToken(expired, app.conf.SecretKey)
	require.NoError(t, err)

	forged, err := echoapi.GenerateToken(echoapi.GetUserClaims(usr, app.conf), "not-the-secret")
	require.NoError(t, err)

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/api/users/me", wantCode: http.StatusUnauthorized, wantErr: &errMissingToken},
		{
			name: "expired token", path: "/api/users/me", token: expiredToken,
			wantCode: http.StatusUnauthorized, wantErr: &httpErr{Error: "invalid or expired jwt"},
		},
		{
			name: "forged token", path: "/api/users/me", token: forged,
			wantCode: http.StatusUnauthorized, wantErr: &httpErr{Error: "invalid or expired jwt"},
		},
		{name: "ok", path: "/api/users/me", token: app.token(t, usr), wantCode: http.StatusOK},
		{name: "trailing slash", path: "/api/users/me/", token: app.token(t, usr), wantCode: http.StatusOK},
	})
}
