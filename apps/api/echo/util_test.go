package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/academia/lms/apps/api/echo"
	"github.com/academia/lms/core"
	"github.com/academia/lms/core/assignment"
	"github.com/academia/lms/core/course"
	"github.com/academia/lms/core/enrollment"
	"github.com/academia/lms/core/quiz"
	"github.com/academia/lms/core/user"
	cachesvc "github.com/academia/lms/services/cache"
	emailsvc "github.com/academia/lms/services/email"
	logsvc "github.com/academia/lms/services/logger"
	sqlxrepos "github.com/academia/lms/storage/database/sqlx"
	testutil "github.com/academia/lms/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	srv        *echoapi.Server
	conf       *core.Config
	usrRepo    user.Repository
	courseRepo course.Repository
	enrRepo    enrollment.Repository
	asgRepo    assignment.Repository
	quizRepo   quiz.Repository
}

func setup(t *testing.T, configure ...func(conf *core.Config)) testApp {
	t.Helper()

	conf := core.NewTestConfig()
	for _, fn := range configure {
		fn(conf)
	}
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	// set up DB & repos
	db := testutil.PrepareDB(t)
	app := testApp{
		conf:       conf,
		usrRepo:    sqlxrepos.NewUserRepository(db),
		courseRepo: sqlxrepos.NewCourseRepository(db),
		enrRepo:    sqlxrepos.NewEnrollmentRepository(db),
		asgRepo:    sqlxrepos.NewAssignmentRepository(db),
		quizRepo:   sqlxrepos.NewQuizRepository(db),
	}

	// set up services
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	assignment.InitValidators(validate, translator)
	quiz.InitValidators(validate, translator)

	emailsvc.ResetSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	courseSvc := course.NewService(app.courseRepo, validate)
	enrSvc := enrollment.NewService(app.enrRepo, courseSvc, validate)

	// set up server
	app.srv = echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		UserSvc:       user.NewService(app.usrRepo, validate),
		CourseSvc:     courseSvc,
		EnrollmentSvc: enrSvc,
		AssignmentSvc: assignment.NewService(app.asgRepo, courseSvc, enrSvc.Gate, mailSvc, validate),
		QuizSvc:       quiz.NewService(db, app.quizRepo, courseSvc, enrSvc.Gate, validate),
		Limiter:       cachesvc.NewMemoryRateLimiter(conf.Server.RateLimit, conf.Server.RateLimitWindow),
		Validate:      validate,
		Translator:    translator,
	})
	return app
}

// do sends a JSON request to the server and returns the recorded response.
func (app testApp) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	return app.doWithHeaders(method, path, token, body, nil)
}

// doWithHeaders is do with extra request headers.
func (app testApp) doWithHeaders(method, path, token string, body interface{}, headers http.Header) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if b, ok := body.([]byte); ok {
			buf.Write(b)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for name, values := range headers {
		req.Header[name] = values
	}
	rec := httptest.NewRecorder()
	app.srv.ServeHTTP(rec, req)
	return rec
}

func (app testApp) createUser(t *testing.T, name, email, role string) user.User {
	return testutil.CreateUser(t, app.usrRepo, name, email, "Pa$$w0rd!", role, true)
}

func (app testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := echoapi.GenerateToken(echoapi.GetUserClaims(usr, app.conf), app.conf.SecretKey)
	require.NoError(t, err)
	return token
}

func (app testApp) enroll(t *testing.T, studentID, courseID string) enrollment.Enrollment {
	t.Helper()
	e, err := app.enrRepo.CreateEnrollment(context.Background(), enrollment.Enrollment{
		UserID:     studentID,
		CourseID:   courseID,
		EnrolledAt: core.Now(),
	})
	require.NoError(t, err)
	return e
}

type httpErr struct {
	Error  string            `json:"error"`
	Hint   string            `json:"hint,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
	wantErr  *httpErr
}

func runHTTPTests(t *testing.T, app testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := app.do(method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantErr != nil {
				assert.Equal(t, *tt.wantErr, decodeErr(t, rec))
			}
		})
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data), rec.Body.String())
	return data
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) httpErr {
	t.Helper()
	var data httpErr
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data), rec.Body.String())
	return data
}

// decodeInto unmarshals the value found under key into v.
func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, key string, v interface{}) {
	t.Helper()
	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data), rec.Body.String())
	raw, ok := data[key]
	require.True(t, ok, "key %q not found in %s", key, rec.Body.String())
	require.NoError(t, json.Unmarshal(raw, v))
}
