package quiz

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/academia/lms/core"
	"github.com/academia/lms/core/course"
)

var (
	// errors
	ErrNotFound         = core.NewError(core.KindNotFound, "no quiz found for this lesson")
	ErrExists           = core.NewError(core.KindConflict, "a quiz already exists for this lesson")
	ErrQuestionNotFound = core.NewError(core.KindNotFound, "question not found")
	ErrStudentsOnly     = core.NewError(core.KindForbidden, "only students can submit quizzes")
)

type (
	Repository interface {
		// CreateQuestions inserts questions in order; it returns ErrExists on a (lesson_id, position) conflict.
		CreateQuestions(ctx context.Context, questions []Question, exec ...core.DBExecutor) ([]Question, error)
		CountQuestions(ctx context.Context, lessonID string, exec ...core.DBExecutor) (int, error)
		// QueryQuestions returns the questions of a lesson ordered by position.
		QueryQuestions(ctx context.Context, lessonID string, exec ...core.DBExecutor) ([]Question, error)
		GetQuestionByID(ctx context.Context, id string, exec ...core.DBExecutor) (Question, error)
		UpdateQuestion(ctx context.Context, q Question, exec ...core.DBExecutor) (Question, error)
		DeleteQuestion(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	OwnerResolver interface {
		ResolveOwner(ctx context.Context, ref course.EntityRef) (course.Owner, error)
	}

	EnrollmentGate interface {
		RequireEnrollment(ctx context.Context, p core.Principal, courseID string) error
	}

	Service struct {
		db       core.DB
		repo     Repository
		courses  OwnerResolver
		gate     EnrollmentGate
		validate *validator.Validate
	}
)

func NewService(
	db core.DB,
	repo Repository,
	courses OwnerResolver,
	gate EnrollmentGate,
	validate *validator.Validate,
) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		courses:  courses,
		gate:     gate,
		validate: validate,
	}
}

func (svc *Service) requireOwner(ctx context.Context, p core.Principal, ref course.EntityRef) error {
	owner, err := svc.courses.ResolveOwner(ctx, ref)
	if err != nil {
		return err
	}
	return course.Authorize(p, owner).Err()
}

// Create stores every question of a lesson's quiz in a single transaction: all of them or none.
func (svc *Service) Create(ctx context.Context, p core.Principal, lessonID string, nq NewQuiz) (questions []Question, err error) {
	if err = svc.requireOwner(ctx, p, course.LessonRef(lessonID)); err != nil {
		return nil, err
	}
	if err = nq.Validate(svc.validate); err != nil {
		return nil, err
	}

	now := core.Now()
	questions = make([]Question, 0, len(nq.Questions))
	for i, q := range nq.Questions {
		questions = append(questions, Question{
			LessonID:      lessonID,
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: *q.CorrectAnswer,
			Position:      i,
			CreatedAt:     now,
		})
	}

	tx, err := svc.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	n, err := svc.repo.CountQuestions(ctx, lessonID, tx)
	if err != nil {
		return nil, errors.Wrap(err, "counting questions")
	}
	if n > 0 {
		return nil, ErrExists
	}
	if questions, err = svc.repo.CreateQuestions(ctx, questions, tx); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing questions")
	}
	return questions, nil
}

// Get returns the questions of a lesson without their answer key.
func (svc *Service) Get(ctx context.Context, p core.Principal, lessonID string) ([]PublicQuestion, error) {
	owner, err := svc.courses.ResolveOwner(ctx, course.LessonRef(lessonID))
	if err != nil {
		return nil, err
	}
	if err = svc.gate.RequireEnrollment(ctx, p, owner.CourseID); err != nil {
		return nil, err
	}

	questions, err := svc.repo.QueryQuestions(ctx, lessonID)
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	public := make([]PublicQuestion, 0, len(questions))
	for _, q := range questions {
		public = append(public, q.Public())
	}
	return public, nil
}

// Submit scores answers against the current questions of a lesson. Nothing is stored.
func (svc *Service) Submit(ctx context.Context, p core.Principal, lessonID string, sq SubmitQuiz) (Result, error) {
	if !p.IsStudent() {
		return Result{}, ErrStudentsOnly
	}
	if err := sq.Validate(svc.validate); err != nil {
		return Result{}, err
	}

	owner, err := svc.courses.ResolveOwner(ctx, course.LessonRef(lessonID))
	if err != nil {
		return Result{}, err
	}
	if err = svc.gate.RequireEnrollment(ctx, p, owner.CourseID); err != nil {
		return Result{}, err
	}

	questions, err := svc.repo.QueryQuestions(ctx, lessonID)
	if err != nil {
		return Result{}, errors.Wrap(err, "querying questions")
	}
	if len(questions) == 0 {
		return Result{}, ErrNotFound
	}
	return Score(questions, sq.Answers), nil
}

// UpdateQuestion patches the supplied fields of a question.
func (svc *Service) UpdateQuestion(ctx context.Context, p core.Principal, questionID string, uq UpdateQuestion) (Question, error) {
	if err := svc.requireOwner(ctx, p, course.QuestionRef(questionID)); err != nil {
		return Question{}, err
	}

	q, err := svc.repo.GetQuestionByID(ctx, questionID)
	if err != nil {
		return Question{}, err
	}
	patched := uq.Apply(q)
	if err = svc.validate.Struct(patched); err != nil {
		return Question{}, err
	}

	q.Question = patched.Question
	q.Options = patched.Options
	q.CorrectAnswer = *patched.CorrectAnswer
	return svc.repo.UpdateQuestion(ctx, q)
}

func (svc *Service) DeleteQuestion(ctx context.Context, p core.Principal, questionID string) error {
	if err := svc.requireOwner(ctx, p, course.QuestionRef(questionID)); err != nil {
		return err
	}
	return svc.repo.DeleteQuestion(ctx, questionID)
}
