package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/academia/lms/core"
	"github.com/academia/lms/core/quiz"
)

const questionColumns = "id, lesson_id, question, options, correct_answer, position, created_at"

type quizRepository struct {
	repository
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(exec core.DBExecutor) *quizRepository {
	return &quizRepository{repository{exec: exec}}
}

func (repo quizRepository) CreateQuestions(ctx context.Context, questions []quiz.Question, exec ...core.DBExecutor) ([]quiz.Question, error) {
	exe := repo.getExec(exec)
	q := exe.Rebind("INSERT INTO quiz_questions (" + questionColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)")

	created := make([]quiz.Question, 0, len(questions))
	for _, qn := range questions {
		qn.ID = uuid.New().String()
		qn.CreatedAt = qn.CreatedAt.UTC()
		_, err := exe.ExecContext(ctx, q,
			qn.ID, qn.LessonID, qn.Question, qn.Options, qn.CorrectAnswer, qn.Position, qn.CreatedAt)
		if err != nil {
			return nil, trapUniqueErr(err, quiz.ErrExists, "inserting question")
		}
		created = append(created, qn)
	}
	return created, nil
}

func (repo quizRepository) CountQuestions(ctx context.Context, lessonID string, exec ...core.DBExecutor) (int, error) {
	exe := repo.getExec(exec)
	var n int
	q := exe.Rebind("SELECT COUNT(*) FROM quiz_questions WHERE lesson_id = ?")
	if err := exe.GetContext(ctx, &n, q, lessonID); err != nil {
		return 0, errors.Wrap(err, "counting questions")
	}
	return n, nil
}

func (repo quizRepository) QueryQuestions(ctx context.Context, lessonID string, exec ...core.DBExecutor) ([]quiz.Question, error) {
	exe := repo.getExec(exec)
	questions := make([]quiz.Question, 0)
	q := exe.Rebind("SELECT " + questionColumns + " FROM quiz_questions WHERE lesson_id = ? ORDER BY position")
	if err := exe.SelectContext(ctx, &questions, q, lessonID); err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	return questions, nil
}

func (repo quizRepository) GetQuestionByID(ctx context.Context, id string, exec ...core.DBExecutor) (quiz.Question, error) {
	exe := repo.getExec(exec)
	var qn quiz.Question
	q := exe.Rebind("SELECT " + questionColumns + " FROM quiz_questions WHERE id = ?")
	if err := exe.GetContext(ctx, &qn, q, id); err != nil {
		return quiz.Question{}, trapNoRowsErr(err, quiz.ErrQuestionNotFound, "getting question by ID")
	}
	return qn, nil
}

func (repo quizRepository) UpdateQuestion(ctx context.Context, qn quiz.Question, exec ...core.DBExecutor) (quiz.Question, error) {
	exe := repo.getExec(exec)
	q := exe.Rebind("UPDATE quiz_questions SET question = ?, options = ?, correct_answer = ? WHERE id = ?")
	res, err := exe.ExecContext(ctx, q, qn.Question, qn.Options, qn.CorrectAnswer, qn.ID)
	if err != nil {
		return quiz.Question{}, errors.Wrap(err, "updating question")
	}
	if err = mustAffect(res, quiz.ErrQuestionNotFound); err != nil {
		return quiz.Question{}, err
	}
	return qn, nil
}

func (repo quizRepository) DeleteQuestion(ctx context.Context, id string, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, exe.Rebind("DELETE FROM quiz_questions WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return mustAffect(res, quiz.ErrQuestionNotFound)
}
