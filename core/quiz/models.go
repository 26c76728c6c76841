package quiz

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/academia/lms/core"
)

// Options are the choices of a question, stored as a JSON array.
type Options []string

func (o Options) Value() (driver.Value, error) {
	if o == nil {
		o = Options{}
	}
	b, err := json.Marshal([]string(o))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (o *Options) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*o = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("quiz.Options: cannot scan %T", src)
	}
	return json.Unmarshal(data, (*[]string)(o))
}

type Question struct {
	ID            string    `json:"id" db:"id"`
	LessonID      string    `json:"lesson_id" db:"lesson_id"`
	Question      string    `json:"question" db:"question"`
	Options       Options   `json:"options" db:"options"`
	CorrectAnswer int       `json:"correct_answer" db:"correct_answer"`
	Position      int       `json:"position" db:"position"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// PublicQuestion is a Question without its answer key.
type PublicQuestion struct {
	ID       string  `json:"id"`
	LessonID string  `json:"lesson_id"`
	Question string  `json:"question"`
	Options  Options `json:"options"`
	Position int     `json:"position"`
}

func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:       q.ID,
		LessonID: q.LessonID,
		Question: q.Question,
		Options:  q.Options,
		Position: q.Position,
	}
}

// NewQuestion contains information needed to create a Question.
type NewQuestion struct {
	Question      string   `json:"question" validate:"required,notblank"`
	Options       []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectAnswer *int     `json:"correct_answer" validate:"required,min=0"`
}

// NewQuiz is the batch of questions of a lesson, created all at once.
type NewQuiz struct {
	Questions []NewQuestion `json:"questions" validate:"required,min=1,dive"`
}

func (nq *NewQuiz) Validate(validate *validator.Validate) error {
	for i := range nq.Questions {
		nq.Questions[i].Question = core.CleanString(nq.Questions[i].Question)
	}
	return validate.Struct(nq)
}

// UpdateQuestion is a partial patch: nil fields are left untouched.
type UpdateQuestion struct {
	Question      *string  `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correct_answer"`
}

// Apply returns q patched with uq as a NewQuestion, ready for validation.
func (uq UpdateQuestion) Apply(q Question) NewQuestion {
	nq := NewQuestion{
		Question:      q.Question,
		Options:       q.Options,
		CorrectAnswer: &q.CorrectAnswer,
	}
	if uq.Question != nil {
		nq.Question = core.CleanString(*uq.Question)
	}
	if uq.Options != nil {
		nq.Options = uq.Options
	}
	if uq.CorrectAnswer != nil {
		nq.CorrectAnswer = uq.CorrectAnswer
	}
	return nq
}

type SubmitQuiz struct {
	Answers []interface{} `json:"answers" validate:"required"`
}

func (sq SubmitQuiz) Validate(validate *validator.Validate) error { return validate.Struct(sq) }

type QuestionResult struct {
	QuestionID    string      `json:"question_id"`
	UserAnswer    interface{} `json:"user_answer"`
	CorrectAnswer int         `json:"correct_answer"`
	IsCorrect     bool        `json:"is_correct"`
}

type Result struct {
	Score          int              `json:"score"`
	TotalQuestions int              `json:"total_questions"`
	CorrectAnswers int              `json:"correct_answers"`
	Results        []QuestionResult `json:"results"`
}
