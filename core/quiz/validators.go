package quiz

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/academia/lms/core"
)

var (
	answerIndexTag  = "answeridx"
	answerIndexText = "correct_answer must be the index of one of the options"
)

// InitValidators registers the quiz validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(questionStructValidation, NewQuestion{})
	core.RegisterCustomTranslation(validate, translator, answerIndexTag, answerIndexText)
}

// questionStructValidation checks that CorrectAnswer indexes Options.
func questionStructValidation(sl validator.StructLevel) {
	nq := sl.Current().Interface().(NewQuestion)
	if nq.CorrectAnswer == nil {
		return // reported by `required`
	}
	if idx := *nq.CorrectAnswer; idx < 0 || idx >= len(nq.Options) {
		sl.ReportError(nq.CorrectAnswer, "correct_answer", "CorrectAnswer", answerIndexTag, "")
	}
}
