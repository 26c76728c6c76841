package assignment

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/academia/lms/core"
)

var (
	urlOrTextTag  = "url_or_text"
	urlOrTextText = "one of submission_url or submission_text is required"
)

// InitValidators registers the assignment validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(submissionStructValidation, NewSubmission{})
	core.RegisterCustomTranslation(validate, translator, urlOrTextTag, urlOrTextText)
}

// submissionStructValidation checks that one of SubmissionURL or SubmissionText is provided.
func submissionStructValidation(sl validator.StructLevel) {
	ns := sl.Current().Interface().(NewSubmission)
	if ns.SubmissionURL == "" && ns.SubmissionText == "" {
		sl.ReportError(ns.SubmissionURL, "submission_url", "SubmissionURL", urlOrTextTag, "")
		sl.ReportError(ns.SubmissionText, "submission_text", "SubmissionText", urlOrTextTag, "")
	}
}
