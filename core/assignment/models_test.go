package assignment_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academia/lms/core/assignment"
	testutil "github.com/academia/lms/tests"
)

func TestNewSubmission_Validate(t *testing.T) {
	validate := testutil.NewValidator()

	tests := []struct {
		name    string
		ns      assignment.NewSubmission
		wantTag string
	}{
		{name: "absolute url", ns: assignment.NewSubmission{SubmissionURL: "https://github.com/hero/essay"}},
		{name: "uploaded file", ns: assignment.NewSubmission{SubmissionURL: "/uploads/assignments/essay-1700000000.pdf"}},
		{name: "text only", ns: assignment.NewSubmission{SubmissionText: "My essay"}},
		{name: "not a reference", ns: assignment.NewSubmission{SubmissionURL: "my essay.pdf"}, wantTag: "uri"},
		{name: "blank", ns: assignment.NewSubmission{SubmissionURL: " ", SubmissionText: "\t"}, wantTag: "url_or_text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ns.Validate(validate)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.wantTag, verrs[0].Tag())
		})
	}
}
