package assignment

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/academia/lms/core"
	"github.com/academia/lms/core/course"
)

var (
	// errors
	ErrNotFound           = core.NewError(core.KindNotFound, "no assignment found for this lesson")
	ErrExists             = core.NewError(core.KindConflict, "an assignment already exists for this lesson")
	ErrAlreadySubmitted   = core.NewError(core.KindConflict, "you have already submitted this assignment")
	ErrDeadlinePassed     = core.NewError(core.KindInvalidInput, "submission deadline has passed")
	ErrSubmissionNotFound = core.NewError(core.KindNotFound, "submission not found")
	ErrStudentsOnly       = core.NewError(core.KindForbidden, "only students can submit assignments")
)

const (
	gradedTemplate   = "submission_graded"
	reminderTemplate = "deadline_reminder"
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment, exec ...core.DBExecutor) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string, exec ...core.DBExecutor) (Assignment, error)
		GetAssignmentByLesson(ctx context.Context, lessonID string, exec ...core.DBExecutor) (Assignment, error)

		CreateSubmission(ctx context.Context, s Submission, exec ...core.DBExecutor) (Submission, error)
		GetUserSubmission(ctx context.Context, assignmentID, userID string, exec ...core.DBExecutor) (Submission, error)
		GradeSubmission(ctx context.Context, id string, grade int, feedback null.String, gradedAt time.Time, exec ...core.DBExecutor) (GradedSubmission, error)
		QuerySubmissions(ctx context.Context, assignmentID string, exec ...core.DBExecutor) ([]StudentSubmission, error)
		CountSubmissions(ctx context.Context, assignmentID string, exec ...core.DBExecutor) (int, error)

		QueryPendingReminders(ctx context.Context, from, to time.Time, exec ...core.DBExecutor) ([]PendingReminder, error)
	}

	OwnerResolver interface {
		ResolveOwner(ctx context.Context, ref course.EntityRef) (course.Owner, error)
	}

	EnrollmentGate interface {
		RequireEnrollment(ctx context.Context, p core.Principal, courseID string) error
	}

	Service struct {
		repo     Repository
		courses  OwnerResolver
		gate     EnrollmentGate
		mailSvc  core.EmailService
		validate *validator.Validate
	}
)

func NewService(
	repo Repository,
	courses OwnerResolver,
	gate EnrollmentGate,
	mailSvc core.EmailService,
	validate *validator.Validate,
) *Service {
	return &Service{
		repo:     repo,
		courses:  courses,
		gate:     gate,
		mailSvc:  mailSvc,
		validate: validate,
	}
}

func (svc *Service) requireOwner(ctx context.Context, p core.Principal, ref course.EntityRef) (course.Owner, error) {
	owner, err := svc.courses.ResolveOwner(ctx, ref)
	if err != nil {
		return course.Owner{}, err
	}
	return owner, course.Authorize(p, owner).Err()
}

// Create adds the assignment of a lesson. A lesson has at most one assignment.
func (svc *Service) Create(ctx context.Context, p core.Principal, lessonID string, na NewAssignment) (Assignment, error) {
	if _, err := svc.requireOwner(ctx, p, course.LessonRef(lessonID)); err != nil {
		return Assignment{}, err
	}
	if err := na.Validate(svc.validate); err != nil {
		return Assignment{}, err
	}
	return svc.repo.CreateAssignment(ctx, Assignment{
		LessonID:    lessonID,
		Title:       na.Title,
		Description: na.Description,
		Deadline:    na.Deadline,
		CreatedAt:   core.Now(),
	})
}

// Get returns the assignment of a lesson. Students must be enrolled and also get their own submission,
// instructors get the number of submissions received so far.
func (svc *Service) Get(ctx context.Context, p core.Principal, lessonID string) (Detail, error) {
	owner, err := svc.courses.ResolveOwner(ctx, course.LessonRef(lessonID))
	if err != nil {
		return Detail{}, err
	}
	if err = svc.gate.RequireEnrollment(ctx, p, owner.CourseID); err != nil {
		return Detail{}, err
	}

	a, err := svc.repo.GetAssignmentByLesson(ctx, lessonID)
	if err != nil {
		return Detail{}, err
	}
	detail := Detail{Assignment: a, IsStudent: p.IsStudent()}
	if !p.IsStudent() {
		if detail.SubmissionCount, err = svc.repo.CountSubmissions(ctx, a.ID); err != nil {
			return Detail{}, errors.Wrap(err, "counting submissions")
		}
		return detail, nil
	}

	sub, err := svc.repo.GetUserSubmission(ctx, a.ID, p.ID)
	switch {
	case err == nil:
		detail.Submission = &sub
	case errors.Is(err, ErrSubmissionNotFound):
	default:
		return Detail{}, errors.Wrap(err, "getting user submission")
	}
	return detail, nil
}

// Submit stores the single submission of a student for an assignment.
func (svc *Service) Submit(ctx context.Context, p core.Principal, assignmentID string, ns NewSubmission) (Submission, error) {
	if !p.IsStudent() {
		return Submission{}, ErrStudentsOnly
	}
	if err := ns.Validate(svc.validate); err != nil {
		return Submission{}, err
	}

	a, err := svc.repo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return Submission{}, err
	}
	now := core.Now()
	if a.DeadlinePassed(now) {
		return Submission{}, ErrDeadlinePassed
	}

	owner, err := svc.courses.ResolveOwner(ctx, course.AssignmentRef(a.ID))
	if err != nil {
		return Submission{}, err
	}
	if err = svc.gate.RequireEnrollment(ctx, p, owner.CourseID); err != nil {
		return Submission{}, err
	}

	return svc.repo.CreateSubmission(ctx, Submission{
		AssignmentID:   a.ID,
		UserID:         p.ID,
		SubmissionURL:  null.NewString(ns.SubmissionURL, ns.SubmissionURL != ""),
		SubmissionText: null.NewString(ns.SubmissionText, ns.SubmissionText != ""),
		SubmittedAt:    now,
	})
}

// Grade sets (or overwrites) the grade of a submission and notifies its author.
func (svc *Service) Grade(ctx context.Context, p core.Principal, submissionID string, gs GradeSubmission) (Submission, error) {
	if err := gs.Validate(svc.validate); err != nil {
		return Submission{}, err
	}
	if _, err := svc.requireOwner(ctx, p, course.SubmissionRef(submissionID)); err != nil {
		return Submission{}, err
	}

	graded, err := svc.repo.GradeSubmission(
		ctx, submissionID, *gs.Grade, null.NewString(gs.Feedback, gs.Feedback != ""), core.Now(),
	)
	if err != nil {
		return Submission{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: graded.StudentName, Address: graded.StudentEmail}},
		Subject:      fmt.Sprintf("Your submission for %q has been graded", graded.AssignmentTitle),
		TemplateName: gradedTemplate,
		TemplateData: map[string]interface{}{
			"Name":            graded.StudentName,
			"AssignmentTitle": graded.AssignmentTitle,
			"Grade":           graded.Grade.Int,
			"Feedback":        graded.Feedback.String,
		},
	})
	return graded.Submission, nil
}

// ListSubmissions returns the submissions of an assignment, most recent first.
func (svc *Service) ListSubmissions(ctx context.Context, p core.Principal, assignmentID string) ([]StudentSubmission, error) {
	if _, err := svc.requireOwner(ctx, p, course.AssignmentRef(assignmentID)); err != nil {
		return nil, err
	}
	subs, err := svc.repo.QuerySubmissions(ctx, assignmentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []StudentSubmission{}
	}
	return subs, nil
}

// SendDeadlineReminders e-mails the enrolled students who have not submitted an assignment due within window.
// It returns the number of reminders sent.
func (svc *Service) SendDeadlineReminders(ctx context.Context, window time.Duration) (int, error) {
	now := core.Now()
	pending, err := svc.repo.QueryPendingReminders(ctx, now, now.Add(window))
	if err != nil {
		return 0, errors.Wrap(err, "querying pending reminders")
	}

	messages := make([]*core.EmailMessage, 0, len(pending))
	for _, pr := range pending {
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Name: pr.StudentName, Address: pr.StudentEmail}},
			Subject:      fmt.Sprintf("Reminder: %q is due soon", pr.AssignmentTitle),
			TemplateName: reminderTemplate,
			TemplateData: map[string]interface{}{
				"Name":            pr.StudentName,
				"AssignmentTitle": pr.AssignmentTitle,
				"CourseTitle":     pr.CourseTitle,
				"Deadline":        pr.Deadline,
			},
		})
	}
	if len(messages) > 0 {
		svc.mailSvc.SendMessages(messages...)
	}
	return len(messages), nil
}
