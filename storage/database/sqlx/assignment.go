package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/academia/lms/core"
	"github.com/academia/lms/core/assignment"
)

const (
	assignmentColumns = "id, lesson_id, title, description, deadline, created_at"
	submissionColumns = "id, assignment_id, user_id, submission_url, submission_text, submitted_at, grade, feedback, graded_at"
)

type assignmentRepository struct {
	repository
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(exec core.DBExecutor) *assignmentRepository {
	return &assignmentRepository{repository{exec: exec}}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	exe := repo.getExec(exec)
	a.ID = uuid.New().String()
	a.Deadline = nullUTC(a.Deadline)
	a.CreatedAt = a.CreatedAt.UTC()

	q := exe.Rebind("INSERT INTO assignments (" + assignmentColumns + ") VALUES (?, ?, ?, ?, ?, ?)")
	_, err := exe.ExecContext(ctx, q, a.ID, a.LessonID, a.Title, a.Description, a.Deadline, a.CreatedAt)
	if err != nil {
		return assignment.Assignment{}, trapUniqueErr(err, assignment.ErrExists, "inserting assignment")
	}
	return a, nil
}

func (repo assignmentRepository) getAssignment(ctx context.Context, exe core.DBExecutor, where, arg string) (assignment.Assignment, error) {
	var a assignment.Assignment
	q := exe.Rebind("SELECT " + assignmentColumns + " FROM assignments WHERE " + where + " = ?")
	if err := exe.GetContext(ctx, &a, q, arg); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "getting assignment by "+where)
	}
	return a, nil
}

func (repo assignmentRepository) GetAssignmentByID(ctx context.Context, id string, exec ...core.DBExecutor) (assignment.Assignment, error) {
	return repo.getAssignment(ctx, repo.getExec(exec), "id", id)
}

func (repo assignmentRepository) GetAssignmentByLesson(ctx context.Context, lessonID string, exec ...core.DBExecutor) (assignment.Assignment, error) {
	return repo.getAssignment(ctx, repo.getExec(exec), "lesson_id", lessonID)
}

func (repo assignmentRepository) CreateSubmission(ctx context.Context, s assignment.Submission, exec ...core.DBExecutor) (assignment.Submission, error) {
	exe := repo.getExec(exec)
	s.ID = uuid.New().String()
	s.SubmittedAt = s.SubmittedAt.UTC()

	q := exe.Rebind("INSERT INTO submissions (" + submissionColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	_, err := exe.ExecContext(ctx, q,
		s.ID, s.AssignmentID, s.UserID, s.SubmissionURL, s.SubmissionText, s.SubmittedAt, s.Grade, s.Feedback, nullUTC(s.GradedAt))
	if err != nil {
		return assignment.Submission{}, trapUniqueErr(err, assignment.ErrAlreadySubmitted, "inserting submission")
	}
	return s, nil
}

func (repo assignmentRepository) GetUserSubmission(ctx context.Context, assignmentID, userID string, exec ...core.DBExecutor) (assignment.Submission, error) {
	exe := repo.getExec(exec)
	var s assignment.Submission
	q := exe.Rebind("SELECT " + submissionColumns + " FROM submissions WHERE assignment_id = ? AND user_id = ?")
	if err := exe.GetContext(ctx, &s, q, assignmentID, userID); err != nil {
		return assignment.Submission{}, trapNoRowsErr(err, assignment.ErrSubmissionNotFound, "getting user submission")
	}
	return s, nil
}

func (repo assignmentRepository) GradeSubmission(
	ctx context.Context, id string, grade int, feedback null.String, gradedAt time.Time, exec ...core.DBExecutor,
) (assignment.GradedSubmission, error) {
	exe := repo.getExec(exec)
	q := exe.Rebind("UPDATE submissions SET grade = ?, feedback = ?, graded_at = ? WHERE id = ?")
	res, err := exe.ExecContext(ctx, q, grade, feedback, gradedAt.UTC(), id)
	if err != nil {
		return assignment.GradedSubmission{}, errors.Wrap(err, "grading submission")
	}
	if err = mustAffect(res, assignment.ErrSubmissionNotFound); err != nil {
		return assignment.GradedSubmission{}, err
	}

	var gs assignment.GradedSubmission
	q = exe.Rebind(`SELECT s.id, s.assignment_id, s.user_id, s.submission_url, s.submission_text, s.submitted_at,
			s.grade, s.feedback, s.graded_at,
			a.title AS assignment_title, u.name AS student_name, u.email AS student_email
		FROM submissions s
		JOIN assignments a ON a.id = s.assignment_id
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?`)
	if err = exe.GetContext(ctx, &gs, q, id); err != nil {
		return assignment.GradedSubmission{}, trapNoRowsErr(err, assignment.ErrSubmissionNotFound, "getting graded submission")
	}
	return gs, nil
}

func (repo assignmentRepository) QuerySubmissions(ctx context.Context, assignmentID string, exec ...core.DBExecutor) ([]assignment.StudentSubmission, error) {
	exe := repo.getExec(exec)
	subs := make([]assignment.StudentSubmission, 0)
	q := exe.Rebind(`SELECT s.id, s.assignment_id, s.user_id, s.submission_url, s.submission_text, s.submitted_at,
			s.grade, s.feedback, s.graded_at,
			u.name AS student_name, u.email AS student_email
		FROM submissions s
		JOIN users u ON u.id = s.user_id
		WHERE s.assignment_id = ?
		ORDER BY s.submitted_at DESC`)
	if err := exe.SelectContext(ctx, &subs, q, assignmentID); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	return subs, nil
}

func (repo assignmentRepository) CountSubmissions(ctx context.Context, assignmentID string, exec ...core.DBExecutor) (int, error) {
	exe := repo.getExec(exec)
	var n int
	q := exe.Rebind("SELECT COUNT(*) FROM submissions WHERE assignment_id = ?")
	if err := exe.GetContext(ctx, &n, q, assignmentID); err != nil {
		return 0, errors.Wrap(err, "counting submissions")
	}
	return n, nil
}

// QueryPendingReminders lists, for each assignment due in [from, to), the active enrolled students without a submission.
func (repo assignmentRepository) QueryPendingReminders(ctx context.Context, from, to time.Time, exec ...core.DBExecutor) ([]assignment.PendingReminder, error) {
	exe := repo.getExec(exec)
	pending := make([]assignment.PendingReminder, 0)
	q := exe.Rebind(`SELECT a.id AS assignment_id, a.title AS assignment_title, c.title AS course_title, a.deadline,
			u.name AS student_name, u.email AS student_email
		FROM assignments a
		JOIN lessons l ON l.id = a.lesson_id
		JOIN modules m ON m.id = l.module_id
		JOIN courses c ON c.id = m.course_id
		JOIN enrollments e ON e.course_id = c.id
		JOIN users u ON u.id = e.user_id
		WHERE a.deadline IS NOT NULL AND a.deadline >= ? AND a.deadline < ?
			AND u.is_active = ?
			AND NOT EXISTS (SELECT 1 FROM submissions s WHERE s.assignment_id = a.id AND s.user_id = u.id)
		ORDER BY a.deadline, u.email`)
	if err := exe.SelectContext(ctx, &pending, q, from.UTC(), to.UTC(), true); err != nil {
		return nil, errors.Wrap(err, "querying pending reminders")
	}
	return pending, nil
}
