package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/academia/lms/core"
	"github.com/academia/lms/core/enrollment"
)

const enrollmentColumns = "id, user_id, course_id, progress, enrolled_at, completed_at"

type enrollmentRepository struct {
	repository
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(exec core.DBExecutor) *enrollmentRepository {
	return &enrollmentRepository{repository{exec: exec}}
}

func nullUTC(t null.Time) null.Time {
	if t.Valid {
		t.Time = t.Time.UTC()
	}
	return t
}

func (repo enrollmentRepository) CreateEnrollment(ctx context.Context, e enrollment.Enrollment, exec ...core.DBExecutor) (enrollment.Enrollment, error) {
	exe := repo.getExec(exec)
	e.ID = uuid.New().String()
	e.EnrolledAt = e.EnrolledAt.UTC()
	e.CompletedAt = nullUTC(e.CompletedAt)

	q := exe.Rebind("INSERT INTO enrollments (" + enrollmentColumns + ") VALUES (?, ?, ?, ?, ?, ?)")
	_, err := exe.ExecContext(ctx, q, e.ID, e.UserID, e.CourseID, e.Progress, e.EnrolledAt, e.CompletedAt)
	if err != nil {
		return enrollment.Enrollment{}, trapUniqueErr(err, enrollment.ErrExists, "inserting enrollment")
	}
	return e, nil
}

func (repo enrollmentRepository) EnrollmentExists(ctx context.Context, userID, courseID string, exec ...core.DBExecutor) (bool, error) {
	exe := repo.getExec(exec)
	var n int
	q := exe.Rebind("SELECT COUNT(*) FROM enrollments WHERE user_id = ? AND course_id = ?")
	if err := exe.GetContext(ctx, &n, q, userID, courseID); err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return n > 0, nil
}

func (repo enrollmentRepository) UpdateProgress(
	ctx context.Context, id, userID string, progress int, completedAt null.Time, exec ...core.DBExecutor,
) (enrollment.Enrollment, error) {
	exe := repo.getExec(exec)
	q := exe.Rebind("UPDATE enrollments SET progress = ?, completed_at = ? WHERE id = ? AND user_id = ?")
	res, err := exe.ExecContext(ctx, q, progress, nullUTC(completedAt), id, userID)
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "updating progress")
	}
	if err = mustAffect(res, enrollment.ErrNotFound); err != nil {
		return enrollment.Enrollment{}, err
	}

	var e enrollment.Enrollment
	q = exe.Rebind("SELECT " + enrollmentColumns + " FROM enrollments WHERE id = ?")
	if err = exe.GetContext(ctx, &e, q, id); err != nil {
		return enrollment.Enrollment{}, trapNoRowsErr(err, enrollment.ErrNotFound, "getting enrollment")
	}
	return e, nil
}

func (repo enrollmentRepository) QueryUserEnrollments(ctx context.Context, userID string, exec ...core.DBExecutor) ([]enrollment.CourseEnrollment, error) {
	exe := repo.getExec(exec)
	enrollments := make([]enrollment.CourseEnrollment, 0)
	q := exe.Rebind(`SELECT e.id, e.user_id, e.course_id, e.progress, e.enrolled_at, e.completed_at,
			c.title AS course_title, c.description AS course_description
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = ?
		ORDER BY e.enrolled_at DESC`)
	if err := exe.SelectContext(ctx, &enrollments, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying user enrollments")
	}
	return enrollments, nil
}

func (repo enrollmentRepository) QueryCourseEnrollments(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]enrollment.StudentEnrollment, error) {
	exe := repo.getExec(exec)
	enrollments := make([]enrollment.StudentEnrollment, 0)
	q := exe.Rebind(`SELECT e.id, e.user_id, e.course_id, e.progress, e.enrolled_at, e.completed_at,
			u.name AS student_name, u.email AS student_email
		FROM enrollments e
		JOIN users u ON u.id = e.user_id
		WHERE e.course_id = ?
		ORDER BY e.enrolled_at DESC`)
	if err := exe.SelectContext(ctx, &enrollments, q, courseID); err != nil {
		return nil, errors.Wrap(err, "querying course enrollments")
	}
	return enrollments, nil
}

func (repo enrollmentRepository) CountEnrollments(ctx context.Context, exec ...core.DBExecutor) (total, completed int, err error) {
	exe := repo.getExec(exec)
	var counts struct {
		Total     int `db:"total"`
		Completed int `db:"completed"`
	}
	q := "SELECT COUNT(*) AS total, COUNT(completed_at) AS completed FROM enrollments"
	if err = exe.GetContext(ctx, &counts, q); err != nil {
		return 0, 0, errors.Wrap(err, "counting enrollments")
	}
	return counts.Total, counts.Completed, nil
}

func (repo enrollmentRepository) QueryPopularCourses(ctx context.Context, limit int, exec ...core.DBExecutor) ([]enrollment.PopularCourse, error) {
	exe := repo.getExec(exec)
	courses := make([]enrollment.PopularCourse, 0, limit)
	q := exe.Rebind(`SELECT c.id AS course_id, c.title, COUNT(e.id) AS enrollments
		FROM courses c
		JOIN enrollments e ON e.course_id = c.id
		GROUP BY c.id, c.title
		ORDER BY enrollments DESC, c.title
		LIMIT ?`)
	if err := exe.SelectContext(ctx, &courses, q, limit); err != nil {
		return nil, errors.Wrap(err, "querying popular courses")
	}
	return courses, nil
}
