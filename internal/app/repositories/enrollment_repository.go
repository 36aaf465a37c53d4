package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/pkg/apperrors"
	"github.com/yigit/crms/internal/pkg/dberrors"
	"github.com/yigit/crms/internal/pkg/logger"
)

// IEnrollmentRepository defines enrollment operations
type IEnrollmentRepository interface {
	Create(ctx context.Context, e *models.Enrollment) error
	GetByID(ctx context.Context, id int64) (*models.Enrollment, error)
	ListBySection(ctx context.Context, sectionCourseID int64) ([]*models.Enrollment, error)
	UpdateStatus(ctx context.Context, id int64, status models.EnrollmentStatus) error
	Delete(ctx context.Context, id int64) error
}

// EnrollmentRepository handles course_enrollments
type EnrollmentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(db *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{db: db, sb: psql()}
}

func (r *EnrollmentRepository) selectEnrollments() squirrel.SelectBuilder {
	return r.sb.Select(
		"e.enrollment_id", "e.student_id", "e.section_course_id", "e.status", "e.enrolled_at",
		"s.student_number", "s.last_name || ', ' || s.first_name",
	).
		From("course_enrollments e").
		Join("students s ON s.student_id = e.student_id")
}

func scanEnrollment(row pgx.Row) (*models.Enrollment, error) {
	e := &models.Enrollment{}
	err := row.Scan(&e.ID, &e.StudentID, &e.SectionCourseID, &e.Status, &e.EnrolledAt, &e.StudentNumber, &e.StudentName)
	return e, err
}

// Create enrolls a student in a section
func (r *EnrollmentRepository) Create(ctx context.Context, e *models.Enrollment) error {
	if e.Status == "" {
		e.Status = models.EnrollmentEnrolled
	}

	sql, args, err := r.sb.Insert("course_enrollments").
		Columns("student_id", "section_course_id", "status").
		Values(e.StudentID, e.SectionCourseID, e.Status).
		Suffix("RETURNING enrollment_id, enrolled_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create enrollment query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&e.ID, &e.EnrolledAt); err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, "course_enrollments_student_section_key"):
			return apperrors.ErrAlreadyEnrolled
		case dberrors.IsForeignKeyViolation(err):
			return apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Int64("studentID", e.StudentID).Int64("sectionCourseID", e.SectionCourseID).Msg("Error creating enrollment")
		return fmt.Errorf("error creating enrollment: %w", err)
	}
	return nil
}

// GetByID retrieves an enrollment with its student
func (r *EnrollmentRepository) GetByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	sql, args, err := r.selectEnrollments().Where(squirrel.Eq{"e.enrollment_id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get enrollment query: %w", err)
	}

	e, err := scanEnrollment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("error getting enrollment: %w", err)
	}
	return e, nil
}

// ListBySection returns the class list of a section ordered by student name
func (r *EnrollmentRepository) ListBySection(ctx context.Context, sectionCourseID int64) ([]*models.Enrollment, error) {
	sql, args, err := r.selectEnrollments().
		Where(squirrel.Eq{"e.section_course_id": sectionCourseID}).
		OrderBy("s.last_name", "s.first_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list enrollments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing enrollments: %w", err)
	}
	defer rows.Close()

	list := []*models.Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// UpdateStatus drops or re-enrolls
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id int64, status models.EnrollmentStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE course_enrollments SET status = $2 WHERE enrollment_id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("error updating enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrEnrollmentNotFound
	}
	return nil
}

// Delete removes an enrollment with its submissions and attendance
func (r *EnrollmentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM course_enrollments WHERE enrollment_id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrEnrollmentNotFound
	}
	return nil
}
