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

// ICourseRepository defines course catalogue operations
type ICourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	List(ctx context.Context, search string, offset, limit int) ([]*models.Course, int64, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id int64) error
}

// CourseRepository handles course database operations
type CourseRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{db: db, sb: psql()}
}

// Create creates a new course
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	sql, args, err := r.sb.Insert("courses").
		Columns("course_code", "title", "units").
		Values(course.Code, course.Title, course.Units).
		Suffix("RETURNING course_id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create course query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&course.ID, &course.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "courses_course_code_key") {
			return apperrors.ErrCourseCodeExists
		}
		logger.Error().Err(err).Str("courseCode", course.Code).Msg("Error creating course")
		return fmt.Errorf("error creating course: %w", err)
	}
	return nil
}

// GetByID retrieves a course by ID
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	sql, args, err := r.sb.Select("course_id", "course_code", "title", "units", "created_at").
		From("courses").
		Where(squirrel.Eq{"course_id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	c := &models.Course{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.Code, &c.Title, &c.Units, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", id).Msg("Error scanning course row")
		return nil, fmt.Errorf("error getting course: %w", err)
	}
	return c, nil
}

// List returns one page of courses, optionally filtered by code or title
func (r *CourseRepository) List(ctx context.Context, search string, offset, limit int) ([]*models.Course, int64, error) {
	where := squirrel.And{}
	if search != "" {
		where = append(where, ilike(search, "course_code", "title"))
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("courses").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count courses query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting courses: %w", err)
	}

	sql, args, err := r.sb.Select("course_id", "course_code", "title", "units", "created_at").
		From("courses").
		Where(where).
		OrderBy("course_code ASC").
		Limit(uint64(limit)).Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list courses query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		c := &models.Course{}
		if err := rows.Scan(&c.ID, &c.Code, &c.Title, &c.Units, &c.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, total, rows.Err()
}

// Update replaces a course's editable fields
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	sql, args, err := r.sb.Update("courses").
		SetMap(map[string]interface{}{
			"course_code": course.Code,
			"title":       course.Title,
			"units":       course.Units,
		}).
		Where(squirrel.Eq{"course_id": course.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update course query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "courses_course_code_key") {
			return apperrors.ErrCourseCodeExists
		}
		return fmt.Errorf("error updating course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	return nil
}

// Delete removes a course; its sections and everything under them cascade
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM courses WHERE course_id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	return nil
}
