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

// ISectionCourseRepository defines section course operations
type ISectionCourseRepository interface {
	Create(ctx context.Context, sc *models.SectionCourse) error
	GetByID(ctx context.Context, id int64) (*models.SectionCourse, error)
	List(ctx context.Context, filter SectionCourseFilter) ([]*models.SectionCourse, error)
	Update(ctx context.Context, sc *models.SectionCourse) error
	Delete(ctx context.Context, id int64) error
	ListIDs(ctx context.Context) ([]int64, error)
}

// SectionCourseFilter narrows List. Zero values are ignored.
type SectionCourseFilter struct {
	CourseID     int64
	InstructorID int64
	SchoolYear   string
	Term         string
}

// SectionCourseRepository handles section_courses
type SectionCourseRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSectionCourseRepository creates a new SectionCourseRepository
func NewSectionCourseRepository(db *pgxpool.Pool) *SectionCourseRepository {
	return &SectionCourseRepository{db: db, sb: psql()}
}

func (r *SectionCourseRepository) selectSections() squirrel.SelectBuilder {
	return r.sb.Select(
		"sc.section_course_id", "sc.course_id", "sc.instructor_id", "sc.section_code", "sc.term", "sc.school_year",
		"sc.created_at", "c.course_code", "c.title", "u.first_name || ' ' || u.last_name",
	).
		From("section_courses sc").
		Join("courses c ON c.course_id = sc.course_id").
		Join("users u ON u.user_id = sc.instructor_id")
}

func scanSection(row pgx.Row) (*models.SectionCourse, error) {
	sc := &models.SectionCourse{}
	err := row.Scan(&sc.ID, &sc.CourseID, &sc.InstructorID, &sc.SectionCode, &sc.Term, &sc.SchoolYear,
		&sc.CreatedAt, &sc.CourseCode, &sc.CourseTitle, &sc.InstructorName)
	return sc, err
}

// Create opens a section course
func (r *SectionCourseRepository) Create(ctx context.Context, sc *models.SectionCourse) error {
	sql, args, err := r.sb.Insert("section_courses").
		Columns("course_id", "instructor_id", "section_code", "term", "school_year").
		Values(sc.CourseID, sc.InstructorID, sc.SectionCode, sc.Term, sc.SchoolYear).
		Suffix("RETURNING section_course_id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create section query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&sc.ID, &sc.CreatedAt); err != nil {
		return r.mapWriteError(err, sc)
	}
	return nil
}

func (r *SectionCourseRepository) mapWriteError(err error, sc *models.SectionCourse) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, "section_courses_offering_key"):
		return apperrors.ErrSectionOfferingExists
	case dberrors.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: course %d or instructor %d does not exist", apperrors.ErrValidationFailed, sc.CourseID, sc.InstructorID)
	}
	logger.Error().Err(err).Int64("courseID", sc.CourseID).Msg("Error writing section course")
	return fmt.Errorf("error writing section course: %w", err)
}

// GetByID retrieves a section with its course and instructor names
func (r *SectionCourseRepository) GetByID(ctx context.Context, id int64) (*models.SectionCourse, error) {
	sql, args, err := r.selectSections().Where(squirrel.Eq{"sc.section_course_id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get section query: %w", err)
	}

	sc, err := scanSection(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSectionCourseNotFound
		}
		return nil, fmt.Errorf("error getting section course: %w", err)
	}
	return sc, nil
}

// List returns sections matching filter
func (r *SectionCourseRepository) List(ctx context.Context, filter SectionCourseFilter) ([]*models.SectionCourse, error) {
	where := squirrel.Eq{}
	if filter.CourseID > 0 {
		where["sc.course_id"] = filter.CourseID
	}
	if filter.InstructorID > 0 {
		where["sc.instructor_id"] = filter.InstructorID
	}
	if filter.SchoolYear != "" {
		where["sc.school_year"] = filter.SchoolYear
	}
	if filter.Term != "" {
		where["sc.term"] = filter.Term
	}

	sql, args, err := r.selectSections().Where(where).
		OrderBy("sc.school_year DESC", "c.course_code", "sc.section_code").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list sections query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing sections: %w", err)
	}
	defer rows.Close()

	sections := []*models.SectionCourse{}
	for rows.Next() {
		sc, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning section row: %w", err)
		}
		sections = append(sections, sc)
	}
	return sections, rows.Err()
}

// ListIDs returns every section course id
func (r *SectionCourseRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT section_course_id FROM section_courses ORDER BY section_course_id`)
	if err != nil {
		return nil, fmt.Errorf("error listing section ids: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// Update edits a section
func (r *SectionCourseRepository) Update(ctx context.Context, sc *models.SectionCourse) error {
	sql, args, err := r.sb.Update("section_courses").
		SetMap(map[string]interface{}{
			"instructor_id": sc.InstructorID,
			"section_code":  sc.SectionCode,
			"term":          sc.Term,
			"school_year":   sc.SchoolYear,
		}).
		Where(squirrel.Eq{"section_course_id": sc.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update section query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return r.mapWriteError(err, sc)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSectionCourseNotFound
	}
	return nil
}

// Delete removes a section; enrollments, sessions and attendance cascade
func (r *SectionCourseRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM section_courses WHERE section_course_id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting section course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSectionCourseNotFound
	}
	return nil
}
