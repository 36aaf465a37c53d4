package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/db"
	"github.com/yigit/crms/internal/pkg/apperrors"
	"github.com/yigit/crms/internal/pkg/dberrors"
	"github.com/yigit/crms/internal/pkg/logger"
)

// IAssessmentRepository defines assessment and sub-assessment operations
type IAssessmentRepository interface {
	Create(ctx context.Context, a *models.Assessment) error
	GetByID(ctx context.Context, id int64) (*models.Assessment, error)
	ListBySection(ctx context.Context, sectionCourseID int64) ([]*models.Assessment, error)
	Update(ctx context.Context, a *models.Assessment) error
	Delete(ctx context.Context, id int64) error

	CreateSub(ctx context.Context, sa *models.SubAssessment) error
	GetSub(ctx context.Context, id int64) (*models.SubAssessment, error)
	ListSubs(ctx context.Context, assessmentID int64) ([]*models.SubAssessment, error)
	ListSubsBySection(ctx context.Context, sectionCourseID int64) ([]*models.SubAssessment, error)
	UpdateSub(ctx context.Context, sa *models.SubAssessment) error
	DeleteSub(ctx context.Context, id int64) error
}

// AssessmentRepository handles assessments, their ILO tags and sub-assessments
type AssessmentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAssessmentRepository creates a new AssessmentRepository
func NewAssessmentRepository(db *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{db: db, sb: psql()}
}

var assessmentColumns = []string{
	"a.assessment_id", "a.syllabus_id", "a.section_course_id", "a.title", "a.type", "a.total_points",
	"a.weight_percentage", "a.due_date", "a.is_published", "a.created_by", "a.created_at", "a.updated_at",
	"COALESCE(ARRAY(SELECT ai.ilo_id FROM assessment_ilos ai WHERE ai.assessment_id = a.assessment_id ORDER BY ai.ilo_id), '{}')",
}

func scanAssessment(row pgx.Row) (*models.Assessment, error) {
	a := &models.Assessment{}
	err := row.Scan(&a.ID, &a.SyllabusID, &a.SectionCourseID, &a.Title, &a.Type, &a.TotalPoints,
		&a.WeightPercentage, &a.DueDate, &a.IsPublished, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt, &a.ILOIDs)
	return a, err
}

func mapAssessmentWriteError(err error) error {
	switch {
	case dberrors.IsCheckViolation(err):
		return fmt.Errorf("%w: total points must be positive and weight between 0 and 100", apperrors.ErrValidationFailed)
	case dberrors.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: referenced section, syllabus or ILO does not exist", apperrors.ErrValidationFailed)
	}
	return err
}

// replaceILOTags rewrites the assessment's ILO tags inside tx
func replaceILOTags(ctx context.Context, tx pgx.Tx, assessmentID int64, iloIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM assessment_ilos WHERE assessment_id = $1`, assessmentID); err != nil {
		return fmt.Errorf("error clearing ILO tags: %w", err)
	}
	if len(iloIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO assessment_ilos (assessment_id, ilo_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`, assessmentID, iloIDs)
	if err != nil {
		return fmt.Errorf("error tagging ILOs: %w", mapAssessmentWriteError(err))
	}
	return nil
}

// Create inserts an assessment and its ILO tags in one transaction
func (r *AssessmentRepository) Create(ctx context.Context, a *models.Assessment) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO assessments (syllabus_id, section_course_id, title, type, total_points, weight_percentage,
				due_date, is_published, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING assessment_id, created_at, updated_at`,
			a.SyllabusID, a.SectionCourseID, a.Title, a.Type, a.TotalPoints, a.WeightPercentage,
			a.DueDate, a.IsPublished, a.CreatedBy,
		).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			logger.Error().Err(err).Int64("sectionCourseID", a.SectionCourseID).Msg("Error creating assessment")
			return fmt.Errorf("error creating assessment: %w", mapAssessmentWriteError(err))
		}
		return replaceILOTags(ctx, tx, a.ID, a.ILOIDs)
	})
}

// GetByID retrieves an assessment with its ILO tags and sub-assessments
func (r *AssessmentRepository) GetByID(ctx context.Context, id int64) (*models.Assessment, error) {
	sql, args, err := r.sb.Select(assessmentColumns...).From("assessments a").
		Where(squirrel.Eq{"a.assessment_id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get assessment query: %w", err)
	}

	a, err := scanAssessment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("error getting assessment: %w", err)
	}

	if a.SubAssessments, err = r.ListSubs(ctx, id); err != nil {
		return nil, err
	}
	return a, nil
}

// ListBySection returns a section's assessments ordered by due date then creation
func (r *AssessmentRepository) ListBySection(ctx context.Context, sectionCourseID int64) ([]*models.Assessment, error) {
	sql, args, err := r.sb.Select(assessmentColumns...).From("assessments a").
		Where(squirrel.Eq{"a.section_course_id": sectionCourseID}).
		OrderBy("a.due_date NULLS LAST", "a.created_at", "a.assessment_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list assessments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing assessments: %w", err)
	}
	defer rows.Close()

	list := []*models.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning assessment row: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// Update replaces an assessment's fields and ILO tags
func (r *AssessmentRepository) Update(ctx context.Context, a *models.Assessment) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE assessments
			SET syllabus_id = $2, title = $3, type = $4, total_points = $5, weight_percentage = $6,
				due_date = $7, is_published = $8, updated_at = NOW()
			WHERE assessment_id = $1
			RETURNING updated_at`,
			a.ID, a.SyllabusID, a.Title, a.Type, a.TotalPoints, a.WeightPercentage, a.DueDate, a.IsPublished,
		).Scan(&a.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrAssessmentNotFound
			}
			return fmt.Errorf("error updating assessment: %w", mapAssessmentWriteError(err))
		}
		return replaceILOTags(ctx, tx, a.ID, a.ILOIDs)
	})
}

// Delete removes an assessment with its sub-assessments and submissions
func (r *AssessmentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM assessments WHERE assessment_id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting assessment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAssessmentNotFound
	}
	return nil
}

const subAssessmentColumns = `sa.sub_assessment_id, sa.assessment_id, sa.title, sa.total_points, sa.weight_percentage, sa.status, sa.created_at`

func scanSubAssessment(row pgx.Row) (*models.SubAssessment, error) {
	sa := &models.SubAssessment{}
	err := row.Scan(&sa.ID, &sa.AssessmentID, &sa.Title, &sa.TotalPoints, &sa.WeightPercentage, &sa.Status, &sa.CreatedAt)
	return sa, err
}

// CreateSub adds a sub-assessment
func (r *AssessmentRepository) CreateSub(ctx context.Context, sa *models.SubAssessment) error {
	if sa.Status == "" {
		sa.Status = models.SubAssessmentDraft
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO sub_assessments (assessment_id, title, total_points, weight_percentage, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING sub_assessment_id, created_at`,
		sa.AssessmentID, sa.Title, sa.TotalPoints, sa.WeightPercentage, sa.Status,
	).Scan(&sa.ID, &sa.CreatedAt)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrAssessmentNotFound
		}
		return fmt.Errorf("error creating sub-assessment: %w", mapAssessmentWriteError(err))
	}
	return nil
}

// GetSub retrieves a sub-assessment
func (r *AssessmentRepository) GetSub(ctx context.Context, id int64) (*models.SubAssessment, error) {
	sa, err := scanSubAssessment(r.db.QueryRow(ctx,
		`SELECT `+subAssessmentColumns+` FROM sub_assessments sa WHERE sa.sub_assessment_id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSubAssessmentNotFound
		}
		return nil, fmt.Errorf("error getting sub-assessment: %w", err)
	}
	return sa, nil
}

// ListSubs returns the sub-assessments of an assessment
func (r *AssessmentRepository) ListSubs(ctx context.Context, assessmentID int64) ([]*models.SubAssessment, error) {
	return r.querySubs(ctx, `
		SELECT `+subAssessmentColumns+` FROM sub_assessments sa
		WHERE sa.assessment_id = $1
		ORDER BY sa.created_at, sa.sub_assessment_id`, assessmentID)
}

// ListSubsBySection returns every sub-assessment of a section's assessments
func (r *AssessmentRepository) ListSubsBySection(ctx context.Context, sectionCourseID int64) ([]*models.SubAssessment, error) {
	return r.querySubs(ctx, `
		SELECT `+subAssessmentColumns+` FROM sub_assessments sa
		JOIN assessments a ON a.assessment_id = sa.assessment_id
		WHERE a.section_course_id = $1
		ORDER BY sa.assessment_id, sa.created_at, sa.sub_assessment_id`, sectionCourseID)
}

func (r *AssessmentRepository) querySubs(ctx context.Context, sql string, args ...any) ([]*models.SubAssessment, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing sub-assessments: %w", err)
	}
	defer rows.Close()

	list := []*models.SubAssessment{}
	for rows.Next() {
		sa, err := scanSubAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning sub-assessment row: %w", err)
		}
		list = append(list, sa)
	}
	return list, rows.Err()
}

// UpdateSub edits a sub-assessment
func (r *AssessmentRepository) UpdateSub(ctx context.Context, sa *models.SubAssessment) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sub_assessments SET title = $2, total_points = $3, weight_percentage = $4, status = $5
		WHERE sub_assessment_id = $1`,
		sa.ID, sa.Title, sa.TotalPoints, sa.WeightPercentage, sa.Status)
	if err != nil {
		return fmt.Errorf("error updating sub-assessment: %w", mapAssessmentWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSubAssessmentNotFound
	}
	return nil
}

// DeleteSub removes a sub-assessment and its submissions
func (r *AssessmentRepository) DeleteSub(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sub_assessments WHERE sub_assessment_id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting sub-assessment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSubAssessmentNotFound
	}
	return nil
}
