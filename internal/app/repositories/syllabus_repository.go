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

// ISyllabusRepository defines syllabus and ILO operations
type ISyllabusRepository interface {
	Create(ctx context.Context, s *models.Syllabus) error
	GetByID(ctx context.Context, id int64) (*models.Syllabus, error)
	List(ctx context.Context, filter SyllabusFilter) ([]*models.Syllabus, error)
	Update(ctx context.Context, s *models.Syllabus) error
	Review(ctx context.Context, id, reviewerID int64, decision models.SyllabusStatus, remarks *string) (*models.Syllabus, error)
	Delete(ctx context.Context, id int64) error

	CreateILO(ctx context.Context, ilo *models.ILO) error
	GetILO(ctx context.Context, id int64) (*models.ILO, error)
	ListILOs(ctx context.Context, syllabusID int64) ([]*models.ILO, error)
	UpdateILO(ctx context.Context, ilo *models.ILO) error
	DeleteILO(ctx context.Context, id int64) error
}

// SyllabusFilter narrows List. Zero values are ignored.
type SyllabusFilter struct {
	CourseID        int64
	SectionCourseID int64
	Status          models.SyllabusStatus
}

// SyllabusRepository handles syllabi and ilos
type SyllabusRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSyllabusRepository creates a new SyllabusRepository
func NewSyllabusRepository(db *pgxpool.Pool) *SyllabusRepository {
	return &SyllabusRepository{db: db, sb: psql()}
}

var syllabusColumns = []string{
	"syllabus_id", "course_id", "section_course_id", "title", "status", "created_by",
	"reviewed_by", "reviewed_at", "review_remarks", "created_at", "updated_at",
}

func scanSyllabus(row pgx.Row) (*models.Syllabus, error) {
	s := &models.Syllabus{}
	err := row.Scan(&s.ID, &s.CourseID, &s.SectionCourseID, &s.Title, &s.Status, &s.CreatedBy,
		&s.ReviewedBy, &s.ReviewedAt, &s.ReviewRemarks, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Create drafts a syllabus
func (r *SyllabusRepository) Create(ctx context.Context, s *models.Syllabus) error {
	if s.Status == "" {
		s.Status = models.SyllabusDraft
	}

	sql, args, err := r.sb.Insert("syllabi").
		Columns("course_id", "section_course_id", "title", "status", "created_by").
		Values(s.CourseID, s.SectionCourseID, s.Title, s.Status, s.CreatedBy).
		Suffix("RETURNING syllabus_id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create syllabus query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", s.CourseID).Msg("Error creating syllabus")
		return fmt.Errorf("error creating syllabus: %w", err)
	}
	return nil
}

// GetByID retrieves a syllabus with its ILOs
func (r *SyllabusRepository) GetByID(ctx context.Context, id int64) (*models.Syllabus, error) {
	sql, args, err := r.sb.Select(syllabusColumns...).From("syllabi").Where(squirrel.Eq{"syllabus_id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get syllabus query: %w", err)
	}

	s, err := scanSyllabus(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSyllabusNotFound
		}
		return nil, fmt.Errorf("error getting syllabus: %w", err)
	}

	if s.ILOs, err = r.ListILOs(ctx, id); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns syllabi matching filter, newest first
func (r *SyllabusRepository) List(ctx context.Context, filter SyllabusFilter) ([]*models.Syllabus, error) {
	where := squirrel.Eq{}
	if filter.CourseID > 0 {
		where["course_id"] = filter.CourseID
	}
	if filter.SectionCourseID > 0 {
		where["section_course_id"] = filter.SectionCourseID
	}
	if filter.Status != "" {
		where["status"] = filter.Status
	}

	sql, args, err := r.sb.Select(syllabusColumns...).From("syllabi").Where(where).
		OrderBy("updated_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list syllabi query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing syllabi: %w", err)
	}
	defer rows.Close()

	list := []*models.Syllabus{}
	for rows.Next() {
		s, err := scanSyllabus(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning syllabus row: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Update edits title and status. Reviewed fields are reset when a syllabus
// goes back to draft or pending.
func (r *SyllabusRepository) Update(ctx context.Context, s *models.Syllabus) error {
	err := r.db.QueryRow(ctx, `
		UPDATE syllabi
		SET title = $2, status = $3, reviewed_by = NULL, reviewed_at = NULL, review_remarks = NULL, updated_at = NOW()
		WHERE syllabus_id = $1
		RETURNING updated_at`,
		s.ID, s.Title, s.Status).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrSyllabusNotFound
		}
		return fmt.Errorf("error updating syllabus: %w", err)
	}
	return nil
}

// Review records an approve/reject decision on a pending syllabus
func (r *SyllabusRepository) Review(ctx context.Context, id, reviewerID int64, decision models.SyllabusStatus, remarks *string) (*models.Syllabus, error) {
	sql, args, err := r.sb.Update("syllabi").
		SetMap(map[string]interface{}{
			"status":         decision,
			"reviewed_by":    reviewerID,
			"reviewed_at":    squirrel.Expr("NOW()"),
			"review_remarks": remarks,
			"updated_at":     squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"syllabus_id": id, "status": models.SyllabusPending}).
		Suffix("RETURNING " + joinColumns(syllabusColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build review syllabus query: %w", err)
	}

	s, err := scanSyllabus(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// either missing or not pending
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, apperrors.ErrSyllabusNotReviewable
		}
		return nil, fmt.Errorf("error reviewing syllabus: %w", err)
	}
	return s, nil
}

// Delete removes a syllabus and its ILOs
func (r *SyllabusRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM syllabi WHERE syllabus_id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting syllabus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSyllabusNotFound
	}
	return nil
}

// CreateILO adds an ILO to a syllabus
func (r *SyllabusRepository) CreateILO(ctx context.Context, ilo *models.ILO) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO ilos (syllabus_id, code, description) VALUES ($1, $2, $3)
		RETURNING ilo_id`,
		ilo.SyllabusID, ilo.Code, ilo.Description).Scan(&ilo.ID)
	if err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, "ilos_syllabus_code_key"):
			return apperrors.ErrILOCodeExists
		case dberrors.IsForeignKeyViolation(err):
			return apperrors.ErrSyllabusNotFound
		}
		return fmt.Errorf("error creating ILO: %w", err)
	}
	return nil
}

// GetILO retrieves an ILO
func (r *SyllabusRepository) GetILO(ctx context.Context, id int64) (*models.ILO, error) {
	ilo := &models.ILO{}
	err := r.db.QueryRow(ctx, `SELECT ilo_id, syllabus_id, code, description FROM ilos WHERE ilo_id = $1`, id).
		Scan(&ilo.ID, &ilo.SyllabusID, &ilo.Code, &ilo.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrILONotFound
		}
		return nil, fmt.Errorf("error getting ILO: %w", err)
	}
	return ilo, nil
}

// ListILOs returns a syllabus' ILOs ordered by code
func (r *SyllabusRepository) ListILOs(ctx context.Context, syllabusID int64) ([]*models.ILO, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ilo_id, syllabus_id, code, description FROM ilos
		WHERE syllabus_id = $1 ORDER BY code`, syllabusID)
	if err != nil {
		return nil, fmt.Errorf("error listing ILOs: %w", err)
	}
	defer rows.Close()

	list := []*models.ILO{}
	for rows.Next() {
		ilo := &models.ILO{}
		if err := rows.Scan(&ilo.ID, &ilo.SyllabusID, &ilo.Code, &ilo.Description); err != nil {
			return nil, fmt.Errorf("error scanning ILO row: %w", err)
		}
		list = append(list, ilo)
	}
	return list, rows.Err()
}

// UpdateILO edits an ILO
func (r *SyllabusRepository) UpdateILO(ctx context.Context, ilo *models.ILO) error {
	tag, err := r.db.Exec(ctx, `UPDATE ilos SET code = $2, description = $3 WHERE ilo_id = $1`,
		ilo.ID, ilo.Code, ilo.Description)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "ilos_syllabus_code_key") {
			return apperrors.ErrILOCodeExists
		}
		return fmt.Errorf("error updating ILO: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrILONotFound
	}
	return nil
}

// DeleteILO removes an ILO and its assessment tags
func (r *SyllabusRepository) DeleteILO(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ilos WHERE ilo_id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting ILO: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrILONotFound
	}
	return nil
}
