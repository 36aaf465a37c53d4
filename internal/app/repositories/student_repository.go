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

// IStudentRepository defines student record operations
type IStudentRepository interface {
	Create(ctx context.Context, s *models.Student) error
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	List(ctx context.Context, search string, offset, limit int) ([]*models.Student, int64, error)
	Update(ctx context.Context, s *models.Student) error
	Delete(ctx context.Context, id int64) error
}

// StudentRepository handles students
type StudentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{db: db, sb: psql()}
}

var studentColumns = []string{"student_id", "student_number", "first_name", "last_name", "email", "created_at"}

func scanStudent(row pgx.Row) (*models.Student, error) {
	s := &models.Student{}
	err := row.Scan(&s.ID, &s.StudentNumber, &s.FirstName, &s.LastName, &s.Email, &s.CreatedAt)
	return s, err
}

// Create registers a student
func (r *StudentRepository) Create(ctx context.Context, s *models.Student) error {
	sql, args, err := r.sb.Insert("students").
		Columns("student_number", "first_name", "last_name", "email").
		Values(s.StudentNumber, s.FirstName, s.LastName, s.Email).
		Suffix("RETURNING student_id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "students_student_number_key") {
			return apperrors.ErrStudentNumberExists
		}
		logger.Error().Err(err).Str("studentNumber", s.StudentNumber).Msg("Error creating student")
		return fmt.Errorf("error creating student: %w", err)
	}
	return nil
}

// GetByID retrieves a student
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	sql, args, err := r.sb.Select(studentColumns...).From("students").Where(squirrel.Eq{"student_id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get student query: %w", err)
	}

	s, err := scanStudent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error getting student: %w", err)
	}
	return s, nil
}

// List returns one page of students, optionally searched by number or name
func (r *StudentRepository) List(ctx context.Context, search string, offset, limit int) ([]*models.Student, int64, error) {
	where := squirrel.And{}
	if search != "" {
		where = append(where, ilike(search, "student_number", "first_name", "last_name"))
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("students").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count students query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting students: %w", err)
	}

	sql, args, err := r.sb.Select(studentColumns...).From("students").Where(where).
		OrderBy("last_name", "first_name", "student_number").
		Limit(uint64(limit)).Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list students query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing students: %w", err)
	}
	defer rows.Close()

	students := []*models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning student row: %w", err)
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}

// Update replaces a student's editable fields
func (r *StudentRepository) Update(ctx context.Context, s *models.Student) error {
	sql, args, err := r.sb.Update("students").
		SetMap(map[string]interface{}{
			"student_number": s.StudentNumber,
			"first_name":     s.FirstName,
			"last_name":      s.LastName,
			"email":          s.Email,
		}).
		Where(squirrel.Eq{"student_id": s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update student query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "students_student_number_key") {
			return apperrors.ErrStudentNumberExists
		}
		return fmt.Errorf("error updating student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// Delete removes a student and their enrollments
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM students WHERE student_id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}
