package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/pkg/apperrors"
	"github.com/yigit/crms/internal/pkg/dberrors"
)

// ISessionRepository defines class meeting operations
type ISessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	GetByID(ctx context.Context, id int64) (*models.Session, error)
	ListBySection(ctx context.Context, sectionCourseID int64) ([]*models.Session, error)
	Delete(ctx context.Context, id int64) error
}

// SessionRepository handles sessions
type SessionRepository struct {
	db *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create schedules a session
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO sessions (section_course_id, session_date, session_type, title)
		VALUES ($1, $2, $3, $4)
		RETURNING session_id, created_at`,
		s.SectionCourseID, s.SessionDate, s.SessionType, s.Title,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, "sessions_section_date_type_key"):
			return apperrors.ErrSessionExists
		case dberrors.IsForeignKeyViolation(err):
			return apperrors.ErrSectionCourseNotFound
		}
		return fmt.Errorf("error creating session: %w", err)
	}
	return nil
}

// GetByID retrieves a session
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	s := &models.Session{}
	err := r.db.QueryRow(ctx, `
		SELECT session_id, section_course_id, session_date, session_type, title, created_at
		FROM sessions WHERE session_id = $1`, id,
	).Scan(&s.ID, &s.SectionCourseID, &s.SessionDate, &s.SessionType, &s.Title, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("error getting session: %w", err)
	}
	return s, nil
}

// ListBySection returns a section's sessions in date order
func (r *SessionRepository) ListBySection(ctx context.Context, sectionCourseID int64) ([]*models.Session, error) {
	rows, err := r.db.Query(ctx, `
		SELECT session_id, section_course_id, session_date, session_type, title, created_at
		FROM sessions WHERE section_course_id = $1
		ORDER BY session_date, session_type`, sectionCourseID)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	defer rows.Close()

	list := []*models.Session{}
	for rows.Next() {
		s := &models.Session{}
		if err := rows.Scan(&s.ID, &s.SectionCourseID, &s.SessionDate, &s.SessionType, &s.Title, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning session row: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Delete removes a session and its attendance logs
func (r *SessionRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}
