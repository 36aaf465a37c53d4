package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/pkg/apperrors"
	"github.com/yigit/crms/internal/pkg/dberrors"
	"github.com/yigit/crms/internal/pkg/logger"
)

// ScoreRow is one recorded score of a section's class record
type ScoreRow struct {
	EnrollmentID    int64
	AssessmentID    *int64
	SubAssessmentID *int64
	Score           *float64
}

// ISubmissionRepository defines grading storage
type ISubmissionRepository interface {
	UpsertAssessmentScore(ctx context.Context, s *models.Submission) error
	UpsertSubAssessmentScore(ctx context.Context, s *models.Submission) error
	ListByAssessment(ctx context.Context, assessmentID int64) ([]*models.Submission, error)
	ScoresBySection(ctx context.Context, sectionCourseID int64) ([]ScoreRow, error)
	MaxScore(ctx context.Context, assessmentID int64) (*float64, error)
	MaxSubScore(ctx context.Context, subAssessmentID int64) (*float64, error)
}

// SubmissionRepository handles submissions and sub_assessment_submissions
type SubmissionRepository struct {
	db *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository
func NewSubmissionRepository(db *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func mapSubmissionWriteError(err error) error {
	switch {
	case dberrors.IsForeignKeyViolation(err):
		return apperrors.ErrEnrollmentNotFound
	case dberrors.IsCheckViolation(err):
		return apperrors.ErrScoreOutOfRange
	}
	return err
}

// UpsertAssessmentScore records the score of (enrollment, assessment),
// replacing any previous one
func (r *SubmissionRepository) UpsertAssessmentScore(ctx context.Context, s *models.Submission) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO submissions (enrollment_id, assessment_id, total_score, status, graded_by, graded_at)
		VALUES ($1, $2, $3, $4, $5, CASE WHEN $3::numeric IS NULL THEN NULL ELSE NOW() END)
		ON CONFLICT ON CONSTRAINT submissions_enrollment_assessment_key DO UPDATE
		SET total_score = EXCLUDED.total_score,
		    status = EXCLUDED.status,
		    graded_by = EXCLUDED.graded_by,
		    graded_at = EXCLUDED.graded_at
		RETURNING submission_id, graded_at`,
		s.EnrollmentID, s.AssessmentID, s.TotalScore, s.Status, s.GradedBy,
	).Scan(&s.ID, &s.GradedAt)
	if err != nil {
		logger.Error().Err(err).Int64("enrollmentID", s.EnrollmentID).Msg("Error upserting submission")
		return fmt.Errorf("error saving submission: %w", mapSubmissionWriteError(err))
	}
	return nil
}

// UpsertSubAssessmentScore records the score of (enrollment, sub-assessment)
func (r *SubmissionRepository) UpsertSubAssessmentScore(ctx context.Context, s *models.Submission) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO sub_assessment_submissions (enrollment_id, sub_assessment_id, total_score, status, graded_by, graded_at)
		VALUES ($1, $2, $3, $4, $5, CASE WHEN $3::numeric IS NULL THEN NULL ELSE NOW() END)
		ON CONFLICT ON CONSTRAINT sub_submissions_enrollment_sub_key DO UPDATE
		SET total_score = EXCLUDED.total_score,
		    status = EXCLUDED.status,
		    graded_by = EXCLUDED.graded_by,
		    graded_at = EXCLUDED.graded_at
		RETURNING submission_id, graded_at`,
		s.EnrollmentID, s.SubAssessmentID, s.TotalScore, s.Status, s.GradedBy,
	).Scan(&s.ID, &s.GradedAt)
	if err != nil {
		logger.Error().Err(err).Int64("enrollmentID", s.EnrollmentID).Msg("Error upserting sub-assessment submission")
		return fmt.Errorf("error saving sub-assessment submission: %w", mapSubmissionWriteError(err))
	}
	return nil
}

// ListByAssessment returns an assessment's submissions with the item's total points
func (r *SubmissionRepository) ListByAssessment(ctx context.Context, assessmentID int64) ([]*models.Submission, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.submission_id, s.enrollment_id, s.assessment_id, s.total_score, s.status, s.graded_by, s.graded_at,
		       a.total_points, st.last_name || ', ' || st.first_name
		FROM submissions s
		JOIN assessments a ON a.assessment_id = s.assessment_id
		JOIN course_enrollments e ON e.enrollment_id = s.enrollment_id
		JOIN students st ON st.student_id = e.student_id
		WHERE s.assessment_id = $1
		ORDER BY st.last_name, st.first_name`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("error listing submissions: %w", err)
	}
	defer rows.Close()

	list := []*models.Submission{}
	for rows.Next() {
		s := &models.Submission{}
		if err := rows.Scan(&s.ID, &s.EnrollmentID, &s.AssessmentID, &s.TotalScore, &s.Status, &s.GradedBy,
			&s.GradedAt, &s.TotalPoints, &s.StudentName); err != nil {
			return nil, fmt.Errorf("error scanning submission row: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// ScoresBySection returns every recorded score of a section, for assessments
// and sub-assessments alike
func (r *SubmissionRepository) ScoresBySection(ctx context.Context, sectionCourseID int64) ([]ScoreRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.enrollment_id, s.assessment_id, NULL::bigint, s.total_score
		FROM submissions s
		JOIN assessments a ON a.assessment_id = s.assessment_id
		WHERE a.section_course_id = $1
		UNION ALL
		SELECT ss.enrollment_id, NULL::bigint, ss.sub_assessment_id, ss.total_score
		FROM sub_assessment_submissions ss
		JOIN sub_assessments sa ON sa.sub_assessment_id = ss.sub_assessment_id
		JOIN assessments a ON a.assessment_id = sa.assessment_id
		WHERE a.section_course_id = $1`, sectionCourseID)
	if err != nil {
		return nil, fmt.Errorf("error loading section scores: %w", err)
	}
	defer rows.Close()

	var out []ScoreRow
	for rows.Next() {
		var row ScoreRow
		if err := rows.Scan(&row.EnrollmentID, &row.AssessmentID, &row.SubAssessmentID, &row.Score); err != nil {
			return nil, fmt.Errorf("error scanning score row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MaxScore returns the highest recorded score of an assessment, nil when
// nothing is graded yet
func (r *SubmissionRepository) MaxScore(ctx context.Context, assessmentID int64) (*float64, error) {
	var highest *float64
	if err := r.db.QueryRow(ctx,
		`SELECT MAX(total_score)::float8 FROM submissions WHERE assessment_id = $1`, assessmentID,
	).Scan(&highest); err != nil {
		return nil, fmt.Errorf("error loading highest score: %w", err)
	}
	return highest, nil
}

// MaxSubScore returns the highest recorded score of a sub-assessment
func (r *SubmissionRepository) MaxSubScore(ctx context.Context, subAssessmentID int64) (*float64, error) {
	var highest *float64
	if err := r.db.QueryRow(ctx,
		`SELECT MAX(total_score)::float8 FROM sub_assessment_submissions WHERE sub_assessment_id = $1`, subAssessmentID,
	).Scan(&highest); err != nil {
		return nil, fmt.Errorf("error loading highest sub-assessment score: %w", err)
	}
	return highest, nil
}
