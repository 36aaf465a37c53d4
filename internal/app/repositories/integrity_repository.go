package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// IntegrityCheck is one named data-quality query and the number of rows it flagged
type IntegrityCheck struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Count       int64  `json:"count"`
}

// IntegrityRepository runs read-only data-quality checks
type IntegrityRepository struct {
	db *pgxpool.Pool
}

// NewIntegrityRepository creates a new IntegrityRepository
func NewIntegrityRepository(db *pgxpool.Pool) *IntegrityRepository {
	return &IntegrityRepository{db: db}
}

var integrityQueries = []struct {
	name, description, sql string
}{
	{
		"attendance_not_marked",
		"attendance rows with a NULL or not-marked status",
		`SELECT COUNT(*) FROM attendance_logs WHERE status IS NULL OR status = 'not-marked'`,
	},
	{
		"attendance_invalid_status",
		"attendance rows whose status is outside the enumeration",
		`SELECT COUNT(*) FROM attendance_logs
		 WHERE status IS NOT NULL AND status NOT IN ('present', 'absent', 'late', 'excused', 'not-marked')`,
	},
	{
		"attendance_cross_section",
		"attendance rows whose session belongs to another section than the enrollment",
		`SELECT COUNT(*) FROM attendance_logs al
		 JOIN sessions s ON s.session_id = al.session_id
		 JOIN course_enrollments e ON e.enrollment_id = al.enrollment_id
		 WHERE s.section_course_id <> e.section_course_id`,
	},
	{
		"submission_score_out_of_range",
		"assessment scores below zero or above the assessment's total points",
		`SELECT COUNT(*) FROM submissions s
		 JOIN assessments a ON a.assessment_id = s.assessment_id
		 WHERE s.total_score < 0 OR s.total_score > a.total_points`,
	},
	{
		"sub_submission_score_out_of_range",
		"sub-assessment scores below zero or above the sub-assessment's total points",
		`SELECT COUNT(*) FROM sub_assessment_submissions ss
		 JOIN sub_assessments sa ON sa.sub_assessment_id = ss.sub_assessment_id
		 WHERE ss.total_score < 0 OR ss.total_score > sa.total_points`,
	},
	{
		"submission_cross_section",
		"submissions whose enrollment is in another section than the assessment",
		`SELECT COUNT(*) FROM submissions s
		 JOIN assessments a ON a.assessment_id = s.assessment_id
		 JOIN course_enrollments e ON e.enrollment_id = s.enrollment_id
		 WHERE a.section_course_id <> e.section_course_id`,
	},
	{
		"section_without_instructor_account",
		"sections whose instructor account is not approved",
		`SELECT COUNT(*) FROM section_courses sc
		 JOIN users u ON u.user_id = sc.instructor_id
		 WHERE NOT u.is_approved`,
	},
}

// Run executes every check
func (r *IntegrityRepository) Run(ctx context.Context) ([]IntegrityCheck, error) {
	out := make([]IntegrityCheck, 0, len(integrityQueries))
	for _, q := range integrityQueries {
		c := IntegrityCheck{Name: q.name, Description: q.description}
		if err := r.db.QueryRow(ctx, q.sql).Scan(&c.Count); err != nil {
			return nil, fmt.Errorf("integrity check %s: %w", q.name, err)
		}
		out = append(out, c)
	}
	return out, nil
}
