package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/db"
	"github.com/yigit/crms/internal/pkg/apperrors"
	"github.com/yigit/crms/internal/pkg/logger"
)

// IAttendanceRepository defines attendance log storage and aggregation
type IAttendanceRepository interface {
	ListByEnrollment(ctx context.Context, enrollmentID int64) ([]*models.AttendanceLog, error)
	Roster(ctx context.Context, session *models.Session) ([]*models.AttendanceLog, error)
	CountsByEnrollment(ctx context.Context, enrollmentID int64) (map[models.AttendanceStatus]int, error)
	CountsBySection(ctx context.Context, sectionCourseID int64) (map[int64]map[models.AttendanceStatus]int, error)
	InstructorSections(ctx context.Context, instructorID int64) ([]*models.SectionAttendance, error)
	MarkSession(ctx context.Context, session *models.Session, marks []models.AttendanceMark) (int, error)
	RepairNotMarked(ctx context.Context, sectionCourseID *int64) (map[int64]int64, error)
}

// AttendanceRepository handles attendance_logs
type AttendanceRepository struct {
	db *pgxpool.Pool
}

// NewAttendanceRepository creates a new AttendanceRepository
func NewAttendanceRepository(db *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// statusExpr reads legacy NULL statuses as not-marked
const statusExpr = `COALESCE(al.status, 'not-marked')`

// ListByEnrollment returns an enrollment's attendance history in session order
func (r *AttendanceRepository) ListByEnrollment(ctx context.Context, enrollmentID int64) ([]*models.AttendanceLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT al.attendance_id, al.enrollment_id, al.session_id, `+statusExpr+`, al.remarks, al.recorded_at,
		       s.session_date, s.session_type
		FROM attendance_logs al
		JOIN sessions s ON s.session_id = al.session_id
		WHERE al.enrollment_id = $1
		ORDER BY s.session_date, s.session_type`, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("error listing attendance: %w", err)
	}
	defer rows.Close()

	logs := []*models.AttendanceLog{}
	for rows.Next() {
		l := &models.AttendanceLog{}
		if err := rows.Scan(&l.ID, &l.EnrollmentID, &l.SessionID, &l.Status, &l.Remarks, &l.RecordedAt,
			&l.SessionDate, &l.SessionType); err != nil {
			return nil, fmt.Errorf("error scanning attendance row: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// Roster lists every enrolled student of the session's section with their
// status for the session; students without a log are not-marked.
func (r *AttendanceRepository) Roster(ctx context.Context, session *models.Session) ([]*models.AttendanceLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT COALESCE(al.attendance_id, 0), e.enrollment_id, `+statusExpr+`, al.remarks, al.recorded_at,
		       st.student_number, st.last_name || ', ' || st.first_name
		FROM course_enrollments e
		JOIN students st ON st.student_id = e.student_id
		LEFT JOIN attendance_logs al ON al.enrollment_id = e.enrollment_id AND al.session_id = $2
		WHERE e.section_course_id = $1 AND e.status = 'enrolled'
		ORDER BY st.last_name, st.first_name`, session.SectionCourseID, session.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading roster: %w", err)
	}
	defer rows.Close()

	roster := []*models.AttendanceLog{}
	for rows.Next() {
		l := &models.AttendanceLog{SessionID: session.ID}
		if err := rows.Scan(&l.ID, &l.EnrollmentID, &l.Status, &l.Remarks, &l.RecordedAt,
			&l.StudentNumber, &l.StudentName); err != nil {
			return nil, fmt.Errorf("error scanning roster row: %w", err)
		}
		roster = append(roster, l)
	}
	return roster, rows.Err()
}

// CountsByEnrollment counts an enrollment's attendance rows by status
func (r *AttendanceRepository) CountsByEnrollment(ctx context.Context, enrollmentID int64) (map[models.AttendanceStatus]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+statusExpr+`, COUNT(*)
		FROM attendance_logs al
		WHERE al.enrollment_id = $1
		GROUP BY 1`, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("error counting attendance: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.AttendanceStatus]int)
	for rows.Next() {
		var status models.AttendanceStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("error scanning attendance count: %w", err)
		}
		counts[status] += n
	}
	return counts, rows.Err()
}

// CountsBySection counts attendance rows by status for every enrollment of a section
func (r *AttendanceRepository) CountsBySection(ctx context.Context, sectionCourseID int64) (map[int64]map[models.AttendanceStatus]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT al.enrollment_id, `+statusExpr+`, COUNT(*)
		FROM attendance_logs al
		JOIN course_enrollments e ON e.enrollment_id = al.enrollment_id
		WHERE e.section_course_id = $1
		GROUP BY 1, 2`, sectionCourseID)
	if err != nil {
		return nil, fmt.Errorf("error counting section attendance: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]map[models.AttendanceStatus]int)
	for rows.Next() {
		var enrollmentID int64
		var status models.AttendanceStatus
		var n int
		if err := rows.Scan(&enrollmentID, &status, &n); err != nil {
			return nil, fmt.Errorf("error scanning section attendance count: %w", err)
		}
		if out[enrollmentID] == nil {
			out[enrollmentID] = make(map[models.AttendanceStatus]int)
		}
		out[enrollmentID][status] += n
	}
	return out, rows.Err()
}

// InstructorSections returns per-section attendance summaries for every
// section the instructor teaches
func (r *AttendanceRepository) InstructorSections(ctx context.Context, instructorID int64) ([]*models.SectionAttendance, error) {
	rows, err := r.db.Query(ctx, `
		SELECT sc.section_course_id, c.course_code, c.title, sc.section_code,
		       (SELECT COUNT(*) FROM course_enrollments e WHERE e.section_course_id = sc.section_course_id AND e.status = 'enrolled'),
		       (SELECT COUNT(*) FROM sessions s WHERE s.section_course_id = sc.section_course_id)
		FROM section_courses sc
		JOIN courses c ON c.course_id = sc.course_id
		WHERE sc.instructor_id = $1
		ORDER BY c.course_code, sc.section_code`, instructorID)
	if err != nil {
		return nil, fmt.Errorf("error listing instructor sections: %w", err)
	}

	sections := []*models.SectionAttendance{}
	byID := make(map[int64]*models.SectionAttendance)
	for rows.Next() {
		sa := &models.SectionAttendance{}
		if err := rows.Scan(&sa.SectionCourseID, &sa.CourseCode, &sa.CourseTitle, &sa.SectionCode,
			&sa.EnrolledCount, &sa.SessionCount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("error scanning instructor section row: %w", err)
		}
		sa.Summary.SectionCourseID = sa.SectionCourseID
		sections = append(sections, sa)
		byID[sa.SectionCourseID] = sa
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return sections, nil
	}

	counts, err := r.db.Query(ctx, `
		SELECT s.section_course_id, `+statusExpr+`, COUNT(*)
		FROM attendance_logs al
		JOIN sessions s ON s.session_id = al.session_id
		JOIN section_courses sc ON sc.section_course_id = s.section_course_id
		WHERE sc.instructor_id = $1
		GROUP BY 1, 2`, instructorID)
	if err != nil {
		return nil, fmt.Errorf("error counting instructor attendance: %w", err)
	}
	defer counts.Close()

	for counts.Next() {
		var sectionID int64
		var status models.AttendanceStatus
		var n int
		if err := counts.Scan(&sectionID, &status, &n); err != nil {
			return nil, fmt.Errorf("error scanning instructor attendance count: %w", err)
		}
		if sa, ok := byID[sectionID]; ok {
			sa.Summary.Add(status, n)
		}
	}
	if err := counts.Err(); err != nil {
		return nil, err
	}

	for _, sa := range sections {
		sa.Summary.Finalize()
	}
	return sections, nil
}

// MarkSession upserts every mark for the session in one transaction. All
// enrollments must be active in the session's section.
func (r *AttendanceRepository) MarkSession(ctx context.Context, session *models.Session, marks []models.AttendanceMark) (int, error) {
	ids := make([]int64, len(marks))
	statuses := make([]string, len(marks))
	remarks := make([]*string, len(marks))
	for i, m := range marks {
		ids[i] = m.EnrollmentID
		statuses[i] = string(m.Status)
		remarks[i] = m.Remarks
	}

	var written int
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var matched int
		if err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM course_enrollments
			WHERE section_course_id = $1 AND enrollment_id = ANY($2::bigint[]) AND status = 'enrolled'`,
			session.SectionCourseID, ids).Scan(&matched); err != nil {
			return fmt.Errorf("error checking enrollments: %w", err)
		}
		if matched != len(ids) {
			return apperrors.ErrEnrollmentNotInSection
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO attendance_logs (enrollment_id, session_id, status, remarks, recorded_at)
			SELECT m.enrollment_id, $1, m.status, m.remarks, NOW()
			FROM unnest($2::bigint[], $3::text[], $4::text[]) AS m(enrollment_id, status, remarks)
			ON CONFLICT ON CONSTRAINT attendance_logs_enrollment_session_key DO UPDATE
			SET status = EXCLUDED.status,
			    remarks = EXCLUDED.remarks,
			    recorded_at = EXCLUDED.recorded_at`,
			session.ID, ids, statuses, remarks)
		if err != nil {
			logger.Error().Err(err).Int64("sessionID", session.ID).Msg("Error marking attendance")
			return fmt.Errorf("error marking attendance: %w", err)
		}
		written = int(tag.RowsAffected())
		return nil
	})
	return written, err
}

// RepairNotMarked sets NULL and not-marked statuses to present, across all
// sections or only the given one, and returns the updated row count per section
func (r *AttendanceRepository) RepairNotMarked(ctx context.Context, sectionCourseID *int64) (map[int64]int64, error) {
	rows, err := r.db.Query(ctx, `
		WITH repaired AS (
			UPDATE attendance_logs al
			SET status = 'present', recorded_at = NOW()
			FROM sessions s
			WHERE s.session_id = al.session_id
			  AND (al.status IS NULL OR al.status = 'not-marked')
			  AND ($1::bigint IS NULL OR s.section_course_id = $1)
			RETURNING s.section_course_id
		)
		SELECT section_course_id, COUNT(*) FROM repaired GROUP BY section_course_id`, sectionCourseID)
	if err != nil {
		return nil, fmt.Errorf("error repairing attendance: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]int64)
	for rows.Next() {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("error scanning repair row: %w", err)
		}
		out[id] = n
	}
	return out, rows.Err()
}
