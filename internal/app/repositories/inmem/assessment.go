package inmemdb

import (
	"context"

	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/repositories"
	"github.com/yigit/crms/internal/pkg/apperrors"
)

// AssessmentRepository implements repositories.IAssessmentRepository
type AssessmentRepository struct {
	db *DB
}

// NewAssessmentRepository creates an AssessmentRepository on db
func NewAssessmentRepository(db *DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

func (r *AssessmentRepository) view(a *models.Assessment) *models.Assessment {
	out := *a
	out.ILOIDs = append([]int64{}, a.ILOIDs...)
	out.SubAssessments = nil
	return &out
}

func (r *AssessmentRepository) checkRefs(a *models.Assessment) error {
	if _, ok := r.db.sections[a.SectionCourseID]; !ok {
		return apperrors.ErrValidationFailed
	}
	if a.SyllabusID != nil {
		if _, ok := r.db.syllabi[*a.SyllabusID]; !ok {
			return apperrors.ErrValidationFailed
		}
	}
	for _, id := range a.ILOIDs {
		if _, ok := r.db.ilos[id]; !ok {
			return apperrors.ErrValidationFailed
		}
	}
	return nil
}

func (r *AssessmentRepository) Create(_ context.Context, a *models.Assessment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.checkRefs(a); err != nil {
		return err
	}
	a.ID = r.db.nextID()
	a.CreatedAt = r.db.Now()
	a.UpdatedAt = a.CreatedAt
	r.db.assessments[a.ID] = r.view(a)
	return nil
}

func (r *AssessmentRepository) GetByID(_ context.Context, id int64) (*models.Assessment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	a, ok := r.db.assessments[id]
	if !ok {
		return nil, apperrors.ErrAssessmentNotFound
	}
	out := r.view(a)
	out.SubAssessments = r.subsOf(id)
	return out, nil
}

func (r *AssessmentRepository) ListBySection(_ context.Context, sectionCourseID int64) ([]*models.Assessment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []*models.Assessment{}
	for _, id := range sortedKeys(r.db.assessments) {
		if a := r.db.assessments[id]; a.SectionCourseID == sectionCourseID {
			out = append(out, r.view(a))
		}
	}
	return out, nil
}

func (r *AssessmentRepository) Update(_ context.Context, a *models.Assessment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.assessments[a.ID]
	if !ok {
		return apperrors.ErrAssessmentNotFound
	}
	if err := r.checkRefs(a); err != nil {
		return err
	}
	a.CreatedAt = stored.CreatedAt
	a.CreatedBy = stored.CreatedBy
	a.SectionCourseID = stored.SectionCourseID
	a.UpdatedAt = r.db.Now()
	r.db.assessments[a.ID] = r.view(a)
	return nil
}

func (r *AssessmentRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.assessments[id]; !ok {
		return apperrors.ErrAssessmentNotFound
	}
	r.db.deleteAssessmentLocked(id)
	return nil
}

func (r *AssessmentRepository) subsOf(assessmentID int64) []*models.SubAssessment {
	list := []*models.SubAssessment{}
	for _, id := range sortedKeys(r.db.subs) {
		if sa := r.db.subs[id]; sa.AssessmentID == assessmentID {
			out := *sa
			list = append(list, &out)
		}
	}
	return list
}

func (r *AssessmentRepository) CreateSub(_ context.Context, sa *models.SubAssessment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.assessments[sa.AssessmentID]; !ok {
		return apperrors.ErrAssessmentNotFound
	}
	if sa.Status == "" {
		sa.Status = models.SubAssessmentDraft
	}
	sa.ID = r.db.nextID()
	sa.CreatedAt = r.db.Now()
	stored := *sa
	r.db.subs[sa.ID] = &stored
	return nil
}

func (r *AssessmentRepository) GetSub(_ context.Context, id int64) (*models.SubAssessment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if sa, ok := r.db.subs[id]; ok {
		out := *sa
		return &out, nil
	}
	return nil, apperrors.ErrSubAssessmentNotFound
}

func (r *AssessmentRepository) ListSubs(_ context.Context, assessmentID int64) ([]*models.SubAssessment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.subsOf(assessmentID), nil
}

func (r *AssessmentRepository) ListSubsBySection(_ context.Context, sectionCourseID int64) ([]*models.SubAssessment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	list := []*models.SubAssessment{}
	for _, id := range sortedKeys(r.db.subs) {
		sa := r.db.subs[id]
		if a, ok := r.db.assessments[sa.AssessmentID]; ok && a.SectionCourseID == sectionCourseID {
			out := *sa
			list = append(list, &out)
		}
	}
	return list, nil
}

func (r *AssessmentRepository) UpdateSub(_ context.Context, sa *models.SubAssessment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.subs[sa.ID]
	if !ok {
		return apperrors.ErrSubAssessmentNotFound
	}
	stored.Title = sa.Title
	stored.TotalPoints = sa.TotalPoints
	stored.WeightPercentage = sa.WeightPercentage
	stored.Status = sa.Status
	return nil
}

func (r *AssessmentRepository) DeleteSub(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.subs[id]; !ok {
		return apperrors.ErrSubAssessmentNotFound
	}
	r.db.deleteSubLocked(id)
	return nil
}

// SubmissionRepository implements repositories.ISubmissionRepository
type SubmissionRepository struct {
	db *DB
}

// NewSubmissionRepository creates a SubmissionRepository on db
func NewSubmissionRepository(db *DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) upsert(s *models.Submission, same func(*models.Submission) bool, total float64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.enrollments[s.EnrollmentID]; !ok {
		return apperrors.ErrEnrollmentNotFound
	}
	if s.TotalScore != nil && (*s.TotalScore < 0 || *s.TotalScore > total) {
		return apperrors.ErrScoreOutOfRange
	}

	s.GradedAt = nil
	if s.TotalScore != nil {
		s.GradedAt = ptr(r.db.Now())
	}

	stored := *s
	stored.TotalPoints, stored.PercentageScore, stored.StudentName = 0, nil, ""
	for id, existing := range r.db.submissions {
		if existing.EnrollmentID == s.EnrollmentID && same(existing) {
			stored.ID = id
			s.ID = id
			r.db.submissions[id] = &stored
			return nil
		}
	}
	s.ID = r.db.nextID()
	stored.ID = s.ID
	r.db.submissions[s.ID] = &stored
	return nil
}

func (r *SubmissionRepository) UpsertAssessmentScore(_ context.Context, s *models.Submission) error {
	r.db.mu.RLock()
	a, ok := r.db.assessments[*s.AssessmentID]
	r.db.mu.RUnlock()
	if !ok {
		return apperrors.ErrAssessmentNotFound
	}
	return r.upsert(s, func(e *models.Submission) bool {
		return e.AssessmentID != nil && *e.AssessmentID == *s.AssessmentID
	}, a.TotalPoints)
}

func (r *SubmissionRepository) UpsertSubAssessmentScore(_ context.Context, s *models.Submission) error {
	r.db.mu.RLock()
	sa, ok := r.db.subs[*s.SubAssessmentID]
	r.db.mu.RUnlock()
	if !ok {
		return apperrors.ErrSubAssessmentNotFound
	}
	return r.upsert(s, func(e *models.Submission) bool {
		return e.SubAssessmentID != nil && *e.SubAssessmentID == *s.SubAssessmentID
	}, sa.TotalPoints)
}

func (r *SubmissionRepository) ListByAssessment(_ context.Context, assessmentID int64) ([]*models.Submission, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	list := []*models.Submission{}
	a, ok := r.db.assessments[assessmentID]
	if !ok {
		return list, nil
	}
	for _, id := range sortedKeys(r.db.submissions) {
		s := r.db.submissions[id]
		if s.AssessmentID == nil || *s.AssessmentID != assessmentID {
			continue
		}
		out := *s
		out.TotalPoints = a.TotalPoints
		if e, ok := r.db.enrollments[s.EnrollmentID]; ok {
			_, out.StudentName = r.db.studentName(e.StudentID)
		}
		list = append(list, &out)
	}
	return list, nil
}

func (r *SubmissionRepository) ScoresBySection(_ context.Context, sectionCourseID int64) ([]repositories.ScoreRow, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var rows []repositories.ScoreRow
	for _, id := range sortedKeys(r.db.submissions) {
		s := r.db.submissions[id]
		var assessmentID int64
		switch {
		case s.AssessmentID != nil:
			assessmentID = *s.AssessmentID
		case s.SubAssessmentID != nil:
			sa, ok := r.db.subs[*s.SubAssessmentID]
			if !ok {
				continue
			}
			assessmentID = sa.AssessmentID
		}
		if a, ok := r.db.assessments[assessmentID]; !ok || a.SectionCourseID != sectionCourseID {
			continue
		}
		rows = append(rows, repositories.ScoreRow{
			EnrollmentID:    s.EnrollmentID,
			AssessmentID:    s.AssessmentID,
			SubAssessmentID: s.SubAssessmentID,
			Score:           s.TotalScore,
		})
	}
	return rows, nil
}

func (r *SubmissionRepository) maxScore(match func(*models.Submission) bool) *float64 {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var highest *float64
	for _, s := range r.db.submissions {
		if !match(s) || s.TotalScore == nil {
			continue
		}
		if highest == nil || *s.TotalScore > *highest {
			highest = ptr(*s.TotalScore)
		}
	}
	return highest
}

func (r *SubmissionRepository) MaxScore(_ context.Context, assessmentID int64) (*float64, error) {
	return r.maxScore(func(s *models.Submission) bool {
		return s.AssessmentID != nil && *s.AssessmentID == assessmentID
	}), nil
}

func (r *SubmissionRepository) MaxSubScore(_ context.Context, subAssessmentID int64) (*float64, error) {
	return r.maxScore(func(s *models.Submission) bool {
		return s.SubAssessmentID != nil && *s.SubAssessmentID == subAssessmentID
	}), nil
}

var (
	_ repositories.IAssessmentRepository = (*AssessmentRepository)(nil)
	_ repositories.ISubmissionRepository = (*SubmissionRepository)(nil)
)
