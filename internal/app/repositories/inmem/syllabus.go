package inmemdb

import (
	"context"
	"sort"

	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/repositories"
	"github.com/yigit/crms/internal/pkg/apperrors"
)

// SyllabusRepository implements repositories.ISyllabusRepository
type SyllabusRepository struct {
	db *DB
}

// NewSyllabusRepository creates a SyllabusRepository on db
func NewSyllabusRepository(db *DB) *SyllabusRepository {
	return &SyllabusRepository{db: db}
}

func (r *SyllabusRepository) view(s *models.Syllabus, withILOs bool) *models.Syllabus {
	out := *s
	out.ILOs = nil
	if withILOs {
		out.ILOs = r.ilosOf(s.ID)
	}
	return &out
}

func (r *SyllabusRepository) ilosOf(syllabusID int64) []*models.ILO {
	list := []*models.ILO{}
	for _, id := range sortedKeys(r.db.ilos) {
		if ilo := r.db.ilos[id]; ilo.SyllabusID == syllabusID {
			out := *ilo
			list = append(list, &out)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}

func (r *SyllabusRepository) Create(_ context.Context, s *models.Syllabus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s.Status == "" {
		s.Status = models.SyllabusDraft
	}
	if _, ok := r.db.courses[s.CourseID]; !ok {
		return apperrors.ErrCourseNotFound
	}
	s.ID = r.db.nextID()
	s.CreatedAt = r.db.Now()
	s.UpdatedAt = s.CreatedAt
	r.db.syllabi[s.ID] = r.view(s, false)
	return nil
}

func (r *SyllabusRepository) GetByID(_ context.Context, id int64) (*models.Syllabus, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if s, ok := r.db.syllabi[id]; ok {
		return r.view(s, true), nil
	}
	return nil, apperrors.ErrSyllabusNotFound
}

func (r *SyllabusRepository) List(_ context.Context, filter repositories.SyllabusFilter) ([]*models.Syllabus, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []*models.Syllabus{}
	for _, id := range sortedKeys(r.db.syllabi) {
		s := r.db.syllabi[id]
		if filter.CourseID > 0 && s.CourseID != filter.CourseID {
			continue
		}
		if filter.SectionCourseID > 0 && (s.SectionCourseID == nil || *s.SectionCourseID != filter.SectionCourseID) {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, r.view(s, false))
	}
	return out, nil
}

func (r *SyllabusRepository) Update(_ context.Context, s *models.Syllabus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.syllabi[s.ID]
	if !ok {
		return apperrors.ErrSyllabusNotFound
	}
	stored.Title = s.Title
	stored.Status = s.Status
	stored.ReviewedBy, stored.ReviewedAt, stored.ReviewRemarks = nil, nil, nil
	stored.UpdatedAt = r.db.Now()
	s.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *SyllabusRepository) Review(_ context.Context, id, reviewerID int64, decision models.SyllabusStatus, remarks *string) (*models.Syllabus, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.syllabi[id]
	if !ok {
		return nil, apperrors.ErrSyllabusNotFound
	}
	if s.Status != models.SyllabusPending {
		return nil, apperrors.ErrSyllabusNotReviewable
	}
	now := r.db.Now()
	s.Status = decision
	s.ReviewedBy = &reviewerID
	s.ReviewedAt = &now
	s.ReviewRemarks = remarks
	s.UpdatedAt = now
	return r.view(s, false), nil
}

func (r *SyllabusRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.syllabi[id]; !ok {
		return apperrors.ErrSyllabusNotFound
	}
	r.db.deleteSyllabusLocked(id)
	return nil
}

func (r *SyllabusRepository) codeTaken(ilo *models.ILO) bool {
	for id, other := range r.db.ilos {
		if id != ilo.ID && other.SyllabusID == ilo.SyllabusID && other.Code == ilo.Code {
			return true
		}
	}
	return false
}

func (r *SyllabusRepository) CreateILO(_ context.Context, ilo *models.ILO) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.syllabi[ilo.SyllabusID]; !ok {
		return apperrors.ErrSyllabusNotFound
	}
	if r.codeTaken(ilo) {
		return apperrors.ErrILOCodeExists
	}
	ilo.ID = r.db.nextID()
	stored := *ilo
	r.db.ilos[ilo.ID] = &stored
	return nil
}

func (r *SyllabusRepository) GetILO(_ context.Context, id int64) (*models.ILO, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if ilo, ok := r.db.ilos[id]; ok {
		out := *ilo
		return &out, nil
	}
	return nil, apperrors.ErrILONotFound
}

func (r *SyllabusRepository) ListILOs(_ context.Context, syllabusID int64) ([]*models.ILO, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.ilosOf(syllabusID), nil
}

func (r *SyllabusRepository) UpdateILO(_ context.Context, ilo *models.ILO) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.ilos[ilo.ID]
	if !ok {
		return apperrors.ErrILONotFound
	}
	if r.codeTaken(ilo) {
		return apperrors.ErrILOCodeExists
	}
	stored.Code = ilo.Code
	stored.Description = ilo.Description
	return nil
}

func (r *SyllabusRepository) DeleteILO(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.ilos[id]; !ok {
		return apperrors.ErrILONotFound
	}
	r.db.deleteILOLocked(id)
	return nil
}

var _ repositories.ISyllabusRepository = (*SyllabusRepository)(nil)
