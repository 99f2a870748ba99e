package memory

import (
	"context"
	"time"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/service/report"
)

// ReportRepo implements report.Repository.
type ReportRepo struct{ s *Store }

func cloneReport(d domain.ReportDefinition) domain.ReportDefinition {
	d.Recipients = cloneStrings(d.Recipients)
	return d
}

func (r *ReportRepo) Get(_ context.Context, id string) (*domain.ReportDefinition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.reports[id]
	if !ok {
		return nil, report.ErrNotFound
	}
	d = cloneReport(d)
	return &d, nil
}

func (r *ReportRepo) List(_ context.Context, f report.ListFilter) ([]domain.ReportDefinition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.ReportDefinition{}
	for _, d := range r.s.reports {
		if f.Type != "" && d.Type != f.Type {
			continue
		}
		if f.ActiveOnly && !d.Active {
			continue
		}
		out = append(out, cloneReport(d))
	}
	sortBy(out, func(a, b domain.ReportDefinition) bool { return a.Name < b.Name })
	return out, nil
}

func (r *ReportRepo) Create(_ context.Context, d *domain.ReportDefinition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.reports[d.ID] = cloneReport(*d)
	return nil
}

func (r *ReportRepo) Update(_ context.Context, d *domain.ReportDefinition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reports[d.ID]; !ok {
		return report.ErrNotFound
	}
	r.s.reports[d.ID] = cloneReport(*d)
	return nil
}

func (r *ReportRepo) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reports[id]; !ok {
		return false, nil
	}
	delete(r.s.reports, id)
	return true, nil
}

func (r *ReportRepo) Due(_ context.Context, now time.Time) ([]domain.ReportDefinition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.ReportDefinition{}
	for _, d := range r.s.reports {
		if d.Due(now) {
			out = append(out, cloneReport(d))
		}
	}
	sortBy(out, func(a, b domain.ReportDefinition) bool { return a.NextRun.Before(*b.NextRun) })
	return out, nil
}

func (r *ReportRepo) MarkRun(_ context.Context, id string, lastRun, nextRun time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.reports[id]
	if !ok {
		return report.ErrNotFound
	}
	d.LastRun = &lastRun
	d.NextRun = &nextRun
	r.s.reports[id] = d
	return nil
}
