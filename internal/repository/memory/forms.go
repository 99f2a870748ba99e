package memory

import (
	"context"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/service/form"
)

// FormRepo implements form.Repository.
type FormRepo struct{ s *Store }

func cloneForm(f domain.LeadForm) domain.LeadForm {
	f.Fields = cloneStrings(f.Fields)
	return f
}

func (r *FormRepo) Get(_ context.Context, id string) (*domain.LeadForm, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.forms[id]
	if !ok {
		return nil, form.ErrNotFound
	}
	f = cloneForm(f)
	return &f, nil
}

func (r *FormRepo) GetBySlug(_ context.Context, slug string) (*domain.LeadForm, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, f := range r.s.forms {
		if f.Slug == slug {
			f = cloneForm(f)
			return &f, nil
		}
	}
	return nil, form.ErrNotFound
}

func (r *FormRepo) List(_ context.Context) ([]domain.LeadForm, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.LeadForm{}
	for _, f := range r.s.forms {
		out = append(out, cloneForm(f))
	}
	sortBy(out, func(a, b domain.LeadForm) bool { return a.CreatedAt.After(b.CreatedAt) })
	return out, nil
}

func (r *FormRepo) Create(_ context.Context, f *domain.LeadForm) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.forms {
		if existing.Slug == f.Slug {
			return form.ErrSlugTaken
		}
	}
	r.s.forms[f.ID] = cloneForm(*f)
	return nil
}

func (r *FormRepo) Update(_ context.Context, f *domain.LeadForm) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.forms[f.ID]; !ok {
		return form.ErrNotFound
	}
	for _, existing := range r.s.forms {
		if existing.ID != f.ID && existing.Slug == f.Slug {
			return form.ErrSlugTaken
		}
	}
	r.s.forms[f.ID] = cloneForm(*f)
	return nil
}

func (r *FormRepo) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.forms[id]; !ok {
		return false, nil
	}
	delete(r.s.forms, id)
	return true, nil
}
