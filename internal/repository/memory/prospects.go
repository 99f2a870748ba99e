package memory

import (
	"context"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/service/prospect"
)

// ProspectRepo implements prospect.Repository.
type ProspectRepo struct{ s *Store }

func cloneProspect(p domain.Prospect) domain.Prospect {
	p.AdditionalData = cloneMap(p.AdditionalData)
	return p
}

func (r *ProspectRepo) Get(_ context.Context, id string) (*domain.Prospect, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.prospects[id]
	if !ok {
		return nil, prospect.ErrNotFound
	}
	p = cloneProspect(p)
	return &p, nil
}

func (r *ProspectRepo) List(_ context.Context, f prospect.ListFilter) ([]domain.Prospect, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Prospect{}
	for _, p := range r.s.prospects {
		if f.AdvisorID != "" && !p.AssignedTo(f.AdvisorID) {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Origin != "" && p.Origin != f.Origin {
			continue
		}
		if f.Priority != "" && p.Priority != f.Priority {
			continue
		}
		if !f.RegisteredFrom.IsZero() && p.RegisteredAt.Before(f.RegisteredFrom) {
			continue
		}
		if !f.RegisteredTo.IsZero() && p.RegisteredAt.After(f.RegisteredTo) {
			continue
		}
		if f.Search != "" && !containsFold(p.Name, f.Search) && !containsFold(p.Email, f.Search) && !containsFold(p.Phone, f.Search) {
			continue
		}
		out = append(out, cloneProspect(p))
	}
	sortBy(out, func(a, b domain.Prospect) bool { return a.RegisteredAt.After(b.RegisteredAt) })
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *ProspectRepo) Create(_ context.Context, p *domain.Prospect) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.prospects[p.ID] = cloneProspect(*p)
	return nil
}

func (r *ProspectRepo) Update(_ context.Context, id string, u prospect.UpdateFields) (*domain.Prospect, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.prospects[id]
	if !ok {
		return nil, prospect.ErrNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	if u.EducationLevel != nil {
		p.EducationLevel = *u.EducationLevel
	}
	if u.Origin != nil {
		p.Origin = *u.Origin
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.AdvisorID != nil {
		id := *u.AdvisorID
		p.AdvisorID = &id
	}
	if u.Priority != nil {
		p.Priority = *u.Priority
	}
	if u.EnrollmentValue != nil {
		v := *u.EnrollmentValue
		p.EnrollmentValue = &v
	}
	if u.Notes != nil {
		p.Notes = *u.Notes
	}
	if u.AppointmentAt != nil {
		t := *u.AppointmentAt
		p.AppointmentAt = &t
	}
	if u.AdditionalData != nil {
		p.AdditionalData = cloneMap(u.AdditionalData)
	}
	p.LastInteraction = u.LastInteraction
	r.s.prospects[id] = p
	p = cloneProspect(p)
	return &p, nil
}

func (r *ProspectRepo) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.prospects[id]; !ok {
		return false, nil
	}
	for cid, c := range r.s.comms {
		if c.ProspectID == id {
			delete(r.s.comms, cid)
		}
	}
	for lid, l := range r.s.links {
		if l.ProspectID == id {
			delete(r.s.links, lid)
		}
	}
	for did, d := range r.s.documents {
		if d.ProspectID == id {
			delete(r.s.documents, did)
		}
	}
	for pid, p := range r.s.payments {
		if p.ProspectID == id {
			delete(r.s.payments, pid)
		}
	}
	delete(r.s.prospects, id)
	return true, nil
}
