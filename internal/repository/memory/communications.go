package memory

import (
	"context"
	"time"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/service/communication"
	"github.com/ignite/admissions-crm/internal/service/prospect"
)

// CommunicationRepo implements communication.Repository.
type CommunicationRepo struct{ s *Store }

func (r *CommunicationRepo) Get(_ context.Context, id string) (*domain.Communication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.comms[id]
	if !ok {
		return nil, communication.ErrNotFound
	}
	return &c, nil
}

func (r *CommunicationRepo) List(_ context.Context, f communication.ListFilter) ([]domain.Communication, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Communication{}
	for _, c := range r.s.comms {
		if f.ProspectID != "" && c.ProspectID != f.ProspectID {
			continue
		}
		if f.UserID != "" && c.UserID != f.UserID {
			continue
		}
		if f.Type != "" && c.Type != f.Type {
			continue
		}
		if f.Direction != "" && c.Direction != f.Direction {
			continue
		}
		if f.State != "" && c.State != f.State {
			continue
		}
		if !f.From.IsZero() && c.Timestamp.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && c.Timestamp.After(f.To) {
			continue
		}
		out = append(out, c)
	}
	sortBy(out, func(a, b domain.Communication) bool { return a.Timestamp.After(b.Timestamp) })
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *CommunicationRepo) Create(_ context.Context, c *domain.Communication, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.prospects[c.ProspectID]
	if !ok {
		return prospect.ErrNotFound
	}
	r.s.comms[c.ID] = *c
	last := now
	if c.Timestamp.After(last) {
		last = c.Timestamp
	}
	p.LastInteraction = last
	r.s.prospects[p.ID] = p
	return nil
}

func (r *CommunicationRepo) Update(_ context.Context, id string, u communication.UpdateFields) (*domain.Communication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comms[id]
	if !ok {
		return nil, communication.ErrNotFound
	}
	if u.Content != nil {
		c.Content = *u.Content
	}
	if u.Result != nil {
		v := *u.Result
		c.Result = &v
	}
	if u.DurationMinutes != nil {
		v := *u.DurationMinutes
		c.DurationMinutes = &v
	}
	if u.State != nil {
		c.State = *u.State
	}
	r.s.comms[id] = c
	return &c, nil
}

func (r *CommunicationRepo) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comms[id]; !ok {
		return false, nil
	}
	delete(r.s.comms, id)
	return true, nil
}
