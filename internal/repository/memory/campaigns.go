package memory

import (
	"context"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/service/campaign"
	"github.com/ignite/admissions-crm/internal/service/prospect"
)

// CampaignRepo implements campaign.Repository.
type CampaignRepo struct{ s *Store }

func cloneCampaign(c domain.Campaign) domain.Campaign {
	c.ChannelConfig = cloneMap(c.ChannelConfig)
	return c
}

func (r *CampaignRepo) Get(_ context.Context, id string) (*domain.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.campaigns[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	c = cloneCampaign(c)
	return &c, nil
}

func (r *CampaignRepo) List(_ context.Context, f campaign.ListFilter) ([]domain.Campaign, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Campaign{}
	for _, c := range r.s.campaigns {
		if f.State != "" && c.State != f.State {
			continue
		}
		if f.Channel != "" && c.Channel != f.Channel {
			continue
		}
		if f.Search != "" && !containsFold(c.Name, f.Search) {
			continue
		}
		out = append(out, cloneCampaign(c))
	}
	sortBy(out, func(a, b domain.Campaign) bool { return a.CreatedAt.After(b.CreatedAt) })
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *CampaignRepo) Create(_ context.Context, c *domain.Campaign) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.campaigns[c.ID] = cloneCampaign(*c)
	return nil
}

func (r *CampaignRepo) Update(_ context.Context, id string, u campaign.UpdateFields) (*domain.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Description != nil {
		v := *u.Description
		c.Description = &v
	}
	if u.Channel != nil {
		c.Channel = *u.Channel
	}
	if u.Budget != nil {
		c.Budget = *u.Budget
	}
	if u.Spent != nil {
		c.Spent = *u.Spent
	}
	if u.State != nil {
		c.State = *u.State
	}
	if u.StartAt != nil {
		c.StartAt = *u.StartAt
	}
	if u.EndAt != nil {
		c.EndAt = *u.EndAt
	}
	if u.LeadTarget != nil {
		v := *u.LeadTarget
		c.LeadTarget = &v
	}
	if u.EnrollmentTarget != nil {
		v := *u.EnrollmentTarget
		c.EnrollmentTarget = &v
	}
	if u.ChannelConfig != nil {
		c.ChannelConfig = cloneMap(u.ChannelConfig)
	}
	r.s.campaigns[id] = c
	c = cloneCampaign(c)
	return &c, nil
}

func (r *CampaignRepo) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.campaigns[id]; !ok {
		return false, nil
	}
	for lid, l := range r.s.links {
		if l.CampaignID == id {
			delete(r.s.links, lid)
		}
	}
	delete(r.s.campaigns, id)
	return true, nil
}

func (r *CampaignRepo) Link(_ context.Context, l *domain.CampaignProspect) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.campaigns[l.CampaignID]; !ok {
		return campaign.ErrNotFound
	}
	if _, ok := r.s.prospects[l.ProspectID]; !ok {
		return prospect.ErrNotFound
	}
	for _, existing := range r.s.links {
		if existing.CampaignID == l.CampaignID && existing.ProspectID == l.ProspectID {
			return campaign.ErrAlreadyLinked
		}
	}
	r.s.links[l.ID] = *l
	return nil
}

func (r *CampaignRepo) Unlink(_ context.Context, campaignID, prospectID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, l := range r.s.links {
		if l.CampaignID == campaignID && l.ProspectID == prospectID {
			delete(r.s.links, id)
			return true, nil
		}
	}
	return false, nil
}

func (r *CampaignRepo) Links(_ context.Context, campaignID string) ([]domain.CampaignProspect, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.CampaignProspect{}
	for _, l := range r.s.links {
		if campaignID != "" && l.CampaignID != campaignID {
			continue
		}
		out = append(out, l)
	}
	sortBy(out, func(a, b domain.CampaignProspect) bool { return a.AssociatedAt.Before(b.AssociatedAt) })
	return out, nil
}

func (r *CampaignRepo) LinkedProspects(_ context.Context, campaignID string) ([]domain.Prospect, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Prospect{}
	for _, l := range r.s.links {
		if l.CampaignID != campaignID {
			continue
		}
		if p, ok := r.s.prospects[l.ProspectID]; ok {
			out = append(out, cloneProspect(p))
		}
	}
	sortBy(out, func(a, b domain.Prospect) bool { return a.RegisteredAt.After(b.RegisteredAt) })
	return out, nil
}
