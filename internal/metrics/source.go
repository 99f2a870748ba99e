package metrics

import (
	"context"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/service/campaign"
	"github.com/ignite/admissions-crm/internal/service/communication"
	"github.com/ignite/admissions-crm/internal/service/prospect"
	"github.com/ignite/admissions-crm/internal/service/user"
)

// Source is the read side of the store the engine aggregates over.
type Source interface {
	Prospects(ctx context.Context, f prospect.ListFilter) ([]domain.Prospect, error)
	Communications(ctx context.Context, f communication.ListFilter) ([]domain.Communication, error)
	Campaigns(ctx context.Context) ([]domain.Campaign, error)
	// Links returns every campaign link, or those of campaignID when set.
	Links(ctx context.Context, campaignID string) ([]domain.CampaignProspect, error)
	Advisors(ctx context.Context) ([]domain.User, error)
}

// RepoSource adapts the service repositories to Source. Every list is
// read unpaginated.
type RepoSource struct {
	prospects      prospect.Repository
	communications communication.Repository
	campaigns      campaign.Repository
	users          user.Repository
}

// NewRepoSource wires the repositories the engine reads.
func NewRepoSource(p prospect.Repository, c communication.Repository, cp campaign.Repository, u user.Repository) *RepoSource {
	return &RepoSource{prospects: p, communications: c, campaigns: cp, users: u}
}

func (s *RepoSource) Prospects(ctx context.Context, f prospect.ListFilter) ([]domain.Prospect, error) {
	f.Limit, f.Offset = 0, 0
	out, _, err := s.prospects.List(ctx, f)
	return out, err
}

func (s *RepoSource) Communications(ctx context.Context, f communication.ListFilter) ([]domain.Communication, error) {
	f.Limit, f.Offset = 0, 0
	out, _, err := s.communications.List(ctx, f)
	return out, err
}

func (s *RepoSource) Campaigns(ctx context.Context) ([]domain.Campaign, error) {
	out, _, err := s.campaigns.List(ctx, campaign.ListFilter{})
	return out, err
}

func (s *RepoSource) Links(ctx context.Context, campaignID string) ([]domain.CampaignProspect, error) {
	return s.campaigns.Links(ctx, campaignID)
}

func (s *RepoSource) Advisors(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx, user.ListFilter{Role: domain.RoleAdvisor})
}
