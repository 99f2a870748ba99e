package campaign_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/admissions-crm/internal/access"
	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/pkg/validate"
	"github.com/ignite/admissions-crm/internal/repository/memory"
	"github.com/ignite/admissions-crm/internal/service/campaign"
	"github.com/ignite/admissions-crm/internal/service/prospect"
)

var (
	start    = time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)
	director = access.Principal{UserID: "dir", Role: domain.RoleDirector}
	manager  = access.Principal{UserID: "mgr", Role: domain.RoleManager}
	advisor  = access.Principal{UserID: "adv", Role: domain.RoleAdvisor}
)

func setup(t *testing.T) (*campaign.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Prospects().Create(context.Background(), &domain.Prospect{ID: "p1", Status: domain.StatusNew}))
	return campaign.NewService(store.Campaigns(), store.Prospects()), store
}

func input() campaign.CreateInput {
	spent := decimal.RequireFromString("250.00")
	leads := 100
	return campaign.CreateInput{
		Name:       "Open House Primavera",
		Channel:    "facebook",
		Budget:     decimal.RequireFromString("1000.00"),
		Spent:      &spent,
		StartAt:    start,
		EndAt:      start.AddDate(0, 1, 0),
		LeadTarget: &leads,
	}
}

func TestCreate(t *testing.T) {
	svc, _ := setup(t)
	c, err := svc.Create(context.Background(), manager, input())
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignActive, c.State)
	assert.True(t, c.Spent.Equal(decimal.NewFromInt(250)))
	assert.NotNil(t, c.ChannelConfig)
}

func TestCreateSpentOverBudget(t *testing.T) {
	svc, _ := setup(t)
	in := input()
	over := decimal.RequireFromString("1000.01")
	in.Spent = &over

	_, err := svc.Create(context.Background(), manager, in)
	ve, ok := validate.As(err)
	require.True(t, ok, "got %v", err)
	require.Len(t, ve.Details, 1)
	assert.Equal(t, "gastado", ve.Details[0].Field)
	assert.Equal(t, "must not exceed presupuesto", ve.Details[0].Message)
}

func TestCreateEndBeforeStart(t *testing.T) {
	svc, _ := setup(t)
	in := input()
	in.EndAt = in.StartAt

	_, err := svc.Create(context.Background(), manager, in)
	ve, ok := validate.As(err)
	require.True(t, ok)
	assert.Equal(t, "fechaFin", ve.Details[0].Field)
}

func TestCreateRejectsBadMoney(t *testing.T) {
	svc, _ := setup(t)
	in := input()
	in.Budget = decimal.RequireFromString("-5")
	in.Spent = nil

	_, err := svc.Create(context.Background(), manager, in)
	ve, ok := validate.As(err)
	require.True(t, ok)
	require.Len(t, ve.Details, 1, "an invalid budget must not also fail the spend check")
	assert.Equal(t, "presupuesto", ve.Details[0].Field)

	bad := decimal.RequireFromString("-5")
	c, err := svc.Create(context.Background(), manager, input())
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), manager, c.ID, campaign.UpdateInput{Budget: &bad})
	ve, ok = validate.As(err)
	require.True(t, ok)
	require.Len(t, ve.Details, 1)
	assert.Equal(t, "presupuesto", ve.Details[0].Field)
}

func TestUpdateChecksMergedBudget(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	c, err := svc.Create(ctx, manager, input())
	require.NoError(t, err)

	lower := decimal.NewFromInt(100)
	_, err = svc.Update(ctx, manager, c.ID, campaign.UpdateInput{Budget: &lower})
	ve, ok := validate.As(err)
	require.True(t, ok, "budget below stored spend must fail, got %v", err)
	assert.Equal(t, "gastado", ve.Details[0].Field)

	spent := decimal.NewFromInt(900)
	paused := "paused"
	updated, err := svc.Update(ctx, manager, c.ID, campaign.UpdateInput{Spent: &spent, State: &paused})
	require.NoError(t, err)
	assert.True(t, updated.Spent.Equal(spent))
	assert.Equal(t, domain.CampaignPaused, updated.State)

	_, err = svc.Update(ctx, manager, "missing", campaign.UpdateInput{})
	assert.ErrorIs(t, err, campaign.ErrNotFound)
}

func TestLinkLifecycle(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	c, err := svc.Create(ctx, manager, input())
	require.NoError(t, err)

	_, err = svc.LinkProspect(ctx, manager, c.ID, "p1")
	require.NoError(t, err)
	_, err = svc.LinkProspect(ctx, manager, c.ID, "p1")
	assert.ErrorIs(t, err, campaign.ErrAlreadyLinked)
	_, err = svc.LinkProspect(ctx, manager, c.ID, "nope")
	assert.ErrorIs(t, err, prospect.ErrNotFound)

	linked, err := svc.Prospects(ctx, manager, c.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)

	require.NoError(t, svc.UnlinkProspect(ctx, manager, c.ID, "p1"))
	assert.ErrorIs(t, svc.UnlinkProspect(ctx, manager, c.ID, "p1"), campaign.ErrLinkNotFound)
}

func TestDeleteCascadesLinks(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	c, err := svc.Create(ctx, manager, input())
	require.NoError(t, err)
	_, err = svc.LinkProspect(ctx, manager, c.ID, "p1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, director, c.ID))
	links, _ := store.Campaigns().Links(ctx, "")
	assert.Empty(t, links)
	assert.True(t, errors.Is(svc.Delete(ctx, director, c.ID), campaign.ErrNotFound))
}

func TestList(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	for _, ch := range []string{"facebook", "google", "facebook"} {
		in := input()
		in.Channel = ch
		_, err := svc.Create(ctx, manager, in)
		require.NoError(t, err)
	}
	list, total, err := svc.List(ctx, manager, campaign.ListFilter{Channel: domain.ChannelFacebook, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 1)
}

func TestAdvisorsHaveNoCampaignAccess(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	c, err := svc.Create(ctx, manager, input())
	require.NoError(t, err)

	_, err = svc.Create(ctx, advisor, input())
	assert.ErrorIs(t, err, access.ErrForbidden)
	_, _, err = svc.List(ctx, advisor, campaign.ListFilter{})
	assert.ErrorIs(t, err, access.ErrForbidden)
	_, err = svc.Get(ctx, advisor, c.ID)
	assert.ErrorIs(t, err, access.ErrForbidden)
	_, err = svc.Update(ctx, advisor, c.ID, campaign.UpdateInput{})
	assert.ErrorIs(t, err, access.ErrForbidden)
	_, err = svc.LinkProspect(ctx, advisor, c.ID, "p1")
	assert.ErrorIs(t, err, access.ErrForbidden)
	_, err = svc.Prospects(ctx, advisor, c.ID)
	assert.ErrorIs(t, err, access.ErrForbidden)
	assert.ErrorIs(t, svc.UnlinkProspect(ctx, advisor, c.ID, "p1"), access.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, advisor, c.ID), access.ErrForbidden)

	assert.ErrorIs(t, svc.Delete(ctx, manager, c.ID), access.ErrForbidden, "delete is director only")
	got, err := svc.Get(ctx, director, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}
