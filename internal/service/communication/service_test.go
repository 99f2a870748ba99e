package communication_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ignite/admissions-crm/internal/access"
	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/pkg/validate"
	"github.com/ignite/admissions-crm/internal/repository/memory"
	"github.com/ignite/admissions-crm/internal/service/communication"
	"github.com/ignite/admissions-crm/internal/service/prospect"
)

var (
	manager  = access.Principal{UserID: "mgr", Role: domain.RoleManager}
	advisorA = access.Principal{UserID: "adv-a", Role: domain.RoleAdvisor}
	advisorB = access.Principal{UserID: "adv-b", Role: domain.RoleAdvisor}
)

var registered = time.Date(2024, time.February, 1, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*communication.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	owner := "adv-a"
	if err := store.Prospects().Create(context.Background(), &domain.Prospect{
		ID: "p1", Name: "Diego", Status: domain.StatusNew, AdvisorID: &owner,
		RegisteredAt: registered, LastInteraction: registered,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return communication.NewService(store.Communications(), store.Prospects()), store
}

func call(minutes int) communication.CreateInput {
	return communication.CreateInput{
		ProspectID:      "p1",
		Type:            "call",
		Direction:       "sent",
		Content:         "Primera llamada, interesado en becas",
		DurationMinutes: &minutes,
	}
}

func TestCreateBumpsProspect(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, advisorA, call(15))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.UserID != "adv-a" || c.State != domain.CommCompleted {
		t.Fatalf("unexpected communication: %+v", c)
	}

	p, _ := store.Prospects().Get(ctx, "p1")
	if p.LastInteraction.Before(c.Timestamp) {
		t.Fatalf("last interaction %v before communication %v", p.LastInteraction, c.Timestamp)
	}
	if !p.LastInteraction.After(registered) {
		t.Fatal("last interaction not advanced")
	}
}

func TestCreateRejectsNonPositiveDuration(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.Create(context.Background(), advisorA, call(0))
	ve, ok := validate.As(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Details[0].Field != "duracion" {
		t.Fatalf("expected duracion error, got %+v", ve.Details)
	}
}

func TestCreateOnOthersProspect(t *testing.T) {
	svc, _ := setup(t)
	if _, err := svc.Create(context.Background(), advisorB, call(5)); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreateUnknownProspect(t *testing.T) {
	svc, _ := setup(t)
	in := call(5)
	in.ProspectID = "missing"
	if _, err := svc.Create(context.Background(), manager, in); !errors.Is(err, prospect.ErrNotFound) {
		t.Fatalf("expected prospect not found, got %v", err)
	}
}

func TestListScopesAdvisorsToOwnAuthorship(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, advisorA, call(10)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, manager, call(3)); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, total, _ := svc.List(ctx, advisorA, communication.ListFilter{})
	if total != 1 {
		t.Fatalf("advisor should see 1, got %d", total)
	}
	_, total, _ = svc.List(ctx, advisorB, communication.ListFilter{UserID: "adv-a"})
	if total != 0 {
		t.Fatalf("other advisor should see 0, got %d", total)
	}
	_, total, _ = svc.List(ctx, manager, communication.ListFilter{Type: domain.CommCall})
	if total != 2 {
		t.Fatalf("manager should see 2, got %d", total)
	}
	if _, _, err := svc.ListForProspect(ctx, advisorB, "p1", communication.ListFilter{}); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected forbidden history, got %v", err)
	}
}

func TestUpdateAndDeleteOwnership(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	c, err := svc.Create(ctx, advisorA, call(10))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	failed := "failed"
	if _, err := svc.Update(ctx, advisorB, c.ID, communication.UpdateInput{State: &failed}); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected forbidden update, got %v", err)
	}
	updated, err := svc.Update(ctx, advisorA, c.ID, communication.UpdateInput{State: &failed})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.State != domain.CommFailed || updated.ProspectID != "p1" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if err := svc.Delete(ctx, advisorB, c.ID); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected forbidden delete, got %v", err)
	}
	if err := svc.Delete(ctx, manager, c.ID); err != nil {
		t.Fatalf("manager delete: %v", err)
	}
	if _, err := svc.Get(ctx, manager, c.ID); !errors.Is(err, communication.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
