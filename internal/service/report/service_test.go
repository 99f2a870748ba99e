package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/pkg/validate"
	"github.com/ignite/admissions-crm/internal/repository/memory"
	"github.com/ignite/admissions-crm/internal/service/report"
)

func weekly() report.Input {
	return report.Input{
		Name:       "Resumen semanal",
		Type:       "executive",
		Frequency:  "weekly",
		Recipients: []string{"direccion@example.com"},
		Config:     domain.ReportConfig{Format: domain.FormatExcel},
	}
}

func TestCreateComputesNextRun(t *testing.T) {
	svc := report.NewService(memory.NewStore().Reports())
	before := time.Now().UTC()
	d, err := svc.Create(context.Background(), weekly())
	require.NoError(t, err)
	assert.True(t, d.Active)
	require.NotNil(t, d.NextRun)
	assert.WithinDuration(t, before.AddDate(0, 0, 7), *d.NextRun, 5*time.Second)
	assert.Nil(t, d.LastRun)
}

func TestCreateValidation(t *testing.T) {
	svc := report.NewService(memory.NewStore().Reports())
	in := weekly()
	in.Type = "funnel"
	in.Recipients = []string{"not-an-email"}
	in.Config.Format = "docx"
	in.Config.Filters.Window = "forever"

	_, err := svc.Create(context.Background(), in)
	ve, ok := validate.As(err)
	require.True(t, ok, "got %v", err)
	fields := map[string]bool{}
	for _, d := range ve.Details {
		fields[d.Field] = true
	}
	assert.True(t, fields["tipo"])
	assert.True(t, fields["destinatarios[0]"])
	assert.True(t, fields["configuracion.formato"])
	assert.True(t, fields["configuracion.filtros.ventana"])
}

func TestUpdateRecomputesFromLastRun(t *testing.T) {
	repo := memory.NewStore().Reports()
	svc := report.NewService(repo)
	ctx := context.Background()
	d, err := svc.Create(ctx, weekly())
	require.NoError(t, err)

	last := time.Date(2024, time.January, 31, 8, 0, 0, 0, time.UTC)
	_, err = svc.MarkRun(ctx, d, last)
	require.NoError(t, err)

	in := weekly()
	in.Frequency = "monthly"
	updated, err := svc.Update(ctx, d.ID, in)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 2, 8, 0, 0, 0, time.UTC), *updated.NextRun)
}

func TestMarkRunAdvancesSchedule(t *testing.T) {
	svc := report.NewService(memory.NewStore().Reports())
	ctx := context.Background()
	d, err := svc.Create(ctx, weekly())
	require.NoError(t, err)

	at := time.Date(2024, time.June, 3, 6, 0, 0, 0, time.UTC)
	next, err := svc.MarkRun(ctx, d, at)
	require.NoError(t, err)
	assert.Equal(t, at.AddDate(0, 0, 7), next)

	got, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, at, *got.LastRun)
	assert.Equal(t, next, *got.NextRun)

	due, err := svc.Due(ctx, next)
	require.NoError(t, err)
	assert.Len(t, due, 1)
	due, _ = svc.Due(ctx, next.Add(-time.Second))
	assert.Empty(t, due)
}

func TestDelete(t *testing.T) {
	svc := report.NewService(memory.NewStore().Reports())
	ctx := context.Background()
	d, err := svc.Create(ctx, weekly())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, d.ID))
	assert.ErrorIs(t, svc.Delete(ctx, d.ID), report.ErrNotFound)
}
