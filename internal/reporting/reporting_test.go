package reporting

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ignite/admissions-crm/internal/config"
	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/metrics"
	"github.com/ignite/admissions-crm/internal/pkg/validate"
	"github.com/ignite/admissions-crm/internal/repository/memory"
	"github.com/ignite/admissions-crm/internal/service/report"
	"github.com/ignite/admissions-crm/internal/storage"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type harness struct {
	store    *memory.Store
	defs     *report.Service
	runner   *Runner
	exporter *Exporter
	sink     *recordingSink
	runs     *storage.Storage
}

type recordingSink struct {
	paths []string
	err   error
}

func (s *recordingSink) Deliver(_ context.Context, _ *domain.ReportDefinition, path string) error {
	s.paths = append(s.paths, path)
	return s.err
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	src := metrics.NewRepoSource(store.Prospects(), store.Communications(), store.Campaigns(), store.Users())
	engine := metrics.NewEngine(src, metrics.Defaults{})
	defs := report.NewService(store.Reports())
	exporter := NewExporter(t.TempDir())
	exporter.now = func() time.Time { return testNow }
	runs, err := storage.New(context.Background(), config.StorageConfig{Type: "local", LocalPath: t.TempDir()})
	require.NoError(t, err)
	sink := &recordingSink{}
	runner := NewRunner(defs, NewGenerator(engine), exporter, sink, runs)
	runner.now = func() time.Time { return testNow }
	h := &harness{store: store, defs: defs, runner: runner, exporter: exporter, sink: sink, runs: runs}
	h.seed(t)
	return h
}

func (h *harness) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.store.Users().Create(ctx, &domain.User{ID: "u1", Username: "ana", Name: "Ana", Role: domain.RoleAdvisor, Active: true}))
	value := decimal.RequireFromString("5000")
	advisor := "u1"
	registered := time.Now().UTC().Add(-24 * time.Hour)
	for _, p := range []domain.Prospect{
		{ID: "p1", Name: "Eva", Status: domain.StatusEnrolled, AdvisorID: &advisor, EnrollmentValue: &value, Origin: domain.ChannelGoogle},
		{ID: "p2", Name: "Raúl", Status: domain.StatusNew, AdvisorID: &advisor, Origin: domain.ChannelReferral},
	} {
		p.Priority = domain.PriorityMedium
		p.RegisteredAt, p.LastInteraction = registered, registered
		require.NoError(t, h.store.Prospects().Create(ctx, &p))
	}
	require.NoError(t, h.store.Campaigns().Create(ctx, &domain.Campaign{
		ID: "c1", Name: "Búsqueda", Channel: domain.ChannelGoogle,
		Budget: decimal.RequireFromString("3000"), Spent: decimal.RequireFromString("1000"),
		State: domain.CampaignActive, StartAt: registered.AddDate(0, -1, 0), EndAt: registered.AddDate(0, 1, 0),
	}))
	require.NoError(t, h.store.Campaigns().Link(ctx, &domain.CampaignProspect{ID: "l1", CampaignID: "c1", ProspectID: "p1", AssociatedAt: registered}))
}

func (h *harness) definition(t *testing.T, typ domain.ReportType, format domain.ExportFormat) *domain.ReportDefinition {
	t.Helper()
	next := testNow.Add(-time.Hour)
	d := &domain.ReportDefinition{
		ID:         "def-" + string(typ),
		Name:       "Semanal",
		Type:       typ,
		Frequency:  domain.FrequencyWeekly,
		Recipients: []string{"direccion@example.edu"},
		Config:     domain.ReportConfig{Format: format, Filters: domain.ReportFilters{Window: "last_4_weeks"}},
		Active:     true,
		NextRun:    &next,
		CreatedAt:  testNow.AddDate(0, -1, 0),
	}
	require.NoError(t, h.store.Reports().Create(context.Background(), d))
	return d
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 5, 7, 123000000, time.UTC)
	assert.Equal(t, "report_executive_2024-03-01T090507.123Z.csv", FileName(domain.ReportExecutive, domain.FormatCSV, at))
	assert.Equal(t, "report_campaigns_2024-03-01T090507.123Z.xlsx", FileName(domain.ReportCampaigns, domain.FormatExcel, at))
	assert.Equal(t, "report_advisors_2024-03-01T090507.123Z.pdf", FileName(domain.ReportAdvisors, domain.FormatPDF, at))
}

func TestGenerateEveryType(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	f := domain.ReportFilters{Window: "last_4_weeks"}

	res, err := h.runner.generator.Generate(ctx, domain.ReportExecutive, f)
	require.NoError(t, err)
	assert.Equal(t, metrics.Last4Weeks, res.Window.Kind)
	assert.Equal(t, 1, res.ByStatus["enrolled"])
	assert.Equal(t, "50.00%", figure(res, "tasaConversion"))
	assert.Equal(t, "400.00%", figure(res, "roi"))

	res, err = h.runner.generator.Generate(ctx, domain.ReportAdvisors, f)
	require.NoError(t, err)
	require.Len(t, res.Advisors, 1)
	assert.Equal(t, 2, res.Advisors[0].Prospects)

	res, err = h.runner.generator.Generate(ctx, domain.ReportCampaigns, domain.ReportFilters{Window: "last_4_weeks", CampaignID: "c1"})
	require.NoError(t, err)
	require.Len(t, res.Campaigns, 1)
	assert.Equal(t, 1, res.Campaigns[0].Leads)
	assert.Equal(t, "1", figure(res, "campanas"))

	res, err = h.runner.generator.Generate(ctx, domain.ReportConversions, f)
	require.NoError(t, err)
	require.Len(t, res.Funnel, len(domain.PipelineStages))
	assert.Equal(t, 2, res.Funnel[0].Reached)
	assert.Equal(t, 1, res.Funnel[5].Reached)
}

func TestGenerateValidatesInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.runner.generator.Generate(ctx, "weekly_digest", domain.ReportFilters{})
	_, ok := validate.As(err)
	assert.True(t, ok)

	_, err = h.runner.generator.Generate(ctx, domain.ReportExecutive, domain.ReportFilters{Window: "forever"})
	_, ok = validate.As(err)
	assert.True(t, ok)

	from, to := testNow, testNow.Add(-time.Hour)
	_, err = h.runner.generator.Generate(ctx, domain.ReportExecutive, domain.ReportFilters{From: &from, To: &to})
	_, ok = validate.As(err)
	assert.True(t, ok)
}

func TestGenerateDefaultsToReportsWindow(t *testing.T) {
	h := newHarness(t)
	w, err := h.runner.generator.Window(domain.ReportFilters{})
	require.NoError(t, err)
	assert.Equal(t, metrics.PriorMonth, w.Kind)
}

func figure(res *Result, key string) string {
	for _, f := range res.Summary {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportCSV(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, path, err := h.runner.Generate(ctx, domain.ReportAdvisors, domain.ReportFilters{Window: "last_4_weeks"}, domain.FormatCSV)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, FileName(domain.ReportAdvisors, domain.FormatCSV, testNow), filepath.Base(path))
	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "asesorId", rows[0][0])
	assert.Equal(t, "Ana", rows[1][1])

	_, path, err = h.runner.Generate(ctx, domain.ReportExecutive, domain.ReportFilters{Window: "last_4_weeks"}, domain.FormatCSV)
	require.NoError(t, err)
	rows = readCSV(t, path)
	assert.Equal(t, []string{"clave", "valor"}, rows[0])
	assert.Equal(t, []string{"tipo", "executive"}, rows[1])
}

func TestExportExcel(t *testing.T) {
	h := newHarness(t)
	_, path, err := h.runner.Generate(context.Background(), domain.ReportCampaigns, domain.ReportFilters{Window: "last_4_weeks"}, domain.FormatExcel)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(path))

	x, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer x.Close()
	rows, err := x.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "campanaId", rows[0][0])
	assert.Equal(t, "Búsqueda", rows[1][1])
}

func TestExportPDF(t *testing.T) {
	h := newHarness(t)
	for _, typ := range []domain.ReportType{domain.ReportExecutive, domain.ReportAdvisors, domain.ReportCampaigns, domain.ReportConversions} {
		_, path, err := h.runner.Generate(context.Background(), typ, domain.ReportFilters{Window: "last_4_weeks"}, domain.FormatPDF)
		require.NoError(t, err, typ)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "%PDF"), typ)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.runner.Generate(context.Background(), domain.ReportExecutive, domain.ReportFilters{}, "docx")
	_, ok := validate.As(err)
	assert.True(t, ok)
}

func TestExecuteScheduledAdvancesSchedule(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	d := h.definition(t, domain.ReportExecutive, "")

	exec, err := h.runner.ExecuteScheduled(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, ".pdf", filepath.Ext(exec.Path))
	assert.Equal(t, []string{exec.Path}, h.sink.paths)

	got, err := h.defs.Get(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastRun)
	require.NotNil(t, got.NextRun)
	assert.Equal(t, testNow, *got.LastRun)
	assert.Equal(t, testNow.AddDate(0, 0, 7), *got.NextRun)

	runs, err := h.runner.History(ctx, d.ID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "pdf", runs[0].Format)
}

func TestExecuteScheduledFailureLeavesSchedule(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	d := h.definition(t, domain.ReportAdvisors, domain.FormatCSV)
	h.sink.err = errors.New("bucket unavailable")

	_, err := h.runner.ExecuteScheduled(ctx, d.ID)
	require.Error(t, err)

	got, err := h.defs.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastRun)
	assert.Equal(t, *d.NextRun, *got.NextRun)

	runs, err := h.runner.History(ctx, d.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestExecuteScheduledUnknownDefinition(t *testing.T) {
	h := newHarness(t)
	_, err := h.runner.ExecuteScheduled(context.Background(), "missing")
	assert.ErrorIs(t, err, report.ErrNotFound)
}

func TestRunDueSkipsFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.definition(t, domain.ReportExecutive, domain.FormatCSV)
	h.definition(t, domain.ReportCampaigns, domain.FormatExcel)

	n, err := h.runner.RunDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, h.sink.paths, 2)

	n, err = h.runner.RunDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "schedule advanced past now")
}

type failingSink struct{ err error }

func (s failingSink) Deliver(context.Context, *domain.ReportDefinition, string) error { return s.err }

func TestMultiSinkJoinsErrors(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	rec := &recordingSink{}
	m := MultiSink{failingSink{errA}, rec, failingSink{errB}, LogSink{}}

	err := m.Deliver(context.Background(), &domain.ReportDefinition{ID: "d"}, "/tmp/r.pdf")
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, []string{"/tmp/r.pdf"}, rec.paths)

	assert.NoError(t, MultiSink{LogSink{}}.Deliver(context.Background(), &domain.ReportDefinition{ID: "d"}, "x"))
}

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSinkRendersTemplates(t *testing.T) {
	client := &fakeSES{}
	sink := NewSESSink(client, SESConfig{
		FromEmail: "reportes@example.edu",
		FromName:  "CRM",
		Subject:   "Reporte {{ report.nombre }} listo",
	})
	def := &domain.ReportDefinition{
		ID: "d1", Name: "Semanal", Type: domain.ReportExecutive, Frequency: domain.FrequencyWeekly,
		Recipients: []string{"a@example.edu", "b@example.edu"},
	}

	require.NoError(t, sink.Deliver(context.Background(), def, "/reports/report_executive_2024-03-01T090000.000Z.pdf"))
	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "CRM <reportes@example.edu>", *in.FromEmailAddress)
	assert.Equal(t, []string{"a@example.edu", "b@example.edu"}, in.Destination.ToAddresses)
	assert.Equal(t, "Reporte Semanal listo", *in.Content.Simple.Subject.Data)
	body := *in.Content.Simple.Body.Text.Data
	assert.Contains(t, body, "report_executive_2024-03-01T090000.000Z.pdf")
	assert.Contains(t, body, "2024-03-01T090000.000Z")

	require.NoError(t, sink.Deliver(context.Background(), &domain.ReportDefinition{ID: "d2"}, "x.pdf"))
	assert.Len(t, client.inputs, 1, "no recipients, no email")
}

type memArchive struct{ saved []string }

func (a *memArchive) SaveArtifact(_ context.Context, path string) (string, error) {
	a.saved = append(a.saved, path)
	return "s3://bucket/" + filepath.Base(path), nil
}

func TestArchiveSink(t *testing.T) {
	a := &memArchive{}
	require.NoError(t, NewArchiveSink(a).Deliver(context.Background(), &domain.ReportDefinition{ID: "d"}, "/r/x.csv"))
	assert.Equal(t, []string{"/r/x.csv"}, a.saved)
}
