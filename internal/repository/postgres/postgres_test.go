package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/service/campaign"
	"github.com/ignite/admissions-crm/internal/service/communication"
	"github.com/ignite/admissions-crm/internal/service/form"
	"github.com/ignite/admissions-crm/internal/service/prospect"
	"github.com/ignite/admissions-crm/internal/service/report"
	"github.com/ignite/admissions-crm/internal/service/user"
)

var ts = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewStore(db), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

var prospectCols = []string{
	"id", "name", "phone", "email", "education_level", "origin", "status", "advisor_id",
	"priority", "enrollment_value", "notes", "registered_at", "last_interaction", "appointment_at", "additional_data",
}

func TestFilterNumbersParameters(t *testing.T) {
	var f filter
	f.add("status = ?", "new")
	f.add("(name ILIKE ? OR email ILIKE ?)", "%a%")

	assert.Equal(t, " WHERE status = $1 AND (name ILIKE $2 OR email ILIKE $2)", f.where())
	query, args := f.page("SELECT id FROM prospects", "registered_at DESC", 10, 20)
	assert.Equal(t, "SELECT id FROM prospects WHERE status = $1 AND (name ILIKE $2 OR email ILIKE $2) ORDER BY registered_at DESC LIMIT $3 OFFSET $4", query)
	assert.Equal(t, []any{"new", "%a%", 10, 20}, args)

	var empty filter
	query, args = empty.page("SELECT id FROM users", "name", 0, 0)
	assert.Equal(t, "SELECT id FROM users ORDER BY name", query)
	assert.Empty(t, args)
}

func TestSetterRendersUpdate(t *testing.T) {
	var s setter
	assert.True(t, s.empty())
	s.add("status", "admitted")
	s.add("last_interaction", ts)
	query, args := s.update("prospects", "p1", "id, status")
	assert.Equal(t, "UPDATE prospects SET status = $1, last_interaction = $2 WHERE id = $3 RETURNING id, status", query)
	assert.Equal(t, []any{"admitted", ts, "p1"}, args)
}

func TestPrefixed(t *testing.T) {
	assert.Equal(t, "p.id, p.name, p.status", prefixed("p", "id, name,\n\tstatus"))
}

func TestProspectRepoGet(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(q("FROM prospects WHERE id = $1")).WithArgs("p1").WillReturnRows(
		sqlmock.NewRows(prospectCols).AddRow(
			"p1", "Eva", "555", "eva@example.com", "bachelor", "google", "enrolled", "u1",
			"high", "5000.00", "", ts, ts, nil, []byte(`{"campus":"norte"}`),
		))
	p, err := store.Prospects().Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnrolled, p.Status)
	require.NotNil(t, p.AdvisorID)
	assert.Equal(t, "u1", *p.AdvisorID)
	require.NotNil(t, p.EnrollmentValue)
	assert.True(t, p.EnrollmentValue.Equal(decimal.NewFromInt(5000)))
	assert.Nil(t, p.AppointmentAt)
	assert.Equal(t, "norte", p.AdditionalData["campus"])

	mock.ExpectQuery(q("FROM prospects WHERE id = $1")).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err = store.Prospects().Get(ctx, "missing")
	assert.ErrorIs(t, err, prospect.ErrNotFound)
}

func TestProspectRepoListFilters(t *testing.T) {
	store, mock := newMock(t)
	lf := prospect.ListFilter{AdvisorID: "u1", Search: " ana ", RegisteredTo: ts, Limit: 20}

	mock.ExpectQuery(q("SELECT COUNT(*) FROM prospects WHERE advisor_id = $1 AND registered_at <= $2 AND (name ILIKE $3 OR email ILIKE $3 OR phone ILIKE $3)")).
		WithArgs("u1", ts, "%ana%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(q("ORDER BY registered_at DESC LIMIT $4 OFFSET $5")).
		WithArgs("u1", ts, "%ana%", 20, 0).
		WillReturnRows(sqlmock.NewRows(prospectCols).AddRow(
			"p2", "Ana", "", "", "", "referral", "new", "u1", "medium", nil, "", ts, ts, nil, nil,
		))

	out, total, err := store.Prospects().List(context.Background(), lf)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].EnrollmentValue)
	assert.Nil(t, out[0].AdditionalData)
}

func TestProspectRepoUpdateAlwaysTouchesLastInteraction(t *testing.T) {
	store, mock := newMock(t)
	status := domain.StatusAdmitted

	mock.ExpectQuery(q("UPDATE prospects SET status = $1, last_interaction = $2 WHERE id = $3 RETURNING")).
		WithArgs("admitted", ts, "p1").
		WillReturnRows(sqlmock.NewRows(prospectCols).AddRow(
			"p1", "Eva", "", "", "", "google", "admitted", nil, "medium", nil, "", ts, ts, nil, []byte(`{}`),
		))
	p, err := store.Prospects().Update(context.Background(), "p1", prospect.UpdateFields{Status: &status, LastInteraction: ts})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAdmitted, p.Status)
	assert.Nil(t, p.AdvisorID)

	mock.ExpectQuery(q("UPDATE prospects SET last_interaction = $1 WHERE id = $2")).
		WithArgs(ts, "missing").
		WillReturnError(sql.ErrNoRows)
	_, err = store.Prospects().Update(context.Background(), "missing", prospect.UpdateFields{LastInteraction: ts})
	assert.ErrorIs(t, err, prospect.ErrNotFound)
}

func TestProspectRepoDeleteCascades(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	for _, table := range []string{"communications", "campaign_prospects", "admission_documents", "admission_payments"} {
		mock.ExpectExec(q("DELETE FROM "+table+" WHERE prospect_id = $1")).WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 2))
	}
	mock.ExpectExec(q("DELETE FROM prospects WHERE id = $1")).WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := store.Prospects().Delete(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProspectRepoDeleteRollsBackOnFailure(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(q("DELETE FROM communications WHERE prospect_id = $1")).WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("DELETE FROM campaign_prospects WHERE prospect_id = $1")).WithArgs("p1").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	ok, err := store.Prospects().Delete(context.Background(), "p1")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestCommunicationRepoCreateBumpsProspect(t *testing.T) {
	store, mock := newMock(t)
	c := &domain.Communication{
		ID: "c1", ProspectID: "p1", UserID: "u1", Type: domain.CommCall, Direction: domain.DirectionSent,
		Content: "Llamada inicial", Timestamp: ts.Add(time.Hour), State: domain.CommCompleted,
	}

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE prospects SET last_interaction = GREATEST(")).
		WithArgs(ts, c.Timestamp, "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO communications")).
		WithArgs("c1", "p1", "u1", "call", "sent", "Llamada inicial", nil, nil, c.Timestamp, "completed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, store.Communications().Create(context.Background(), c, ts))

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE prospects SET last_interaction")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	err := store.Communications().Create(context.Background(), &domain.Communication{ID: "c2", ProspectID: "ghost"}, ts)
	assert.ErrorIs(t, err, prospect.ErrNotFound)
}

func TestCommunicationRepoListWindow(t *testing.T) {
	store, mock := newMock(t)
	from := ts.AddDate(0, 0, -28)

	mock.ExpectQuery(q("SELECT COUNT(*) FROM communications WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at <= $3")).
		WithArgs("u1", from, ts).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(q("ORDER BY occurred_at DESC")).
		WithArgs("u1", from, ts).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "prospect_id", "user_id", "type", "direction", "content", "result", "duration_minutes", "occurred_at", "state",
		}).AddRow("c1", "p1", "u1", "call", "sent", "hola", "interesado", int64(12), ts, "completed"))

	out, total, err := store.Communications().List(context.Background(), communication.ListFilter{UserID: "u1", From: from, To: ts})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].DurationMinutes)
	assert.Equal(t, 12, *out[0].DurationMinutes)
	assert.Equal(t, "interesado", *out[0].Result)
}

func TestCampaignRepoLink(t *testing.T) {
	store, mock := newMock(t)
	l := &domain.CampaignProspect{ID: "l1", CampaignID: "c1", ProspectID: "p1", AssociatedAt: ts}
	exists := q("SELECT EXISTS(SELECT 1 FROM campaigns WHERE id = $1)")

	mock.ExpectBegin()
	mock.ExpectQuery(exists).WithArgs("c1", "p1").WillReturnRows(sqlmock.NewRows([]string{"c", "p"}).AddRow(true, true))
	mock.ExpectExec(q("INSERT INTO campaign_prospects")).WithArgs("l1", "c1", "p1", ts).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, store.Campaigns().Link(context.Background(), l))

	mock.ExpectBegin()
	mock.ExpectQuery(exists).WithArgs("c1", "p1").WillReturnRows(sqlmock.NewRows([]string{"c", "p"}).AddRow(true, true))
	mock.ExpectExec(q("INSERT INTO campaign_prospects")).WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()
	assert.ErrorIs(t, store.Campaigns().Link(context.Background(), l), campaign.ErrAlreadyLinked)

	mock.ExpectBegin()
	mock.ExpectQuery(exists).WithArgs("c1", "p1").WillReturnRows(sqlmock.NewRows([]string{"c", "p"}).AddRow(false, true))
	mock.ExpectRollback()
	assert.ErrorIs(t, store.Campaigns().Link(context.Background(), l), campaign.ErrNotFound)

	mock.ExpectBegin()
	mock.ExpectQuery(exists).WithArgs("c1", "p1").WillReturnRows(sqlmock.NewRows([]string{"c", "p"}).AddRow(true, false))
	mock.ExpectRollback()
	assert.ErrorIs(t, store.Campaigns().Link(context.Background(), l), prospect.ErrNotFound)
}

func TestCampaignRepoDeleteRemovesLinks(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(q("DELETE FROM campaign_prospects WHERE campaign_id = $1")).WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(q("UPDATE lead_forms SET campaign_id = NULL WHERE campaign_id = $1")).WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("DELETE FROM campaigns WHERE id = $1")).WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err := store.Campaigns().Delete(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCampaignRepoGetDecodesOptionalFields(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(q("FROM campaigns WHERE id = $1")).WithArgs("c1").WillReturnRows(
		sqlmock.NewRows([]string{
			"id", "name", "description", "channel", "budget", "spent", "state", "start_at", "end_at",
			"lead_target", "enrollment_target", "channel_config", "created_at",
		}).AddRow("c1", "Búsqueda", nil, "google", "3000.00", "1250.50", "active", ts, ts.AddDate(0, 1, 0),
			int64(100), nil, []byte(`{"cuenta":"123"}`), ts))

	c, err := store.Campaigns().Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, c.Description)
	assert.Equal(t, "1250.5", c.Spent.String())
	require.NotNil(t, c.LeadTarget)
	assert.Equal(t, 100, *c.LeadTarget)
	assert.Nil(t, c.EnrollmentTarget)
	assert.Equal(t, "123", c.ChannelConfig["cuenta"])
}

func TestReportRepoDue(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(q("WHERE active AND next_run IS NOT NULL AND next_run <= $1")).WithArgs(ts).WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "type", "frequency", "recipients", "config", "active", "last_run", "next_run", "created_at"}).
			AddRow("r1", "Semanal", "executive", "weekly", "{a@example.edu,b@example.edu}",
				[]byte(`{"formato":"excel","filtros":{"ventana":"prior_month"}}`), true, nil, ts.Add(-time.Minute), ts))

	due, err := store.Reports().Due(context.Background(), ts)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, []string{"a@example.edu", "b@example.edu"}, due[0].Recipients)
	assert.Equal(t, domain.FormatExcel, due[0].Config.Format)
	assert.Equal(t, "prior_month", due[0].Config.Filters.Window)
	assert.Nil(t, due[0].LastRun)
}

func TestReportRepoMarkRun(t *testing.T) {
	store, mock := newMock(t)
	next := ts.AddDate(0, 0, 7)

	mock.ExpectExec(q("UPDATE report_definitions SET last_run = $1, next_run = $2 WHERE id = $3")).
		WithArgs(ts, next, "r1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Reports().MarkRun(context.Background(), "r1", ts, next))

	mock.ExpectExec(q("UPDATE report_definitions SET last_run")).
		WithArgs(ts, next, "gone").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, store.Reports().MarkRun(context.Background(), "gone", ts, next), report.ErrNotFound)
}

func TestFormRepoCreateSlugTaken(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(q("INSERT INTO lead_forms")).WillReturnError(&pq.Error{Code: "23505"})
	err := store.Forms().Create(context.Background(), &domain.LeadForm{ID: "f1", Slug: "open-house"})
	assert.ErrorIs(t, err, form.ErrSlugTaken)
}

func TestUserRepo(t *testing.T) {
	store, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectExec(q("INSERT INTO users")).WillReturnError(&pq.Error{Code: "23505"})
	assert.ErrorIs(t, store.Users().Create(ctx, &domain.User{ID: "u1", Username: "ana"}), user.ErrUsernameTaken)

	mock.ExpectQuery(q("FROM users WHERE role = $1 AND active = $2 ORDER BY name")).
		WithArgs("advisor", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "name", "email", "role", "active", "created_at"}).
			AddRow("u1", "ana", "hash", "Ana", "ana@example.edu", "advisor", true, ts))
	users, err := store.Users().List(ctx, user.ListFilter{Role: domain.RoleAdvisor, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, domain.RoleAdvisor, users[0].Role)

	mock.ExpectQuery(q("FROM users WHERE username = $1")).WithArgs("nadie").WillReturnError(sql.ErrNoRows)
	_, err = store.Users().GetByUsername(ctx, "nadie")
	assert.ErrorIs(t, err, user.ErrNotFound)
}
