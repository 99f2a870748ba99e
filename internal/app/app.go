// Package app wires repositories into services. The server and the worker
// build the same graph; only the store behind it differs.
package app

import (
	"context"
	"fmt"

	"github.com/ignite/admissions-crm/internal/config"
	"github.com/ignite/admissions-crm/internal/metrics"
	"github.com/ignite/admissions-crm/internal/reporting"
	"github.com/ignite/admissions-crm/internal/repository/memory"
	"github.com/ignite/admissions-crm/internal/repository/postgres"
	"github.com/ignite/admissions-crm/internal/service/admission"
	"github.com/ignite/admissions-crm/internal/service/campaign"
	"github.com/ignite/admissions-crm/internal/service/communication"
	"github.com/ignite/admissions-crm/internal/service/form"
	"github.com/ignite/admissions-crm/internal/service/prospect"
	"github.com/ignite/admissions-crm/internal/service/report"
	"github.com/ignite/admissions-crm/internal/service/user"
	"github.com/ignite/admissions-crm/internal/storage"
)

// Repositories is one implementation of every service repository.
type Repositories struct {
	Users          user.Repository
	Prospects      prospect.Repository
	Communications communication.Repository
	Campaigns      campaign.Repository
	Admission      admission.Repository
	Reports        report.Repository
	Forms          form.Repository
}

// MemoryRepositories backs every service with the in-memory store.
func MemoryRepositories(s *memory.Store) Repositories {
	return Repositories{
		Users:          s.Users(),
		Prospects:      s.Prospects(),
		Communications: s.Communications(),
		Campaigns:      s.Campaigns(),
		Admission:      s.Admission(),
		Reports:        s.Reports(),
		Forms:          s.Forms(),
	}
}

// PostgresRepositories backs every service with PostgreSQL.
func PostgresRepositories(s *postgres.Store) Repositories {
	return Repositories{
		Users:          s.Users(),
		Prospects:      s.Prospects(),
		Communications: s.Communications(),
		Campaigns:      s.Campaigns(),
		Admission:      s.Admission(),
		Reports:        s.Reports(),
		Forms:          s.Forms(),
	}
}

// Services is the wired application.
type Services struct {
	Users          *user.Service
	Prospects      *prospect.Service
	Communications *communication.Service
	Campaigns      *campaign.Service
	Admission      *admission.Service
	Reports        *report.Service
	Forms          *form.Service
	Metrics        *metrics.Engine
	Runner         *reporting.Runner
}

// NewServices builds every service over repos. sink and runs may be nil.
func NewServices(cfg *config.Config, repos Repositories, sink reporting.Sink, runs reporting.RunLog) *Services {
	var userOpts []user.Option
	if cfg.Auth.BcryptCost > 0 {
		userOpts = append(userOpts, user.WithHashCost(cfg.Auth.BcryptCost))
	}
	users := user.NewService(repos.Users, userOpts...)
	prospects := prospect.NewService(repos.Prospects, repos.Users)
	reports := report.NewService(repos.Reports)

	engine := metrics.NewEngine(
		metrics.NewRepoSource(repos.Prospects, repos.Communications, repos.Campaigns, repos.Users),
		WindowDefaults(cfg.Metrics.Windows),
	)
	runner := reporting.NewRunner(reports, reporting.NewGenerator(engine), reporting.NewExporter(cfg.Reports.Dir), sink, runs)

	return &Services{
		Users:          users,
		Prospects:      prospects,
		Communications: communication.NewService(repos.Communications, repos.Prospects),
		Campaigns:      campaign.NewService(repos.Campaigns, repos.Prospects),
		Admission:      admission.NewService(repos.Admission, prospects),
		Reports:        reports,
		Forms:          form.NewService(repos.Forms, repos.Prospects, repos.Campaigns),
		Metrics:        engine,
		Runner:         runner,
	}
}

// WindowDefaults converts the configured window names.
func WindowDefaults(c config.WindowsConfig) metrics.Defaults {
	return metrics.Defaults{
		Director: metrics.WindowKind(c.Director),
		Manager:  metrics.WindowKind(c.Manager),
		Advisor:  metrics.WindowKind(c.Advisor),
		Reports:  metrics.WindowKind(c.Reports),
	}
}

// BuildSink assembles the configured report sinks. Unknown names are an
// error so a typo does not silently drop deliveries.
func BuildSink(ctx context.Context, cfg *config.Config, store *storage.Storage) (reporting.Sink, error) {
	var sinks reporting.MultiSink
	for _, name := range cfg.Reports.Sinks {
		switch name {
		case "log":
			sinks = append(sinks, reporting.LogSink{})
		case "archive":
			sinks = append(sinks, reporting.NewArchiveSink(store))
		case "email":
			sesCfg := reporting.SESConfig{
				Region:    cfg.SES.Region,
				AccessKey: cfg.SES.AccessKey,
				SecretKey: cfg.SES.SecretKey,
				FromEmail: cfg.SES.FromEmail,
				FromName:  cfg.SES.FromName,
				Subject:   cfg.Reports.EmailSubject,
				Body:      cfg.Reports.EmailTemplate,
			}
			client, err := reporting.NewSESClient(ctx, sesCfg)
			if err != nil {
				return nil, fmt.Errorf("email sink: %w", err)
			}
			sinks = append(sinks, reporting.NewSESSink(client, sesCfg))
		default:
			return nil, fmt.Errorf("unknown report sink %q", name)
		}
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sinks, nil
}
