package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/pkg/logger"
	"github.com/ignite/admissions-crm/internal/storage"
)

// Definitions is the part of the report definition service the runner
// needs.
type Definitions interface {
	Get(ctx context.Context, id string) (*domain.ReportDefinition, error)
	Due(ctx context.Context, now time.Time) ([]domain.ReportDefinition, error)
	MarkRun(ctx context.Context, d *domain.ReportDefinition, at time.Time) (time.Time, error)
}

// RunLog keeps the history of successful executions.
type RunLog interface {
	RecordRun(ctx context.Context, r storage.RunRecord) error
	Runs(ctx context.Context, definitionID string, limit int) ([]storage.RunRecord, error)
}

// Execution is the outcome of running a definition.
type Execution struct {
	Definition *domain.ReportDefinition `json:"reporte"`
	Path       string                   `json:"archivo"`
	Result     *Result                  `json:"datos"`
}

// Runner generates, exports and delivers reports.
type Runner struct {
	defs      Definitions
	generator *Generator
	exporter  *Exporter
	sink      Sink
	runs      RunLog
	now       func() time.Time
}

// NewRunner wires a runner. A nil sink falls back to LogSink; runs may be
// nil to skip the execution history.
func NewRunner(defs Definitions, g *Generator, e *Exporter, sink Sink, runs RunLog) *Runner {
	if sink == nil {
		sink = LogSink{}
	}
	return &Runner{defs: defs, generator: g, exporter: e, sink: sink, runs: runs, now: time.Now}
}

// Generate builds a report and, when format is set, exports it.
func (r *Runner) Generate(ctx context.Context, typ domain.ReportType, f domain.ReportFilters, format domain.ExportFormat) (*Result, string, error) {
	res, err := r.generator.Generate(ctx, typ, f)
	if err != nil {
		return nil, "", err
	}
	if format == "" {
		return res, "", nil
	}
	path, err := r.exporter.Export(res, format)
	if err != nil {
		return nil, "", err
	}
	return res, path, nil
}

// ExecuteScheduled runs a definition: generate with its filters, export in
// its format, hand the file to the sink and advance the schedule. On any
// failure the schedule is left as it was.
func (r *Runner) ExecuteScheduled(ctx context.Context, id string) (*Execution, error) {
	def, err := r.defs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exec, err := r.execute(ctx, def)
	if err != nil {
		logger.Error("report execution failed", "report_id", def.ID, "type", string(def.Type), "error", err)
		return nil, err
	}
	return exec, nil
}

func (r *Runner) execute(ctx context.Context, def *domain.ReportDefinition) (*Execution, error) {
	format := def.Config.ExportFormatOrDefault()
	res, path, err := r.Generate(ctx, def.Type, def.Config.Filters, format)
	if err != nil {
		return nil, err
	}
	if err := r.sink.Deliver(ctx, def, path); err != nil {
		return nil, fmt.Errorf("deliver report: %w", err)
	}

	at := r.now().UTC()
	next, err := r.defs.MarkRun(ctx, def, at)
	if err != nil {
		return nil, fmt.Errorf("advance schedule: %w", err)
	}

	if r.runs != nil {
		rec := storage.RunRecord{
			DefinitionID: def.ID,
			Type:         string(def.Type),
			Format:       string(format),
			Location:     path,
			Recipients:   len(def.Recipients),
			RanAt:        at,
		}
		if err := r.runs.RecordRun(ctx, rec); err != nil {
			logger.Warn("report run not recorded", "report_id", def.ID, "error", err)
		}
	}

	logger.Info("report executed", "report_id", def.ID, "type", string(def.Type), "path", path, "next_run", next.Format(time.RFC3339))
	return &Execution{Definition: def, Path: path, Result: res}, nil
}

// RunDue executes every definition due at now and returns how many
// succeeded. A failing definition does not stop the others.
func (r *Runner) RunDue(ctx context.Context) (int, error) {
	due, err := r.defs.Due(ctx, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("list due reports: %w", err)
	}
	ok := 0
	for i := range due {
		if ctx.Err() != nil {
			return ok, ctx.Err()
		}
		def := due[i]
		if _, err := r.execute(ctx, &def); err != nil {
			logger.Error("report execution failed", "report_id", def.ID, "type", string(def.Type), "error", err)
			continue
		}
		ok++
	}
	return ok, nil
}

// History returns the latest runs of a definition.
func (r *Runner) History(ctx context.Context, id string, limit int) ([]storage.RunRecord, error) {
	if _, err := r.defs.Get(ctx, id); err != nil {
		return nil, err
	}
	if r.runs == nil {
		return []storage.RunRecord{}, nil
	}
	return r.runs.Runs(ctx, id, limit)
}
