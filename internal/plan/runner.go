package plan

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/merger/internal/core"
	"github.com/JonMunkholm/merger/internal/logging"
	"github.com/viant/afs"
)

// StepError reports the plan step that stopped a run.
type StepError struct {
	Number int
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Number, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Result summarizes a completed run.
type Result struct {
	Steps    []core.StepRecord
	Rows     int
	Columns  int
	Output   string // resolved output location, if any
	Exported int64  // rows copied to the database table, if any
	Duration time.Duration
}

// Runner executes plans. It reads and writes through fs and, when sink is
// set, can copy the result into PostgreSQL.
type Runner struct {
	fs              afs.Service
	sink            *core.PostgresSink
	requiredColumns []string
}

// NewRunner creates a Runner. requiredColumns configures ingestion
// cleaning; nil means core.DefaultRequiredColumns.
func NewRunner(fs afs.Service, sink *core.PostgresSink, requiredColumns []string) *Runner {
	if fs == nil {
		fs = afs.New()
	}
	if requiredColumns == nil {
		requiredColumns = core.DefaultRequiredColumns
	}
	return &Runner{fs: fs, sink: sink, requiredColumns: requiredColumns}
}

// Run loads every source, applies the steps in order through one
// core.Workflow and writes the output. The first failing step aborts the
// run with a *StepError; nothing is written in that case.
func (r *Runner) Run(ctx context.Context, p *Plan) (*Result, error) {
	start := time.Now()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Output.Table != "" && r.sink == nil {
		return nil, fmt.Errorf("output table %q: %w", p.Output.Table, core.ErrExportNotEnabled)
	}

	registry := core.NewSourceRegistry()
	for _, source := range p.Sources {
		if err := r.loadSource(ctx, p, source, registry); err != nil {
			return nil, err
		}
	}

	workflow := core.NewWorkflow(registry)
	state := core.NewMergeState()
	for i, st := range p.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, err := st.JoinRequest()
		if err != nil {
			return nil, &StepError{Number: i + 1, Err: err}
		}

		var rec *core.StepRecord
		if i == 0 {
			rec, err = workflow.InitiateMerge(state, st.Primary, st.Source, req)
		} else {
			rec, err = workflow.AddSource(state, st.Source, req)
		}
		if err != nil {
			return nil, &StepError{Number: i + 1, Err: err}
		}
		slog.InfoContext(ctx, rec.Message(),
			"mode", rec.Mode,
			"rows", rec.Rows,
			"columns", rec.Columns,
		)
	}

	wt := state.WorkingTable()
	res := &Result{
		Steps:   state.Steps(),
		Rows:    wt.NumRows(),
		Columns: wt.NumColumns(),
	}

	if p.Output.Location != "" {
		out, err := r.writeOutput(ctx, p, wt)
		if err != nil {
			return nil, err
		}
		res.Output = out
	}
	if p.Output.Table != "" {
		n, err := r.sink.Export(ctx, wt, p.Output.Columns, p.Output.Table)
		if err != nil {
			return nil, fmt.Errorf("export to %s: %w", p.Output.Table, err)
		}
		res.Exported = n
	}

	res.Duration = time.Since(start)
	return res, nil
}

func (r *Runner) loadSource(ctx context.Context, p *Plan, source SourceSpec, registry *core.SourceRegistry) error {
	location := p.resolve(source.Location)
	data, err := r.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return fmt.Errorf("source %q: read %s: %w", source.ID, location, err)
	}

	src, err := core.LoadFile(ctx, fileName(location), data, core.LoadOptions{
		Sheet:           source.Sheet,
		RequiredColumns: r.requiredColumns,
	})
	if err != nil {
		return fmt.Errorf("source %q: %w", source.ID, err)
	}
	src.ID = source.ID
	if _, err := registry.Add(src); err != nil {
		return fmt.Errorf("source %q: %w", source.ID, err)
	}

	logging.WithFields(ctx, "source", source.ID, "location", location).Debug("plan source loaded",
		"rows", src.Table.NumRows(),
		"dropped_rows", src.Dropped,
	)
	return nil
}

func (r *Runner) writeOutput(ctx context.Context, p *Plan, wt *core.Table) (string, error) {
	format, err := p.outputFormat()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := format.Write(&buf, wt, p.Output.Columns); err != nil {
		return "", fmt.Errorf("output: %w", err)
	}

	location := p.resolve(p.Output.Location)
	if err := r.fs.Upload(ctx, location, 0o644, &buf); err != nil {
		return "", fmt.Errorf("write %s: %w", location, err)
	}
	return location, nil
}
