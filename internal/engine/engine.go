package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/leengari/tabular/internal/config"
	"github.com/leengari/tabular/internal/domain/data"
	"github.com/leengari/tabular/internal/domain/errors"
	"github.com/leengari/tabular/internal/domain/run"
	"github.com/leengari/tabular/internal/domain/schema"
	"github.com/leengari/tabular/internal/query/indexing"
	"github.com/leengari/tabular/internal/query/operations/join"
	"github.com/leengari/tabular/internal/storage/loader"
	"github.com/leengari/tabular/internal/storage/writer"
)

const tracerName = "tabular/join"

// Request is one fully parsed join invocation
type Request struct {
	Run *run.Run // nil starts a new run

	LeftSpec   string
	LeftPath   string
	RightSpec  string
	RightPath  string
	Mode       join.Mode
	NoHeaders  bool
	IgnoreCase bool

	KeysOutput   string // keys-output file, "" disables it
	Output       string // "" or "-" for stdout
	OutFormat    string // csv or parquet, "" infers from Output
	Compression  string // parquet page codec
	OutDelimiter string // "" reuses the input delimiter
}

// Result reports a finished join
type Result struct {
	RunID       string
	Stats       join.Stats
	KeysWritten bool
	Elapsed     time.Duration
}

// Engine is the main entry point for running joins
type Engine struct {
	cfg       config.ExecutionConfig
	stdin     io.Reader
	stdout    io.Writer
	observers []Observer // Observers for lifecycle events
	tracer    trace.Tracer
}

// New creates a new Engine instance reading "-" inputs from stdin and writing unnamed outputs to stdout
func New(cfg config.ExecutionConfig, stdin io.Reader, stdout io.Writer) *Engine {
	return &Engine{
		cfg:       cfg,
		stdin:     stdin,
		stdout:    stdout,
		observers: make([]Observer, 0),
		tracer:    otel.Tracer(tracerName),
	}
}

// Execute runs one join. Key specs are validated before any input is read, the build side is
// fully loaded before any output is produced, and file outputs only appear if the whole run succeeds.
func (e *Engine) Execute(ctx context.Context, req Request) (res *Result, err error) {
	r := req.Run
	if r == nil {
		r = run.New("join")
	}
	ctx, span := e.tracer.Start(ctx, "join", trace.WithAttributes(
		attribute.String("run_id", r.ID),
		attribute.String("mode", req.Mode.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			e.notify(Event{Type: EventAbort, RunID: r.ID, Data: err.Error()})
		}
		span.End()
	}()

	// 1. Validate flags and key specs
	e.notify(Event{Type: EventResolveStart, RunID: r.ID, Data: req.Mode.String()})
	inDelim, outDelim, err := e.validate(req)
	if err != nil {
		return nil, err
	}

	// 2. Open both inputs and peek their headers
	readOpts := loader.Options{Delimiter: inDelim, NoHeaders: req.NoHeaders}
	left, err := loader.Open(join.SideLeft.String(), req.LeftPath, e.stdin, readOpts)
	if err != nil {
		return nil, err
	}
	defer e.closeInput(left)

	right, err := loader.Open(join.SideRight.String(), req.RightPath, e.stdin, readOpts)
	if err != nil {
		return nil, err
	}
	defer e.closeInput(right)

	// 3. Resolve key columns
	plan := join.Plan{
		Mode:       req.Mode,
		LeftWidth:  left.Width(),
		RightWidth: right.Width(),
	}
	var probeSpec schema.ColumnSpec
	if !req.Mode.IsCross() {
		leftSpec, err := schema.ResolveSpec(left.Side(), req.LeftSpec, left.Header(), left.Width(), req.NoHeaders)
		if err != nil {
			return nil, err
		}
		rightSpec, err := schema.ResolveSpec(right.Side(), req.RightSpec, right.Header(), right.Width(), req.NoHeaders)
		if err != nil {
			return nil, err
		}

		buildSpec, pSpec := rightSpec, leftSpec
		if req.Mode.BuildSide() == join.SideLeft {
			buildSpec, pSpec = leftSpec, rightSpec
		}
		probeSpec = pSpec
		plan.BuildKeys = indexing.NewKeyBuilder(buildSpec, req.IgnoreCase, e.cfg.CaseFold)
		plan.ProbeKeys = indexing.NewKeyBuilder(probeSpec, req.IgnoreCase, e.cfg.CaseFold)

		if req.KeysOutput != "" {
			plan.Recorder = join.NewKeyRecorder()
		}
	} else if req.KeysOutput != "" {
		slog.Warn("--keys-output is ignored for cross joins", slog.String("path", req.KeysOutput))
	}
	e.notify(Event{Type: EventResolveEnd, RunID: r.ID, Data: map[string]interface{}{
		"left_width":  plan.LeftWidth,
		"right_width": plan.RightWidth,
		"key_columns": probeSpec.Len(),
	}})

	build, probe := right, left
	if req.Mode.BuildSide() == join.SideLeft {
		build, probe = left, right
	}

	// 4. Materialize and index the build side
	exec := join.NewExecutor(plan, join.Options{
		Workers:      e.cfg.NumWorkers(),
		BatchSize:    e.cfg.BatchSize,
		ShardMinRows: e.cfg.ShardMinRows,
	})
	if err := e.buildPhase(ctx, r, exec, build); err != nil {
		return nil, err
	}

	// 5. Stream the probe side into the output
	out, err := writer.Create(writer.Options{
		Side:        "output",
		Path:        req.Output,
		Format:      req.OutFormat,
		Delimiter:   outDelim,
		Compression: req.Compression,
	}, e.stdout, join.BuildHeader(req.Mode, left.Header(), right.Header(), left.Width(), right.Width()),
		req.Mode.OutputWidth(left.Width(), right.Width()))
	if err != nil {
		return nil, err
	}

	if err := e.probePhase(ctx, r, exec, probe, out); err != nil {
		out.Abort()
		return nil, err
	}

	// 6. Stage the keys-output table, then publish both files
	var keys *writer.Writer
	if plan.Recorder != nil {
		keys, err = e.writeKeys(req, probeSpec, outDelim, plan.Recorder)
		if err != nil {
			out.Abort()
			return nil, err
		}
	}

	// Keys are published first; a failed main commit retracts them
	if keys != nil {
		if err := keys.Commit(); err != nil {
			out.Abort()
			return nil, err
		}
	}
	if err := out.Commit(); err != nil {
		if keys != nil {
			if rerr := keys.Retract(); rerr != nil {
				slog.Warn("failed to remove keys output", slog.String("path", req.KeysOutput), slog.Any("error", rerr))
			}
		}
		return nil, err
	}

	res = &Result{
		RunID:       r.ID,
		Stats:       exec.Stats(),
		KeysWritten: keys != nil,
		Elapsed:     r.Elapsed(),
	}
	e.notify(Event{Type: EventCommit, RunID: r.ID, Data: res.Stats})

	slog.Info(req.Mode.String()+" completed",
		slog.String("run_id", r.ID),
		slog.Int("result_rows", res.Stats.OutputRows),
		slog.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

// validate performs every check that needs no input data
func (e *Engine) validate(req Request) (in, out rune, err error) {
	if err := join.ValidateKeySpecs(req.Mode, req.LeftSpec, req.RightSpec); err != nil {
		return 0, 0, err
	}
	if req.LeftPath == loader.Stdin && req.RightPath == loader.Stdin {
		return 0, 0, errors.NewUsageError("at most one input may be read from stdin")
	}
	if req.KeysOutput == writer.Stdout {
		return 0, 0, errors.NewUsageError("--keys-output requires a file path")
	}

	in, err = config.ParseDelimiter(e.cfg.Delimiter)
	if err != nil {
		return 0, 0, err
	}
	out = in
	if req.OutDelimiter != "" {
		out, err = config.ParseDelimiter(req.OutDelimiter)
		if err != nil {
			return 0, 0, err
		}
	}
	return in, out, nil
}

func (e *Engine) buildPhase(ctx context.Context, r *run.Run, exec *join.Executor, build *loader.Reader) error {
	ctx, span := e.tracer.Start(ctx, "join.build", trace.WithAttributes(
		attribute.String("side", build.Side()),
	))
	defer span.End()

	e.notify(Event{Type: EventBuildStart, RunID: r.ID, Data: build.Side()})

	table, err := build.ReadAll()
	if err != nil {
		return err
	}
	if err := exec.Build(ctx, table); err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	stats := exec.Stats()
	span.SetAttributes(
		attribute.Int("build_rows", stats.BuildRows),
		attribute.Int("distinct_keys", stats.DistinctKeys),
	)
	e.notify(Event{Type: EventBuildEnd, RunID: r.ID, Data: map[string]interface{}{
		"rows":          stats.BuildRows,
		"distinct_keys": stats.DistinctKeys,
	}})
	return nil
}

func (e *Engine) probePhase(ctx context.Context, r *run.Run, exec *join.Executor, probe *loader.Reader, out *writer.Writer) error {
	ctx, span := e.tracer.Start(ctx, "join.probe", trace.WithAttributes(
		attribute.String("side", probe.Side()),
	))
	defer span.End()

	e.notify(Event{Type: EventProbeStart, RunID: r.ID, Data: probe.Side()})

	if err := exec.Probe(ctx, probe, out); err != nil {
		return err
	}
	if err := exec.Tail(ctx, out); err != nil {
		return err
	}

	stats := exec.Stats()
	span.SetAttributes(
		attribute.Int("probe_rows", stats.ProbeRows),
		attribute.Int("output_rows", stats.OutputRows),
		attribute.Int("tail_rows", stats.TailRows),
	)
	e.notify(Event{Type: EventProbeEnd, RunID: r.ID, Data: map[string]interface{}{
		"probe_rows":  stats.ProbeRows,
		"output_rows": stats.OutputRows,
		"tail_rows":   stats.TailRows,
	}})
	return nil
}

// writeKeys stages the keys-output table without publishing it
func (e *Engine) writeKeys(req Request, probeSpec schema.ColumnSpec, delim rune, rec *join.KeyRecorder) (*writer.Writer, error) {
	var header data.Row
	if !req.NoHeaders {
		header = data.Row(probeSpec.Names)
	}

	w, err := writer.Create(writer.Options{
		Side:        "keys-output",
		Path:        req.KeysOutput,
		Delimiter:   delim,
		Compression: req.Compression,
	}, e.stdout, header, probeSpec.Len())
	if err != nil {
		return nil, err
	}

	for _, row := range rec.Rows() {
		if err := w.WriteRow(row); err != nil {
			w.Abort()
			return nil, err
		}
	}
	return w, nil
}

func (e *Engine) closeInput(r *loader.Reader) {
	if err := r.Close(); err != nil {
		slog.Warn("failed to close input", slog.String("side", r.Side()), slog.Any("error", err))
	}
}

// AddObserver registers an observer to receive lifecycle events
func (e *Engine) AddObserver(observer Observer) {
	e.observers = append(e.observers, observer)
}

// RemoveObserver unregisters an observer
func (e *Engine) RemoveObserver(observer Observer) {
	for i, o := range e.observers {
		if o == observer {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			return
		}
	}
}

// notify sends an event to all registered observers
func (e *Engine) notify(event Event) {
	event.Timestamp = time.Now()
	for _, observer := range e.observers {
		observer.OnEvent(event)
	}
}
