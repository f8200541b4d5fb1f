package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	starjson "go.starlark.net/lib/json"
	starmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/edachat/backend/internal/domain/chart"
	"github.com/edachat/backend/internal/domain/dataset"
	"github.com/edachat/backend/internal/infrastructure/config"
	"github.com/edachat/backend/internal/infrastructure/log"
)

// Names scripts read and write.
const (
	FigureVar = "fig"
	ResultVar = "result"
)

// Execution is the outcome of a successful run.
type Execution struct {
	// Figure is nil when the script left no figure in `fig`.
	Figure   *chart.Figure
	Output   string
	Result   string
	Steps    uint64
	Duration time.Duration
}

// Runner executes generated chart code against a dataset in an isolated interpreter.
type Runner struct {
	timeout  time.Duration
	maxSteps uint64
	logger   *slog.Logger
}

// NewRunner creates a runner bounded by cfg.
func NewRunner(cfg *config.ExecutionConfig) *Runner {
	return &Runner{
		timeout:  cfg.Timeout,
		maxSteps: cfg.MaxSteps,
		logger:   log.NewModuleLogger("sandbox", "runner"),
	}
}

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Execute runs code with `df` bound to d. Failures are *SyntaxError, *NameError,
// *RuntimeError or *TimeoutError.
func (r *Runner) Execute(ctx context.Context, code string, d *dataset.Dataset) (*Execution, error) {
	if d == nil {
		return nil, dataset.ErrEmptyDataset
	}
	src := Preprocess(code)

	var out strings.Builder
	thread := &starlark.Thread{
		Name:  "exec",
		Print: func(_ *starlark.Thread, msg string) { out.WriteString(msg); out.WriteByte('\n') },
		Load: func(_ *starlark.Thread, module string) (starlark.StringDict, error) {
			return nil, fmt.Errorf("load(%q) is not available", module)
		},
	}
	thread.SetMaxExecutionSteps(r.maxSteps)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	var timedOut atomic.Bool
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			timedOut.Store(true)
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()

	predeclared := starlark.StringDict{
		"df":   newFrame(d),
		"px":   pxModule,
		"go":   graphModule,
		"math": starmath.Module,
		"json": starjson.Module,
	}

	start := time.Now()
	globals, err := starlark.ExecFileOptions(fileOptions, thread, "generated.star", src, predeclared)
	elapsed := time.Since(start)
	steps := thread.ExecutionSteps()

	if err != nil {
		switch {
		case timedOut.Load():
			err = &TimeoutError{Reason: fmt.Sprintf("exceeded %s", r.timeout)}
		case r.maxSteps > 0 && steps >= r.maxSteps:
			err = &TimeoutError{Reason: fmt.Sprintf("exceeded %d steps", r.maxSteps)}
		default:
			err = classify(err)
		}
		r.logger.Warn("Code execution failed",
			"error", err,
			"steps", steps,
			"duration", elapsed,
		)
		return nil, err
	}

	exec := &Execution{
		Output:   out.String(),
		Steps:    steps,
		Duration: elapsed,
	}
	if exec.Figure, err = figureOf(globals[FigureVar]); err != nil {
		return nil, err
	}
	exec.Result = resultOf(globals[ResultVar])

	r.logger.Debug("Code executed",
		"has_figure", exec.Figure != nil,
		"steps", steps,
		"duration", elapsed,
	)
	return exec, nil
}

// figureOf reads the `fig` global: a figure value, a plotly-shaped dict, or None.
func figureOf(v starlark.Value) (*chart.Figure, error) {
	switch f := v.(type) {
	case nil, starlark.NoneType:
		return nil, nil
	case *figureValue:
		return f.fig, nil
	case *starlark.Dict:
		g, err := toGo(f)
		if err != nil {
			return nil, &RuntimeError{Msg: fmt.Sprintf("fig: %v", err), cause: err}
		}
		m := g.(map[string]any)
		fig := chart.New("")
		if data, ok := m["data"].([]any); ok {
			for _, t := range data {
				if tm, ok := t.(map[string]any); ok {
					fig.Data = append(fig.Data, chart.Trace(tm))
				}
			}
		}
		if layout, ok := m["layout"].(map[string]any); ok {
			fig.UpdateLayout(layout)
		}
		return fig, nil
	default:
		return nil, &RuntimeError{Msg: fmt.Sprintf("fig must be a figure, got %s", v.Type())}
	}
}

func resultOf(v starlark.Value) string {
	switch r := v.(type) {
	case nil, starlark.NoneType:
		return ""
	case starlark.String:
		return string(r)
	default:
		return r.String()
	}
}

var (
	importLine = regexp.MustCompile(`^\s*(import\s+\S|from\s+\S+\s+import\s)`)
	showLine   = regexp.MustCompile(`^\s*\w+\.show\(\s*\)\s*$`)
)

// Preprocess replaces import statements and fig.show() calls with pass, keeping line
// numbers and block structure intact.
func Preprocess(code string) string {
	lines := strings.Split(strings.ReplaceAll(code, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if importLine.MatchString(line) || showLine.MatchString(line) {
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			lines[i] = indent + "pass"
		}
	}
	return strings.Join(lines, "\n")
}
