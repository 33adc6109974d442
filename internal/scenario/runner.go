package scenario

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vango-dev/reactor/internal/config"
	"github.com/vango-dev/reactor/internal/errors"
	"github.com/vango-dev/reactor/pkg/reactive"
)

// Report is the outcome of running a scenario.
type Report struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// Lines is the transcript: watch output, committed changes, vetoes and
	// step results, in the order they happened.
	Lines []string `json:"lines"`

	// Steps is the number of executed steps, nested ones included.
	Steps int `json:"steps"`

	// Changes is the number of committed changes delivered to the observer.
	Changes int `json:"changes"`

	// Vetoes is the number of changes cancelled by intercept rules.
	Vetoes int `json:"vetoes"`

	// Keys are the object's keys after the last step.
	Keys []string `json:"keys"`
}

// String renders the transcript, one line per entry.
func (r *Report) String() string {
	return strings.Join(r.Lines, "\n")
}

// Runner executes scenarios against a reactive runtime.
type Runner struct {
	rt       *reactive.Runtime
	enhancer string
	logger   *slog.Logger
	out      io.Writer
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRuntime runs scenarios on rt instead of a fresh runtime per run.
func WithRuntime(rt *reactive.Runtime) RunnerOption {
	return func(r *Runner) {
		r.rt = rt
	}
}

// WithEnhancer sets the enhancer used when a scenario does not name one.
func WithEnhancer(name string) RunnerOption {
	return func(r *Runner) {
		r.enhancer = name
	}
}

// WithLogger sets the logger for step tracing.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithOutput streams transcript lines to w as they are produced.
func WithOutput(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.out = w
	}
}

// NewRunner creates a runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		enhancer: config.DefaultEnhancer,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run holds the state of one scenario execution.
type run struct {
	report   *Report
	rt       *reactive.Runtime
	view     *reactive.DynamicView
	logger   *slog.Logger
	out      io.Writer
	disposer []reactive.Disposer
}

func (x *run) emit(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	x.report.Lines = append(x.report.Lines, line)
	if x.out != nil {
		fmt.Fprintln(x.out, line)
	}
}

// Run builds the scenario's object, attaches watchers, interceptors and an
// observer, then executes the steps. The context is checked between steps.
// A failing step stops the run with an S003 error; the partial report is
// returned alongside it.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	rt := r.rt
	if rt == nil {
		rt = reactive.NewRuntime(reactive.WithLogger(r.logger))
	}
	enhancer := r.enhancer
	if sc.Enhancer != "" {
		enhancer = sc.Enhancer
	}

	x := &run{
		report: &Report{Name: sc.Name},
		rt:     rt,
		logger: r.logger.With("scenario", sc.Name),
		out:    r.out,
	}
	defer x.dispose()

	view, err := x.build(sc, config.EnhancerByName(enhancer))
	if err != nil {
		return x.report, err
	}
	x.view = view

	if err := x.steps(ctx, "steps", sc.Steps); err != nil {
		return x.report, err
	}

	for _, k := range view.Keys() {
		x.report.Keys = append(x.report.Keys, reactive.StringifyKey(k))
	}
	return x.report, nil
}

func (x *run) dispose() {
	for i := len(x.disposer) - 1; i >= 0; i-- {
		x.disposer[i]()
	}
	x.disposer = nil
}

func (x *run) build(sc *Scenario, enhancer reactive.Enhancer) (*reactive.DynamicView, error) {
	// The computed closures need the view, which only exists once the
	// declarations are applied.
	var view *reactive.DynamicView
	get := func(key string) any { return view.Get(key) }

	decls := make([]reactive.Declaration, 0, len(sc.Props)+len(sc.Computed))
	for _, p := range sc.Props {
		decls = append(decls, reactive.Observable(p.Key, p.Value))
	}
	for _, d := range sc.Computed {
		decls = append(decls, reactive.Computed(d.Key, derive(d, get)))
	}

	view, err := reactive.NewObservableObject(decls,
		reactive.WithRuntime(x.rt),
		reactive.WithName(sc.Name),
		reactive.WithEnhancer(enhancer),
	)
	if err != nil {
		return nil, errors.New("S002").
			WithDetail("Cannot build the scenario object").
			Wrap(err)
	}

	for _, rule := range sc.Intercept {
		x.disposer = append(x.disposer, view.Intercept(x.interceptor(rule)))
	}

	stop, err := view.Observe(func(c reactive.Change) {
		x.report.Changes++
		x.emit("change %s", c)
	})
	if err != nil {
		return nil, errors.FromError(err, "S002")
	}
	x.disposer = append(x.disposer, stop)

	for i, w := range sc.Watch {
		x.disposer = append(x.disposer, x.watch(i, w, view))
	}
	return view, nil
}

func (x *run) interceptor(rule Rule) reactive.Interceptor {
	return func(c *reactive.Change) *reactive.Change {
		if reactive.StringifyKey(c.Name) != rule.Key {
			return c
		}
		switch rule.Action {
		case "veto":
			x.report.Vetoes++
			x.emit("veto %s %s", c.Type, rule.Key)
			return nil
		case "replace":
			if c.Type != reactive.ChangeRemove {
				x.emit("replace %s: %v -> %v", rule.Key, c.NewValue, rule.Value)
				c.NewValue = rule.Value
			}
		}
		return c
	}
}

func (x *run) watch(i int, w Watch, view *reactive.DynamicView) reactive.Disposer {
	r := reactive.NewReaction(x.rt, fmt.Sprintf("watch[%d]", i), func() {
		switch w.Kind {
		case OpGet:
			x.emit("watch get %s = %v", w.Key, view.Get(w.Key))
		case OpHas:
			x.emit("watch has %s = %t", w.Key, view.Has(w.Key))
		case OpKeys:
			x.emit("watch keys = %s", formatKeys(view.Keys()))
		}
	})
	r.Run()
	return r.Dispose
}

func (x *run) steps(ctx context.Context, path string, steps []Step) error {
	for i, st := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		at := fmt.Sprintf("%s[%d]", path, i)
		x.report.Steps++
		x.logger.Debug("step", "at", at, "op", st.Op, "key", st.Key)
		if err := x.step(ctx, at, st); err != nil {
			return err
		}
	}
	return nil
}

func (x *run) step(ctx context.Context, at string, st Step) error {
	var err error
	switch st.Op {
	case OpSet:
		err = x.view.Set(st.Key, st.Value)
	case OpDelete:
		err = x.view.Delete(st.Key)
	case OpGet:
		x.emit("get %s = %v", st.Key, x.view.Get(st.Key))
	case OpHas:
		x.emit("has %s = %t", st.Key, x.view.Has(st.Key))
	case OpKeys:
		x.emit("keys = %s", formatKeys(x.view.Keys()))
	case OpTx:
		name := st.Name
		if name == "" {
			name = at
		}
		x.rt.TxNamed(name, func() {
			err = x.steps(ctx, at+".steps", st.Steps)
		})
		return err
	}
	if err != nil {
		return errors.New("S003").
			WithDetail(fmt.Sprintf("%s: %s %s", at, st.Op, st.Key)).
			Wrap(err)
	}
	return nil
}

func formatKeys(keys []reactive.PropertyKey) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = reactive.StringifyKey(k)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// derive builds the compute function of a derived property.
func derive(d Derived, get func(string) any) func() any {
	switch d.Op {
	case "sum":
		return func() any {
			var isum int
			var fsum float64
			float := false
			for _, k := range d.Of {
				switch v := get(k).(type) {
				case int:
					isum += v
				case int64:
					isum += int(v)
				case float64:
					fsum += v
					float = true
				}
			}
			if float {
				return fsum + float64(isum)
			}
			return isum
		}
	default:
		return func() any {
			parts := make([]string, 0, len(d.Of))
			for _, k := range d.Of {
				if v := get(k); !reactive.IsAbsent(v) {
					parts = append(parts, fmt.Sprint(v))
				}
			}
			return strings.Join(parts, " ")
		}
	}
}
