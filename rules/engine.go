package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	libcel "github.com/libdbm/libcel-go"
	"github.com/libdbm/libcel-go/observability"
)

// Engine evaluates stored rules by name, compiling lazily and caching
// compiled programs. It is safe for concurrent use; under contention the
// same rule may compile more than once, with identical results.
type Engine struct {
	id      string
	store   Store
	reg     libcel.Registry
	logger  *slog.Logger
	spans   observability.SpanManager
	metrics observability.MetricsRecorder

	mu       sync.RWMutex
	programs map[string]*libcel.Program // keyed by rule name
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger for the engine.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRegistry sets the function registry used when compiling rules.
// Default: the standard builtin registry.
func WithRegistry(reg libcel.Registry) EngineOption {
	return func(e *Engine) {
		e.reg = reg
	}
}

// WithSpanManager sets the span manager for tracing.
// Default: observability.NoopSpanManager{}
func WithSpanManager(spans observability.SpanManager) EngineOption {
	return func(e *Engine) {
		e.spans = spans
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics{}
func WithMetrics(metrics observability.MetricsRecorder) EngineOption {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// NewEngine creates an engine over the given store.
//
// Example:
//
//	store := rules.NewMemoryStore()
//	eng := rules.NewEngine(store,
//	    rules.WithLogger(myLogger),
//	    rules.WithSpanManager(observability.NewSpanManager()))
func NewEngine(store Store, opts ...EngineOption) *Engine {
	e := &Engine{
		id:       "eng-" + uuid.New().String()[:8],
		store:    store,
		logger:   slog.Default(),
		spans:    observability.NoopSpanManager{},
		metrics:  observability.NoopMetrics{},
		programs: make(map[string]*libcel.Program),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ID returns the engine identifier, used to tag log records.
func (e *Engine) ID() string {
	return e.id
}

// Evaluate evaluates the named rule against the given bindings.
// The rule is fetched from the store and compiled on first use; later
// evaluations reuse the cached program until Invalidate is called.
func (e *Engine) Evaluate(ctx context.Context, name string, bindings map[string]libcel.Value) (libcel.Value, error) {
	prog, err := e.program(ctx, name)
	if err != nil {
		return libcel.Value{}, err
	}

	start := time.Now()
	evalCtx, span := e.spans.StartEvalSpan(ctx, name)

	result, err := prog.Evaluate(bindings)

	duration := time.Since(start)
	durationMs := float64(duration.Milliseconds())
	e.spans.EndSpanWithError(span, err)
	e.metrics.RecordEvaluation(evalCtx, name, duration, err)

	if err != nil {
		observability.LogEvaluationError(e.logger, name, err, durationMs)
		return libcel.Value{}, fmt.Errorf("rule %q: %w", name, err)
	}
	observability.LogEvaluation(e.logger, name, libcel.FormatValue(result), durationMs)
	return result, nil
}

// EvaluateAll evaluates every stored rule against the given bindings and
// returns the names of the rules that produced boolean true, in name
// order. Rules that fail to compile or evaluate, or that produce a
// non-boolean result, do not match; their errors are logged but do not
// abort the sweep. The returned error reports store failures only.
func (e *Engine) EvaluateAll(ctx context.Context, bindings map[string]libcel.Value) ([]string, error) {
	all, err := e.store.List()
	if err != nil {
		observability.LogStoreError(e.logger, "list", "", err)
		return nil, fmt.Errorf("list rules: %w", err)
	}

	var matched []string
	for _, rule := range all {
		result, err := e.Evaluate(ctx, rule.Name, bindings)
		if err != nil {
			continue
		}
		if libcel.Equal(result, libcel.Bool(true)) {
			matched = append(matched, rule.Name)
		}
	}
	return matched, nil
}

// Invalidate drops the cached program for a rule. Hosts that mutate the
// store must call this (or Reset) for changed rules to take effect.
func (e *Engine) Invalidate(name string) {
	e.mu.Lock()
	delete(e.programs, name)
	e.mu.Unlock()
}

// Reset drops all cached programs.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.programs = make(map[string]*libcel.Program)
	e.mu.Unlock()
}

// program returns the compiled program for a rule, fetching and
// compiling it if not cached.
func (e *Engine) program(ctx context.Context, name string) (*libcel.Program, error) {
	e.mu.RLock()
	prog, ok := e.programs[name]
	e.mu.RUnlock()
	if ok {
		return prog, nil
	}

	rule, err := e.store.Get(name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			observability.LogStoreError(e.logger, "get", name, err)
		}
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}

	return e.compile(ctx, rule)
}

// compile parses a rule's expression and caches the program.
func (e *Engine) compile(ctx context.Context, rule Rule) (*libcel.Program, error) {
	start := time.Now()
	_, span := e.spans.StartCompileSpan(ctx, rule.Name)

	var opts []libcel.Option
	if e.reg != nil {
		opts = append(opts, libcel.WithRegistry(e.reg))
	}
	prog, err := libcel.Compile(rule.Expr, opts...)

	duration := time.Since(start)
	e.spans.EndSpanWithError(span, err)
	e.metrics.RecordCompile(ctx, rule.Name, duration, err)

	if err != nil {
		observability.LogCompileError(e.logger, rule.Name, err)
		return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
	}
	observability.LogCompile(e.logger, rule.Name, float64(duration.Milliseconds()))

	e.mu.Lock()
	e.programs[rule.Name] = prog
	e.mu.Unlock()

	return prog, nil
}
