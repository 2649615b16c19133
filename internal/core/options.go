package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Logger is the structured logging surface used by the engine. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MetricsRecorder observes operation outcomes.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// TraceSpan ends a traced operation.
type TraceSpan interface {
	End(err error)
}

// Tracer starts spans around engine operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type noopTracer struct{}

type noopSpan struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

func (noopSpan) End(error) {}

// AuditStatus is the outcome recorded for an apply cycle.
type AuditStatus string

const (
	AuditStatusCommitted AuditStatus = "committed"
	AuditStatusCancelled AuditStatus = "cancelled"
	AuditStatusError     AuditStatus = "error"
)

// AuditEntry describes one apply cycle.
type AuditEntry struct {
	Action        string
	Status        AuditStatus
	CommandsCount int
	NodesTouched  int
	EdgesTouched  int
	CancelledBy   string
	Error         string
	Timestamp     time.Time
}

// AuditRecorder receives one entry per apply cycle.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// IDGenerator mints ids for entities created by commands.
type IDGenerator func() string

func newUUID() string { return uuid.NewString() }

// ZoomBounds limits the viewport scale.
type ZoomBounds struct {
	Min float64
	Max float64
}

// Clamp returns scale limited to the bounds.
func (b ZoomBounds) Clamp(scale float64) float64 {
	if b.Min > 0 && scale < b.Min {
		return b.Min
	}
	if b.Max > 0 && scale > b.Max {
		return b.Max
	}
	return scale
}

type engineOptions struct {
	logger             Logger
	metrics            MetricsRecorder
	tracer             Tracer
	audit              AuditRecorder
	clock              Clock
	ids                IDGenerator
	fanOut             int
	zIndex             ZIndexConfig
	zoom               ZoomBounds
	batchWindow        time.Duration
	pasteOffset        float64
	defaultMiddlewares bool
	middlewares        []Middleware
}

// Option configures an Engine.
type Option func(*engineOptions)

func defaultEngineOptions() engineOptions {
	return engineOptions{
		logger:             noopLogger{},
		metrics:            noopMetricsRecorder{},
		tracer:             noopTracer{},
		audit:              noopAuditRecorder{},
		clock:              ClockFunc(func() time.Time { return time.Now().UTC() }),
		ids:                newUUID,
		fanOut:             1,
		zIndex:             DefaultZIndexConfig(),
		zoom:               ZoomBounds{Min: 0.1, Max: 10},
		pasteOffset:        20,
		defaultMiddlewares: true,
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger Logger) Option {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetricsRecorder sets the metrics recorder.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(o *engineOptions) {
		if rec != nil {
			o.metrics = rec
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer Tracer) Option {
	return func(o *engineOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithAuditRecorder sets the audit recorder.
func WithAuditRecorder(rec AuditRecorder) Option {
	return func(o *engineOptions) {
		if rec != nil {
			o.audit = rec
		}
	}
}

// WithClock sets the clock used for audit timestamps.
func WithClock(clock Clock) Option {
	return func(o *engineOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithIDGenerator overrides uuid-based id generation.
func WithIDGenerator(gen IDGenerator) Option {
	return func(o *engineOptions) {
		if gen != nil {
			o.ids = gen
		}
	}
}

// WithFanOutLimit bounds how many listeners of one command run at once.
func WithFanOutLimit(limit int) Option {
	return func(o *engineOptions) {
		o.fanOut = limit
	}
}

// WithZIndexConfig sets the default z-index slice.
func WithZIndexConfig(cfg ZIndexConfig) Option {
	return func(o *engineOptions) {
		o.zIndex = cfg
	}
}

// WithZoomBounds sets the viewport scale limits.
func WithZoomBounds(minScale, maxScale float64) Option {
	return func(o *engineOptions) {
		o.zoom = ZoomBounds{Min: minScale, Max: maxScale}
	}
}

// WithBatchWindow sets how long measurement updates accumulate before flushing.
func WithBatchWindow(window time.Duration) Option {
	return func(o *engineOptions) {
		o.batchWindow = window
	}
}

// WithPasteOffset sets the offset applied to pasted entities without a target position.
func WithPasteOffset(offset float64) Option {
	return func(o *engineOptions) {
		o.pasteOffset = offset
	}
}

// WithoutDefaultMiddlewares skips registering the z-index middlewares.
func WithoutDefaultMiddlewares() Option {
	return func(o *engineOptions) {
		o.defaultMiddlewares = false
	}
}

// WithMiddlewares registers mws after the defaults, in order.
func WithMiddlewares(mws ...Middleware) Option {
	return func(o *engineOptions) {
		o.middlewares = append(o.middlewares, mws...)
	}
}
