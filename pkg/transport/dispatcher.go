package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultParallelism = 4
)

// Dispatcher turns populated requests into carrier calls. It holds no
// per-request state; a single request must not be queried concurrently.
type Dispatcher struct {
	config      ConfigProvider
	registry    *Registry
	logger      *otelzap.Logger
	tracer      trace.Tracer
	now         func() time.Time
	timeout     time.Duration
	parallelism int
	envOverride func(Snapshot) bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout bounds every remote call. Expiry surfaces as a TransportFault.
func WithTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

// WithClock replaces the clock used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(disp *Dispatcher) {
		disp.now = now
	}
}

// WithTracer sets the tracer used for dispatch spans.
func WithTracer(t trace.Tracer) Option {
	return func(disp *Dispatcher) {
		if t != nil {
			disp.tracer = t
		}
	}
}

// WithParallelism bounds the number of concurrent calls made by QueryAll.
func WithParallelism(n int) Option {
	return func(disp *Dispatcher) {
		if n > 0 {
			disp.parallelism = n
		}
	}
}

// WithEnvironmentOverride lets the host decide the per-request environment
// after it has been set from the global flag. The result is still checked
// against the global flag before any remote call.
func WithEnvironmentOverride(fn func(Snapshot) bool) Option {
	return func(disp *Dispatcher) {
		disp.envOverride = fn
	}
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(config ConfigProvider, registry *Registry, logger *otelzap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		config:      config,
		registry:    registry,
		logger:      logger,
		tracer:      noop.NewTracerProvider().Tracer("transport"),
		now:         time.Now,
		timeout:     defaultTimeout,
		parallelism: defaultParallelism,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ResolveProtocol returns the protocol configured for platform.
func (d *Dispatcher) ResolveProtocol(platform string) (Protocol, PlatformConfig, error) {
	cfg, ok := d.config.PlatformConfig(platform)
	if !ok {
		return "", cfg, NewTransportError(KindUnknownPlatform, "Platform '%s' not configured in your system", platform)
	}
	protocol, ok := ParseProtocol(cfg.Protocol)
	if !ok {
		return "", cfg, NewTransportError(KindUnknownProtocol, "Unknown protocol '%s' for platform '%s'", cfg.Protocol, platform)
	}
	return protocol, cfg, nil
}

// Query validates the boxes, resolves the platform protocol, checks the
// environment and performs the carrier call, recording the exchange on req.
// Adapter failures are recorded on req before being returned.
func (d *Dispatcher) Query(ctx context.Context, req *Request, boxes []Box) (err error) {
	ctx, span := d.tracer.Start(ctx, "transport.Query", trace.WithAttributes(
		attribute.String("transport.request_id", req.ID.String()),
		attribute.String("transport.platform", req.Platform),
		attribute.Int("transport.boxes", len(boxes)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	log := d.logger.Ctx(ctx)

	if err := ValidateBoxes(boxes); err != nil {
		log.Warn("Rejected transport boxes", zap.String("platform", req.Platform), zap.Error(err))
		return err
	}

	global := d.config.GlobalEnvironment()
	req.Real = global

	req.Protocol = ""
	protocol, cfg, err := d.ResolveProtocol(req.Platform)
	if err != nil {
		log.Error("Cannot resolve transport platform", zap.String("platform", req.Platform), zap.Error(err))
		return err
	}
	req.Protocol = protocol
	span.SetAttributes(attribute.String("transport.protocol", string(protocol)))

	if d.envOverride != nil {
		req.Real = d.envOverride(req.Snapshot())
	}
	if req.Real != global {
		err := NewTransportError(KindWrongEnvironment,
			"Wrong environment: this transaction is for '%s' environment and system is set to '%s'",
			EnvironmentLabel(req.Real), EnvironmentLabel(global))
		log.Error("Transport environment mismatch", zap.String("platform", req.Platform), zap.Error(err))
		return err
	}

	adapter, err := d.registry.Get(protocol)
	if err != nil {
		log.Error("No adapter registered", zap.String("protocol", string(protocol)), zap.Error(err))
		return err
	}

	log.Info("Dispatching transport request",
		zap.String("request_id", req.ID.String()),
		zap.String("platform", req.Platform),
		zap.String("protocol", string(protocol)),
		zap.String("environment", req.Environment()),
		zap.Int("box_count", len(boxes)),
	)

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	requestedAt := d.now()
	ex, sendErr := adapter.Send(callCtx, req.Snapshot(), boxes, cfg)
	respondedAt := d.now()

	if sendErr != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(sendErr, ErrTransportFault) {
		sendErr = NewTransportFault(protocol, "", fmt.Sprintf("no answer within %s", d.timeout)).WithCause(sendErr)
	}

	if err := req.recordExchange(ex, requestedAt, respondedAt); err != nil && sendErr == nil {
		sendErr = err
	}
	if sendErr != nil {
		req.markFailed(sendErr)
		log.Error("Transport request failed",
			zap.String("request_id", req.ID.String()),
			zap.String("protocol", string(protocol)),
			zap.String("error_type", Classify(sendErr)),
			zap.Error(sendErr),
		)
		return sendErr
	}
	req.markSucceeded()

	log.Info("Transport request answered",
		zap.String("request_id", req.ID.String()),
		zap.String("reference", req.ReferenceValue()),
		zap.Duration("elapsed", respondedAt.Sub(requestedAt)),
	)
	return nil
}

// Job pairs a request with its boxes for QueryAll.
type Job struct {
	Request *Request
	Boxes   []Box
}

// QueryAll queries several distinct requests concurrently. The returned
// slice holds one error (or nil) per job, in job order. A request that
// appears more than once is rejected with ErrDuplicateRequest and not queried.
func (d *Dispatcher) QueryAll(ctx context.Context, jobs []Job) []error {
	errs := make([]error, len(jobs))
	seen := make(map[*Request]int, len(jobs))
	for i, job := range jobs {
		if job.Request == nil {
			errs[i] = fmt.Errorf("%w: nil request", ErrInvalidRequest)
			continue
		}
		if first, dup := seen[job.Request]; dup {
			errs[i] = fmt.Errorf("%w: job %d repeats job %d", ErrDuplicateRequest, i, first)
			continue
		}
		seen[job.Request] = i
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.parallelism)
	for i, job := range jobs {
		if errs[i] != nil {
			continue
		}
		i, job := i, job
		g.Go(func() error {
			// Each job writes only its own slot.
			errs[i] = d.Query(ctx, job.Request, job.Boxes)
			return nil
		})
	}
	g.Wait()
	return errs
}
