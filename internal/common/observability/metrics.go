package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"venue-finder/internal/common/logger"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	log            logger.Logger

	jobCounter      otelmetric.Int64Counter
	jobDuration     otelmetric.Float64Histogram
	pipelineRuns    otelmetric.Int64Counter
	pipelineLatency otelmetric.Float64Histogram
	filteredSize    otelmetric.Int64Histogram
	events          otelmetric.Int64Counter
}

type options struct {
	registerer     promclient.Registerer
	jaegerEndpoint string
	log            logger.Logger
}

// Option configures New.
type Option func(*options)

// WithRegisterer registers the prometheus exporter on r instead of the
// default registry.
func WithRegisterer(r promclient.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// WithJaegerEndpoint exports spans to the given jaeger collector. Tracing
// stays no-op when the endpoint is empty.
func WithJaegerEndpoint(endpoint string) Option {
	return func(o *options) { o.jaegerEndpoint = endpoint }
}

func WithLogger(log logger.Logger) Option {
	return func(o *options) { o.log = log }
}

func New(serviceName string, opts ...Option) *Observability {
	cfg := options{log: logger.NewNoOpLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	o := &Observability{
		log:    cfg.log,
		tracer: otel.Tracer(serviceName),
	}

	if cfg.jaegerEndpoint != "" {
		tp, err := newTracerProvider(serviceName, cfg.jaegerEndpoint)
		if err != nil {
			cfg.log.Warn("failed to create jaeger exporter", map[string]interface{}{
				"endpoint": cfg.jaegerEndpoint,
				"error":    err.Error(),
			})
		} else {
			o.tracerProvider = tp
			o.tracer = tp.Tracer(serviceName)
		}
	}

	var exporterOpts []prometheus.Option
	if cfg.registerer != nil {
		exporterOpts = append(exporterOpts, prometheus.WithRegisterer(cfg.registerer))
	}
	exporter, err := prometheus.New(exporterOpts...)
	if err != nil {
		cfg.log.Warn("failed to create prometheus exporter", map[string]interface{}{
			"error": err.Error(),
		})
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)
	o.meterProvider = provider
	o.meter = meter

	o.jobCounter, _ = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	o.jobDuration, _ = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	o.pipelineRuns, _ = meter.Int64Counter(
		"finder.pipeline.runs",
		otelmetric.WithDescription("Number of filter pipeline runs"),
	)
	o.pipelineLatency, _ = meter.Float64Histogram(
		"finder.pipeline.duration",
		otelmetric.WithDescription("Filter pipeline duration"),
		otelmetric.WithUnit("ms"),
	)
	o.filteredSize, _ = meter.Int64Histogram(
		"finder.filtered_set.size",
		otelmetric.WithDescription("Venues in each filtered set"),
	)
	o.events, _ = meter.Int64Counter(
		"finder.events",
		otelmetric.WithDescription("Interaction events applied to selection state"),
	)

	return o
}

// StartSpan opens a span on the configured tracer. Without a jaeger
// endpoint the global provider is used, which is a no-op by default.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer("venue-finder")
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordPipelineRun(ctx context.Context, size int, duration time.Duration) {
	if o.pipelineRuns != nil {
		o.pipelineRuns.Add(ctx, 1)
	}
	if o.pipelineLatency != nil {
		o.pipelineLatency.Record(ctx, float64(duration.Microseconds())/1000)
	}
	if o.filteredSize != nil {
		o.filteredSize.Record(ctx, int64(size))
	}
}

func (o *Observability) RecordEvent(ctx context.Context, kind, outcome string) {
	if o.events != nil {
		o.events.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			o.log.Warn("tracer provider shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil {
			o.log.Warn("meter provider shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}
}
