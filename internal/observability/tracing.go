package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/airspace-simulator/internal/logging"
)

const (
	defaultServiceName  = "airspace-simulator"
	defaultOTLPEndpoint = "localhost:4317"
)

// RunInfo describes the simulation a tracer provider serves. It becomes the
// provider's resource, so every exported span carries it.
type RunInfo struct {
	Seed       int64
	Scenario   string // file path, empty for the generated game
	Controller string
	Ticks      int
	Timestep   float64 // seconds
	RealTime   bool
}

func (r RunInfo) attributes() []attribute.KeyValue {
	scenario := r.Scenario
	if scenario == "" {
		scenario = "generated"
	}
	return []attribute.KeyValue{
		attribute.Int64("sim.seed", r.Seed),
		attribute.String("sim.scenario", scenario),
		attribute.String("sim.controller", r.Controller),
		attribute.Int("sim.ticks", r.Ticks),
		attribute.Float64("sim.timestep_s", r.Timestep),
		attribute.Bool("sim.realtime", r.RealTime),
	}
}

// TracingConfig governs how simulator tracing is initialised.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string // stdout | otlp
	Endpoint    string // otlp only
	// SampleRatio is the fraction of runs traced. A run is one trace, so
	// ratios between 0 and 1 keep or drop whole runs.
	SampleRatio float64

	Run RunInfo

	// Writer receives stdout-exporter output. Nil means os.Stderr, away from
	// the score report.
	Writer io.Writer
}

// TracingConfigFromEnv reads SIM_TRACING_ENABLED, SIM_TRACING_EXPORTER,
// SIM_TRACING_SERVICE_NAME, SIM_TRACING_SAMPLE_RATIO and SIM_OTLP_ENDPOINT.
// Run is left for the caller.
func TracingConfigFromEnv() TracingConfig {
	cfg := TracingConfig{
		Enabled:     strings.EqualFold(os.Getenv("SIM_TRACING_ENABLED"), "true"),
		ServiceName: os.Getenv("SIM_TRACING_SERVICE_NAME"),
		Exporter:    strings.ToLower(os.Getenv("SIM_TRACING_EXPORTER")),
		Endpoint:    os.Getenv("SIM_OTLP_ENDPOINT"),
		SampleRatio: 1,
	}
	if raw := os.Getenv("SIM_TRACING_SAMPLE_RATIO"); raw != "" {
		if r, err := strconv.ParseFloat(raw, 64); err == nil && r >= 0 && r <= 1 {
			cfg.SampleRatio = r
		}
	}
	return cfg
}

// Sampler maps SampleRatio onto a sampler. Full and zero ratios skip the
// trace-ID hash.
func (c TracingConfig) Sampler() sdktrace.Sampler {
	switch {
	case c.SampleRatio >= 1:
		return sdktrace.AlwaysSample()
	case c.SampleRatio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SampleRatio))
	}
}

// NewTracerProvider builds a provider whose resource describes cfg.Run and
// whose spans go to the configured exporter. extra options are appended,
// so tests can add span processors.
func NewTracerProvider(ctx context.Context, cfg TracingConfig, extra ...sdktrace.TracerProviderOption) (*sdktrace.TracerProvider, error) {
	exp, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	service := cfg.ServiceName
	if service == "" {
		service = defaultServiceName
	}
	attrs := append([]attribute.KeyValue{
		attribute.String("service.name", service),
		attribute.String("service.namespace", "airspace"),
	}, cfg.Run.attributes()...)
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	opts := append([]sdktrace.TracerProviderOption{
		sdktrace.WithSampler(cfg.Sampler()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	}, extra...)
	return sdktrace.NewTracerProvider(opts...), nil
}

// InitTracing installs the global tracer provider described by cfg and
// returns its shutdown function. Disabled tracing installs a noop provider.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		log.Debug(ctx, "tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	tp, err := NewTracerProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	log.Info(ctx, "tracing enabled",
		logging.String("exporter", exporterName(cfg.Exporter)),
		logging.String("sampler", cfg.Sampler().Description()),
		logging.Any("seed", cfg.Run.Seed),
	)
	return tp.Shutdown, nil
}

func exporterName(s string) string {
	if s == "" {
		return "stdout"
	}
	return strings.ToLower(s)
}

func newExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch exporterName(cfg.Exporter) {
	case "stdout":
		w := cfg.Writer
		if w == nil {
			w = os.Stderr
		}
		return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithoutTimestamps())
	case "otlp", "otlpgrpc":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = defaultOTLPEndpoint
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		))
	default:
		return nil, fmt.Errorf("unsupported tracing exporter %q", cfg.Exporter)
	}
}

// ShutdownWithTimeout flushes spans within five seconds. Failures are
// logged, not returned.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}
