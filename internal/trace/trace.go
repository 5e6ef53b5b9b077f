package trace

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "dca-backtester"

// Version is reported as service.version on every span.
var Version = "dev"

var (
	tracer         trace.Tracer
	tracerProvider *sdktrace.TracerProvider
	traceFile      *os.File
	enabled        bool
)

// Config controls span export.
type Config struct {
	Enabled bool
	// Output receives pretty-printed spans. Nil means stderr, so spans
	// never interleave with the CLI summary on stdout.
	Output io.Writer
	// SampleRatio in (0, 1]; zero means sample everything.
	SampleRatio float64
}

// LoadConfigFromEnv reads LOG_TRACING_ENABLED, LOG_TRACING_FILE and
// LOG_TRACING_SAMPLE_RATIO. A trace file is opened for appending.
func LoadConfigFromEnv() (Config, error) {
	cfg := Config{
		Enabled: getEnv("LOG_TRACING_ENABLED", "false") == "true",
	}
	if v := os.Getenv("LOG_TRACING_SAMPLE_RATIO"); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil || ratio <= 0 || ratio > 1 {
			return cfg, fmt.Errorf("invalid LOG_TRACING_SAMPLE_RATIO %q", v)
		}
		cfg.SampleRatio = ratio
	}
	if path := os.Getenv("LOG_TRACING_FILE"); path != "" && cfg.Enabled {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return cfg, fmt.Errorf("open trace file: %w", err)
		}
		traceFile = f
		cfg.Output = f
	}
	return cfg, nil
}

// Init configures tracing from the environment.
func Init() error {
	cfg, err := LoadConfigFromEnv()
	if err != nil {
		return err
	}
	return InitWithConfig(cfg)
}

// InitWithConfig installs the global tracer provider. With tracing disabled
// StartSpan hands back the caller's span and nothing is exported.
func InitWithConfig(cfg Config) error {
	enabled = cfg.Enabled
	if !enabled {
		return nil
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
	if err != nil {
		enabled = false
		return err
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(Version),
		),
	)
	if err != nil {
		enabled = false
		return err
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tracerProvider)
	tracer = tracerProvider.Tracer(serviceName)
	return nil
}

// Shutdown flushes pending spans and closes the trace file, if any.
func Shutdown(ctx context.Context) error {
	var err error
	if tracerProvider != nil {
		err = tracerProvider.Shutdown(ctx)
		tracerProvider = nil
	}
	if traceFile != nil {
		if cerr := traceFile.Close(); err == nil {
			err = cerr
		}
		traceFile = nil
	}
	enabled = false
	tracer = nil
	return err
}

func StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !enabled || tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName, opts...)
}

// GetTraceFields returns the ids of the span active in ctx.
func GetTraceFields(ctx context.Context) (traceID, spanID string, ok bool) {
	if !enabled {
		return "", "", false
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return "", "", false
	}
	return sc.TraceID().String(), sc.SpanID().String(), true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
