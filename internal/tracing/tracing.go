// Package tracing sets up an OpenTelemetry tracer provider exporting over
// OTLP/gRPC as a start/stop lifecycle component. The investigation core
// does not create spans of its own.
package tracing

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/fourkites/rca-core/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// Provider wraps an OpenTelemetry TracerProvider as a start/stop lifecycle
// component.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	logger         *logging.Logger
	enabled        bool
}

// Config holds tracing configuration.
type Config struct {
	Enabled     bool
	Endpoint    string
	TLSCAPath   string
	TLSInsecure bool
}

// NewProvider creates and initializes the tracing provider. When disabled it
// returns a no-op provider so callers never need to branch on cfg.Enabled.
func NewProvider(cfg Config) (*Provider, error) {
	logger := logging.GetLogger("tracing")

	if !cfg.Enabled {
		logger.Info("tracing disabled")
		return &Provider{logger: logger, enabled: false}, nil
	}

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("tracing enabled but endpoint not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var dialOptions []grpc.DialOption
	var otlpOptions []otlptracegrpc.Option

	switch {
	case cfg.TLSInsecure:
		tlsConfig := &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12} //nolint:gosec
		dialOptions = append(dialOptions, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
		logger.Info("tracing TLS verification disabled (insecure mode)")
	case cfg.TLSCAPath != "":
		caCert, err := os.ReadFile(cfg.TLSCAPath)
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}
		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("append CA certificate to pool")
		}
		creds := credentials.NewTLS(&tls.Config{RootCAs: certPool, MinVersion: tls.VersionTLS12})
		dialOptions = append(dialOptions, grpc.WithTransportCredentials(creds))
		logger.Info("tracing TLS enabled with CA from %s", cfg.TLSCAPath)
	default:
		dialOptions = append(dialOptions, grpc.WithTransportCredentials(insecure.NewCredentials()))
		otlpOptions = append(otlpOptions, otlptracegrpc.WithInsecure())
		logger.Info("tracing TLS disabled (plaintext)")
	}

	otlpOptions = append(otlpOptions,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithDialOption(dialOptions...),
	)

	exporter, err := otlptracegrpc.New(ctx, otlpOptions...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName("rca-core"),
		semconv.ServiceVersion("0.1.0"),
	))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tracerProvider)

	logger.Info("tracing initialized with endpoint %s", cfg.Endpoint)
	return &Provider{tracerProvider: tracerProvider, logger: logger, enabled: true}, nil
}

func (p *Provider) Start(_ context.Context) error {
	p.logger.Info("tracing provider started (enabled=%v)", p.enabled)
	return nil
}

func (p *Provider) Stop(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		p.logger.Error("shutting down tracer provider: %v", err)
		return err
	}
	return nil
}

func (p *Provider) Name() string { return "tracing provider" }

// GetTracer returns a tracer for instrumenting a component.
func (p *Provider) GetTracer(name string) trace.Tracer {
	return otel.GetTracerProvider().Tracer(name)
}

// IsEnabled reports whether export is configured.
func (p *Provider) IsEnabled() bool { return p.enabled }
