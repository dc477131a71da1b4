package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	contentGenerations metric.Int64Counter
	nameRetries        metric.Int64Counter
	deploys            metric.Int64Counter
	interactions       metric.Int64Counter
	qrScans            metric.Int64Counter
	qrImages           metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "breakeven"
	}
	meter := provider.Meter(name)

	var (
		m   Metrics
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.contentGenerations, "breakeven_content_generations_total", "Content documents produced, by generation method."},
		{&m.nameRetries, "breakeven_site_name_retries_total", "Site name collisions that forced a retry."},
		{&m.deploys, "breakeven_deploys_total", "Deploy attempts by outcome."},
		{&m.interactions, "breakeven_site_interactions_total", "Accepted callbacks from published sites."},
		{&m.qrScans, "breakeven_qr_scans_total", "Recorded QR scans."},
		{&m.qrImages, "breakeven_qr_images_total", "Generated QR images by style."},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// NewNoop returns instruments bound to a no-op provider. Used by tests and tools.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

func (m *Metrics) RecordContentGeneration(ctx context.Context, method string) {
	if m == nil {
		return
	}
	m.contentGenerations.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("method", method),
	)...))
}

func (m *Metrics) RecordNameRetry(ctx context.Context) {
	if m == nil {
		return
	}
	m.nameRetries.Add(ctx, 1)
}

func (m *Metrics) RecordDeploy(ctx context.Context, outcome, errorClass string) {
	if m == nil {
		return
	}
	m.deploys.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("outcome", outcome),
		attribute.String("error_class", errorClass),
	)...))
}

func (m *Metrics) RecordInteraction(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.interactions.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("kind", kind),
	)...))
}

func (m *Metrics) RecordQRScan(ctx context.Context) {
	if m == nil {
		return
	}
	m.qrScans.Add(ctx, 1)
}

func (m *Metrics) RecordQRImage(ctx context.Context, style, format string) {
	if m == nil {
		return
	}
	m.qrImages.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("style", style),
		attribute.String("format", format),
	)...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

// Owner and site ids are unbounded; they never become labels.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"method":      {},
	"outcome":     {},
	"error_class": {},
	"kind":        {},
	"style":       {},
	"format":      {},
	"route":       {},
	"status_code": {},
	"reason":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
