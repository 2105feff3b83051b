package metrics

import (
	"context"
	"fmt"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var _ Recorder = (*OTelExporter)(nil)

// OTelExporter records webhook metrics with OpenTelemetry and serves them in Prometheus format
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *prom.Registry
	collector     Collector

	meter         metric.Meter
	registrations metric.Int64Counter
	forwards      metric.Int64Counter
	mappings      metric.Int64ObservableGauge
}

// NewOTelExporter creates an exporter backed by its own Prometheus registry
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	registry := prom.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		"webhook-shield",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		registry:      registry,
		collector:     collector,
		meter:         meter,
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.registrations, err = oe.meter.Int64Counter(
		"webhook.registrations",
		metric.WithDescription("Number of destinations protected"),
		metric.WithUnit("{registrations}"),
	)
	if err != nil {
		return fmt.Errorf("creating registrations counter: %w", err)
	}

	oe.forwards, err = oe.meter.Int64Counter(
		"webhook.forwards",
		metric.WithDescription("Number of calls received on substitute URLs by outcome"),
		metric.WithUnit("{forwards}"),
	)
	if err != nil {
		return fmt.Errorf("creating forwards counter: %w", err)
	}

	if oe.collector == nil {
		return nil
	}

	oe.mappings, err = oe.meter.Int64ObservableGauge(
		"webhook.mappings",
		metric.WithDescription("Number of stored identifier to destination mappings"),
		metric.WithUnit("{mappings}"),
		metric.WithInt64Callback(oe.observeMappings),
	)
	if err != nil {
		return fmt.Errorf("creating mappings gauge: %w", err)
	}

	return nil
}

func (oe *OTelExporter) observeMappings(ctx context.Context, observer metric.Int64Observer) error {
	n, err := oe.collector.Count(ctx)
	if err != nil {
		return err
	}
	observer.Observe(n)
	return nil
}

func (oe *OTelExporter) RecordRegistration(ctx context.Context) {
	oe.registrations.Add(ctx, 1)
}

func (oe *OTelExporter) RecordForward(ctx context.Context, outcome string) {
	oe.forwards.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// ServeHTTP returns the handler exposing this exporter's registry
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
