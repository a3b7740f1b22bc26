// Package metrics defines the OpenTelemetry instruments used across the
// research pipeline and sets up the meter provider that exports them.
//
// Every recording method is safe to call on a nil *Instruments, so
// components can treat metrics as optional.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const scopeName = "github.com/Acid-base/researcher"

// Instrument names.
const (
	NameFetchRequests      = "researcher.fetch.requests"
	NameFetchFailures      = "researcher.fetch.failures"
	NameChunksIndexed      = "researcher.index.chunks_indexed"
	NameIndexLoadFailures  = "researcher.index.load_failures"
	NamePersistFailures    = "researcher.index.persist_failures"
	NameRetrievalFailures  = "researcher.index.retrieval_failures"
	NameRetrievalDuration  = "researcher.index.retrieval_duration"
	NameReportsGenerated   = "researcher.report.generated"
	NameDocumentsExtracted = "researcher.extract.documents"
)

// Instruments holds the counters and histograms recorded by the pipeline.
type Instruments struct {
	fetchRequests      metric.Int64Counter
	fetchFailures      metric.Int64Counter
	chunksIndexed      metric.Int64Counter
	indexLoadFailures  metric.Int64Counter
	persistFailures    metric.Int64Counter
	retrievalFailures  metric.Int64Counter
	retrievalDuration  metric.Float64Histogram
	reportsGenerated   metric.Int64Counter
	documentsExtracted metric.Int64Counter
}

// New creates the instruments from the given meter provider. A nil
// provider uses the global one.
func New(mp metric.MeterProvider) (*Instruments, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(scopeName)

	var errs []error
	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		errs = append(errs, err)
		return c
	}

	inst := &Instruments{
		fetchRequests:      counter(NameFetchRequests, "URLs fetched", "{request}"),
		fetchFailures:      counter(NameFetchFailures, "URL fetches that produced no content", "{request}"),
		chunksIndexed:      counter(NameChunksIndexed, "Chunks added to the vector index", "{chunk}"),
		indexLoadFailures:  counter(NameIndexLoadFailures, "Index archives that failed to load and were replaced by an empty index", "{event}"),
		persistFailures:    counter(NamePersistFailures, "Index persist attempts that failed", "{event}"),
		retrievalFailures:  counter(NameRetrievalFailures, "Retrieval queries that failed in the index backend", "{query}"),
		reportsGenerated:   counter(NameReportsGenerated, "Reports synthesized", "{report}"),
		documentsExtracted: counter(NameDocumentsExtracted, "Source documents extracted", "{document}"),
	}

	hist, err := meter.Float64Histogram(NameRetrievalDuration,
		metric.WithDescription("Retrieval query duration"),
		metric.WithUnit("ms"))
	errs = append(errs, err)
	inst.retrievalDuration = hist

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("creating instruments: %w", err)
	}
	return inst, nil
}

// Nop returns instruments backed by a no-op meter provider.
func Nop() *Instruments {
	inst, _ := New(noop.NewMeterProvider())
	return inst
}

// FetchDone records one fetch attempt and whether it failed.
func (i *Instruments) FetchDone(ctx context.Context, sourceType string, failed bool, reason string) {
	if i == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source_type", sourceType))
	i.fetchRequests.Add(ctx, 1, attrs)
	if failed {
		i.fetchFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source_type", sourceType),
			attribute.String("reason", reason),
		))
	}
}

// DocumentExtracted records one extracted source document.
func (i *Instruments) DocumentExtracted(ctx context.Context, sourceType string) {
	if i == nil {
		return
	}
	i.documentsExtracted.Add(ctx, 1, metric.WithAttributes(attribute.String("source_type", sourceType)))
}

// ChunksIndexed records n chunks added to the index.
func (i *Instruments) ChunksIndexed(ctx context.Context, n int) {
	if i == nil || n <= 0 {
		return
	}
	i.chunksIndexed.Add(ctx, int64(n))
}

// IndexLoadFailed records an index archive that could not be loaded.
func (i *Instruments) IndexLoadFailed(ctx context.Context) {
	if i == nil {
		return
	}
	i.indexLoadFailures.Add(ctx, 1)
}

// PersistFailed records a failed index persist.
func (i *Instruments) PersistFailed(ctx context.Context) {
	if i == nil {
		return
	}
	i.persistFailures.Add(ctx, 1)
}

// RetrievalDone records the duration of a retrieval and whether it failed.
func (i *Instruments) RetrievalDone(ctx context.Context, d time.Duration, failed bool) {
	if i == nil {
		return
	}
	i.retrievalDuration.Record(ctx, float64(d.Microseconds())/1000.0)
	if failed {
		i.retrievalFailures.Add(ctx, 1)
	}
}

// ReportGenerated records one synthesized report.
func (i *Instruments) ReportGenerated(ctx context.Context, provider string) {
	if i == nil {
		return
	}
	i.reportsGenerated.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

// Config controls exporter setup.
type Config struct {
	// Endpoint is the OTLP/HTTP endpoint URL. Empty disables export.
	Endpoint    string
	ServiceName string
	Interval    time.Duration
}

// Setup installs a global meter provider. With an empty endpoint it
// installs nothing and returns a no-op shutdown.
func Setup(ctx context.Context, cfg Config) (metric.MeterProvider, func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		return noop.NewMeterProvider(), func(context.Context) error { return nil }, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "researcher"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("building resource: %w", err)
	}

	exp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return nil, nil, fmt.Errorf("creating otlp exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.Interval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, mp.Shutdown, nil
}
