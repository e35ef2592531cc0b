package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/qplayer/tokenauth"
	"github.com/qplayer/tokenauth/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() tokenauth.MetricsSnapshot
	AuditDropped() uint64
}

// counterFamily is one observable counter; options[i] carries the attributes
// of the family's i-th sample.
type counterFamily struct {
	instrument metric.Int64ObservableCounter
	options    [][]metric.ObserveOption
}

type latencyHistogram struct {
	id      tokenauth.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter reports engine metrics on each collection of the Meter's
// provider. Close unregisters the callback.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []counterFamily
	histograms   []latencyHistogram
}

// NewOTelExporter registers instruments on meter that read engine.
func NewOTelExporter(meter metric.Meter, engine *tokenauth.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	var observables []metric.Observable

	// An empty snapshot yields every family and sample in export order.
	for _, fam := range internaldefs.Counters(tokenauth.MetricsSnapshot{}, 0) {
		ins, err := meter.Int64ObservableCounter(fam.Name, metric.WithDescription(fam.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", fam.Name, err)
		}
		cf := counterFamily{instrument: ins, options: make([][]metric.ObserveOption, len(fam.Samples))}
		for i, s := range fam.Samples {
			cf.options[i] = labelOptions(s.Label)
		}
		e.counters = append(e.counters, cf)
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		buckets, err := meter.Int64ObservableGauge(def.Name+"_bucket",
			metric.WithDescription(def.Help+" Cumulative count per upper bound."))
		if err != nil {
			return nil, fmt.Errorf("create histogram bucket gauge %s: %w", def.Name, err)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count",
			metric.WithDescription(def.Help+" Total samples."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", def.Name, err)
		}
		e.histograms = append(e.histograms, latencyHistogram{id: def.ID, buckets: buckets, count: count})
		observables = append(observables, buckets, count)
	}

	registration, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	for i, fam := range internaldefs.Counters(snapshot, e.source.AuditDropped()) {
		cf := e.counters[i]
		for j, s := range fam.Samples {
			o.ObserveInt64(cf.instrument, int64(s.Value), cf.options[j]...)
		}
	}

	for _, h := range e.histograms {
		if _, ok := snapshot.Histograms[h.id]; !ok {
			continue
		}
		buckets := internaldefs.LatencyBuckets(snapshot, h.id)
		for i, le := range internaldefs.HistogramBounds {
			o.ObserveInt64(h.buckets, int64(buckets[i]),
				metric.WithAttributes(attribute.String(internaldefs.BucketLabel, le)))
		}
		o.ObserveInt64(h.count, int64(buckets[len(buckets)-1]))
	}
	return nil
}

func labelOptions(l internaldefs.Label) []metric.ObserveOption {
	if l.Name == "" {
		return nil
	}
	return []metric.ObserveOption{metric.WithAttributes(attribute.String(l.Name, l.Value))}
}

func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
