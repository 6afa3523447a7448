// Package otel publishes jwtauth counters through an OpenTelemetry Meter.
//
// Each counter becomes an Int64ObservableCounter. The verify latency histogram is
// flattened into one cumulative Int64ObservableGauge per bucket plus a count gauge,
// since observable instruments cannot report histograms. One callback reads
// [jwtauth.Service.MetricsSnapshot] per collection. The caller owns the MeterProvider.
package otel
