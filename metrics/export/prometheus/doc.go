// Package prometheus exposes jwtauth counters and the verify latency histogram through a
// client_golang Collector.
//
// [NewExporter] wraps a *jwtauth.Service. Register the exporter with your own registry,
// or mount [Exporter.Handler], which serves it from a private registry. Nothing is
// registered globally.
package prometheus
