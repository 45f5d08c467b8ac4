// Package telemetry wraps OpenTelemetry SDK initialization, providing a
// single place to configure the TracerProvider and MeterProvider. When
// telemetry is disabled the globals stay noop and no external service is
// contacted.
package telemetry
