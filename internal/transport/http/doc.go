// Package http serves the status endpoint of a running snapcli command.
//
// The router is only started when telemetry.metrics_addr is set. It exposes
//
//	GET /health   liveness and version
//	GET /metrics  the Prometheus exporter of the OpenTelemetry meter provider
//	GET /status   the run report collected so far, as JSON
//
// Handlers stay thin: the run state comes from a StatusProvider (the
// operations manager) and errors are rendered as errors.ErrorResponse.
package http
