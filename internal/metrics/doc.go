/*
Package metrics provides Prometheus-based metrics collection for the
service, covering HTTP, model backends, pipeline stages, academic
sources, cache and database.

# Overview

The Collector registers every metric through promauto under a single
namespace, so callers never touch a Registry directly. Metrics are
grouped by concern and labeled for dashboard drill-down.

# Metrics

  - HTTP: request totals and latency by method/path, status classed as
    2xx/3xx/4xx/5xx.
  - Model backends: request totals, latency and token usage
    (prompt/completion) by provider/model.
  - Pipeline: stage execution totals and duration by stage/status.
  - Sources: search totals, latency and result counts by source.
  - Cache: hit and miss counters by cache type.
  - Database: open/idle connection gauges.
*/
package metrics
