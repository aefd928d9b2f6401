/*
Package metrics provides Prometheus instrumentation for kiln.

Collectors cover the run level (runs by workflow and result), the stage
level (durations, idempotent skips, failures by taxonomy kind), and the
health prober (attempts by outcome). A single-shot run does not need a
scrape endpoint, so serving /metrics is opt-in via the metrics address
setting.
*/
package metrics
