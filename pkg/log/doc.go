/*
Package log provides structured logging for kiln built on zerolog.

A single global logger is initialized once at process start via Init and
consumed everywhere through small helpers. Child loggers carry the fields
that matter when reading a provisioning run back out of a log aggregator:
the component, the target ctid, the workflow name, and the per-run id.

Console output (human-readable, colored) is the default for interactive
use; JSON output is available for fleet automation.
*/
package log
