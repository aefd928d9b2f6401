/*
Package health implements the bounded-retry probe that gates provisioning
success.

The prober issues one synchronous HTTP GET per attempt. A connection-level
failure means the service has not come up yet; a non-200 answer means it is
up but not ready. Both retry. Only an exact HTTP 200 succeeds. When the
attempt budget is exhausted the prober pulls the service's recent logs
through its Diagnostics hook and fails terminally.
*/
package health
