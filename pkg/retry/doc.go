/*
Package retry provides the bounded polling policy shared by kiln's waiters.

A Policy is a plain value {MaxAttempts, Interval}; Do runs a classifier
function under it. There is deliberately no backoff and no jitter: the
consumers are a handful of sequential, human-scale waits (container stopped,
container running, service answering) where a fixed interval is easier to
reason about than an adaptive one.
*/
package retry
