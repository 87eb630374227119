/*
Package observability turns page lifecycle events into Prometheus metrics and
structured log records.

Both are delivered as domain.LifecycleHooks, so several consumers can be
combined with Chain and handed to the lifecycle as one set of hooks.
*/
package observability
