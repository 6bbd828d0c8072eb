// Package metrics exposes the Prometheus collectors used by the portgraph
// core (ports, filters and the node graph). Collectors are registered on a
// caller-supplied registerer; a nil *Metrics is valid and records nothing, so
// the core runs unchanged without instrumentation.
package metrics
