// Package portgraph is the public façade over the reactive port graph. It
// re-exports the core types and bundles a filter registry, a node graph, a
// logger and metrics into a Runtime that a board loader can drive without
// importing internal packages.
package portgraph
