// Package metrics builds the Prometheus registry and /metrics handler for the
// canvas server.
//
// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors; components register their own collectors on it. Handler serves
// the registry through promhttp, which negotiates the exposition format from
// the Accept header (text by default). Nothing is registered on the global
// default registry.
package metrics
