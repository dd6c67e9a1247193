// Package probe serves the standard gRPC health service so orchestrators can
// check the canvas server without speaking WebSocket.
//
// Both the overall status ("") and ServiceName report SERVING from New until
// SetServing(false) or Shutdown. Every unary call is logged at debug level.
package probe
