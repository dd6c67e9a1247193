// Package config loads the canvas server configuration.
//
// Sources, lowest precedence first:
//   - built-in defaults (0.0.0.0:3000, 500x500 canvas, hub buffer 100)
//   - the YAML file passed to Load, if any
//   - a .env file in the working directory, if present
//   - CANVAS_* environment variables (CANVAS_HOST, CANVAS_PORT, CANVAS_WIDTH, ...)
//
// The merged result is validated before Load returns. Watch re-runs Load
// whenever the file changes so the server can pick up a new log level without
// a restart.
package config
