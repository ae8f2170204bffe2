// Package httpserver runs the admission HTTP API with context-driven graceful
// shutdown, plus liveness and readiness handlers for orchestrators.
package httpserver
