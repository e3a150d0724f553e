// Package api implements the read-only HTTP status API for lightsd.
//
// Endpoints (all under /api/v1):
//   - GET /health   component health (bus, history database, telemetry)
//   - GET /state    the cached device state
//   - GET /history  recent reports and commands from the audit trail
//
// The API never issues commands. Control stays on the local socket.
package api
