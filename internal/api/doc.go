// Package api implements the HTTP API and WebSocket server of the iotinator master.
//
// This package provides:
//   - Agent endpoints: register, refresh, list, ping sweep, reset sweep
//   - A WebSocket hub streaming display lines to operator consoles
//   - Health, metrics, display and audit endpoints for operators
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Agent protocol
//
// Agents post raw JSON bodies to /api/register and /api/refresh. The
// responses keep the shape agent firmware expects: a body that does not
// decode gets 500 with "{}", any other failure gets 200 with "{}".
// Registration is unauthenticated.
//
// # Graceful Degradation
//
// MQTT, the audit database and the display screen are optional. Endpoints
// that need a missing component answer 503; everything else keeps working.
package api
