// Package server exposes a heater over HTTP for dashboards and home
// automation systems.
//
// # Routes
//
//	GET  /healthz               liveness, always "ok"
//	GET  /api/status            current snapshot (503 until the first fetch)
//	POST /api/refresh           refresh now (502 when the update failed)
//	POST /api/commands/{name}   send a command, e.g. air_on or temp_up
//	GET  /ws                    WebSocket stream of snapshot updates
//	GET  /metrics               Prometheus metrics (when configured)
//
// Command failures map to 400 for an unknown name, 502 for communication
// errors and 500 for API errors. Error bodies are JSON:
//
//	{"error": "Cannot connect: heater not responding (timeout)", "detail": "..."}
//
// # WebSocket stream
//
// Each frame is a JSON Message. A client first receives the current snapshot
// (if one exists) and then one frame per refresh cycle:
//
//	{"type": "snapshot", "snapshot": {...}, "stale": false, "at": "..."}
//	{"type": "error", "error": "Cannot connect to the heater", "at": "..."}
//
// stale is set when the heater could not be reached and the last good
// snapshot was re-published.
//
// # Shutdown
//
// Start blocks until its context ends or SIGINT/SIGTERM arrives, then closes
// open streams and waits up to 10 seconds for in-flight requests.
package server
