// Package server exposes the answer stream over HTTP.
//
// Routes:
//
//	POST /api/chat                      {query, category?, session_id?} -> text/event-stream
//	GET  /api/sessions/{id}/messages    recorded history of a session (when configured)
//	GET  /health                        {"status":"ok"}
//
// The chat stream is a sequence of "data: <json>" lines separated by blank
// lines: one sources event, zero or more token events, and a literal
// "data: [DONE]" terminator. A failure after the stream has started is sent
// as an error event before the terminator.
package server
