// Package internal contains the implementation packages for abacus.
//
// # Package Organization
//
// The client side, used by the CLI:
//
//   - buffer: the expression being typed and its input rules
//   - mode: standard and scientific modes plus the selector
//   - prefs: the persisted mode preference, with file watching
//   - client: HTTP client for the evaluation and history endpoints
//   - session: ties buffer, selector and client into one calculator screen
//   - keymap: maps key names to session actions
//
// The reference service, used by `abacus serve`:
//
//   - evaluator: the restricted arithmetic expression evaluator
//   - store: history persistence in memory or SQLite
//   - server: request handlers and the rendered calculator page
//   - http: routing and server lifecycle
//   - middleware: request id, access log, recovery and CORS
//   - websocket: history_updated notifications
//
// Shared by both:
//
//   - api: wire types
//   - config: configuration loading and validation
//   - errors: structured errors and the error handler
//   - logging: structured logging on log/slog
//   - validation: URL, origin and path checks
//   - version: build information
package internal
