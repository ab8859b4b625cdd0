// Package logx wraps zerolog behind a small structured logging API.
//
// A Service owns the configured sinks (console, JSON file) and can re-apply
// configuration at runtime; Loggers handed out earlier keep working and pick
// up the new sinks/levels transparently.
package logx
