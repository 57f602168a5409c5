// Package logging provides structured logging for CAN-FIX tools.
//
// This package wraps a global zap logger with convenience functions. Logging
// is silent until Initialize is called with a level or CANFIX_LOG_LEVEL is
// set, so library users see no output by default.
//
// # Log Levels
//
//   - Debug: every frame on the bus, hook invocations
//   - Info: node identity changes, connections, configuration writes
//   - Warn: malformed frames, dropped clients
//   - Error: transport failures
//
// # Frame Logging
//
//	logging.LogFrame("rx", frame)
//
// LogFrame skips field construction entirely when debug is disabled.
package logging
