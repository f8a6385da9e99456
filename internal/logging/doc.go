// Package logging wraps log/slog with lectern's handler setup and typed
// attribute helpers.
//
// Key responsibilities:
//   - Constructing loggers from config (level, format, output paths).
//   - A console handler for interactive use and a JSON handler for log files.
//   - Shared field-name constants so stage and component logs stay queryable.
//
// Stage handlers receive component-scoped loggers via NewComponentLogger so
// every record carries the originating subsystem.
package logging
