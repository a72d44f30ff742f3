// Package logger provides structured logging for remotectl.
//
// This package wraps zap for structured logging:
//
//   - logger.go: Logger interface, level control, package-level helpers
//   - zap.go: zap core construction (console/JSON encoders, lumberjack rotation)
//   - context.go: Context-aware logging with session IDs
//   - redact.go: Masking of credentials embedded in server addresses
//
// Features:
//
//   - JSON and console output formats
//   - Optional rotated log file alongside the console stream
//   - Runtime log level changes (config reload)
//   - Automatic sensitive data masking
package logger
