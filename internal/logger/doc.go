// Package logger provides a structured logging solution using the Zap logging library.
// It includes utilities for creating and managing loggers, setting log levels,
// and integrating logging with context for enhanced traceability.
// Context-carried fields are written to the optional rotating log file only:
// console output is what the user reads.
package logger
