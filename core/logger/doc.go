// Package logger is a standardized event logging framework for the shell.
//
// Events are protobuf Struct values written one per line as JSON so they can
// be tailed, grepped and aggregated with Report.
package logger
