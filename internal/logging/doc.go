// Package logging configures structured slog output for personalvault.
//
// Commands log to stderr by default. With --debug, JSON logs are also written
// to ~/.personalvault/logs/server.log with size-based rotation. The MCP command
// logs to the file only, since stdout and stderr belong to the protocol.
package logging
