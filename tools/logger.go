// Package tools provides shared ambient utilities for the HTTP wire
// binding: structured logging, request middleware, and the mapping from
// domain errors (bedqerr) to HTTP status codes and structured API error
// bodies. It follows the teacher's own tools package (atomicbase
// api/tools) role for role.
package tools

import (
	"log/slog"
	"os"
)

// Logger is the process-wide structured logger, matching the teacher's
// own slog.NewJSONHandler setup (atomicbase api/tools/logger.go).
var Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
