// Package mcp serves the stored graph over the Model Context Protocol so
// assistants can inspect what has been harvested.
package mcp

import "errors"

// ErrMissingInspector is returned when the graph inspector is not provided.
var ErrMissingInspector = errors.New("mcp: graph inspector is required")
