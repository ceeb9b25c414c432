package mcp

import (
	"github.com/custodia-labs/ghminer/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server reads from.
type Ports struct {
	// Inspector reports on the stored graph.
	Inspector driving.GraphInspector
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Inspector == nil {
		return ErrMissingInspector
	}
	return nil
}
