// Package services implements the driving port interfaces.
//
// The Harvester sequences one harvesting pass over the configured projects,
// users and organizations, consulting a StalenessPolicy before every
// per-item fetch. Services only talk to driven ports; the throttled remote
// clients and the graph store are injected by the caller.
//
// The InspectService answers read-only questions about the stored graph for
// the status command and the MCP server.
package services
