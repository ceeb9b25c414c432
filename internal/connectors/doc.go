// Package connectors groups the remote API clients the harvester reads from.
// Each generation of the GitHub API lives in its own package and satisfies the
// driven ports of that generation.
package connectors
