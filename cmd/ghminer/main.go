// Command ghminer harvests the GitHub social graph.
package main

import "github.com/custodia-labs/ghminer/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
