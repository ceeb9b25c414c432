package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ghminer/internal/core/domain"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the vertex kinds of the graph schema",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, kind := range domain.AllVertexTypes() {
			cmd.Println(kind)
		}
	},
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}
