package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ghminer/internal/adapters/driven/storage"
	"github.com/custodia-labs/ghminer/internal/core/domain"
	"github.com/custodia-labs/ghminer/internal/core/ports/driving"
	"github.com/custodia-labs/ghminer/internal/core/services"
)

var statusProject string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how fresh the stored graph is",
	Long: `Shows the number of stored vertices per kind and, for each configured
project, how many issues, pull requests and project users are due for a
refresh under the current harvest.refresh_days.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusProject, "project", "p", "", "only report on this owner/name project")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	projects := cfg.Harvest.Projects
	if statusProject != "" {
		ref, err := domain.ParseProjectRef(statusProject)
		if err != nil {
			return err
		}
		projects = []domain.ProjectRef{ref}
	}

	ctx := cmd.Context()
	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	inspector := services.NewInspectService(store, services.NewStalenessPolicy(cfg.Harvest.MinAge()))
	w := cmd.OutOrStdout()
	if err := printVertexCounts(ctx, w, inspector); err != nil {
		return err
	}
	if len(projects) == 0 {
		return nil
	}
	return printFreshness(ctx, w, inspector, projects)
}

func printVertexCounts(ctx context.Context, w io.Writer, inspector driving.GraphInspector) error {
	counts, err := inspector.VertexCounts(ctx)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Kind", "Vertices"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, kind := range domain.AllVertexTypes() {
		data = append(data, []string{kind.String(), strconv.Itoa(counts[kind])})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// formatFreshness prints fully fresh counts in green and stale counts in yellow.
func formatFreshness(f domain.Freshness) string {
	if f.Stale == 0 {
		return color.New(color.FgGreen).Sprintf("%d", f.Total)
	}
	return fmt.Sprintf("%d (%s stale)", f.Total, color.New(color.FgYellow).Sprint(f.Stale))
}

func printFreshness(ctx context.Context, w io.Writer, inspector driving.GraphInspector, projects []domain.ProjectRef) error {
	sorted := append([]domain.ProjectRef(nil), projects...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Project", "Issue comments", "Issue events", "PR discussions", "Users"})

	var data [][]string
	for _, p := range sorted {
		f, err := inspector.ProjectFreshness(ctx, p)
		if err != nil {
			return err
		}
		data = append(data, []string{
			p.String(),
			formatFreshness(f.IssueComments),
			formatFreshness(f.IssueEvents),
			formatFreshness(f.PullRequestDiscussions),
			formatFreshness(f.Users),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
