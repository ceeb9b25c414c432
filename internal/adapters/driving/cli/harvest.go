package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ghminer/internal/adapters/driven/storage"
	"github.com/custodia-labs/ghminer/internal/connectors/github"
	"github.com/custodia-labs/ghminer/internal/core/domain"
	"github.com/custodia-labs/ghminer/internal/core/services"
	"github.com/custodia-labs/ghminer/internal/logger"
	"github.com/custodia-labs/ghminer/internal/throttle"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Run one harvesting pass",
	Long: `Harvests the configured projects, users and organizations from both
API generations. Resources recorded less than harvest.refresh_days ago are
skipped. Interrupting the pass closes the graph store cleanly.`,
	Args: cobra.NoArgs,
	RunE: runHarvest,
}

func init() {
	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Cannot harvest: %v", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("Cannot open graph store: %v", err)
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Closing graph store: %v", err)
		}
	}()

	thr := newThrottle(cfg.Throttle)
	clients, quota, err := newClients(ctx, cfg.GitHub, thr)
	if err != nil {
		return err
	}

	harvester := services.NewHarvester(clients, store, cfg.Harvest, cfg.Miner,
		services.NewStalenessPolicy(cfg.Harvest.MinAge()))
	report, err := harvester.Run(ctx)
	if report != nil {
		if perr := printReport(cmd.OutOrStdout(), report, thr, quota.Quota()); perr != nil {
			logger.Warn("Printing report: %v", perr)
		}
	}
	if err != nil {
		return fmt.Errorf("harvest interrupted: %w", err)
	}
	return nil
}

var outcomes = []domain.Outcome{
	domain.OutcomeSaved,
	domain.OutcomeSkipped,
	domain.OutcomeAbsent,
	domain.OutcomeFailed,
}

// printReport renders per-phase outcome counters, throttle statistics and the
// quota left after the pass.
func printReport(w io.Writer, report *domain.HarvestReport, thr *throttle.Throttle, quota github.Quota) error {
	fmt.Fprintf(w, "Harvest %s finished in %s\n", report.RunID,
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Phase", "Saved", "Skipped", "Absent", "Failed"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	red := color.New(color.FgRed, color.Bold).SprintFunc()
	var data [][]string
	for _, phase := range report.Phases() {
		row := []string{phase}
		for _, o := range outcomes {
			n := strconv.Itoa(report.Count(phase, o))
			if o == domain.OutcomeFailed && report.Count(phase, o) > 0 {
				n = red(n)
			}
			row = append(row, n)
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, id := range []string{domain.ChannelV2, domain.ChannelV3} {
		stats, ok := thr.Channel(id)
		if !ok || stats.Admitted == 0 {
			continue
		}
		fmt.Fprintf(w, "Channel %s: %d requests, waited %s\n", id, stats.Admitted, stats.Waited.Round(time.Millisecond))
	}
	if !quota.Reset.IsZero() {
		fmt.Fprintf(w, "Quota: %d of %d left, resets %s\n",
			quota.Remaining, quota.Limit, quota.Reset.Local().Format(time.Kitchen))
	}
	return nil
}
