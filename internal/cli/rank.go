// internal/cli/rank.go
package gridcast

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/mwiater/gridcast/cli"
	"github.com/mwiater/gridcast/internal/granularity"
	"github.com/mwiater/gridcast/internal/numfmt"
	"github.com/mwiater/gridcast/internal/store"
	"github.com/spf13/cobra"
)

var (
	bestResult    = color.New(color.FgGreen).SprintFunc()
	skippedResult = color.New(color.FgYellow).SprintFunc()
)

var rankGranularity string

// rankCmd represents the 'rank' command.
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank the trained models of a granularity by SMAPE",
	Long: `The 'rank' command loads every trained model for a granularity from the
outputs API and prints them ordered by SMAPE, best first. Models whose metrics
or predictions could not be fetched are reported and left out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		state, outcomes, err := loadGranularity(cmdContext(cmd), cfg, rankGranularity)
		if err != nil {
			return err
		}
		code := granularity.Code(state.Granularity())
		numbers := cli.NewRenderer(*cfg).Numbers

		out := cmd.OutOrStdout()
		ranked := state.Ranked()
		fmt.Fprintf(out, "Ranking by SMAPE, %s (%d models)\n", code.Name(), len(ranked))
		for _, m := range ranked {
			smape := m.SMAPE
			line := fmt.Sprintf("%3d  %-8s %-22s %-10s SMAPE %8s  MAE %10s  RMSE %10s",
				m.Rank, m.Model, cfg.ModelName(m.Model), granularity.HorizonLabel(code, m.Horizon),
				numfmt.Percent(&smape), numbers.Format(m.Metrics.MAE), numbers.Format(m.Metrics.RMSE))
			if m.Rank == 1 {
				line = bestResult(line)
			}
			fmt.Fprintln(out, line)
		}
		if len(ranked) == 0 {
			fmt.Fprintln(out, "No models with a defined SMAPE.")
		}
		reportSkipped(cmd, outcomes)
		return nil
	},
}

func init() {
	rankCmd.Flags().StringVarP(&rankGranularity, "granularity", "g", string(granularity.Daily), "granularity code (H, D, W, M, Y)")
	rootCmd.AddCommand(rankCmd)
}

// reportSkipped lists models left out of the round on stderr.
func reportSkipped(cmd *cobra.Command, outcomes []store.Outcome) {
	for _, o := range outcomes {
		if o.Included() {
			continue
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s (horizon %d): %v\n", skippedResult("skipped"), o.Entry.Model, o.Entry.Horizon, o.Err())
	}
}
