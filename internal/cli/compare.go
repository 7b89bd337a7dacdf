// internal/cli/compare.go
package gridcast

import (
	"encoding/json"
	"fmt"

	"github.com/mwiater/gridcast/cli"
	"github.com/mwiater/gridcast/internal/comparison"
	"github.com/mwiater/gridcast/internal/granularity"
	"github.com/mwiater/gridcast/internal/util"
	"github.com/spf13/cobra"
)

var (
	compareGranularity string
	compareLimit       int
	compareExport      string
)

// compareDocument is the document written by 'compare --export'.
type compareDocument struct {
	Granularity string              `json:"granularity"`
	Models      []string            `json:"models"`
	Ranking     []comparison.Ranked `json:"ranking"`
	Rows        []comparison.Row    `json:"rows"`
}

// compareCmd represents the 'compare' command.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare every trained model of a granularity side by side",
	Long: `The 'compare' command loads every trained model for a granularity and prints
the SMAPE ranking followed by the aligned comparison table: one row per
timestamp with the actual value and each model's prediction and error. Use
--export to also write the ranking and rows as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		state, outcomes, err := loadGranularity(cmdContext(cmd), cfg, compareGranularity)
		if err != nil {
			return err
		}
		code := granularity.Code(state.Granularity())
		r := cli.NewRenderer(*cfg)
		models := state.Store().Models()
		ranked := state.Ranked()
		rows := state.Rows()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, r.Ranking(code, ranked))
		fmt.Fprintln(out)
		fmt.Fprintln(out, r.RowsTable(code, models, rows, compareLimit))
		reportSkipped(cmd, outcomes)

		if compareExport == "" {
			return nil
		}
		data, err := json.MarshalIndent(compareDocument{
			Granularity: string(code),
			Models:      models,
			Ranking:     ranked,
			Rows:        rows,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("encode comparison: %w", err)
		}
		if err := util.WriteFile(compareExport, data); err != nil {
			return fmt.Errorf("export comparison: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Comparison written to %s\n", compareExport)
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVarP(&compareGranularity, "granularity", "g", string(granularity.Daily), "granularity code (H, D, W, M, Y)")
	compareCmd.Flags().IntVar(&compareLimit, "limit", 24, "show only the most recent rows (0 shows all)")
	compareCmd.Flags().StringVar(&compareExport, "export", "", "write the ranking and rows as JSON to this path")
	rootCmd.AddCommand(compareCmd)
}
