// internal/cli/list.go
package gridcast

import (
	"fmt"
	"io"
	"strings"

	"github.com/mwiater/gridcast/internal/granularity"
	"github.com/spf13/cobra"
)

var listAvailable bool

// listCmd groups the 'list' subcommands.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List granularities, trained models or commands",
}

// granularitiesCmd implements 'list granularities'.
var granularitiesCmd = &cobra.Command{
	Use:   "granularities",
	Short: "List the supported granularities and their default horizons",
	Long: `The 'granularities' subcommand lists every supported granularity code with
its default forecast horizon. With --available it also asks the outputs API
which models have been trained for each granularity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !listAvailable {
			for _, g := range granularity.All() {
				fmt.Fprintf(out, "  %s  %-8s %s\n", g.Code, g.Name, granularity.HorizonLabel(g.Code, g.DefaultHorizon))
			}
			return nil
		}

		catalog, err := newAPIClient(getConfig()).Catalog(cmdContext(cmd))
		if err != nil {
			return fmt.Errorf("could not load the model catalog: %w", err)
		}
		for _, g := range catalog.Granularities {
			entries := catalog.Entries(g.Code)
			trained := make([]string, 0, len(entries))
			for _, e := range entries {
				trained = append(trained, fmt.Sprintf("%s/%d", e.Model, e.Horizon))
			}
			if len(trained) == 0 {
				trained = append(trained, "(none)")
			}
			fmt.Fprintf(out, "  %s  %-8s %s\n", g.Code, g.Name, strings.Join(trained, ", "))
		}
		return nil
	},
}

// commandsCmd implements 'list commands', which prints the available
// commands and subcommands in a hierarchical, indented, two-column format.
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List all commands and subcommands in two columns",
	Run: func(cmd *cobra.Command, args []string) {
		commandData := collectCommandData(cmd.Root(), "", "")
		filtered := make([]commandInfo, 0, len(commandData))
		for _, data := range commandData {
			if strings.Contains(data.Path, "completion") || strings.Contains(data.Path, "help") {
				continue
			}
			filtered = append(filtered, data)
		}
		listCommands(cmd.OutOrStdout(), filtered)
	},
}

func init() {
	granularitiesCmd.Flags().BoolVar(&listAvailable, "available", false, "include the trained models reported by the outputs API")
	listCmd.AddCommand(granularitiesCmd, commandsCmd)
	rootCmd.AddCommand(listCmd)
}

// commandInfo holds the path and description of a command for display.
type commandInfo struct {
	Path        string
	Description string
}

// collectCommandData walks the command tree and returns a flattened slice of
// path/description pairs.
func collectCommandData(cmd *cobra.Command, currentPath string, indent string) []commandInfo {
	fullPath := cmd.Name()
	if currentPath != "" {
		fullPath = currentPath + " " + cmd.Name()
	}
	all := []commandInfo{{Path: indent + fullPath, Description: cmd.Short}}
	for _, sub := range cmd.Commands() {
		all = append(all, collectCommandData(sub, fullPath, indent+"  ")...)
	}
	return all
}

// listCommands prints the command tree in a two-column layout.
func listCommands(out io.Writer, commands []commandInfo) {
	width := 0
	for _, data := range commands {
		width = max(width, len(data.Path))
	}
	fmt.Fprintln(out, "Commands and Subcommands:")
	for _, data := range commands {
		fmt.Fprintf(out, "  %s%s%s\n", data.Path, strings.Repeat(" ", width-len(data.Path)+2), data.Description)
	}
}
