// internal/cli/dashboard.go
package gridcast

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mwiater/gridcast/cli"
	"github.com/mwiater/gridcast/internal/chat"
	"github.com/mwiater/gridcast/internal/logging"
	"github.com/mwiater/gridcast/internal/telemetry"
	"github.com/spf13/cobra"
)

var startDashboard = cli.StartDashboard

var dashboardMetricsAddr string

// dashboardCmd represents the 'dashboard' command.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive forecast dashboard",
	Long: `The 'dashboard' command opens a terminal dashboard over the outputs API. It
loads every trained model for the selected granularity in parallel, shows a
single-model view and a comparison view ranked by SMAPE, and lets you ask the
assistant about what is on screen.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDashboard(cmd.Context())
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardMetricsAddr, "metricsAddr", "", "serve fetch metrics for scraping on this address (empty disables)")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := getConfig()
	metrics := telemetry.New()
	client := newAPIClient(cfg)

	if dashboardMetricsAddr != "" {
		srv := &http.Server{Addr: dashboardMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.WithComponent("dashboard").WithError(err).Error("metrics listener stopped")
			}
		}()
		defer srv.Close()
	}

	logging.LogEvent("dashboard starting against %s", cfg.APIBaseURL)
	return startDashboard(ctx, cli.DashboardOptions{
		Config:  cfg,
		Catalog: client,
		Loader:  newLoader(client, metrics),
		Session: chat.NewSession(apiAssistant(client)),
		State:   newState(cfg, metrics),
	})
}
