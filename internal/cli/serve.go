// internal/cli/serve.go
package gridcast

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mwiater/gridcast/internal/appconfig"
	"github.com/mwiater/gridcast/internal/assistant"
	"github.com/mwiater/gridcast/internal/cache"
	"github.com/mwiater/gridcast/internal/logging"
	"github.com/mwiater/gridcast/internal/outputs"
	"github.com/mwiater/gridcast/internal/server"
	"github.com/mwiater/gridcast/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	serveAddr       string
	serveOutputsDir string
)

// serveCmd represents the 'serve' command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the outputs API over the trained model files",
	Long: `The 'serve' command starts the outputs API. It lists the granularities and
trained models found in the outputs directory, returns metrics and prediction
files, aggregates hourly predictions to coarser granularities and forwards chat
messages to the configured assistant.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, closeFn := buildServer(ctx, getConfig())
		defer closeFn()

		addr := getConfig().Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().StringVar(&serveOutputsDir, "outputs", "", "outputs directory (overrides server.outputsDir)")
	rootCmd.AddCommand(serveCmd)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// buildServer assembles the outputs API from cfg. The returned func releases
// the cache connection, if any.
func buildServer(ctx context.Context, cfg *appconfig.Config) (*server.Server, func()) {
	log := logging.WithComponent("serve")
	closeFn := func() {}

	dir := cfg.Server.OutputsDir
	if serveOutputsDir != "" {
		dir = serveOutputsDir
	}

	var repoOpts []outputs.RepositoryOption
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cache.Options{Addr: cfg.Cache.RedisAddr, DB: cfg.Cache.RedisDB})
		if err != nil {
			log.WithError(err).Warn("continuing without the redis cache")
		} else {
			repoOpts = append(repoOpts, outputs.WithCache(rc, cfg.CacheTTL()))
			closeFn = func() { _ = rc.Close() }
		}
	}

	var provider assistant.Provider
	if cfg.Assistant.URL != "" {
		provider = assistant.NewOllama(cfg.Assistant.URL, cfg.Assistant.Model, cfg.RequestTimeout())
		log.WithField("model", cfg.Assistant.Model).Info("assistant configured")
	}

	log.WithField("outputs", dir).Info("serving trained model outputs")
	return server.New(server.Options{
		Repository:   outputs.NewRepository(dir, repoOpts...),
		Assistant:    provider,
		SystemPrompt: cfg.Assistant.SystemPrompt,
		Models:       cfg.ModelTable(),
		CORSOrigins:  cfg.Server.CORSOrigins,
		Metrics:      telemetry.New(),
		ChatRate:     cfg.Server.ChatRate,
		Debug:        cfg.Debug,
	}), closeFn
}
