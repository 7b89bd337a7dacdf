// internal/cli/root.go
package gridcast

import (
	"errors"
	"fmt"
	"os"

	"github.com/mwiater/gridcast/internal/appconfig"
	"github.com/mwiater/gridcast/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
)

// boundFlags are persistent flags mirrored into viper keys of the same name.
var boundFlags = []string{"debug", "apiBaseURL", "logFile", "logLevel", "alignment", "requestsPerSecond", "numberLocale"}

var rootCmd = &cobra.Command{
	Use:          "gridcast",
	Short:        "gridcast compares multi-horizon electricity demand forecasts across models",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1) Load config (file or defaults), with flags taking precedence.
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// 2) If the user did NOT set a flag, copy the merged value back into the
		//    flag so pflags and viper agree.
		for _, name := range boundFlags {
			if f := cmd.Flags().Lookup(name); f != nil && !f.Changed {
				_ = cmd.Flags().Set(name, viper.GetString(name))
			}
		}

		currentConfig = &cfg
		return initLogging(cmd, &cfg)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Close()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// SetVersionInfo sets the version reported by --version.
func SetVersionInfo(version, commit, date string) {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("apiBaseURL", appconfig.DefaultAPIBaseURL, "outputs API base URL")
	rootCmd.PersistentFlags().String("logFile", "", "log file path (default gridcast.log)")
	rootCmd.PersistentFlags().String("logLevel", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("alignment", appconfig.AlignTimestamp, "comparison row alignment: timestamp or index")
	rootCmd.PersistentFlags().Float64("requestsPerSecond", 0, "outbound API requests per second (0 disables pacing)")
	rootCmd.PersistentFlags().String("numberLocale", "", "BCP 47 locale used to format numbers")

	bindFlags()
}

// bindFlags binds the persistent flags to viper keys (flags override config).
func bindFlags() {
	for _, name := range boundFlags {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	viper.SetEnvPrefix("GRIDCAST")
	viper.AutomaticEnv()
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = appconfig.DefaultConfigPath
	}
}

// loadConfig reads the config file through viper. A missing default file is
// fine: defaults and flags are used instead.
func loadConfig() (appconfig.Config, error) {
	cfg, err := appconfig.Load(viper.GetViper(), cfgFile)
	if errors.Is(err, appconfig.ErrNoConfigFile) && (cfgFile == "" || cfgFile == appconfig.DefaultConfigPath) {
		return appconfig.Decode(viper.GetViper())
	}
	if err != nil {
		return appconfig.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// initLogging writes to the log file, and to stdout for the API server whose
// output is its log.
func initLogging(cmd *cobra.Command, cfg *appconfig.Config) error {
	if err := logging.Init(cfg.LogFilePath(), cmd.Name() == "serve"); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	if err := logging.SetLevel(level); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	return nil
}

// getConfig returns the loaded application configuration.
func getConfig() *appconfig.Config {
	if currentConfig == nil {
		cfg := appconfig.Defaults()
		return &cfg
	}
	return currentConfig
}
