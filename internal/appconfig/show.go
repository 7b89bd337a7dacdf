package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config, fallback Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		cfg = &fallback
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  API Base URL:    %s\n", cfg.APIBaseURL)
	fmt.Fprintf(out, "  Timeout:         %s\n", cfg.RequestTimeout())
	if cfg.RequestsPerSecond > 0 {
		fmt.Fprintf(out, "  Rate Limit:      %.1f req/s\n", cfg.RequestsPerSecond)
	} else {
		fmt.Fprintln(out, "  Rate Limit:      off")
	}
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Alignment:       %s\n", cfg.Alignment)
	if cfg.NumberLocale != "" {
		fmt.Fprintf(out, "  Number Locale:   %s\n", cfg.NumberLocale)
	}
	fmt.Fprintf(out, "  Assistant:       %s (%s)\n", cfg.Assistant.URL, cfg.Assistant.Model)
	fmt.Fprintf(out, "  Server Addr:     %s\n", cfg.Server.Addr)
	fmt.Fprintf(out, "  Outputs Dir:     %s\n", cfg.Server.OutputsDir)
	if cfg.Server.ChatRate > 0 {
		fmt.Fprintf(out, "  Chat Rate:       %.1f req/s\n", cfg.Server.ChatRate)
	}
	if cfg.Cache.RedisAddr != "" {
		fmt.Fprintf(out, "  Redis Cache:     %s db=%d ttl=%s\n", cfg.Cache.RedisAddr, cfg.Cache.RedisDB, cfg.CacheTTL())
	}
	fmt.Fprintln(out, "  Models:")
	for _, m := range cfg.ModelTable() {
		fmt.Fprintf(out, "    %-8s %s\n", m.ID, m.Name)
	}
}
