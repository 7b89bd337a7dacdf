// internal/cli/wiring.go
package gridcast

import (
	"context"
	"fmt"

	"github.com/mwiater/gridcast/internal/apiclient"
	"github.com/mwiater/gridcast/internal/appconfig"
	"github.com/mwiater/gridcast/internal/chat"
	"github.com/mwiater/gridcast/internal/dashboard"
	"github.com/mwiater/gridcast/internal/granularity"
	"github.com/mwiater/gridcast/internal/store"
	"github.com/mwiater/gridcast/internal/telemetry"
)

// fetchConcurrency bounds parallel metric/prediction requests per round.
const fetchConcurrency = 8

func newAPIClient(cfg *appconfig.Config) *apiclient.Client {
	return apiclient.New(cfg.APIBaseURL,
		apiclient.WithTimeout(cfg.RequestTimeout()),
		apiclient.WithRateLimit(cfg.RequestsPerSecond, fetchConcurrency),
	)
}

func newLoader(client *apiclient.Client, metrics *telemetry.Metrics) *store.Loader {
	opts := []store.LoaderOption{store.WithConcurrency(fetchConcurrency)}
	if metrics != nil {
		opts = append(opts, store.WithObserver(metrics))
	}
	return store.NewLoader(client, opts...)
}

func newState(cfg *appconfig.Config, metrics *telemetry.Metrics) *dashboard.State {
	var opts []dashboard.Option
	if cfg.Alignment == appconfig.AlignIndex {
		opts = append(opts, dashboard.WithPositionalRows())
	}
	if metrics != nil {
		opts = append(opts, dashboard.WithStaleObserver(metrics))
	}
	return dashboard.New(opts...)
}

// apiAssistant forwards chat messages to the outputs API with the dashboard context.
func apiAssistant(client *apiclient.Client) chat.Assistant {
	return chat.AssistantFunc(func(ctx context.Context, message string, c chat.Context) (string, error) {
		return client.Chat(ctx, message, c.Map())
	})
}

// loadGranularity fetches the catalog and runs one round for code.
func loadGranularity(ctx context.Context, cfg *appconfig.Config, code string) (*dashboard.State, []store.Outcome, error) {
	c, err := granularity.ParseCode(code)
	if err != nil {
		return nil, nil, err
	}
	client := newAPIClient(cfg)
	state := newState(cfg, nil)

	catalog, err := client.Catalog(ctx)
	state.SetCatalog(catalog, err)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load the model catalog: %w", err)
	}
	outcomes, err := state.Load(ctx, newLoader(client, nil), string(c))
	if err != nil {
		return nil, nil, err
	}
	return state, outcomes, nil
}
