// internal/outputs/repository.go
// Package outputs reads the trained-model output files (metrics and
// prediction JSON) from disk, lists what is available per granularity and
// aggregates hourly predictions to coarser granularities.
package outputs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mwiater/gridcast/internal/forecast"
	"github.com/mwiater/gridcast/internal/granularity"
	"github.com/mwiater/gridcast/internal/logging"
	"github.com/mwiater/gridcast/internal/util"
)

// FileType selects between the two files written per trained model.
type FileType string

const (
	Metrics FileType = "metrics"
	Preds   FileType = "preds"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("output not found")
	// ErrInvalidModel is returned for model ids that cannot name an output file.
	ErrInvalidModel = errors.New("invalid model id")
)

// Model ids are a single file-name segment; "_" separates the model from the
// horizon in output file names.
var modelIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// ValidModelID reports whether id can name an output file.
func ValidModelID(id string) bool { return modelIDPattern.MatchString(id) }

func checkModelID(id string) error {
	if !ValidModelID(id) {
		return fmt.Errorf("%w: %q (letters, digits and '-' only)", ErrInvalidModel, id)
	}
	return nil
}

// NotFoundError reports a missing output file.
type NotFoundError struct {
	Type        FileType
	Model       string
	Granularity granularity.Code
	Horizon     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("No %s found for model=%s, granularity=%s, horizon=%d", e.Type, e.Model, e.Granularity, e.Horizon)
}

// Unwrap lets errors.Is match ErrNotFound.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Cache stores raw payloads by key. Implementations must treat a miss as (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Repository reads output files below a root directory.
type Repository struct {
	root  string
	cache Cache
	ttl   time.Duration
}

// RepositoryOption customizes a Repository.
type RepositoryOption func(*Repository)

// WithCache serves reads through c, storing payloads for ttl.
func WithCache(c Cache, ttl time.Duration) RepositoryOption {
	return func(r *Repository) {
		r.cache = c
		r.ttl = ttl
	}
}

// NewRepository returns a Repository rooted at dir.
func NewRepository(dir string, opts ...RepositoryOption) *Repository {
	r := &Repository{root: dir}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the outputs directory.
func (r *Repository) Root() string { return r.root }

func fileName(ft FileType, model string, horizon int) string {
	return fmt.Sprintf("%s_%s_%d.json", ft, model, horizon)
}

// CacheKey returns the cache key for one output payload.
func CacheKey(ft FileType, code granularity.Code, model string, horizon int) string {
	return strings.Join([]string{"gridcast", "outputs", string(ft), string(code), model, strconv.Itoa(horizon)}, ":")
}

// Read returns the decoded payload for (code, ft, model, horizon). Hourly reads
// fall back to the legacy root folder and are stamped with the hourly
// granularity fields.
func (r *Repository) Read(ctx context.Context, code granularity.Code, ft FileType, model string, horizon int) (map[string]any, error) {
	cfg, ok := code.Config()
	if !ok {
		return nil, fmt.Errorf("read outputs: %w", granularity.ErrUnknownCode)
	}
	if err := checkModelID(model); err != nil {
		return nil, err
	}
	log := logging.WithComponent("outputs")

	key := CacheKey(ft, code, model, horizon)
	if r.cache != nil {
		raw, hit, err := r.cache.Get(ctx, key)
		if err != nil {
			log.WithError(err).Warn("cache read failed")
		} else if hit {
			var out map[string]any
			if err := json.Unmarshal(raw, &out); err == nil {
				return out, nil
			}
		}
	}

	out, err := readJSON(filepath.Join(r.root, cfg.Folder, fileName(ft, model, horizon)))
	if errors.Is(err, os.ErrNotExist) && code == granularity.Hourly {
		out, err = readJSON(filepath.Join(r.root, fileName(ft, model, horizon)))
		if err == nil {
			out["granularity"] = string(granularity.Hourly)
			out["granularity_name"] = cfg.Name
		}
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, &NotFoundError{Type: ft, Model: model, Granularity: code, Horizon: horizon}
	}
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if raw, merr := json.Marshal(out); merr == nil {
			if serr := r.cache.Set(ctx, key, raw, r.ttl); serr != nil {
				log.WithError(serr).Warn("cache write failed")
			}
		}
	}
	return out, nil
}

// HourlySeries reads the hourly prediction series for a model.
func (r *Repository) HourlySeries(ctx context.Context, model string, horizon int) ([]forecast.PredictionPoint, error) {
	payload, err := r.Read(ctx, granularity.Hourly, Preds, model, horizon)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	s, err := forecast.DecodeSeries(raw)
	if err != nil {
		return nil, err
	}
	return s.Series, nil
}

func readJSON(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// parseMetricsName extracts model and horizon from metrics_<model>_<horizon>.json.
func parseMetricsName(name string) (string, int, bool) {
	if !strings.HasPrefix(name, "metrics_") || filepath.Ext(name) != ".json" {
		return "", 0, false
	}
	parts := strings.Split(strings.TrimSuffix(name, ".json"), "_")
	if len(parts) < 3 {
		return "", 0, false
	}
	horizon, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, false
	}
	return parts[1], horizon, true
}

func scan(dir string, legacy bool) ([]forecast.CatalogEntry, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []forecast.CatalogEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []forecast.CatalogEntry{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		model, horizon, ok := parseMetricsName(e.Name())
		if !ok {
			continue
		}
		out = append(out, forecast.CatalogEntry{Model: model, Horizon: horizon, Legacy: legacy})
	}
	return out, nil
}

// Available lists the trained (model, horizon) pairs per granularity code.
// Every code is present, with an empty list when its folder is missing. Legacy
// root-folder files are merged into the hourly list when not already present.
func (r *Repository) Available() (map[string][]forecast.CatalogEntry, error) {
	available := make(map[string][]forecast.CatalogEntry, len(granularity.Codes()))
	for _, cfg := range granularity.All() {
		list, err := scan(filepath.Join(r.root, cfg.Folder), false)
		if err != nil {
			return nil, fmt.Errorf("list %s outputs: %w", cfg.Name, err)
		}
		available[string(cfg.Code)] = list
	}

	legacy, err := scan(r.root, true)
	if err != nil {
		return nil, fmt.Errorf("list legacy outputs: %w", err)
	}
	hourly := available[string(granularity.Hourly)]
	existing := make(map[string]bool, len(hourly))
	for _, e := range hourly {
		existing[e.Model+"_"+strconv.Itoa(e.Horizon)] = true
	}
	for _, e := range legacy {
		if !existing[e.Model+"_"+strconv.Itoa(e.Horizon)] {
			hourly = append(hourly, e)
		}
	}
	available[string(granularity.Hourly)] = hourly
	return available, nil
}

// Save writes the metrics and predictions files for a trained model into the
// granularity's folder, stamping the model and granularity fields. The files
// match the layout the training pipeline writes, which Read and Available consume.
func (r *Repository) Save(code granularity.Code, model string, horizon int, metrics map[string]any, series []forecast.PredictionPoint) error {
	cfg, ok := code.Config()
	if !ok {
		return fmt.Errorf("save outputs: %w", granularity.ErrUnknownCode)
	}
	if err := checkModelID(model); err != nil {
		return fmt.Errorf("save outputs: %w", err)
	}
	header := map[string]any{
		"model":            model,
		"granularity":      string(cfg.Code),
		"granularity_name": cfg.Name,
		"horizon":          horizon,
	}

	metricsOut := make(map[string]any, len(header)+len(metrics))
	for k, v := range header {
		metricsOut[k] = v
	}
	for k, v := range metrics {
		metricsOut[k] = v
	}
	predsOut := make(map[string]any, len(header)+1)
	for k, v := range header {
		predsOut[k] = v
	}
	if series == nil {
		series = []forecast.PredictionPoint{}
	}
	predsOut["series"] = series

	dir := filepath.Join(r.root, cfg.Folder)
	for ft, payload := range map[FileType]map[string]any{Metrics: metricsOut, Preds: predsOut} {
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		if err := util.WriteFile(filepath.Join(dir, fileName(ft, model, horizon)), data); err != nil {
			return fmt.Errorf("save %s: %w", ft, err)
		}
	}
	return nil
}
