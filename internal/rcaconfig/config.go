// Package rcaconfig loads and hot-reloads the Investigation Core's tunable
// knobs.
package rcaconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/fourkites/rca-core/internal/logging"
)

// Config holds every investigation tunable, plus the server-level settings
// needed to actually run the service.
type Config struct {
	MaxParallel            int
	MaxChildDepth          int
	MaxIterationsPerAgent  int
	HighConfidence         float64
	MedConfidence          float64
	LowConfidence          float64
	HeartbeatIntervalMS    int64
	InvestigationDeadlineMS int64
	OracleCallDeadlineMS   int64
	SubInvestigatorDeadlineMS int64
	ProbeDeadlineMS        map[string]int64
	FeatureToggles         map[string]bool

	APIPort          int
	TracingEnabled   bool
	TracingEndpoint  string
	TracingTLSCAPath string
	TracingInsecure  bool
	AnthropicModel   string
}

// Default returns the documented defaults for every knob.
func Default() Config {
	return Config{
		MaxParallel:               5,
		MaxChildDepth:             2,
		MaxIterationsPerAgent:     5,
		HighConfidence:            0.85,
		MedConfidence:             0.60,
		LowConfidence:             0.10,
		HeartbeatIntervalMS:       2000,
		InvestigationDeadlineMS:   5 * 60 * 1000,
		OracleCallDeadlineMS:      30 * 1000,
		SubInvestigatorDeadlineMS: 90 * 1000,
		ProbeDeadlineMS: map[string]int64{
			"platform-load-lookup-by-id":     15000,
			"platform-load-lookup-by-number": 15000,
			"warehouse-load-validation":      20000,
			"warehouse-company-permalink":    10000,
			"network-relationship":           10000,
			"carrier-portal-scrape-history":  30000,
			"webhook-delivery-history":       20000,
			"structured-log-search":          120000,
			"kv-doc-search":                  15000,
		},
		FeatureToggles: map[string]bool{
			"kv_doc_search": true,
		},
		APIPort:        8080,
		AnthropicModel: "claude-sonnet-4-5",
	}
}

// Validate checks the loaded config for internal consistency.
func (c Config) Validate() error {
	if c.MaxParallel < 1 {
		return &ConfigError{"MAX_PARALLEL must be >= 1"}
	}
	if c.MaxChildDepth < 0 {
		return &ConfigError{"MAX_CHILD_DEPTH must be >= 0"}
	}
	if !(c.LowConfidence < c.MedConfidence && c.MedConfidence < c.HighConfidence) {
		return &ConfigError{"confidence thresholds must satisfy LOW < MED < HIGH"}
	}
	if c.HighConfidence > 1 || c.LowConfidence < 0 {
		return &ConfigError{"confidence thresholds must lie within [0,1]"}
	}
	if c.APIPort < 1 || c.APIPort > 65535 {
		return &ConfigError{"API_PORT out of range"}
	}
	if c.TracingEnabled && c.TracingEndpoint == "" {
		return &ConfigError{"TRACING_ENDPOINT required when tracing is enabled"}
	}
	return nil
}

// ConfigError is a small typed validation error.
type ConfigError struct{ message string }

func (e *ConfigError) Error() string { return "config error: " + e.message }

// ProbeDeadline returns the configured deadline for a capability name,
// falling back to a conservative default when unconfigured.
func (c Config) ProbeDeadline(capability string) time.Duration {
	if ms, ok := c.ProbeDeadlineMS[capability]; ok {
		return time.Duration(ms) * time.Millisecond
	}
	return 30 * time.Second
}

// FeatureEnabled reports whether an optional data source is toggled on,
// defaulting to enabled for unknown toggles.
func (c Config) FeatureEnabled(name string) bool {
	if v, ok := c.FeatureToggles[name]; ok {
		return v
	}
	return true
}

// Load builds a Config from defaults, an optional YAML file, then
// environment variable overrides (RCA_ prefixed), in that priority order.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
		if err := k.Unmarshal("", &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("RCA_", ".", envTransform), nil); err != nil {
		return Config{}, fmt.Errorf("load env overrides: %w", err)
	}
	_ = k.Unmarshal("", &cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envTransform maps RCA_MAX_PARALLEL to "maxparallel", the key koanf matches
// (case-insensitively) against the MaxParallel field.
func envTransform(key string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, "RCA_"), "_", ""))
}

// WriteDefault writes the documented default config as YAML to path, using
// a temp-file-then-rename so a crash mid-write never leaves a truncated
// config file behind for a later Load to trip over.
func WriteDefault(path string) error {
	data, err := yamlv3.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".rca-config-*.yaml.tmp")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if _, err := os.Stat(tmpPath); err == nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config file into place: %w", err)
	}
	return nil
}

// Watcher reloads the whole Config from its backing file whenever the file
// is written or recreated; Current returns every reloaded field, server
// settings such as APIPort included.
type Watcher struct {
	mu      sync.RWMutex
	current Config
	logger  *logging.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher starts watching path for changes, applying updates to a copy of
// initial. Pass an empty path to disable hot-reload (Current always returns
// the initial config unchanged).
func NewWatcher(path string, initial Config) (*Watcher, error) {
	w := &Watcher{current: initial, logger: logging.GetLogger("rcaconfig.watcher")}
	if path == "" {
		return w, nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch config file %s: %w", path, err)
	}
	w.watcher = fw

	go func() {
		for event := range fw.Events {
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			reloaded, err := Load(path)
			if err != nil {
				w.logger.ErrorWithErr("config reload failed, keeping previous config", err)
				continue
			}
			w.mu.Lock()
			w.current = reloaded
			w.mu.Unlock()
			w.logger.Info("config reloaded from %s", path)
		}
	}()

	return w, nil
}

// Current returns the most recently loaded config.
func (w *Watcher) Current() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Close stops the underlying filesystem watch, if any.
func (w *Watcher) Close() error {
	if w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}
