package config

import (
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DynamicConfig represents runtime-changeable knobs. It is loaded from an
// optional yaml file and hot-reloaded on change; without a file the defaults
// stay in effect.
type DynamicConfig struct {
	Limits    Limits          `yaml:"limits"`
	Expansion ExpansionConfig `yaml:"expansion"`
	WebSocket WebSocketConfig `yaml:"websocket"`
}

// Limits holds application limits
type Limits struct {
	MaxSessions        int `yaml:"maxSessions"`
	MaxNodesPerSession int `yaml:"maxNodesPerSession"`
}

// ExpansionConfig holds the oracle request knobs
type ExpansionConfig struct {
	MaxSourceResults        int  `yaml:"maxSourceResults"`
	IncludeCounterArguments bool `yaml:"includeCounterArguments"`
	IncludeCrossDomain      bool `yaml:"includeCrossDomain"`
}

// WebSocketConfig holds projection-push settings
type WebSocketConfig struct {
	Enabled          bool `yaml:"enabled"`
	MessageQueueSize int  `yaml:"messageQueueSize"`
}

// DefaultDynamicConfig returns the built-in runtime defaults
func DefaultDynamicConfig() DynamicConfig {
	return DynamicConfig{
		Limits: Limits{
			MaxSessions:        500,
			MaxNodesPerSession: 2000,
		},
		Expansion: ExpansionConfig{
			MaxSourceResults:        8,
			IncludeCounterArguments: true,
			IncludeCrossDomain:      true,
		},
		WebSocket: WebSocketConfig{
			Enabled:          true,
			MessageQueueSize: 256,
		},
	}
}

// Watcher watches the runtime configuration file for changes
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  DynamicConfig
	mu       sync.RWMutex
	onChange []func(DynamicConfig)
	logger   *zap.Logger
	stopCh   chan struct{}
}

// NewWatcher creates a watcher over path. An empty path yields a static
// watcher that only serves the defaults.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	w := &Watcher{
		path:    path,
		current: DefaultDynamicConfig(),
		logger:  logger,
		stopCh:  make(chan struct{}),
	}

	if path == "" {
		return w, nil
	}

	if err := w.load(); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}
	w.watcher = fsw

	go w.run()
	return w, nil
}

// Current returns a snapshot of the runtime configuration
func (w *Watcher) Current() DynamicConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after each successful reload
func (w *Watcher) OnChange(fn func(DynamicConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Stop shuts the watcher down
func (w *Watcher) Stop() {
	close(w.stopCh)
	if w.watcher != nil {
		w.watcher.Close()
	}
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := w.load(); err != nil {
				// Keep the previous config on parse errors.
				w.logger.Warn("runtime config reload failed",
					zap.String("path", w.path),
					zap.Error(err),
				)
				continue
			}
			w.notify()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("runtime config watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) load() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return err
	}

	cfg := DefaultDynamicConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	w.logger.Info("runtime config loaded",
		zap.String("path", w.path),
		zap.Int("maxSessions", cfg.Limits.MaxSessions),
		zap.Int("maxSourceResults", cfg.Expansion.MaxSourceResults),
	)
	return nil
}

func (w *Watcher) notify() {
	w.mu.RLock()
	callbacks := make([]func(DynamicConfig), len(w.onChange))
	copy(callbacks, w.onChange)
	current := w.current
	w.mu.RUnlock()

	for _, fn := range callbacks {
		fn(current)
	}
}
