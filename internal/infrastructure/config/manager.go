package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ErrRequiresRestart indicates a changed configuration key that cannot be
// applied to a running process.
var ErrRequiresRestart = errors.New("configuration change requires restart")

// ReloadFunc is invoked with the freshly loaded configuration after a
// successful hot reload.
type ReloadFunc func(cfg *Config) error

// ConfigManager watches the configuration file and applies hot reloads for
// whitelisted keys. Static key changes are rejected with
// ErrRequiresRestart.
type ConfigManager struct {
	path     string
	onReload ReloadFunc
	logger   *slog.Logger

	mu         sync.RWMutex
	current    *Config
	lastValues map[string]string
}

// NewManager creates a config manager around an already loaded config.
func NewManager(path string, current *Config, onReload ReloadFunc, logger *slog.Logger) (*ConfigManager, error) {
	m := &ConfigManager{
		path:     path,
		current:  current,
		onReload: onReload,
		logger:   logger,
	}

	values, err := m.readValues()
	if err != nil {
		// A missing file means everything came from env/defaults; hot
		// reload simply has nothing to watch against.
		logger.Warn("config file not readable, hot reload limited", "path", path, "error", err)
		values = map[string]string{}
	}
	m.lastValues = values

	return m, nil
}

// Current returns the active configuration.
func (m *ConfigManager) Current() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Watch blocks, reloading the configuration whenever the file changes,
// until the context is cancelled.
func (m *ConfigManager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(m.path); err != nil {
		return fmt.Errorf("watching %s: %w", m.path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := m.TryReload(); err != nil {
				if errors.Is(err, ErrRequiresRestart) {
					m.logger.Warn("config change ignored", "error", err)
					continue
				}
				m.logger.Error("config reload failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Error("config watcher error", "error", err)
		}
	}
}

// TryReload re-reads the configuration file and applies it when only
// reloadable keys changed.
func (m *ConfigManager) TryReload() error {
	newValues, err := m.readValues()
	if err != nil {
		return fmt.Errorf("re-reading config: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	changed := diffKeys(m.lastValues, newValues)
	if len(changed) == 0 {
		return nil
	}

	for _, key := range changed {
		if !IsReloadable(key) {
			return fmt.Errorf("%w: %s (%s)", ErrRequiresRestart, key, getRestartReason(key))
		}
	}

	cfg, err := Load(m.path)
	if err != nil {
		return fmt.Errorf("loading changed config: %w", err)
	}

	if m.onReload != nil {
		if err := m.onReload(cfg); err != nil {
			return fmt.Errorf("applying reloaded config: %w", err)
		}
	}

	m.current = cfg
	m.lastValues = newValues
	m.logger.Info("configuration reloaded", "changed_keys", changed)
	return nil
}

// readValues flattens the config file into key -> rendered value, the
// comparison unit for reload decisions.
func (m *ConfigManager) readValues() (map[string]string, error) {
	v := viper.New()
	v.SetConfigFile(m.path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	values := make(map[string]string)
	for _, key := range v.AllKeys() {
		values[key] = fmt.Sprint(v.Get(key))
	}
	return values, nil
}

// diffKeys returns the keys whose values differ between two snapshots.
func diffKeys(old, new map[string]string) []string {
	var changed []string
	for key, val := range new {
		if old[key] != val {
			changed = append(changed, key)
		}
	}
	for key := range old {
		if _, ok := new[key]; !ok {
			changed = append(changed, key)
		}
	}
	return changed
}
