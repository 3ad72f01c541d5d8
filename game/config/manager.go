package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/wricardo/marblerace/game/engine"
	"github.com/wricardo/marblerace/game/service"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Manager handles board geometry loading and caching
type Manager struct {
	configDir     string
	defaultName   string
	defaultConfig *engine.Geometry
	configs       map[string]*engine.Geometry
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir:   configDir,
		defaultName: engine.DefaultGeometry,
		configs:     make(map[string]*engine.Geometry),
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// LoadConfig loads a geometry by name. The standard layout is always
// available, from disk when present and built in otherwise.
func (m *Manager) LoadConfig(name string) (*engine.Geometry, error) {
	name = strings.TrimSuffix(name, ".json")
	if !validName(name) {
		return nil, ErrConfigNotFound
	}

	m.mu.RLock()
	if geom, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		return geom, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if geom, exists := m.configs[name]; exists {
		return geom, nil
	}

	geom, err := m.readGeometry(name)
	if errors.Is(err, ErrConfigNotFound) && name == engine.DefaultGeometry {
		geom, err = engine.StandardGeometry(), nil
	}
	if err != nil {
		return nil, err
	}

	m.configs[name] = geom
	return geom, nil
}

// readGeometry parses and validates <configDir>/<name>.json
func (m *Manager) readGeometry(name string) (*engine.Geometry, error) {
	data, err := os.ReadFile(m.configPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config engine.BoardConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	geom, err := engine.NewGeometry(&config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return geom, nil
}

// ListConfigs returns information about all available geometries
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo
	hasDefault := false

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")

		geom, err := m.LoadConfig(name)
		if err != nil {
			log.WithError(err).WithField("file", entry.Name()).Warn("Skipping invalid geometry")
			continue
		}

		if name == engine.DefaultGeometry {
			hasDefault = true
		}
		configs = append(configs, configInfo(entry.Name(), name, geom))
	}

	if !hasDefault {
		geom, err := m.LoadConfig(engine.DefaultGeometry)
		if err == nil {
			configs = append(configs, configInfo("", engine.DefaultGeometry, geom))
		}
	}

	return configs, nil
}

func configInfo(filename, id string, geom *engine.Geometry) *service.ConfigInfo {
	return &service.ConfigInfo{
		Filename:        filename,
		ConfigID:        id,
		Name:            geom.Name(),
		Description:     geom.Config().Description,
		Rows:            geom.Rows(),
		Cols:            geom.Cols(),
		PiecesPerPlayer: geom.PiecesPerPlayer(),
		Capacities:      geom.Capacities(),
	}
}

// GetDefault returns the default geometry
func (m *Manager) GetDefault() *engine.Geometry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default geometry by name
func (m *Manager) SetDefault(name string) error {
	geom, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = strings.TrimSuffix(name, ".json")
	m.defaultConfig = geom
	return nil
}

// RefreshCache drops every cached geometry and reloads the default from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.Geometry)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// Count returns the number of cached geometries
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.configs)
}

// loadDefaultConfig loads the default geometry, falling back to the built-in star
func (m *Manager) loadDefaultConfig() error {
	m.mu.RLock()
	name := m.defaultName
	m.mu.RUnlock()

	geom, err := m.LoadConfig(name)
	if err != nil {
		log.WithError(err).WithField("geometry", name).Warn("Default geometry unavailable, using built-in standard")
		geom = engine.StandardGeometry()
	}

	m.mu.Lock()
	m.defaultConfig = geom
	m.mu.Unlock()
	return nil
}

// SaveConfig validates a geometry and writes it to disk
func (m *Manager) SaveConfig(name string, config *engine.BoardConfig) error {
	geom, err := engine.NewGeometry(config)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	name = strings.TrimSuffix(name, ".json")
	if !validName(name) {
		return fmt.Errorf("%w: bad file name %q", ErrInvalidConfig, name)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[name] = geom
	m.mu.Unlock()

	log.WithField("geometry", name).Info("Geometry saved")
	return nil
}

// validName rejects names that would escape the config directory
func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && !strings.HasPrefix(name, ".")
}

func (m *Manager) configPath(name string) string {
	return filepath.Join(m.configDir, name+".json")
}
