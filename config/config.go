// Package config loads service configuration files into an LLSD map and
// layers runtime overrides on top. The file format follows the extension:
// .yaml/.yml parse as YAML, .json as JSON, anything else as one of the LLSD
// wire encodings (sniffed).
//
// Values set through Set or Update override anything loaded from the file
// and survive reloads. Reloading is explicit: Reload always re-reads,
// ReloadIfChanged re-reads only when the file's mtime moved forward.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/llbase/go-llbase/llsd"
)

// Config is one configuration set. All methods are safe for concurrent use.
type Config struct {
	mu        sync.RWMutex
	path      string
	modTime   time.Time
	fileVals  map[string]llsd.Value
	overrides map[string]llsd.Value
	combined  map[string]llsd.Value
}

// New loads the file at path. An empty path yields an empty Config that
// holds only overrides.
func New(path string) (*Config, error) {
	c := &Config{
		path:      path,
		fileVals:  map[string]llsd.Value{},
		overrides: map[string]llsd.Value{},
		combined:  map[string]llsd.Value{},
	}
	if path == "" {
		return c, nil
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseFile(path string, data []byte) (llsd.Value, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return llsd.Undef(), fmt.Errorf("config %s: %w", path, err)
		}
		return llsd.FromAny(tree)
	case ".json":
		return llsd.ParseJSON(data)
	default:
		return llsd.Parse(data, "")
	}
}

// Reload re-reads the backing file unconditionally, keeping overrides.
func (c *Config) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked()
}

func (c *Config) loadLocked() error {
	if c.path == "" {
		return nil
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}
	v, err := parseFile(c.path, data)
	if err != nil {
		return err
	}
	if v.Kind() != llsd.KindMap {
		return fmt.Errorf("config %s: top level is %s, not a map", c.path, v.Kind())
	}
	c.fileVals = v.Members()
	if info, err := os.Stat(c.path); err == nil {
		c.modTime = info.ModTime()
	}
	c.combineLocked()
	return nil
}

// ReloadIfChanged re-reads the backing file when its modification time is
// newer than at the last load, reporting whether a reload happened. A file
// that has gone missing is not an error; the loaded values stay.
func (c *Config) ReloadIfChanged() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.path == "" {
		return false, nil
	}
	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if !info.ModTime().After(c.modTime) {
		return false, nil
	}
	if err := c.loadLocked(); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Config) combineLocked() {
	combined := make(map[string]llsd.Value, len(c.fileVals)+len(c.overrides))
	for k, v := range c.fileVals {
		combined[k] = v
	}
	for k, v := range c.overrides {
		combined[k] = v
	}
	c.combined = combined
}

// Get returns the value for key, or undef when absent.
func (c *Config) Get(key string) llsd.Value {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.combined[key]
}

// Has reports whether key is present.
func (c *Config) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.combined[key]
	return ok
}

// GetString returns the string value for key, or def when the key is absent
// or not a string.
func (c *Config) GetString(key, def string) string {
	if v := c.Get(key); v.Kind() == llsd.KindString {
		return v.AsString()
	}
	return def
}

// GetInt returns the integer value for key, or def.
func (c *Config) GetInt(key string, def int64) int64 {
	if v := c.Get(key); v.Kind() == llsd.KindInteger {
		return v.AsInt()
	}
	return def
}

// GetBool returns the boolean value for key, or def.
func (c *Config) GetBool(key string, def bool) bool {
	if v := c.Get(key); v.Kind() == llsd.KindBoolean {
		return v.AsBool()
	}
	return def
}

// Set installs an override for key. Overrides win over file values and
// persist across reloads.
func (c *Config) Set(key string, value llsd.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides[key] = value
	c.combineLocked()
}

// Update installs a batch of overrides.
func (c *Config) Update(values map[string]llsd.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range values {
		c.overrides[k] = v
	}
	c.combineLocked()
}

// UpdateFile parses another configuration file and applies its members as
// overrides.
func (c *Config) UpdateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	v, err := parseFile(path, data)
	if err != nil {
		return err
	}
	if v.Kind() != llsd.KindMap {
		return fmt.Errorf("config %s: top level is %s, not a map", path, v.Kind())
	}
	c.Update(v.Members())
	return nil
}

// AsMap returns a snapshot of the combined configuration.
func (c *Config) AsMap() llsd.Value {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return llsd.Map(c.combined)
}

// Dump writes the combined configuration to path as llsd+xml.
func (c *Config) Dump(path string) error {
	data, err := llsd.FormatPrettyXML(c.AsMap())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ---- package-level default instance ----

var (
	defaultMu  sync.Mutex
	defaultCfg *Config
)

// Load replaces the package default Config with one loaded from path.
func Load(path string) error {
	c, err := New(path)
	if err != nil {
		return err
	}
	defaultMu.Lock()
	defaultCfg = c
	defaultMu.Unlock()
	return nil
}

func defaultConfig() *Config {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultCfg == nil {
		defaultCfg, _ = New("")
	}
	return defaultCfg
}

// Get reads key from the package default Config.
func Get(key string) llsd.Value { return defaultConfig().Get(key) }

// Set installs an override on the package default Config.
func Set(key string, value llsd.Value) { defaultConfig().Set(key, value) }

// Update installs a batch of overrides on the package default Config.
func Update(values map[string]llsd.Value) { defaultConfig().Update(values) }
