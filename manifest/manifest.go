// Package manifest handles tapevm.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"
)

// FileName is the name of the configuration file.
const FileName = "tapevm.toml"

var log = commonlog.GetLogger("tapevm.manifest")

// Manifest represents a tapevm.toml configuration.
type Manifest struct {
	Log     LogConfig     `toml:"log"`
	Bench   BenchConfig   `toml:"bench"`
	Image   ImageConfig   `toml:"image"`
	History HistoryConfig `toml:"history"`

	// Dir is the directory containing the tapevm.toml file (set at load time).
	// Empty when the defaults are in use.
	Dir string `toml:"-"`
}

// LogConfig configures logging.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// BenchConfig holds defaults for the bench command.
type BenchConfig struct {
	N          int      `toml:"n"`
	Iterations int      `toml:"iterations"`
	Workers    int      `toml:"workers"`
	Strategies []string `toml:"strategies"`
}

// ImageConfig configures image output.
type ImageConfig struct {
	Format string `toml:"format"`
}

// HistoryConfig configures the benchmark history database.
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Default returns the configuration used when no tapevm.toml exists.
func Default() *Manifest {
	m := &Manifest{History: HistoryConfig{Enabled: true}}
	m.fillDefaults()
	return m
}

// Load parses a tapevm.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Manifest{History: HistoryConfig{Enabled: true}}
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.fillDefaults()
	log.Debugf("loaded %s", path)
	return &m, nil
}

func (m *Manifest) fillDefaults() {
	if m.Bench.Iterations <= 0 {
		m.Bench.Iterations = 10
	}
	if m.Image.Format == "" {
		m.Image.Format = "cbor"
	}
	if m.History.Path == "" {
		m.History.Path = filepath.Join(".tapevm", "history.db")
	}
}

// FindAndLoad walks up from startDir to find a tapevm.toml file, then
// loads and returns the manifest. Returns the defaults if no manifest is
// found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			log.Debugf("no %s above %s, using defaults", FileName, startDir)
			return Default(), nil
		}
		dir = parent
	}
}

// Resolve returns path made absolute against the manifest directory.
// Absolute paths and manifests without a directory are returned as is.
func (m *Manifest) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || m.Dir == "" {
		return path
	}
	return filepath.Join(m.Dir, path)
}

// HistoryPath returns the resolved history database path.
func (m *Manifest) HistoryPath() string {
	return m.Resolve(m.History.Path)
}

// LogFile returns the resolved log file path, or nil to log to stderr.
func (m *Manifest) LogFile() *string {
	if m.Log.File == "" {
		return nil
	}
	path := m.Resolve(m.Log.File)
	return &path
}
