// Package prefabs loads the YAML tuning specs: vehicle and pedestrian
// profiles, surface modifiers, and simulation tuning. Files embedded
// at build time can be shadowed by on-disk copies for live tuning.
package prefabs

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed *.yaml
var prefabsFS embed.FS

// diskDir, when set, is checked before the embedded copies.
var diskDir string

// SetDir points loads at an on-disk spec directory, typically paired
// with a Watcher for live reload.
func SetDir(dir string) {
	diskDir = dir
}

func cleanName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if !strings.HasSuffix(name, ".yaml") {
		name += ".yaml"
	}
	return name
}

// Load returns the raw bytes of a spec file, preferring disk over the
// embedded copy.
func Load(name string) ([]byte, error) {
	clean := cleanName(name)
	if diskDir != "" {
		if data, err := os.ReadFile(filepath.Join(diskDir, clean)); err == nil {
			return data, nil
		}
	}
	return prefabsFS.ReadFile(clean)
}

// LoadSpec loads and unmarshals one spec file.
func LoadSpec[T any](name string) (T, error) {
	var zero T
	data, err := Load(name)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", name, err)
	}
	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", name, err)
	}
	return spec, nil
}
