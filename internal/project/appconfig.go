package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/piwi3910/ParcelKit/internal/model"
)

// DefaultConfigDir returns the default directory for engine configuration
// and calibration. On all platforms this is ~/.parcelkit/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".parcelkit")
}

// DefaultConfigPath returns the default path for the engine config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// SaveEngineConfig persists an EngineConfig to the given path, as YAML when
// the extension is .yaml or .yml and as JSON otherwise.
// It creates any missing parent directories automatically.
func SaveEngineConfig(path string, config model.EngineConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal engine config: %w", err)
	}
	return writeFileAtomic(path, data)
}

// LoadEngineConfig reads an EngineConfig from the given path.
// If the file does not exist, it returns DefaultEngineConfig with no error.
// Fields missing from the file keep their default values.
func LoadEngineConfig(path string) (model.EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultEngineConfig(), nil
		}
		return model.EngineConfig{}, err
	}

	config := model.DefaultEngineConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return model.EngineConfig{}, fmt.Errorf("failed to parse engine config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return model.EngineConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// writeFileAtomic writes data next to path and renames it into place, so a
// reader never sees a partially written file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
