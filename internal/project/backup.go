package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/ParcelKit/internal/model"
)

// BackupData bundles the engine config and the active calibration in one
// file, for moving a setup between machines.
type BackupData struct {
	Version     string               `json:"version"`
	CreatedAt   string               `json:"created_at"`
	Config      model.EngineConfig   `json:"config"`
	Calibration []model.ControlPoint `json:"calibration,omitempty"`
}

// ExportAllData writes config and, when calibrated is true, the control
// points to a single JSON file at the specified path.
func ExportAllData(exportPath string, config model.EngineConfig, points [model.ControlPointCount]model.ControlPoint, calibrated bool) error {
	backup := BackupData{
		Version:   "1.0.0",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
	}
	if calibrated {
		backup.Calibration = points[:]
	}
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup data: %w", err)
	}
	if err := writeFileAtomic(exportPath, data); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
// The caller is responsible for applying the imported config and
// calibration.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	backup := BackupData{Config: model.DefaultEngineConfig()}
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	if err := backup.Config.Validate(); err != nil {
		return BackupData{}, fmt.Errorf("invalid backup file: %w", err)
	}
	if n := len(backup.Calibration); n != 0 && n != model.ControlPointCount {
		return BackupData{}, fmt.Errorf("invalid backup file: %w, got %d", ErrControlPointCount, n)
	}
	return backup, nil
}

// Points returns the backed up control points, and false when the backup
// holds no calibration.
func (b BackupData) Points() ([model.ControlPointCount]model.ControlPoint, bool) {
	var points [model.ControlPointCount]model.ControlPoint
	if len(b.Calibration) != model.ControlPointCount {
		return points, false
	}
	copy(points[:], b.Calibration)
	return points, true
}
