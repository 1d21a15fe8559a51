package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/ParcelKit/internal/model"
)

// ErrControlPointCount is returned when a calibration file does not hold
// exactly three control points.
var ErrControlPointCount = errors.New("calibration must hold exactly 3 control points")

// DefaultCalibrationPath returns the default path for the saved calibration.
func DefaultCalibrationPath() string {
	return filepath.Join(DefaultConfigDir(), "calibration.json")
}

// SaveCalibration persists a complete set of control points, replacing any
// previous calibration in one step.
func SaveCalibration(path string, points [model.ControlPointCount]model.ControlPoint) error {
	data, err := json.MarshalIndent(points[:], "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal calibration: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write calibration: %w", err)
	}
	return nil
}

// LoadCalibration reads a saved set of control points. A missing file is
// not an error: ok is false and the caller stays uncalibrated.
func LoadCalibration(path string) (points [model.ControlPointCount]model.ControlPoint, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return points, false, nil
		}
		return points, false, err
	}
	var records []model.ControlPoint
	if err := json.Unmarshal(data, &records); err != nil {
		return points, false, fmt.Errorf("failed to parse calibration %s: %w", path, err)
	}
	if len(records) != model.ControlPointCount {
		return points, false, fmt.Errorf("%s: %w, got %d", path, ErrControlPointCount, len(records))
	}
	copy(points[:], records)
	return points, true, nil
}
