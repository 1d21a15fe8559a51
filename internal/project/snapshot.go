package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/piwi3910/ParcelKit/internal/model"
)

// ErrDuplicateParcel is returned when two parcels of a snapshot share an id.
var ErrDuplicateParcel = errors.New("duplicate parcel id")

// ReadSnapshot decodes a parcel snapshot. Both {"parcels":[...]} and a bare
// list of parcels are accepted. Every parcel is validated.
func ReadSnapshot(r io.Reader) (model.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Snapshot{}, err
	}

	var snap model.Snapshot
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &snap.Parcels)
	} else {
		err = json.Unmarshal(trimmed, &snap)
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	seen := make(map[string]bool, len(snap.Parcels))
	for i, p := range snap.Parcels {
		if err := p.Validate(); err != nil {
			return model.Snapshot{}, fmt.Errorf("parcel %d: %w", i, err)
		}
		if seen[p.ID] {
			return model.Snapshot{}, fmt.Errorf("%w: %q", ErrDuplicateParcel, p.ID)
		}
		seen[p.ID] = true
	}
	return snap, nil
}

// LoadSnapshot reads a parcel snapshot from a file.
func LoadSnapshot(path string) (model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Snapshot{}, err
	}
	defer f.Close()

	snap, err := ReadSnapshot(f)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// SaveSnapshot writes a snapshot as {"parcels":[...]}.
func SaveSnapshot(path string, snap model.Snapshot) error {
	if snap.Parcels == nil {
		snap.Parcels = []model.Parcel{}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return writeFileAtomic(path, data)
}
