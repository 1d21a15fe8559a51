package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/piwi3910/ParcelKit/internal/calibration"
	"github.com/piwi3910/ParcelKit/internal/engine"
	"github.com/piwi3910/ParcelKit/internal/export"
	"github.com/piwi3910/ParcelKit/internal/geometry"
	"github.com/piwi3910/ParcelKit/internal/geometry/geoskernel"
	"github.com/piwi3910/ParcelKit/internal/model"
	"github.com/piwi3910/ParcelKit/internal/project"
)

// stdout receives command output.
var stdout io.Writer = os.Stdout

// app is the runtime shared by every command.
type app struct {
	cfg             model.EngineConfig
	configPath      string
	calibrator      *calibration.Calibrator
	calibrationPath string
	out             io.Writer
}

func configPath() string {
	if opts.Config != "" {
		return opts.Config
	}
	return project.DefaultConfigPath()
}

func calibrationPath() string {
	if opts.Calibration != "" {
		return opts.Calibration
	}
	return project.DefaultCalibrationPath()
}

func loadApp() (*app, error) {
	configPath := configPath()
	cfg, err := project.LoadEngineConfig(configPath)
	if err != nil {
		return nil, err
	}

	calibrator, err := calibration.NewCalibrator(cfg.Fallback())
	if err != nil {
		return nil, err
	}

	calibrationPath := calibrationPath()
	points, ok, err := project.LoadCalibration(calibrationPath)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := calibrator.Load(points); err != nil {
			return nil, fmt.Errorf("%s: %w", calibrationPath, err)
		}
	}

	log.Debug().
		Str("config", configPath).
		Str("calibration", calibrationPath).
		Stringer("state", calibrator.State()).
		Msg("Runtime loaded")

	return &app{
		cfg:             cfg,
		configPath:      configPath,
		calibrator:      calibrator,
		calibrationPath: calibrationPath,
		out:             stdout,
	}, nil
}

func (a *app) engine() *engine.Engine {
	return engine.New(a.cfg)
}

func (a *app) algebra() *geometry.Algebra {
	return geometry.New(geoskernel.New(), a.cfg).WithLogger(log.Logger)
}

// projection selects plane or geographic output coordinates.
func (a *app) projection() (export.Projection, error) {
	if !opts.Geo {
		return export.Local, nil
	}
	if a.calibrator.State() != calibration.Calibrated {
		log.Warn().Msg("No calibration saved, using fallback control points")
	}
	coeffs, err := a.calibrator.Coefficients()
	if err != nil {
		return nil, err
	}
	return export.Geo(coeffs), nil
}

func (a *app) geoJSON() bool {
	return opts.Format == "geojson"
}

func (a *app) write(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// snapshotOption is embedded by every command reading parcels.
type snapshotOption struct {
	Snapshot string `short:"s" long:"snapshot" env:"PARCELKIT_SNAPSHOT" description:"Parcel snapshot file" required:"true"`
}

func (o snapshotOption) load() (model.Snapshot, error) {
	return project.LoadSnapshot(o.Snapshot)
}

// replaceParcels returns a copy of the snapshot without the removed ids and
// with added appended.
func replaceParcels(snap model.Snapshot, removed []string, added ...model.Parcel) model.Snapshot {
	drop := make(map[string]bool, len(removed))
	for _, id := range removed {
		drop[id] = true
	}
	out := model.Snapshot{Parcels: make([]model.Parcel, 0, len(snap.Parcels)+len(added))}
	for _, p := range snap.Parcels {
		if !drop[p.ID] {
			out.Parcels = append(out.Parcels, p)
		}
	}
	out.Parcels = append(out.Parcels, added...)
	return out
}

// saveResult writes the updated snapshot when an output path is given.
func saveResult(path string, snap model.Snapshot) error {
	if path == "" {
		return nil
	}
	if err := project.SaveSnapshot(path, snap); err != nil {
		return err
	}
	log.Info().Str("path", path).Int("parcels", len(snap.Parcels)).Msg("Snapshot written")
	return nil
}

func findParcels(snap model.Snapshot, ids []string) ([]model.Parcel, error) {
	parcels := make([]model.Parcel, 0, len(ids))
	for _, id := range ids {
		p, ok := snap.Find(id)
		if !ok {
			return nil, fmt.Errorf("parcel %q not found", id)
		}
		parcels = append(parcels, p)
	}
	return parcels, nil
}
