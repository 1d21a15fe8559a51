package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/piwi3910/ParcelKit/internal/calibration"
	"github.com/piwi3910/ParcelKit/internal/model"
	"github.com/piwi3910/ParcelKit/internal/project"
)

type configCommand struct {
	Init configInitCommand `command:"init" description:"Write the default engine config, JSON or YAML by extension"`
}

type configInitCommand struct {
	Force bool `long:"force" description:"Overwrite an existing config file"`
}

func (c *configInitCommand) Execute([]string) error {
	path := configPath()
	if _, err := os.Stat(path); err == nil && !c.Force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	if err := project.SaveEngineConfig(path, model.DefaultEngineConfig()); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("Default config written")
	return nil
}

type backupCommand struct {
	Export backupExportCommand `command:"export" description:"Write engine config and calibration to one file"`
	Import backupImportCommand `command:"import" description:"Restore engine config and calibration from a backup"`
}

type backupExportCommand struct {
	Args struct {
		Path string `positional-arg-name:"file"`
	} `positional-args:"yes" required:"yes"`
}

func (c *backupExportCommand) Execute([]string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	points, calibrated := a.calibrator.Points()
	if err := project.ExportAllData(c.Args.Path, a.cfg, points, calibrated); err != nil {
		return err
	}
	log.Info().
		Str("path", c.Args.Path).
		Bool("calibrated", calibrated).
		Msg("Backup written")
	return nil
}

type backupImportCommand struct {
	Args struct {
		Path string `positional-arg-name:"file"`
	} `positional-args:"yes" required:"yes"`
}

func (c *backupImportCommand) Execute([]string) error {
	backup, err := project.ImportAllData(c.Args.Path)
	if err != nil {
		return err
	}

	// Validate both parts before writing either.
	points, calibrated := backup.Points()
	if calibrated {
		if _, err := calibration.Solve(points); err != nil {
			return fmt.Errorf("backup calibration: %w", err)
		}
	}
	if _, err := calibration.NewCalibrator(backup.Config.Fallback()); err != nil {
		return fmt.Errorf("backup config: %w", err)
	}

	if err := project.SaveEngineConfig(configPath(), backup.Config); err != nil {
		return err
	}
	if calibrated {
		if err := project.SaveCalibration(calibrationPath(), points); err != nil {
			return err
		}
	}
	log.Info().
		Str("path", c.Args.Path).
		Str("created_at", backup.CreatedAt).
		Bool("calibrated", calibrated).
		Msg("Backup restored")
	return nil
}
