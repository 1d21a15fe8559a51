// ParcelKit: spatial algebra over subdivided land parcels.
//
// Answers adjacency and area-combination queries over a parcel snapshot,
// merges and splits parcel boundaries and maps plane coordinates to
// geographic ones through a three-point calibration.
//
// Build:
//   go build -o parcelkit ./cmd/parcelkit
//
// The GEOS C library must be installed (libgeos-dev on Debian/Ubuntu,
// geos on Homebrew).

package main

import (
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"

	"github.com/piwi3910/ParcelKit/internal/logger"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Config      string `short:"c" long:"config"      env:"PARCELKIT_CONFIG"      description:"Engine config file, JSON or YAML (default ~/.parcelkit/config.json)"`
	Calibration string `long:"calibration"           env:"PARCELKIT_CALIBRATION" description:"Calibration file (default ~/.parcelkit/calibration.json)"`
	Format      string `short:"f" long:"format"      env:"PARCELKIT_FORMAT"      description:"Output format" choice:"json" choice:"geojson" default:"json"`
	Geo         bool   `short:"g" long:"geo"         description:"Write GeoJSON in calibrated geographic coordinates"`
}

var opts Options

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		opts.Logger.Setup()
		if cmd == nil {
			return nil
		}
		return cmd.Execute(args)
	}

	mustAdd(parser.AddCommand("neighbors", "List neighboring parcels",
		"Lists the neighbors of one parcel, or every adjacent pair per block.", &neighborsCommand{}))
	mustAdd(parser.AddCommand("combine", "Find parcel combinations near a target area",
		"Searches single parcels and contiguous pairs and triples whose entered areas sum near the target.", &combineCommand{}))
	mustAdd(parser.AddCommand("merge", "Merge parcels into one boundary",
		"Unions the boundaries of two or more parcels, healing hairline gaps.", &mergeCommand{}))
	mustAdd(parser.AddCommand("split", "Split a parcel along a line",
		"Cuts a single-ring parcel along the line through two points.", &splitCommand{}))
	mustAdd(parser.AddCommand("calibrate", "Manage the coordinate calibration",
		"Shows, captures and applies the three-point calibration.", &calibrateCommand{}))
	mustAdd(parser.AddCommand("config", "Manage the engine config",
		"Writes the default engine config.", &configCommand{}))
	mustAdd(parser.AddCommand("backup", "Export or import config and calibration",
		"Moves the engine config and the calibration between machines in one file.", &backupCommand{}))

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func mustAdd(_ *flags.Command, err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register command")
	}
}
