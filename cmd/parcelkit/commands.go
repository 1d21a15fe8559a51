package main

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/piwi3910/ParcelKit/internal/calibration"
	"github.com/piwi3910/ParcelKit/internal/export"
	"github.com/piwi3910/ParcelKit/internal/geometry"
	"github.com/piwi3910/ParcelKit/internal/model"
	"github.com/piwi3910/ParcelKit/internal/project"
)

type neighborsCommand struct {
	snapshotOption
	ID string `long:"id" description:"Parcel to list the neighbors of; all pairs when omitted"`
}

func (c *neighborsCommand) Execute([]string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	snap, err := c.load()
	if err != nil {
		return err
	}
	eng := a.engine()

	if c.ID == "" {
		adjacency := eng.Adjacency(snap.Parcels)
		if !a.geoJSON() {
			return a.write(adjacency)
		}
		neighbors := make(map[string][]string)
		for _, block := range adjacency {
			for _, pair := range block.Pairs {
				neighbors[pair[0]] = append(neighbors[pair[0]], pair[1])
				neighbors[pair[1]] = append(neighbors[pair[1]], pair[0])
			}
		}
		proj, err := a.projection()
		if err != nil {
			return err
		}
		fc := export.Parcels(snap.Parcels, proj)
		for _, f := range fc.Features {
			ids := neighbors[f.Properties.MustString("id")]
			if ids == nil {
				ids = []string{}
			}
			f.Properties["neighbors"] = ids
		}
		return a.write(fc)
	}

	target, ok := snap.Find(c.ID)
	if !ok {
		return fmt.Errorf("parcel %q not found", c.ID)
	}
	ids := eng.NeighborsOf(target, snap.Parcels)
	log.Info().Str("id", c.ID).Int("neighbors", len(ids)).Msg("Neighbors found")

	if !a.geoJSON() {
		return a.write(struct {
			ID        string   `json:"id"`
			Neighbors []string `json:"neighbors"`
		}{c.ID, ids})
	}
	parcels, err := findParcels(snap, ids)
	if err != nil {
		return err
	}
	proj, err := a.projection()
	if err != nil {
		return err
	}
	return a.write(export.Parcels(parcels, proj))
}

type combineCommand struct {
	snapshotOption
	Target    float64 `short:"t" long:"target"    description:"Target area" required:"true"`
	Tolerance float64 `short:"p" long:"tolerance" description:"Relative area tolerance, 0.05 = 5% (default from config)" default:"-1"`
}

func (c *combineCommand) Execute([]string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	snap, err := c.load()
	if err != nil {
		return err
	}

	combos := a.engine().FindCombinations(snap.Parcels, c.Target, c.Tolerance)
	log.Info().
		Float64("target", c.Target).
		Int("parcels", len(snap.Parcels)).
		Int("combinations", len(combos)).
		Msg("Combination search finished")

	if !a.geoJSON() {
		if combos == nil {
			combos = []model.Combination{}
		}
		return a.write(combos)
	}

	proj, err := a.projection()
	if err != nil {
		return err
	}
	fc := geojson.NewFeatureCollection()
	for rank, combo := range combos {
		members, err := findParcels(snap, combo.Members)
		if err != nil {
			return err
		}
		for _, p := range members {
			f := export.ParcelFeature(p, proj)
			f.Properties["combination"] = rank + 1
			f.Properties["total_area"] = combo.TotalArea
			fc.Append(f)
		}
	}
	return a.write(fc)
}

type mergeCommand struct {
	snapshotOption
	IDs    []string `long:"id"     description:"Parcel to merge, repeat for each parcel" required:"true"`
	Output string   `short:"o" long:"output" description:"Write the snapshot with the merged parcel replacing its inputs"`
}

func (c *mergeCommand) Execute([]string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	snap, err := c.load()
	if err != nil {
		return err
	}
	parcels, err := findParcels(snap, c.IDs)
	if err != nil {
		return err
	}

	piece, err := a.algebra().Merge(parcels)
	if err != nil {
		return err
	}
	log.Info().
		Strs("ids", c.IDs).
		Bool("healed", piece.Healed).
		Bool("disjoint", piece.Disjoint).
		Float64("area", piece.Boundary.Area()).
		Msg("Parcels merged")

	merged := mergedParcel(parcels, piece)
	if err := saveResult(c.Output, replaceParcels(snap, c.IDs, merged)); err != nil {
		return err
	}
	if !a.geoJSON() {
		return a.write(mergeOutput{
			Parcel:   merged,
			Centroid: piece.Centroid,
			Healed:   piece.Healed,
			Disjoint: piece.Disjoint,
		})
	}
	proj, err := a.projection()
	if err != nil {
		return err
	}
	f := export.PieceFeature(piece, proj)
	f.ID = merged.ID
	f.Properties["id"] = merged.ID
	f.Properties["block_key"] = merged.BlockKey
	f.Properties["merged_from"] = c.IDs
	fc := geojson.NewFeatureCollection()
	fc.Append(f)
	return a.write(fc)
}

type mergeOutput struct {
	Parcel   model.Parcel  `json:"parcel"`
	Centroid model.Point2D `json:"centroid"`
	Healed   bool          `json:"healed,omitempty"`
	Disjoint bool          `json:"disjoint,omitempty"`
}

// mergedParcel builds the parcel replacing the merged ones. It gets a new
// id in the block of the first input, and the sum of the entered areas when
// every input has one.
func mergedParcel(parcels []model.Parcel, piece geometry.Piece) model.Parcel {
	merged := model.NewParcel(parcels[0].BlockKey, "", piece.Boundary)
	var total float64
	for _, p := range parcels {
		if !p.Attributes.HasArea() {
			return merged
		}
		total += p.Attributes.AreaValue()
	}
	merged.Attributes.Area = model.Float(total)
	return merged
}

type splitCommand struct {
	snapshotOption
	ID     string   `long:"id"   description:"Parcel to split" required:"true"`
	From   pointArg `long:"from" description:"First point of the cut, x,y" required:"true"`
	To     pointArg `long:"to"   description:"Second point of the cut, x,y" required:"true"`
	Output string   `short:"o" long:"output" description:"Write the snapshot with the two parts replacing the parcel"`
}

type splitPart struct {
	Parcel   model.Parcel  `json:"parcel"`
	Centroid model.Point2D `json:"centroid"`
	Disjoint bool          `json:"disjoint,omitempty"`
}

type splitOutput struct {
	OK    bool        `json:"ok"`
	Parts []splitPart `json:"parts,omitempty"`
}

func (c *splitCommand) Execute([]string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	snap, err := c.load()
	if err != nil {
		return err
	}
	parcel, ok := snap.Find(c.ID)
	if !ok {
		return fmt.Errorf("parcel %q not found", c.ID)
	}

	result, ok, err := a.algebra().Split(parcel, model.Point2D(c.From), model.Point2D(c.To))
	if err != nil {
		return err
	}
	if !ok {
		log.Warn().Str("id", c.ID).Msg("Cut does not divide the parcel")
		if a.geoJSON() {
			return a.write(geojson.NewFeatureCollection())
		}
		return a.write(splitOutput{})
	}
	log.Info().
		Str("id", c.ID).
		Float64("area1", result.Part1.Boundary.Area()).
		Float64("area2", result.Part2.Boundary.Area()).
		Msg("Parcel split")

	pieces := []geometry.Piece{result.Part1, result.Part2}
	parts := make([]splitPart, len(pieces))
	for i, piece := range pieces {
		parts[i] = splitPart{
			Parcel:   model.NewParcel(parcel.BlockKey, "", piece.Boundary),
			Centroid: piece.Centroid,
			Disjoint: piece.Disjoint,
		}
	}
	if err := saveResult(c.Output, replaceParcels(snap, []string{parcel.ID}, parts[0].Parcel, parts[1].Parcel)); err != nil {
		return err
	}
	if !a.geoJSON() {
		return a.write(splitOutput{OK: true, Parts: parts})
	}
	proj, err := a.projection()
	if err != nil {
		return err
	}
	fc := export.Pieces(pieces, proj)
	for i, f := range fc.Features {
		f.ID = parts[i].Parcel.ID
		f.Properties["id"] = parts[i].Parcel.ID
		f.Properties["block_key"] = parcel.BlockKey
		f.Properties["split_from"] = parcel.ID
	}
	return a.write(fc)
}

type calibrateCommand struct {
	Show    calibrateShowCommand    `command:"show"     description:"Show the active calibration"`
	Capture calibrateCaptureCommand `command:"capture"  description:"Capture and save three control points"`
	ToGeo   calibrateToGeoCommand   `command:"to-geo"   description:"Map local points to geographic coordinates"`
	ToLocal calibrateToLocalCommand `command:"to-local" description:"Map geographic points to local coordinates"`
	Parcel  calibrateParcelCommand  `command:"parcel"   description:"Map the boundary of a parcel to geographic coordinates"`
}

type calibrateShowCommand struct{}

func (c *calibrateShowCommand) Execute([]string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	coeffs, err := a.calibrator.Coefficients()
	if err != nil {
		return err
	}
	out := struct {
		State        string                   `json:"state"`
		Path         string                   `json:"path"`
		Points       []model.ControlPoint     `json:"points,omitempty"`
		Coefficients calibration.Coefficients `json:"coefficients"`
	}{
		State:        a.calibrator.State().String(),
		Path:         a.calibrationPath,
		Coefficients: coeffs,
	}
	if points, ok := a.calibrator.Points(); ok {
		out.Points = points[:]
	}
	return a.write(out)
}

type calibrateCaptureCommand struct {
	Points []controlPointArg `short:"p" long:"point" description:"Control point x,y=axis1,axis2, exactly three" required:"true"`
}

func (c *calibrateCaptureCommand) Execute([]string) error {
	if len(c.Points) != model.ControlPointCount {
		return fmt.Errorf("need exactly %d control points, got %d", model.ControlPointCount, len(c.Points))
	}
	a, err := loadApp()
	if err != nil {
		return err
	}

	var (
		points [model.ControlPointCount]model.ControlPoint
		done   bool
	)
	for _, cp := range c.Points {
		points, done, err = a.calibrator.Capture(model.ControlPoint(cp))
		if err != nil {
			if errors.Is(err, calibration.ErrCollinear) {
				log.Warn().Msg("Control points are collinear, calibration unchanged")
			}
			return err
		}
	}
	if !done {
		return fmt.Errorf("calibration incomplete, %d points pending", a.calibrator.Pending())
	}

	if err := project.SaveCalibration(a.calibrationPath, points); err != nil {
		return err
	}
	log.Info().Str("path", a.calibrationPath).Msg("Calibration saved")

	coeffs, err := a.calibrator.Coefficients()
	if err != nil {
		return err
	}
	return a.write(coeffs)
}

type calibrateToGeoCommand struct {
	Args struct {
		Points []pointArg `positional-arg-name:"x,y" required:"1"`
	} `positional-args:"yes" required:"yes"`
}

func (c *calibrateToGeoCommand) Execute([]string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	out := make([]model.GeoPoint, 0, len(c.Args.Points))
	for _, p := range c.Args.Points {
		g, err := a.calibrator.LocalToGeo(model.Point2D(p))
		if err != nil {
			return err
		}
		out = append(out, g)
	}
	return a.write(out)
}

type calibrateToLocalCommand struct {
	Args struct {
		Points []geoArg `positional-arg-name:"axis1,axis2" required:"1"`
	} `positional-args:"yes" required:"yes"`
}

func (c *calibrateToLocalCommand) Execute([]string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	out := make([]model.Point2D, 0, len(c.Args.Points))
	for _, g := range c.Args.Points {
		p, err := a.calibrator.GeoToLocal(model.GeoPoint(g))
		if err != nil {
			return err
		}
		out = append(out, p)
	}
	return a.write(out)
}

type calibrateParcelCommand struct {
	snapshotOption
	ID string `long:"id" description:"Parcel to map" required:"true"`
}

type geoBoundary struct {
	ID    string             `json:"id"`
	Rings [][]model.GeoPoint `json:"rings"`
}

func (c *calibrateParcelCommand) Execute([]string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	snap, err := c.load()
	if err != nil {
		return err
	}
	parcel, ok := snap.Find(c.ID)
	if !ok {
		return fmt.Errorf("parcel %q not found", c.ID)
	}
	coeffs, err := a.calibrator.Coefficients()
	if err != nil {
		return err
	}
	return a.write(parcelToGeo(parcel, coeffs))
}

func parcelToGeo(p model.Parcel, coeffs calibration.Coefficients) geoBoundary {
	out := geoBoundary{ID: p.ID, Rings: make([][]model.GeoPoint, len(p.Boundary.Rings))}
	for i, r := range p.Boundary.Rings {
		out.Rings[i] = coeffs.RingToGeo(r.Open())
	}
	return out
}
