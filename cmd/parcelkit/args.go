package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/piwi3910/ParcelKit/internal/model"
)

func parsePair(value string) (float64, float64, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected a,b got %q", value)
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid number in %q: %w", value, err)
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid number in %q: %w", value, err)
	}
	return a, b, nil
}

// pointArg parses "x,y".
type pointArg model.Point2D

func (p *pointArg) UnmarshalFlag(value string) error {
	x, y, err := parsePair(value)
	if err != nil {
		return err
	}
	*p = pointArg{X: x, Y: y}
	return nil
}

// geoArg parses "axis1,axis2".
type geoArg model.GeoPoint

func (g *geoArg) UnmarshalFlag(value string) error {
	a1, a2, err := parsePair(value)
	if err != nil {
		return err
	}
	*g = geoArg{Axis1: a1, Axis2: a2}
	return nil
}

// controlPointArg parses "x,y=axis1,axis2".
type controlPointArg model.ControlPoint

func (c *controlPointArg) UnmarshalFlag(value string) error {
	local, geo, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("expected x,y=axis1,axis2 got %q", value)
	}
	var p pointArg
	if err := p.UnmarshalFlag(local); err != nil {
		return err
	}
	var g geoArg
	if err := g.UnmarshalFlag(geo); err != nil {
		return err
	}
	*c = controlPointArg{Local: model.Point2D(p), Geo: model.GeoPoint(g)}
	return nil
}
