/*
 * tiltplot.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

//Package tiltplot draws quick diagnostic plots for a tilt series: the
//angle profile over the scan and the per-frame intensity envelope.
package tiltplot

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
)

func basicPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

// Angles plots the tilt angle of every image against its index and
// saves the figure to plotname (format by extension, e.g. .png, .svg).
func Angles(meta *amplus.Meta, title, plotname string) error {
	pts := make(plotter.XYs, meta.Len())
	for i := 0; i < meta.Len(); i++ {
		pts[i].X = float64(i)
		pts[i].Y = meta.Angle(i)
	}
	p := basicPlot(title, "Image", "Tilt angle (deg)")
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{B: 255, A: 255}
	points.Shape = nil
	p.Add(line, points)
	return p.Save(15*vg.Centimeter, 10*vg.Centimeter, plotname)
}

//Intensity reads every frame once and plots the per-frame minimum,
//maximum and mean. A frame whose envelope jumps out of family usually
//points at a scan or dose problem, which is what this plot is for.
func Intensity(reader amplus.Reader, title, plotname string) error {
	n := reader.Shape().Images
	mins := make(plotter.XYs, n)
	maxs := make(plotter.XYs, n)
	means := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		frame, err := reader.Frame(i)
		if err != nil {
			return err
		}
		mins[i].X, maxs[i].X, means[i].X = float64(i), float64(i), float64(i)
		mins[i].Y = frame.Min()
		maxs[i].Y = frame.Max()
		means[i].Y = frame.Mean()
	}
	if n == 0 {
		return fmt.Errorf("tiltplot: empty dataset")
	}
	p := basicPlot(title, "Image", "Intensity")
	series := []struct {
		name string
		pts  plotter.XYs
		col  color.RGBA
	}{
		{"min", mins, color.RGBA{B: 255, A: 255}},
		{"mean", means, color.RGBA{G: 160, A: 255}},
		{"max", maxs, color.RGBA{R: 255, A: 255}},
	}
	for _, s := range series {
		line, err := plotter.NewLine(s.pts)
		if err != nil {
			return err
		}
		line.Color = s.col
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	return p.Save(15*vg.Centimeter, 10*vg.Centimeter, plotname)
}
