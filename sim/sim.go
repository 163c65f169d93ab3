/*
 * sim.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

//Package sim generates synthetic tilt series. It stands in for the
//full physics pipeline: a deterministic projection of a simple phantom,
//optionally with Poisson shot noise, pushed through the same Writer
//contract the real simulation output uses. Useful for exercising the
//I/O backends end to end and as the producer behind `amplus simulate`.
package sim

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
	"github.com/rosalindfranklininstitute/amplus-digital-twin/config"
)

// Simulator projects a spherical phantom through a tilt scan.
type Simulator struct {
	shape     amplus.Shape
	pixelSize float64
	dose      float64 // expected electrons per pixel
	noise     bool
	src       rand.Source

	angles    []float64
	positions []amplus.Position
}

// New builds a simulator from the configuration. The number of images
// follows from the scan's angular range and step.
func New(conf *config.Config) (*Simulator, error) {
	scan := conf.Scan
	if scan.StepAngle <= 0 {
		return nil, amplus.NewConfigError("scan step_angle must be positive")
	}
	n := 1
	if scan.Mode != "still" {
		n = int(math.Floor((scan.StopAngle-scan.StartAngle)/scan.StepAngle)) + 1
		if n < 1 {
			return nil, amplus.NewConfigError(fmt.Sprintf(
				"empty scan: start %.1f stop %.1f step %.1f",
				scan.StartAngle, scan.StopAngle, scan.StepAngle))
		}
	}
	det := conf.Microscope.Detector
	if det.NX <= 0 || det.NY <= 0 {
		return nil, amplus.NewConfigError("detector nx and ny must be positive")
	}

	angles := make([]float64, n)
	positions := make([]amplus.Position, n)
	dz := 0.0
	if n > 1 {
		dz = (scan.StopPos - scan.StartPos) / float64(n-1)
	}
	for i := 0; i < n; i++ {
		angles[i] = scan.StartAngle + float64(i)*scan.StepAngle
		positions[i] = amplus.Position{0, scan.StartPos + float64(i)*dz, 0}
	}

	return &Simulator{
		shape:     amplus.Shape{Images: n, Height: det.NY, Width: det.NX},
		pixelSize: det.PixelSize,
		dose:      conf.Microscope.Beam.ElectronsPerAngstrom * det.PixelSize * det.PixelSize,
		noise:     conf.Simulation.Noise,
		src:       rand.NewSource(uint64(conf.Simulation.Seed)),
		angles:    angles,
		positions: positions,
	}, nil
}

// Shape returns the output dimensions.
func (s *Simulator) Shape() amplus.Shape { return s.shape }

// PixelSize returns the detector pixel size in angstrom.
func (s *Simulator) PixelSize() float64 { return s.pixelSize }

// Angles returns the tilt angle of every image, in degrees.
func (s *Simulator) Angles() []float64 { return s.angles }

//Frame computes image i: the projected thickness of a sphere tilted
//about the vertical axis, scaled to the nominal dose. The tilt
//foreshortens one axis so successive frames differ in a way downstream
//consumers can check against the recorded angle.
func (s *Simulator) Frame(i int) (*amplus.Frame, error) {
	if i < 0 || i >= s.shape.Images {
		return nil, amplus.NewConfigError(fmt.Sprintf("image %d out of range", i))
	}
	h, w := s.shape.Height, s.shape.Width
	out := amplus.NewFrame(h, w)
	theta := s.angles[i] * math.Pi / 180
	cy, cx := float64(h)/2, float64(w)/2
	r := math.Min(cy, cx) * 0.8
	cosT := math.Cos(theta)

	var pois distuv.Poisson
	if s.noise {
		pois = distuv.Poisson{Src: s.src}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			//foreshorten the x axis by the tilt
			dx := (float64(x) - cx) / cosT
			dy := float64(y) - cy
			d2 := 1 - (dx*dx+dy*dy)/(r*r)
			v := 0.0
			if d2 > 0 {
				v = math.Sqrt(d2)
			}
			counts := s.dose * (0.1 + 0.9*v)
			if s.noise {
				pois.Lambda = counts
				counts = pois.Rand()
			}
			out.Set(y, x, counts)
		}
	}
	return out, nil
}

// Run writes the whole series through writer. Finalize is left to the
// caller, as is Close.
func (s *Simulator) Run(writer amplus.Writer) error {
	for i := 0; i < s.shape.Images; i++ {
		frame, err := s.Frame(i)
		if err != nil {
			return err
		}
		if err := writer.SetFrame(i, frame, s.angles[i], s.positions[i]); err != nil {
			return err
		}
	}
	return nil
}
