/*
 * export.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

//Package export resamples, reslices and renormalizes a dataset: it
//consumes any Reader, applies frame selection, interlacing, cropping,
//complex-mode conversion, rotation and rebinning in a fixed order, and
//drives a fresh Writer to materialize the result. The output format is
//again decided by the output filename.
package export

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
	"github.com/rosalindfranklininstitute/amplus-digital-twin/dataio"
)

// IndexRange selects frames [Start, Stop) with the given step, Python
// range style.
type IndexRange struct {
	Start, Stop, Step int
}

// ROI is an axis-aligned crop rectangle; X1/Y1 are exclusive.
type ROI struct {
	X0, Y0, X1, Y1 int
}

// Options configures one export run. The zero value copies everything
// unchanged (identity selection, full frame, complex mode "complex", no
// rotation, no rebinning).
type Options struct {
	Output string

	//SelectImages and RotationRange are mutually exclusive. The former
	//picks frames by index, the latter keeps frames whose tilt angle
	//falls in [Lo, Hi) and skips the rest.
	SelectImages  *IndexRange
	RotationRange *[2]float64

	Interlace int
	ROI       *ROI
	Mode      ComplexMode
	Rot90     bool
	Rebin     int

	//Fixed endpoints of the output value range, for image sequence
	//outputs. Either may be left nil to have it scanned from the data.
	VMin, VMax *float64
}

//validate fails fast, before any output I/O, on everything that can be
//checked without touching pixel data.
func (o *Options) validate() error {
	if o.Output == "" {
		return amplus.NewConfigError("no output filename")
	}
	if o.SelectImages != nil && o.RotationRange != nil {
		return amplus.NewConfigError("select_images and rotation_range are mutually exclusive")
	}
	if o.SelectImages != nil && o.SelectImages.Step <= 0 {
		return amplus.NewConfigError("select_images step must be positive")
	}
	if o.ROI != nil && (o.ROI.X1 <= o.ROI.X0 || o.ROI.Y1 <= o.ROI.Y0) {
		return amplus.NewConfigError(fmt.Sprintf("bad ROI (%d, %d, %d, %d)",
			o.ROI.X0, o.ROI.Y0, o.ROI.X1, o.ROI.Y1))
	}
	if o.Mode == "" {
		o.Mode = Complex
	}
	if _, err := ParseComplexMode(string(o.Mode)); err != nil {
		return err
	}
	if o.Rebin == 0 {
		o.Rebin = 1
	}
	if o.Rebin < 1 {
		return amplus.NewConfigError(fmt.Sprintf("rebin factor %d must be >= 1", o.Rebin))
	}
	return nil
}

// Run exports the dataset behind reader according to opts. The output
// writer is created, driven frame by frame and finalized here; the
// reader stays open and is the caller's to close.
func Run(reader amplus.Reader, opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}
	in := reader.Shape()
	meta := reader.Meta()

	//stage 1: frame selection
	var indices []int
	switch {
	case opts.SelectImages != nil:
		r := opts.SelectImages
		log.Infof("Selecting image range %d,%d,%d", r.Start, r.Stop, r.Step)
		for i := r.Start; i < r.Stop && i < in.Images; i += r.Step {
			if i >= 0 {
				indices = append(indices, i)
			}
		}
	case opts.RotationRange != nil:
		lo, hi := opts.RotationRange[0], opts.RotationRange[1]
		for i := 0; i < in.Images; i++ {
			if a := meta.Angle(i); a >= lo && a < hi {
				indices = append(indices, i)
			} else {
				log.Infof("    Skipping image %d because angle is out of range", i)
			}
		}
	default:
		for i := 0; i < in.Images; i++ {
			indices = append(indices, i)
		}
	}

	//stage 2: interlacing
	indices = Interlace(indices, opts.Interlace)

	//stage 3: region of interest
	roi := ROI{0, 0, in.Width, in.Height}
	if opts.ROI != nil {
		roi = *opts.ROI
	}

	//stage 4 decides the element type: any conversion away from complex
	//forces 64-bit real
	dtype := reader.DType()
	if opts.Mode != Complex {
		dtype = amplus.Float64
	}

	shape := amplus.Shape{Images: len(indices), Height: roi.Y1 - roi.Y0, Width: roi.X1 - roi.X0}
	if opts.Rot90 {
		shape.Height, shape.Width = shape.Width, shape.Height
	}
	pixelSize := reader.PixelSize()
	if opts.Rebin > 1 {
		shape.Height /= opts.Rebin
		shape.Width /= opts.Rebin
		pixelSize *= float64(opts.Rebin)
	}

	log.Infof("Writing data to %s", opts.Output)
	writer, err := dataio.New(opts.Output, shape, pixelSize, dtype)
	if err != nil {
		return errDecorate(err, "Run")
	}
	defer writer.Close()

	if writer.RequiresRange() {
		if err := fixRange(reader, writer, indices, roi, opts); err != nil {
			return err
		}
	}

	for j, i := range indices {
		log.Infof("    Copying image %d -> image %d", i, j)
		frame, err := reader.Frame(i)
		if err != nil {
			return err
		}
		img := frame.Crop(roi.X0, roi.Y0, roi.X1, roi.Y1)
		img = opts.Mode.apply(img)
		angle := meta.Angle(i)
		pos := meta.Position(i)
		if opts.Rot90 {
			img = img.Rot90()
			//the frame axes swapped, so must the in-plane position
			pos[0], pos[1] = pos[1], pos[0]
		}
		img = Rebin(img, opts.Rebin)
		if err := writer.SetFrame(j, img, angle, pos); err != nil {
			return errDecorate(err, "Run")
		}
	}
	return writer.Finalize()
}

//fixRange pins the output value range before the first frame is written.
//Missing endpoints are found by scanning every selected frame once, so
//brightness stays comparable across the sequence; endpoints the caller
//supplied always win.
func fixRange(reader amplus.Reader, writer amplus.Writer, indices []int, roi ROI, opts Options) error {
	vmin, vmax := opts.VMin, opts.VMax
	if vmin == nil || vmax == nil {
		log.Info("Computing min and max of dataset:")
		lo := math.Inf(1)
		hi := math.Inf(-1)
		for _, i := range indices {
			frame, err := reader.Frame(i)
			if err != nil {
				return err
			}
			img := opts.Mode.apply(frame.Crop(roi.X0, roi.Y0, roi.X1, roi.Y1))
			fmin, fmax := img.Min(), img.Max()
			lo = math.Min(lo, fmin)
			hi = math.Max(hi, fmax)
			log.Infof("    Reading image %d: min/max: %.2f/%.2f", i, fmin, fmax)
		}
		if vmin == nil {
			vmin = &lo
		}
		if vmax == nil {
			vmax = &hi
		}
		log.Infof("Min: %f", *vmin)
		log.Infof("Max: %f", *vmax)
	}
	writer.SetRange(vmin, vmax)
	return nil
}

func errDecorate(err error, caller string) error {
	e, ok := err.(amplus.Error)
	if !ok {
		return err
	}
	e.Decorate(caller)
	return e
}
