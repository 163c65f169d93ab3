/*
 * imageseq.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

//Package imageseq writes a dataset as one 8-bit raster image per frame,
//named from a printf-style template with a 1-based frame number. It is
//write-mostly: angle and position are not persisted and there is no read
//path back. Each frame is rescaled from a value range to [0, 255]; the
//export pipeline normally fixes that range across the whole dataset so
//brightness stays comparable between frames.
package imageseq

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
	"golang.org/x/image/tiff"
)

// Extensions lists the raster formats this backend can encode, keyed by
// filename extension.
var Extensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
}

// Writer writes one image file per frame. The zero value is not usable;
// get one from New.
type Writer struct {
	template   string
	ext        string
	shape      amplus.Shape
	vmin, vmax *float64
	writeable  bool
}

// New creates an image-sequence writer. The template must contain a
// single integer printf verb, e.g. "image_%03d.png"; frame i is written
// to the template formatted with i+1.
func New(template string, shape amplus.Shape) (*Writer, error) {
	if shape.Images <= 0 || shape.Height <= 0 || shape.Width <= 0 {
		return nil, amplus.NewConfigError(fmt.Sprintf("bad image sequence shape (%d, %d, %d)",
			shape.Images, shape.Height, shape.Width))
	}
	if !strings.Contains(template, "%") {
		return nil, amplus.NewConfigError(
			fmt.Sprintf("image template %q has no frame number verb", template))
	}
	if strings.Contains(fmt.Sprintf(template, 1), "%!") {
		return nil, amplus.NewConfigError(
			fmt.Sprintf("image template %q does not format a frame number", template))
	}
	ext := strings.ToLower(filepath.Ext(template))
	if !Extensions[ext] {
		return nil, amplus.NewFormatError(template, "unsupported image extension")
	}
	return &Writer{template: template, ext: ext, shape: shape, writeable: true}, nil
}

// Shape returns the dataset geometry.
func (w *Writer) Shape() amplus.Shape { return w.shape }

// DType returns UInt8; every frame is quantized to 8 bits on write.
func (w *Writer) DType() amplus.DType { return amplus.UInt8 }

// PixelSize returns 0. The raster formats keep no physical scale.
func (w *Writer) PixelSize() float64 { return 0 }

// RequiresRange returns true: without a fixed range every frame is
// normalized on its own and brightness jumps between frames.
func (w *Writer) RequiresRange() bool { return true }

// SetRange fixes one or both endpoints of the value range used for
// rescaling. A nil endpoint keeps the per-frame default.
func (w *Writer) SetRange(vmin, vmax *float64) {
	if vmin != nil {
		v := *vmin
		w.vmin = &v
	}
	if vmax != nil {
		v := *vmax
		w.vmax = &v
	}
}

// SetFrame rescales the image to [0, 255] and writes it to its own file.
// Angle and position are accepted for contract symmetry and dropped;
// this format has nowhere to put them.
//
// A complex image is first converted to its squared magnitude, and any
// fixed range is ignored for that frame: the conversion decides the
// attainable range, a precomputed one no longer applies.
func (w *Writer) SetFrame(i int, img *amplus.Frame, angle float64, pos amplus.Position) error {
	if !w.writeable {
		return amplus.NewConfigError("image writer is closed")
	}
	if i < 0 || i >= w.shape.Images {
		return amplus.NewConfigError(fmt.Sprintf("frame index %d outside [0, %d)", i, w.shape.Images))
	}
	h, wd := img.Dims()
	if h != w.shape.Height || wd != w.shape.Width {
		return amplus.NewConfigError(fmt.Sprintf("frame is (%d, %d), dataset wants (%d, %d)",
			h, wd, w.shape.Height, w.shape.Width))
	}

	vmin, vmax := w.vmin, w.vmax
	if img.Complex() {
		sq := amplus.NewFrame(h, wd)
		for y := 0; y < h; y++ {
			for x := 0; x < wd; x++ {
				c := img.AtC(y, x)
				sq.Set(y, x, real(c)*real(c)+imag(c)*imag(c))
			}
		}
		img = sq
		vmin, vmax = nil, nil
	}

	lo := img.Min()
	if vmin != nil {
		lo = *vmin
	}
	hi := img.Max()
	if vmax != nil {
		hi = *vmax
	}

	var s1, s0 float64
	if hi > lo {
		s1 = 255.0 / (hi - lo)
		s0 = -s1 * lo
	}

	out := image.NewGray(image.Rect(0, 0, wd, h))
	for y := 0; y < h; y++ {
		for x := 0; x < wd; x++ {
			v := img.At(y, x)*s1 + s0
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			out.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}

	filename := fmt.Sprintf(w.template, i+1)
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filename, err)
	}
	defer f.Close()
	switch w.ext {
	case ".png":
		err = png.Encode(f, out)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, out, nil)
	case ".tif", ".tiff":
		err = tiff.Encode(f, out, nil)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filename, err)
	}
	return nil
}

// Finalize is a no-op: each image file is complete as soon as its frame
// is written.
func (w *Writer) Finalize() error { return nil }

// Close releases the writer.
func (w *Writer) Close() error {
	if w != nil {
		w.writeable = false
	}
	return nil
}
