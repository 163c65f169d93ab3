/*
 * frame.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package amplus

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Frame is one 2-D image of a dataset. The pixel values are kept as a
// gonum dense matrix; complex images carry a second matrix with the
// imaginary plane. Whatever the on-disk element type, a Frame always
// works in float64, the backends quantize on write.
type Frame struct {
	re *mat.Dense
	im *mat.Dense //nil for real data
}

// NewFrame returns a zeroed real frame of the given height and width.
func NewFrame(h, w int) *Frame {
	return &Frame{re: mat.NewDense(h, w, nil)}
}

// NewComplexFrame returns a zeroed complex frame.
func NewComplexFrame(h, w int) *Frame {
	return &Frame{re: mat.NewDense(h, w, nil), im: mat.NewDense(h, w, nil)}
}

// FrameFromSlice wraps row-major pixel data into a real frame. The slice
// is used directly, not copied, and must have h*w elements.
func FrameFromSlice(h, w int, data []float64) *Frame {
	return &Frame{re: mat.NewDense(h, w, data)}
}

// ComposeFrame builds a frame from existing planes. im may be nil.
func ComposeFrame(re, im *mat.Dense) *Frame {
	return &Frame{re: re, im: im}
}

// Dims returns the height and width.
func (f *Frame) Dims() (h, w int) {
	return f.re.Dims()
}

// Complex reports whether the frame carries an imaginary plane.
func (f *Frame) Complex() bool {
	return f.im != nil
}

// Re returns the real plane.
func (f *Frame) Re() *mat.Dense { return f.re }

// Im returns the imaginary plane, or nil for a real frame.
func (f *Frame) Im() *mat.Dense { return f.im }

// At returns the real value at row i, column j.
func (f *Frame) At(i, j int) float64 {
	return f.re.At(i, j)
}

// Set sets the real value at row i, column j.
func (f *Frame) Set(i, j int, v float64) {
	f.re.Set(i, j, v)
}

// AtC returns the value at row i, column j as a complex number.
func (f *Frame) AtC(i, j int) complex128 {
	if f.im == nil {
		return complex(f.re.At(i, j), 0)
	}
	return complex(f.re.At(i, j), f.im.At(i, j))
}

// SetC sets a complex value. Panics if the frame is real.
func (f *Frame) SetC(i, j int, v complex128) {
	f.re.Set(i, j, real(v))
	f.im.Set(i, j, imag(v))
}

// Min returns the smallest value of the real plane.
func (f *Frame) Min() float64 {
	return floats.Min(f.re.RawMatrix().Data)
}

// Max returns the largest value of the real plane.
func (f *Frame) Max() float64 {
	return floats.Max(f.re.RawMatrix().Data)
}

// Mean returns the average value of the real plane.
func (f *Frame) Mean() float64 {
	data := f.re.RawMatrix().Data
	return floats.Sum(data) / float64(len(data))
}

// Crop copies out the axis-aligned rectangle [y0:y1, x0:x1).
func (f *Frame) Crop(x0, y0, x1, y1 int) *Frame {
	crop := func(m *mat.Dense) *mat.Dense {
		out := mat.NewDense(y1-y0, x1-x0, nil)
		out.Copy(m.Slice(y0, y1, x0, x1))
		return out
	}
	out := &Frame{re: crop(f.re)}
	if f.im != nil {
		out.im = crop(f.im)
	}
	return out
}

// Rot90 returns the frame rotated 90 degrees counter-clockwise, so an
// (H, W) frame becomes (W, H). The first output row is the last input
// column.
func (f *Frame) Rot90() *Frame {
	h, w := f.Dims()
	rot := func(m *mat.Dense) *mat.Dense {
		out := mat.NewDense(w, h, nil)
		for i := 0; i < h; i++ {
			for j := 0; j < w; j++ {
				out.Set(w-1-j, i, m.At(i, j))
			}
		}
		return out
	}
	out := &Frame{re: rot(f.re)}
	if f.im != nil {
		out.im = rot(f.im)
	}
	return out
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out := &Frame{re: mat.DenseCopyOf(f.re)}
	if f.im != nil {
		out.im = mat.DenseCopyOf(f.im)
	}
	return out
}
