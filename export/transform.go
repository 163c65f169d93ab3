/*
 * transform.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package export

import (
	"fmt"
	"math"

	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
)

// ComplexMode says how complex pixel values are turned into the output
// element type. Every mode except Complex strips the imaginary
// component's independence, so the output becomes 64-bit real.
type ComplexMode string

const (
	Complex         ComplexMode = "complex"
	Real            ComplexMode = "real"
	Imaginary       ComplexMode = "imaginary"
	Amplitude       ComplexMode = "amplitude"
	Phase           ComplexMode = "phase"
	PhaseUnwrap     ComplexMode = "phase_unwrap"
	Square          ComplexMode = "square"
	ImaginarySquare ComplexMode = "imaginary_square"
)

// ComplexModes lists the accepted mode names, for CLI help.
var ComplexModes = []string{
	string(Complex), string(Real), string(Imaginary), string(Amplitude),
	string(Phase), string(PhaseUnwrap), string(Square), string(ImaginarySquare),
}

// ParseComplexMode validates a mode name. An empty string means Complex.
func ParseComplexMode(s string) (ComplexMode, error) {
	if s == "" {
		return Complex, nil
	}
	for _, m := range ComplexModes {
		if s == m {
			return ComplexMode(s), nil
		}
	}
	return "", amplus.NewConfigError(fmt.Sprintf("unknown complex mode %q", s))
}

//apply maps one frame through the mode. The identity mode returns the
//frame untouched; everything else produces a fresh real frame.
func (m ComplexMode) apply(f *amplus.Frame) *amplus.Frame {
	if m == Complex {
		return f
	}
	h, w := f.Dims()
	out := amplus.NewFrame(h, w)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			c := f.AtC(i, j)
			var v float64
			switch m {
			case Real:
				v = real(c)
			case Imaginary:
				v = imag(c)
			case Amplitude:
				v = math.Hypot(real(c), imag(c))
			case Phase, PhaseUnwrap:
				v = math.Atan2(imag(c), real(c))
			case Square:
				v = real(c)*real(c) + imag(c)*imag(c)
			case ImaginarySquare:
				//the +1 offset is part of the format contract, it makes
				//the all-real case come out as exactly one
				v = imag(c)*imag(c) + 1
			}
			out.Set(i, j, v)
		}
	}
	if m == PhaseUnwrap {
		unwrapRows(out)
	}
	return out
}

//unwrapRows removes 2π jumps along each row, the same axis numpy's
//unwrap works on by default.
func unwrapRows(f *amplus.Frame) {
	h, w := f.Dims()
	for i := 0; i < h; i++ {
		offset := 0.0
		prev := f.At(i, 0)
		for j := 1; j < w; j++ {
			v := f.At(i, j)
			d := v - prev
			if d > math.Pi {
				offset -= 2 * math.Pi
			} else if d < -math.Pi {
				offset += 2 * math.Pi
			}
			prev = v
			f.Set(i, j, v+offset)
		}
	}
}

// Interlace reorders indices into k contiguous blocks, block b holding
// every k-th index starting at offset b. It reconstructs acquisition
// order from a k-way interleaved scan. k <= 1 returns the input as is.
func Interlace(indices []int, k int) []int {
	if k <= 1 {
		return indices
	}
	out := make([]int, 0, len(indices))
	for b := 0; b < k; b++ {
		for j := b; j < len(indices); j += k {
			out = append(out, indices[j])
		}
	}
	return out
}

// Deinterlace is the inverse of Interlace for the same k.
func Deinterlace(indices []int, k int) []int {
	if k <= 1 {
		return indices
	}
	out := make([]int, len(indices))
	pos := 0
	for b := 0; b < k; b++ {
		for j := b; j < len(indices); j += k {
			out[j] = indices[pos]
			pos++
		}
	}
	return out
}
