/*
 * rebin.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package export

import (
	"math"

	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//Rebinning: integer-factor downsampling by decimation, i.e. a low-pass
//filter followed by picking every r-th sample, applied independently per
//spatial axis. Naive block averaging aliases high frequencies into the
//result; the windowed-sinc filter here keeps them out.

// Rebin downsamples a frame by the integer factor r on both axes. The
// output is (floor(h/r), floor(w/r)); r == 1 returns the frame as is.
func Rebin(f *amplus.Frame, r int) *amplus.Frame {
	if r <= 1 {
		return f
	}
	re := decimate2D(f.Re(), r)
	if f.Complex() {
		return amplus.ComposeFrame(re, decimate2D(f.Im(), r))
	}
	return amplus.ComposeFrame(re, nil)
}

func decimate2D(m *mat.Dense, r int) *mat.Dense {
	kernel := lowpassKernel(r)
	rows, cols := m.Dims()

	//columns first: filter along each row, keep every r-th column
	outCols := cols / r
	tmp := mat.NewDense(rows, outCols, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		copy(row, m.RawRowView(i))
		dec := decimate1D(row, kernel, r, outCols)
		tmp.SetRow(i, dec)
	}

	//then rows
	outRows := rows / r
	out := mat.NewDense(outRows, outCols, nil)
	col := make([]float64, rows)
	for j := 0; j < outCols; j++ {
		mat.Col(col, j, tmp)
		dec := decimate1D(col, kernel, r, outRows)
		for i := 0; i < outRows; i++ {
			out.Set(i, j, dec[i])
		}
	}
	return out
}

//decimate1D convolves with the kernel using reflected edges and samples
//every r-th point.
func decimate1D(x, kernel []float64, r, outLen int) []float64 {
	half := len(kernel) / 2
	n := len(x)
	reflect := func(i int) int {
		for i < 0 || i >= n {
			if i < 0 {
				i = -i - 1
			}
			if i >= n {
				i = 2*n - i - 1
			}
		}
		return i
	}
	out := make([]float64, outLen)
	for k := 0; k < outLen; k++ {
		center := k * r
		var acc float64
		for t := range kernel {
			acc += kernel[t] * x[reflect(center+t-half)]
		}
		out[k] = acc
	}
	return out
}

//lowpassKernel builds a Hamming-windowed sinc with cutoff at the new
//Nyquist frequency, normalized to unit gain at DC.
func lowpassKernel(r int) []float64 {
	taps := 10*r + 1
	fc := 0.5 / float64(r)
	m := float64(taps - 1)
	kernel := make([]float64, taps)
	for i := range kernel {
		t := float64(i) - m/2
		var s float64
		if t == 0 {
			s = 2 * fc
		} else {
			s = math.Sin(2*math.Pi*fc*t) / (math.Pi * t)
		}
		window := 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/m)
		kernel[i] = s * window
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel
}
