/*
 * codec.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package mrc

import (
	"encoding/binary"
	"math"

	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
)

//Pixel payload codec. Frames travel as float64 in memory and are
//quantized to the storage mode here, row by row, little endian.

func bytesPerPixel(mode int32) int {
	switch mode {
	case modeByte:
		return 1
	case modeInt16, modeUInt16:
		return 2
	case modeFloat32:
		return 4
	case modeComplex64:
		return 8
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

//encodeFrame quantizes one frame into buf, which must hold
//h*w*bytesPerPixel(mode) bytes.
func encodeFrame(buf []byte, f *amplus.Frame, mode int32) {
	h, w := f.Dims()
	k := 0
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			switch mode {
			case modeByte:
				buf[k] = byte(clamp(f.At(i, j), 0, math.MaxUint8))
				k++
			case modeInt16:
				v := int16(clamp(f.At(i, j), math.MinInt16, math.MaxInt16))
				binary.LittleEndian.PutUint16(buf[k:], uint16(v))
				k += 2
			case modeUInt16:
				v := uint16(clamp(f.At(i, j), 0, math.MaxUint16))
				binary.LittleEndian.PutUint16(buf[k:], v)
				k += 2
			case modeFloat32:
				binary.LittleEndian.PutUint32(buf[k:], math.Float32bits(float32(f.At(i, j))))
				k += 4
			case modeComplex64:
				c := f.AtC(i, j)
				binary.LittleEndian.PutUint32(buf[k:], math.Float32bits(float32(real(c))))
				binary.LittleEndian.PutUint32(buf[k+4:], math.Float32bits(float32(imag(c))))
				k += 8
			}
		}
	}
}

//decodeFrame is the inverse of encodeFrame.
func decodeFrame(buf []byte, mode int32, h, w int) *amplus.Frame {
	var f *amplus.Frame
	if mode == modeComplex64 {
		f = amplus.NewComplexFrame(h, w)
	} else {
		f = amplus.NewFrame(h, w)
	}
	k := 0
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			switch mode {
			case modeByte:
				f.Set(i, j, float64(buf[k]))
				k++
			case modeInt16:
				f.Set(i, j, float64(int16(binary.LittleEndian.Uint16(buf[k:]))))
				k += 2
			case modeUInt16:
				f.Set(i, j, float64(binary.LittleEndian.Uint16(buf[k:])))
				k += 2
			case modeFloat32:
				f.Set(i, j, float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[k:]))))
				k += 4
			case modeComplex64:
				re := math.Float32frombits(binary.LittleEndian.Uint32(buf[k:]))
				im := math.Float32frombits(binary.LittleEndian.Uint32(buf[k+4:]))
				f.SetC(i, j, complex(float64(re), float64(im)))
				k += 8
			}
		}
	}
	return f
}
