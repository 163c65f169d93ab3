/*
 * header.go, part of amplus-digital-twin.
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
	"fmt"
	"math"

	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
)

//The MRC2014 main header. 1024 bytes, little endian. Only the words this
//module actually uses are modelled, the rest travel as opaque padding.

const headerSize = 1024

//Byte offsets into the main header.
const (
	offNX      = 0
	offNY      = 4
	offNZ      = 8
	offMode    = 12
	offMX      = 28
	offMY      = 32
	offMZ      = 36
	offXLen    = 40
	offYLen    = 44
	offZLen    = 48
	offMapC    = 64
	offMapR    = 68
	offMapS    = 72
	offDMin    = 76
	offDMax    = 80
	offDMean   = 84
	offNSymBT  = 92
	offExtTyp  = 104
	offVersion = 108
	offMap     = 208
	offMachSt  = 212
	offRMS     = 216
)

const mrcVersion = 20140

//Pixel storage modes defined by the format.
const (
	modeByte      = 0 //8-bit
	modeInt16     = 1
	modeFloat32   = 2
	modeComplex64 = 4
	modeUInt16    = 6
)

type header struct {
	nx, ny, nz   int32
	mode         int32
	mx, my, mz   int32
	xlen         float32 //cell size in Å; pixel size is xlen/mx
	ylen, zlen   float32
	dmin, dmax   float32
	dmean, rms   float32
	nsymbt       int32 //extended header size in bytes
	exttyp       [4]byte
	raw          [headerSize]byte //everything else, preserved on read
}

//dtype narrowing applied by this backend. Unconditional and silent, the
//format simply has no 32-bit integer or 64-bit float modes.
func narrow(d amplus.DType) (amplus.DType, error) {
	switch d {
	case amplus.Int32:
		return amplus.Int16, nil
	case amplus.UInt32:
		return amplus.UInt16, nil
	case amplus.Float64:
		return amplus.Float32, nil
	case amplus.Complex128:
		return amplus.Complex64, nil
	case amplus.UInt8, amplus.Int16, amplus.UInt16, amplus.Float32, amplus.Complex64:
		return d, nil
	}
	return 0, amplus.NewConfigError(fmt.Sprintf("dtype %v not supported by the MRC format", d))
}

func modeFromDType(d amplus.DType) (int32, error) {
	switch d {
	case amplus.UInt8:
		return modeByte, nil
	case amplus.Int16:
		return modeInt16, nil
	case amplus.UInt16:
		return modeUInt16, nil
	case amplus.Float32:
		return modeFloat32, nil
	case amplus.Complex64:
		return modeComplex64, nil
	}
	return 0, amplus.NewConfigError(fmt.Sprintf("no MRC mode for dtype %v", d))
}

func dtypeFromMode(mode int32) (amplus.DType, error) {
	switch mode {
	case modeByte:
		return amplus.UInt8, nil
	case modeInt16:
		return amplus.Int16, nil
	case modeUInt16:
		return amplus.UInt16, nil
	case modeFloat32:
		return amplus.Float32, nil
	case modeComplex64:
		return amplus.Complex64, nil
	}
	return 0, fmt.Errorf("unsupported MRC mode %d", mode)
}

func (h *header) put32(off int, v uint32) {
	binary.LittleEndian.PutUint32(h.raw[off:], v)
}

func (h *header) putf32(off int, v float32) {
	binary.LittleEndian.PutUint32(h.raw[off:], math.Float32bits(v))
}

//encode lays the parsed fields back over the raw block and returns it.
func (h *header) encode() []byte {
	h.put32(offNX, uint32(h.nx))
	h.put32(offNY, uint32(h.ny))
	h.put32(offNZ, uint32(h.nz))
	h.put32(offMode, uint32(h.mode))
	h.put32(offMX, uint32(h.mx))
	h.put32(offMY, uint32(h.my))
	h.put32(offMZ, uint32(h.mz))
	h.putf32(offXLen, h.xlen)
	h.putf32(offYLen, h.ylen)
	h.putf32(offZLen, h.zlen)
	h.put32(offMapC, 1)
	h.put32(offMapR, 2)
	h.put32(offMapS, 3)
	h.putf32(offDMin, h.dmin)
	h.putf32(offDMax, h.dmax)
	h.putf32(offDMean, h.dmean)
	h.put32(offNSymBT, uint32(h.nsymbt))
	copy(h.raw[offExtTyp:], h.exttyp[:])
	h.put32(offVersion, mrcVersion)
	copy(h.raw[offMap:], "MAP ")
	//machine stamp for little-endian data
	h.raw[offMachSt] = 0x44
	h.raw[offMachSt+1] = 0x44
	h.raw[offMachSt+2] = 0x00
	h.raw[offMachSt+3] = 0x00
	h.putf32(offRMS, h.rms)
	return h.raw[:]
}

func decodeHeader(filename string, buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, amplus.NewFormatError(filename, "file too short for an MRC header")
	}
	if string(buf[offMap:offMap+4]) != "MAP " {
		return nil, amplus.NewFormatError(filename, "missing MAP magic word")
	}
	h := new(header)
	copy(h.raw[:], buf[:headerSize])
	g32 := func(off int) int32 {
		return int32(binary.LittleEndian.Uint32(buf[off:]))
	}
	gf32 := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	h.nx, h.ny, h.nz = g32(offNX), g32(offNY), g32(offNZ)
	h.mode = g32(offMode)
	h.mx, h.my, h.mz = g32(offMX), g32(offMY), g32(offMZ)
	h.xlen, h.ylen, h.zlen = gf32(offXLen), gf32(offYLen), gf32(offZLen)
	h.dmin, h.dmax, h.dmean = gf32(offDMin), gf32(offDMax), gf32(offDMean)
	h.rms = gf32(offRMS)
	h.nsymbt = g32(offNSymBT)
	copy(h.exttyp[:], buf[offExtTyp:offExtTyp+4])
	if h.nx <= 0 || h.ny <= 0 || h.nz <= 0 {
		return nil, amplus.NewFormatError(filename,
			fmt.Sprintf("bad dimensions (%d, %d, %d)", h.nz, h.ny, h.nx))
	}
	return h, nil
}

//pixelSize recovers the pixel size in Å from the voxel size record.
func (h *header) pixelSize() float64 {
	if h.mx == 0 {
		return 0
	}
	return float64(h.xlen) / float64(h.mx)
}
