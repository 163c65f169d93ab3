/*
 * fei.go, part of amplus-digital-twin.
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
)

//The FEI1 extended header: one packed 768-byte record per section,
//sitting between the main header and the pixel payload. The layout is the
//one Thermo Fisher documents and the mrcfile dtype reproduces; offsets
//are into the packed record, there is no alignment padding.

const feiRecordSize = 768

const feiExtType = "FEI1"

//Offsets of the fields this module reads or writes. The record holds many
//more; they stay zero.
const (
	feiMetadataSize    = 0   //i32, number of valid bytes in the record
	feiMetadataVersion = 4   //i32
	feiApplication     = 52  //16-byte string
	feiAlphaTilt       = 100 //f64, degrees
	feiPixelSizeX      = 156 //f64, metres
	feiPixelSizeY      = 164 //f64, metres
	feiShiftX          = 403 //f64
	feiShiftY          = 411 //f64
)

//application tag written into every record, so downstream tools can tell
//simulated data from an acquisition.
const feiApplicationTag = "RFI Simulation"

type feiRecord []byte

func newFEIRecord() feiRecord {
	r := make(feiRecord, feiRecordSize)
	binary.LittleEndian.PutUint32(r[feiMetadataSize:], feiRecordSize)
	copy(r[feiApplication:feiApplication+16], feiApplicationTag)
	return r
}

func (r feiRecord) getFloat(off int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(r[off:]))
}

func (r feiRecord) setFloat(off int, v float64) {
	binary.LittleEndian.PutUint64(r[off:], math.Float64bits(v))
}

func (r feiRecord) alphaTilt() float64     { return r.getFloat(feiAlphaTilt) }
func (r feiRecord) setAlphaTilt(v float64) { r.setFloat(feiAlphaTilt, v) }

func (r feiRecord) shiftX() float64     { return r.getFloat(feiShiftX) }
func (r feiRecord) setShiftX(v float64) { r.setFloat(feiShiftX, v) }

func (r feiRecord) shiftY() float64     { return r.getFloat(feiShiftY) }
func (r feiRecord) setShiftY(v float64) { r.setFloat(feiShiftY, v) }

//setPixelSize stores the per-frame pixel size, which this format keeps in
//metres rather than Å.
func (r feiRecord) setPixelSize(angstrom float64) {
	r.setFloat(feiPixelSizeX, angstrom*1e-10)
	r.setFloat(feiPixelSizeY, angstrom*1e-10)
}
