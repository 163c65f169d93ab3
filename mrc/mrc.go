/*
 * mrc.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

//Package mrc maps a dataset onto a single MRC2014 volume file with an
//FEI1-style extended header carrying the per-frame tilt angle and shift.
//Gzip- and zstd-compressed volumes (.mrc.gz, .mrc.zst) can be read, they
//are inflated into memory first.
package mrc

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
)

// Reader reads an MRC volume. Per-frame metadata is decoded from the
// extended header at open time; pixel data stays on disk until Frame is
// called.
type Reader struct {
	r         io.ReaderAt
	closer    io.Closer //nil when the volume was inflated into memory
	filename  string
	hdr       *header
	shape     amplus.Shape
	dtype     amplus.DType
	pixelSize float64
	meta      *amplus.Meta
}

// Open opens an MRC file, or a gzip/zstd-compressed one, for reading.
//
// Files whose extended header is not the expected FEI1 layout are still
// readable: the angle and position arrays come back all zero and no error
// is raised. Plenty of externally produced volumes have no extended
// header at all, refusing them would be useless strictness.
func Open(filename string) (*Reader, error) {
	r := &Reader{filename: filename}

	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".gz"), strings.HasSuffix(lower, ".zst"):
		raw, err := inflate(filename, lower)
		if err != nil {
			return nil, err
		}
		r.r = bytes.NewReader(raw)
	default:
		f, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", filename, err)
		}
		r.r = f
		r.closer = f
	}

	head := make([]byte, headerSize)
	if _, err := r.r.ReadAt(head, 0); err != nil {
		r.Close()
		return nil, amplus.NewFormatError(filename, "file too short for an MRC header")
	}
	hdr, err := decodeHeader(filename, head)
	if err != nil {
		r.Close()
		return nil, errDecorate(err, "Open")
	}
	r.hdr = hdr
	r.shape = amplus.Shape{Images: int(hdr.nz), Height: int(hdr.ny), Width: int(hdr.nx)}
	r.dtype, err = dtypeFromMode(hdr.mode)
	if err != nil {
		r.Close()
		return nil, amplus.NewFormatError(filename, err.Error())
	}
	r.pixelSize = hdr.pixelSize()

	angle, position, err := r.readExtended()
	if err != nil {
		r.Close()
		return nil, err
	}
	r.meta, err = amplus.NewMeta(filename, r.shape.Images, angle, position)
	if err != nil {
		r.Close()
		return nil, errDecorate(err, "Open")
	}
	return r, nil
}

func inflate(filename, lower string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filename, err)
	}
	defer f.Close()
	if strings.HasSuffix(lower, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, amplus.NewFormatError(filename, "not a gzip stream")
		}
		defer zr.Close()
		return io.ReadAll(zr)
	}
	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, amplus.NewFormatError(filename, "not a zstd stream")
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

//readExtended reconstructs the angle and position arrays from the FEI1
//records. Anything other than the expected layout falls back to zeros,
//deliberately and silently.
func (r *Reader) readExtended() ([]float64, []amplus.Position, error) {
	n := r.shape.Images
	angle := make([]float64, n)
	position := make([]amplus.Position, n)
	if string(r.hdr.exttyp[:]) != feiExtType || int(r.hdr.nsymbt) != n*feiRecordSize {
		return angle, position, nil
	}
	buf := make([]byte, n*feiRecordSize)
	if _, err := r.r.ReadAt(buf, headerSize); err != nil {
		return nil, nil, fmt.Errorf("reading %s extended header: %w", r.filename, err)
	}
	for i := 0; i < n; i++ {
		rec := feiRecord(buf[i*feiRecordSize : (i+1)*feiRecordSize])
		angle[i] = rec.alphaTilt()
		//the format has no slot for Z, it reads back as zero
		position[i] = amplus.Position{rec.shiftX(), rec.shiftY(), 0}
	}
	return angle, position, nil
}

// Shape returns the dataset geometry.
func (r *Reader) Shape() amplus.Shape { return r.shape }

// DType returns the stored element type.
func (r *Reader) DType() amplus.DType { return r.dtype }

// PixelSize returns the pixel size in Å, from the voxel size record.
func (r *Reader) PixelSize() float64 { return r.pixelSize }

// Meta returns the per-frame metadata.
func (r *Reader) Meta() *amplus.Meta { return r.meta }

// Frame reads frame i from the volume.
func (r *Reader) Frame(i int) (*amplus.Frame, error) {
	if i < 0 || i >= r.shape.Images {
		return nil, amplus.NewConfigError(fmt.Sprintf("frame index %d outside [0, %d)", i, r.shape.Images))
	}
	frameBytes := r.shape.Height * r.shape.Width * bytesPerPixel(r.hdr.mode)
	off := int64(headerSize) + int64(r.hdr.nsymbt) + int64(i)*int64(frameBytes)
	buf := make([]byte, frameBytes)
	if _, err := r.r.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("reading %s frame %d: %w", r.filename, i, err)
	}
	return decodeFrame(buf, r.hdr.mode, r.shape.Height, r.shape.Width), nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

//errDecorate adds caller information to errors of this module's own kind
//and leaves everything else alone.
func errDecorate(err error, caller string) error {
	e, ok := err.(amplus.Error)
	if !ok {
		return err
	}
	e.Decorate(caller)
	return e
}
