/*
 * mrc_write.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package mrc

import (
	"fmt"
	"math"
	"os"

	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
	"gonum.org/v1/gonum/floats"
)

// Writer writes a dataset as a single MRC volume with an FEI1 extended
// header. The file is laid out in full at open time and frames are
// written in place, so the caller may supply them in any index order.
type Writer struct {
	f          *os.File
	filename   string
	hdr        *header
	shape      amplus.Shape
	dtype      amplus.DType
	pixelSize  float64
	ext        []feiRecord
	frameBytes int
	writeable  bool
	finalized  bool
}

// New creates an MRC file sized for the given shape. Element types the
// format cannot hold are narrowed first: Int32 to Int16, UInt32 to
// UInt16, Float64 to Float32, Complex128 to Complex64. The pixel size is
// stored once, in the voxel size record, in Å.
func New(filename string, shape amplus.Shape, pixelSize float64, dtype amplus.DType) (*Writer, error) {
	if shape.Images <= 0 || shape.Height <= 0 || shape.Width <= 0 {
		return nil, amplus.NewConfigError(fmt.Sprintf("bad MRC shape (%d, %d, %d)",
			shape.Images, shape.Height, shape.Width))
	}
	narrowed, err := narrow(dtype)
	if err != nil {
		return nil, errDecorate(err, "New")
	}
	mode, err := modeFromDType(narrowed)
	if err != nil {
		return nil, errDecorate(err, "New")
	}

	w := &Writer{
		filename:   filename,
		shape:      shape,
		dtype:      narrowed,
		pixelSize:  pixelSize,
		frameBytes: shape.Height * shape.Width * bytesPerPixel(mode),
	}

	w.hdr = &header{
		nx: int32(shape.Width), ny: int32(shape.Height), nz: int32(shape.Images),
		mode: mode,
		mx:   int32(shape.Width), my: int32(shape.Height), mz: int32(shape.Images),
		xlen:   float32(pixelSize * float64(shape.Width)),
		ylen:   float32(pixelSize * float64(shape.Height)),
		zlen:   float32(pixelSize * float64(shape.Images)),
		nsymbt: int32(shape.Images * feiRecordSize),
	}
	copy(w.hdr.exttyp[:], feiExtType)

	w.f, err = os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", filename, err)
	}
	if _, err := w.f.WriteAt(w.hdr.encode(), 0); err != nil {
		w.f.Close()
		return nil, fmt.Errorf("writing %s header: %w", filename, err)
	}

	//one extended header record per frame, pixel size and application
	//tag filled in, everything else zero until the frame is written
	w.ext = make([]feiRecord, shape.Images)
	for i := range w.ext {
		w.ext[i] = newFEIRecord()
		w.ext[i].setPixelSize(pixelSize)
		if err := w.flushRecord(i); err != nil {
			w.f.Close()
			return nil, err
		}
	}

	//size the file for the whole payload up front
	if err := w.f.Truncate(w.dataOffset() + int64(shape.Images)*int64(w.frameBytes)); err != nil {
		w.f.Close()
		return nil, fmt.Errorf("sizing %s: %w", filename, err)
	}
	w.writeable = true
	return w, nil
}

func (w *Writer) dataOffset() int64 {
	return headerSize + int64(len(w.ext))*feiRecordSize
}

func (w *Writer) flushRecord(i int) error {
	off := int64(headerSize) + int64(i)*feiRecordSize
	if _, err := w.f.WriteAt(w.ext[i], off); err != nil {
		return fmt.Errorf("writing %s extended header: %w", w.filename, err)
	}
	return nil
}

// Shape returns the dataset geometry.
func (w *Writer) Shape() amplus.Shape { return w.shape }

// DType returns the stored element type, after narrowing.
func (w *Writer) DType() amplus.DType { return w.dtype }

// PixelSize returns the pixel size in Å.
func (w *Writer) PixelSize() float64 { return w.pixelSize }

// RequiresRange returns false; MRC stores raw values.
func (w *Writer) RequiresRange() bool { return false }

// SetRange is a no-op for this backend.
func (w *Writer) SetRange(vmin, vmax *float64) {}

// SetFrame writes the image and its metadata for frame i. The angle goes
// into the Alpha tilt field and the position X/Y into Shift X/Y; the Z
// coordinate is not retained by this format and reads back as zero.
func (w *Writer) SetFrame(i int, img *amplus.Frame, angle float64, pos amplus.Position) error {
	if !w.writeable {
		return amplus.NewConfigError("MRC writer is closed")
	}
	if i < 0 || i >= w.shape.Images {
		return amplus.NewConfigError(fmt.Sprintf("frame index %d outside [0, %d)", i, w.shape.Images))
	}
	h, wd := img.Dims()
	if h != w.shape.Height || wd != w.shape.Width {
		return amplus.NewConfigError(fmt.Sprintf("frame is (%d, %d), dataset wants (%d, %d)",
			h, wd, w.shape.Height, w.shape.Width))
	}
	buf := make([]byte, w.frameBytes)
	encodeFrame(buf, img, w.hdr.mode)
	if _, err := w.f.WriteAt(buf, w.dataOffset()+int64(i)*int64(w.frameBytes)); err != nil {
		return fmt.Errorf("writing %s frame %d: %w", w.filename, i, err)
	}
	w.ext[i].setAlphaTilt(angle)
	w.ext[i].setShiftX(pos[0])
	w.ext[i].setShiftY(pos[1])
	return w.flushRecord(i)
}

// Finalize rescans the whole volume and writes the global min, max, mean
// and rms into the main header. Downstream tools trust these without
// rescanning the data, so skipping Finalize leaves a file they will
// misread. For complex volumes the statistics are marked undetermined in
// the usual way (min > max, mean < min).
func (w *Writer) Finalize() error {
	if !w.writeable {
		return amplus.NewConfigError("MRC writer is closed")
	}
	if w.finalized {
		return nil
	}
	if w.hdr.mode == modeComplex64 {
		w.hdr.dmin, w.hdr.dmax, w.hdr.dmean, w.hdr.rms = 0, -1, -2, -1
	} else {
		min := math.Inf(1)
		max := math.Inf(-1)
		var sum, sumsq float64
		buf := make([]byte, w.frameBytes)
		for i := 0; i < w.shape.Images; i++ {
			if _, err := w.f.ReadAt(buf, w.dataOffset()+int64(i)*int64(w.frameBytes)); err != nil {
				return fmt.Errorf("rescanning %s frame %d: %w", w.filename, i, err)
			}
			frame := decodeFrame(buf, w.hdr.mode, w.shape.Height, w.shape.Width)
			data := frame.Re().RawMatrix().Data
			min = math.Min(min, floats.Min(data))
			max = math.Max(max, floats.Max(data))
			sum += floats.Sum(data)
			for _, v := range data {
				sumsq += v * v
			}
		}
		n := float64(w.shape.Images * w.shape.Height * w.shape.Width)
		mean := sum / n
		w.hdr.dmin = float32(min)
		w.hdr.dmax = float32(max)
		w.hdr.dmean = float32(mean)
		w.hdr.rms = float32(math.Sqrt(sumsq/n - mean*mean))
	}
	if _, err := w.f.WriteAt(w.hdr.encode(), 0); err != nil {
		return fmt.Errorf("updating %s header: %w", w.filename, err)
	}
	if err := w.f.Sync(); err != nil {
		return fmt.Errorf("flushing %s: %w", w.filename, err)
	}
	w.finalized = true
	return nil
}

// Close releases the file. The output is only complete if Finalize ran.
func (w *Writer) Close() error {
	if w == nil || w.f == nil {
		return nil
	}
	w.writeable = false
	return w.f.Close()
}
