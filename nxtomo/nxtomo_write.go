/*
 * nxtomo_write.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package nxtomo

import (
	"fmt"

	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
	"github.com/scigolib/hdf5"
)

//Container paths of the tomography layout.
const (
	entryPath      = "/entry"
	definitionPath = "/entry/definition"
	instrumentPath = "/entry/instrument"
	detectorPath   = "/entry/instrument/detector"
	samplePath     = "/entry/sample"
	dataPath       = "/entry/data"
)

const definitionTag = "NXtomo"

const sampleName = "amplus-simulation"

// Writer writes a dataset as an NXtomo-style HDF5 container. Frames and
// metadata are buffered in memory and the container is materialized by
// Finalize in one pass; SetFrame stays indexed, so frames may arrive in
// any order.
type Writer struct {
	filename  string
	shape     amplus.Shape
	dtype     amplus.DType
	pixelSize float64

	data                   []float64 //flat, row-major (images, height, width)
	dataIm                 []float64 //imaginary plane, nil for real dtypes
	angle                  []float32
	xTrans, yTrans, zTrans []float32
	xShift, yShift         []float32

	writeable bool
	finalized bool
}

// New prepares an NXtomo container for the given shape. Unlike the MRC
// backend no dtype narrowing happens here, the container keeps whatever
// it is given; complex types are stored as an extra trailing dimension of
// (real, imag) pairs.
func New(filename string, shape amplus.Shape, pixelSize float64, dtype amplus.DType) (*Writer, error) {
	if shape.Images <= 0 || shape.Height <= 0 || shape.Width <= 0 {
		return nil, amplus.NewConfigError(fmt.Sprintf("bad NXtomo shape (%d, %d, %d)",
			shape.Images, shape.Height, shape.Width))
	}
	if _, err := storageType(dtype); err != nil {
		return nil, err
	}
	n := shape.Images
	w := &Writer{
		filename:  filename,
		shape:     shape,
		dtype:     dtype,
		pixelSize: pixelSize,
		data:      make([]float64, n*shape.Height*shape.Width),
		angle:     make([]float32, n),
		xTrans:    make([]float32, n),
		yTrans:    make([]float32, n),
		zTrans:    make([]float32, n),
		xShift:    make([]float32, n),
		yShift:    make([]float32, n),
		writeable: true,
	}
	if dtype.Complex() {
		w.dataIm = make([]float64, n*shape.Height*shape.Width)
	}
	return w, nil
}

func storageType(d amplus.DType) (hdf5.Datatype, error) {
	switch d {
	case amplus.UInt8:
		return hdf5.Uint8, nil
	case amplus.Int16:
		return hdf5.Int16, nil
	case amplus.UInt16:
		return hdf5.Uint16, nil
	case amplus.Int32:
		return hdf5.Int32, nil
	case amplus.UInt32:
		return hdf5.Uint32, nil
	case amplus.Float32, amplus.Complex64:
		return hdf5.Float32, nil
	case amplus.Float64, amplus.Complex128:
		return hdf5.Float64, nil
	}
	return 0, amplus.NewConfigError(fmt.Sprintf("dtype %v not supported by the NXtomo backend", d))
}

// Shape returns the dataset geometry.
func (w *Writer) Shape() amplus.Shape { return w.shape }

// DType returns the element type.
func (w *Writer) DType() amplus.DType { return w.dtype }

// PixelSize returns the pixel size in Å.
func (w *Writer) PixelSize() float64 { return w.pixelSize }

// RequiresRange returns false; the container stores raw values.
func (w *Writer) RequiresRange() bool { return false }

// SetRange is a no-op for this backend.
func (w *Writer) SetRange(vmin, vmax *float64) {}

// SetFrame buffers the image and metadata for frame i.
func (w *Writer) SetFrame(i int, img *amplus.Frame, angle float64, pos amplus.Position) error {
	if !w.writeable {
		return amplus.NewConfigError("NXtomo writer is closed")
	}
	if i < 0 || i >= w.shape.Images {
		return amplus.NewConfigError(fmt.Sprintf("frame index %d outside [0, %d)", i, w.shape.Images))
	}
	h, wd := img.Dims()
	if h != w.shape.Height || wd != w.shape.Width {
		return amplus.NewConfigError(fmt.Sprintf("frame is (%d, %d), dataset wants (%d, %d)",
			h, wd, w.shape.Height, w.shape.Width))
	}
	base := i * h * wd
	for y := 0; y < h; y++ {
		for x := 0; x < wd; x++ {
			w.data[base+y*wd+x] = img.At(y, x)
			if w.dataIm != nil {
				if img.Complex() {
					w.dataIm[base+y*wd+x] = img.Im().At(y, x)
				} else {
					w.dataIm[base+y*wd+x] = 0
				}
			}
		}
	}
	w.angle[i] = float32(angle)
	w.xTrans[i] = float32(pos[0])
	w.yTrans[i] = float32(pos[1])
	w.zTrans[i] = float32(pos[2])
	return nil
}

// SetShift records the per-frame 2-vector beam shift. Only this backend
// persists it.
func (w *Writer) SetShift(i int, s amplus.Shift) error {
	if !w.writeable {
		return amplus.NewConfigError("NXtomo writer is closed")
	}
	if i < 0 || i >= w.shape.Images {
		return amplus.NewConfigError(fmt.Sprintf("frame index %d outside [0, %d)", i, w.shape.Images))
	}
	w.xShift[i] = float32(s[0])
	w.yShift[i] = float32(s[1])
	return nil
}

// Finalize materializes the container: the entry with its definition tag,
// the instrument/detector branch with the payload, per-frame pixel size
// and image key, the sample branch with rotation and translation arrays,
// and a data branch of hard links that alias, rather than copy, the
// same objects.
func (w *Writer) Finalize() error {
	if !w.writeable {
		return amplus.NewConfigError("NXtomo writer is closed")
	}
	if w.finalized {
		return nil
	}
	fw, err := hdf5.CreateForWrite(w.filename, hdf5.CreateTruncate)
	if err != nil {
		return fmt.Errorf("creating %s: %w", w.filename, err)
	}
	defer fw.Close()

	for _, g := range []string{entryPath, instrumentPath, detectorPath, samplePath, dataPath} {
		if _, err := fw.CreateGroup(g); err != nil {
			return fmt.Errorf("creating %s in %s: %w", g, w.filename, err)
		}
	}

	if err := writeStrings(fw, definitionPath, []string{definitionTag}); err != nil {
		return err
	}
	if err := writeStrings(fw, samplePath+"/name", []string{sampleName}); err != nil {
		return err
	}

	if err := w.writeData(fw); err != nil {
		return err
	}

	n := uint64(w.shape.Images)
	fill := make([]float64, n)
	if err := writeFloat64(fw, detectorPath+"/image_key", fill, n); err != nil {
		return err
	}
	for i := range fill {
		fill[i] = w.pixelSize
	}
	//per-frame pixel size: the model treats it as global, the schema
	//wants one entry per frame, so it is a constant fill
	if err := writeFloat64(fw, detectorPath+"/x_pixel_size", fill, n); err != nil {
		return err
	}
	if err := writeFloat64(fw, detectorPath+"/y_pixel_size", fill, n); err != nil {
		return err
	}

	sample := map[string][]float32{
		"/rotation_angle": w.angle,
		"/x_translation":  w.xTrans,
		"/y_translation":  w.yTrans,
		"/z_translation":  w.zTrans,
		"/x_shift":        w.xShift,
		"/y_shift":        w.yShift,
	}
	//fixed order, the container should not depend on map iteration
	for _, name := range []string{"/rotation_angle", "/x_translation", "/y_translation",
		"/z_translation", "/x_shift", "/y_shift"} {
		if err := writeFloat32(fw, samplePath+name, sample[name], n); err != nil {
			return err
		}
	}

	//the data branch aliases the canonical arrays, it must not copy them
	links := map[string]string{
		dataPath + "/data":           detectorPath + "/data",
		dataPath + "/image_key":      detectorPath + "/image_key",
		dataPath + "/rotation_angle": samplePath + "/rotation_angle",
		dataPath + "/x_translation":  samplePath + "/x_translation",
		dataPath + "/y_translation":  samplePath + "/y_translation",
		dataPath + "/z_translation":  samplePath + "/z_translation",
		dataPath + "/x_shift":        samplePath + "/x_shift",
		dataPath + "/y_shift":        samplePath + "/y_shift",
	}
	for link, target := range links {
		if err := fw.CreateHardLink(link, target); err != nil {
			return fmt.Errorf("linking %s -> %s in %s: %w", link, target, w.filename, err)
		}
	}

	w.finalized = true
	w.writeable = false
	return nil
}

//writeData writes the pixel payload with the dtype and logical shape
//recorded as attributes. Complex data gets a trailing dimension of two.
func (w *Writer) writeData(fw *hdf5.FileWriter) error {
	st, err := storageType(w.dtype)
	if err != nil {
		return err
	}
	dims := []uint64{uint64(w.shape.Images), uint64(w.shape.Height), uint64(w.shape.Width)}
	values := w.data
	if w.dtype.Complex() {
		dims = append(dims, 2)
		values = make([]float64, 0, 2*len(w.data))
		for i := range w.data {
			values = append(values, w.data[i], w.dataIm[i])
		}
	}
	dw, err := fw.CreateDataset(detectorPath+"/data", st, dims)
	if err != nil {
		return fmt.Errorf("creating data in %s: %w", w.filename, err)
	}
	if err := dw.Write(convertPayload(values, w.dtype)); err != nil {
		dw.Close()
		return fmt.Errorf("writing data in %s: %w", w.filename, err)
	}
	if err := dw.WriteAttribute("dtype", w.dtype.String()); err != nil {
		dw.Close()
		return fmt.Errorf("writing dtype attribute in %s: %w", w.filename, err)
	}
	shape := []int64{int64(w.shape.Images), int64(w.shape.Height), int64(w.shape.Width)}
	if err := dw.WriteAttribute("shape", shape); err != nil {
		dw.Close()
		return fmt.Errorf("writing shape attribute in %s: %w", w.filename, err)
	}
	return dw.Close()
}

//convertPayload quantizes the buffered float64 values into the slice type
//the storage datatype wants.
func convertPayload(values []float64, d amplus.DType) interface{} {
	switch d {
	case amplus.UInt8:
		out := make([]uint8, len(values))
		for i, v := range values {
			out[i] = uint8(v)
		}
		return out
	case amplus.Int16:
		out := make([]int16, len(values))
		for i, v := range values {
			out[i] = int16(v)
		}
		return out
	case amplus.UInt16:
		out := make([]uint16, len(values))
		for i, v := range values {
			out[i] = uint16(v)
		}
		return out
	case amplus.Int32:
		out := make([]int32, len(values))
		for i, v := range values {
			out[i] = int32(v)
		}
		return out
	case amplus.UInt32:
		out := make([]uint32, len(values))
		for i, v := range values {
			out[i] = uint32(v)
		}
		return out
	case amplus.Float32, amplus.Complex64:
		out := make([]float32, len(values))
		for i, v := range values {
			out[i] = float32(v)
		}
		return out
	}
	return values //Float64 and Complex128 stay as they are
}

func writeStrings(fw *hdf5.FileWriter, path string, values []string) error {
	size := 0
	for _, s := range values {
		if len(s)+1 > size {
			size = len(s) + 1
		}
	}
	dw, err := fw.CreateDataset(path, hdf5.String, []uint64{uint64(len(values))},
		hdf5.WithStringSize(uint32(size)))
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := dw.Write(values); err != nil {
		dw.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return dw.Close()
}

func writeFloat64(fw *hdf5.FileWriter, path string, values []float64, n uint64) error {
	dw, err := fw.CreateDataset(path, hdf5.Float64, []uint64{n})
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := dw.Write(values); err != nil {
		dw.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return dw.Close()
}

func writeFloat32(fw *hdf5.FileWriter, path string, values []float32, n uint64) error {
	dw, err := fw.CreateDataset(path, hdf5.Float32, []uint64{n})
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := dw.Write(values); err != nil {
		dw.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return dw.Close()
}

// Close releases the writer. The buffers are dropped; the file on disk is
// only complete if Finalize ran.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.writeable = false
	w.data, w.dataIm = nil, nil
	return nil
}
