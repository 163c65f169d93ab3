/*
 * nxtomo.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

//Package nxtomo maps a dataset onto a hierarchical HDF5 container
//following a fixed tomography schema: an entry carrying the "NXtomo"
//definition tag, an instrument/detector branch with the pixel payload,
//a sample branch with the rotation and translation arrays, and a data
//branch aliasing all of them.
//
//Unlike the permissive MRC reader, this reader is strict: a container
//without the definition tag is rejected. The two policies differ on
//purpose and both are part of the format contract.
package nxtomo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
	"github.com/scigolib/hdf5"
)

// Reader reads an NXtomo container. Metadata arrays are materialized at
// open time; frames are read lazily by hyperslab.
type Reader struct {
	f         *hdf5.File
	filename  string
	data      *hdf5.Dataset
	shape     amplus.Shape
	dtype     amplus.DType
	pixelSize float64
	meta      *amplus.Meta
}

// Open opens an NXtomo container for reading. A missing entry, or a
// definition tag that is absent or not "NXtomo", is a FormatError; this
// backend never silently defaults the way the MRC one does.
func Open(filename string) (*Reader, error) {
	f, err := hdf5.Open(filename)
	if err != nil {
		return nil, amplus.NewFormatError(filename, err.Error())
	}
	r := &Reader{f: f, filename: filename}

	entry, err := r.group(f.Root(), "entry")
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := r.checkDefinition(entry); err != nil {
		f.Close()
		return nil, err
	}

	instrument, err := r.group(entry, "instrument")
	if err != nil {
		f.Close()
		return nil, err
	}
	detector, err := r.group(instrument, "detector")
	if err != nil {
		f.Close()
		return nil, err
	}
	sample, err := r.group(entry, "sample")
	if err != nil {
		f.Close()
		return nil, err
	}

	r.data, err = r.dataset(detector, "data")
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := r.readShapeAndDType(); err != nil {
		f.Close()
		return nil, err
	}

	ps, err := r.dataset(detector, "x_pixel_size")
	if err != nil {
		f.Close()
		return nil, err
	}
	psValues, err := ps.Read()
	if err != nil || len(psValues) == 0 {
		f.Close()
		return nil, amplus.NewFormatError(filename, "unreadable x_pixel_size")
	}
	r.pixelSize = psValues[0]

	angle, position, err := r.readSample(sample)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.meta, err = amplus.NewMeta(filename, r.shape.Images, angle, position)
	if err != nil {
		f.Close()
		return nil, errDecorate(err, "Open")
	}
	return r, nil
}

func (r *Reader) group(g *hdf5.Group, name string) (*hdf5.Group, error) {
	for _, o := range g.Children() {
		if sub, ok := o.(*hdf5.Group); ok && sub.Name() == name {
			return sub, nil
		}
	}
	return nil, amplus.NewFormatError(r.filename, fmt.Sprintf("no %q group", name))
}

func (r *Reader) dataset(g *hdf5.Group, name string) (*hdf5.Dataset, error) {
	for _, o := range g.Children() {
		if ds, ok := o.(*hdf5.Dataset); ok && ds.Name() == name {
			return ds, nil
		}
	}
	return nil, amplus.NewFormatError(r.filename, fmt.Sprintf("no %q dataset", name))
}

//checkDefinition enforces the schema tag.
func (r *Reader) checkDefinition(entry *hdf5.Group) error {
	def, err := r.dataset(entry, "definition")
	if err != nil {
		return amplus.NewFormatError(r.filename, "no tomography definition tag")
	}
	values, err := def.ReadStrings()
	if err != nil || len(values) == 0 {
		return amplus.NewFormatError(r.filename, "unreadable definition tag")
	}
	if got := strings.TrimRight(values[0], "\x00"); got != definitionTag {
		return amplus.NewFormatError(r.filename,
			fmt.Sprintf("definition is %q, want %q", got, definitionTag))
	}
	return nil
}

var dimsRe = regexp.MustCompile(`array \[([0-9 x]+)\]`)

//readShapeAndDType recovers the logical geometry. Containers written by
//this module carry it in the "shape" and "dtype" attributes; for foreign
//files the dimensions are parsed from the dataspace description instead
//and the dtype defaults to Float64.
func (r *Reader) readShapeAndDType() error {
	r.dtype = amplus.Float64
	if v, err := r.data.ReadAttribute("dtype"); err == nil {
		if s, ok := v.(string); ok {
			if d, err := amplus.DTypeFromString(strings.TrimRight(s, "\x00")); err == nil {
				r.dtype = d
			}
		}
	}
	if v, err := r.data.ReadAttribute("shape"); err == nil {
		if dims := toInts(v); len(dims) == 3 {
			r.shape = amplus.Shape{Images: dims[0], Height: dims[1], Width: dims[2]}
			return nil
		}
	}
	info, err := r.data.Info()
	if err != nil {
		return amplus.NewFormatError(r.filename, "unreadable data geometry")
	}
	m := dimsRe.FindStringSubmatch(info)
	if m == nil {
		return amplus.NewFormatError(r.filename, "data is not a 3-D stack")
	}
	var dims []int
	for _, tok := range strings.Fields(strings.ReplaceAll(m[1], "x", " ")) {
		d, err := strconv.Atoi(tok)
		if err != nil {
			return amplus.NewFormatError(r.filename, "data is not a 3-D stack")
		}
		dims = append(dims, d)
	}
	if len(dims) == 4 && dims[3] == 2 {
		dims = dims[:3] //complex stored as trailing (real, imag) pairs
	}
	if len(dims) != 3 {
		return amplus.NewFormatError(r.filename, "data is not a 3-D stack")
	}
	r.shape = amplus.Shape{Images: dims[0], Height: dims[1], Width: dims[2]}
	return nil
}

func toInts(v interface{}) []int {
	switch vv := v.(type) {
	case []int64:
		out := make([]int, len(vv))
		for i, x := range vv {
			out[i] = int(x)
		}
		return out
	case []int32:
		out := make([]int, len(vv))
		for i, x := range vv {
			out[i] = int(x)
		}
		return out
	case []uint64:
		out := make([]int, len(vv))
		for i, x := range vv {
			out[i] = int(x)
		}
		return out
	case []float64:
		out := make([]int, len(vv))
		for i, x := range vv {
			out[i] = int(x)
		}
		return out
	}
	return nil
}

func (r *Reader) readSample(sample *hdf5.Group) ([]float64, []amplus.Position, error) {
	read := func(name string) ([]float64, error) {
		ds, err := r.dataset(sample, name)
		if err != nil {
			return nil, err
		}
		return ds.Read()
	}
	angle, err := read("rotation_angle")
	if err != nil {
		return nil, nil, err
	}
	xt, err := read("x_translation")
	if err != nil {
		return nil, nil, err
	}
	yt, err := read("y_translation")
	if err != nil {
		return nil, nil, err
	}
	zt, err := read("z_translation")
	if err != nil {
		return nil, nil, err
	}
	if len(xt) != len(angle) || len(yt) != len(angle) || len(zt) != len(angle) {
		return nil, nil, amplus.NewConsistencyError(r.filename, "translation arrays disagree")
	}
	position := make([]amplus.Position, len(angle))
	for i := range position {
		position[i] = amplus.Position{xt[i], yt[i], zt[i]}
	}
	return angle, position, nil
}

// Shape returns the dataset geometry.
func (r *Reader) Shape() amplus.Shape { return r.shape }

// DType returns the element type.
func (r *Reader) DType() amplus.DType { return r.dtype }

// PixelSize returns the pixel size, from the first detector entry.
func (r *Reader) PixelSize() float64 { return r.pixelSize }

// Meta returns the per-frame metadata.
func (r *Reader) Meta() *amplus.Meta { return r.meta }

// Frame reads frame i by hyperslab.
func (r *Reader) Frame(i int) (*amplus.Frame, error) {
	if i < 0 || i >= r.shape.Images {
		return nil, amplus.NewConfigError(fmt.Sprintf("frame index %d outside [0, %d)", i, r.shape.Images))
	}
	h, w := r.shape.Height, r.shape.Width
	start := []uint64{uint64(i), 0, 0}
	count := []uint64{1, uint64(h), uint64(w)}
	if r.dtype.Complex() {
		start = append(start, 0)
		count = append(count, 2)
	}
	raw, err := r.data.ReadSlice(start, count)
	if err != nil {
		return nil, fmt.Errorf("reading %s frame %d: %w", r.filename, i, err)
	}
	values, err := asFloats(raw)
	if err != nil {
		return nil, amplus.NewFormatError(r.filename, err.Error())
	}
	if r.dtype.Complex() {
		if len(values) != h*w*2 {
			return nil, amplus.NewConsistencyError(r.filename,
				fmt.Sprintf("frame %d has %d values, want %d", i, len(values), h*w*2))
		}
		f := amplus.NewComplexFrame(h, w)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				k := 2 * (y*w + x)
				f.SetC(y, x, complex(values[k], values[k+1]))
			}
		}
		return f, nil
	}
	if len(values) != h*w {
		return nil, amplus.NewConsistencyError(r.filename,
			fmt.Sprintf("frame %d has %d values, want %d", i, len(values), h*w))
	}
	return amplus.FrameFromSlice(h, w, values), nil
}

func asFloats(raw interface{}) ([]float64, error) {
	switch vv := raw.(type) {
	case []float64:
		return vv, nil
	case []float32:
		out := make([]float64, len(vv))
		for i, x := range vv {
			out[i] = float64(x)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(vv))
		for i, x := range vv {
			out[i] = float64(x)
		}
		return out, nil
	case []int64:
		out := make([]float64, len(vv))
		for i, x := range vv {
			out[i] = float64(x)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unexpected slice type %T", raw)
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if r == nil || r.f == nil {
		return nil
	}
	return r.f.Close()
}

func errDecorate(err error, caller string) error {
	e, ok := err.(amplus.Error)
	if !ok {
		return err
	}
	e.Decorate(caller)
	return e
}
