/*
 * nxtomo_test.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package nxtomo

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/scigolib/hdf5"

	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
)

func writeSeries(t *testing.T, filename string, dtype amplus.DType) (amplus.Shape, []float64, []amplus.Position) {
	t.Helper()
	shape := amplus.Shape{Images: 3, Height: 4, Width: 5}
	angles := []float64{-45, 0, 45}
	positions := []amplus.Position{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}

	w, err := New(filename, shape, 2.5, dtype)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < shape.Images; i++ {
		img := amplus.NewFrame(shape.Height, shape.Width)
		for y := 0; y < shape.Height; y++ {
			for x := 0; x < shape.Width; x++ {
				img.Set(y, x, float64(i*100+y*10+x))
			}
		}
		if err := w.SetFrame(i, img, angles[i], positions[i]); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return shape, angles, positions
}

func TestRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "series.h5")
	shape, angles, positions := writeSeries(t, filename, amplus.Float32)

	r, err := Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Shape() != shape {
		t.Fatalf("shape: got %+v want %+v", r.Shape(), shape)
	}
	if math.Abs(r.PixelSize()-2.5) > 1e-6 {
		t.Errorf("pixel size: got %v want 2.5", r.PixelSize())
	}
	meta := r.Meta()
	for i := range angles {
		if got := meta.Angle(i); math.Abs(got-angles[i]) > 1e-5 {
			t.Errorf("angle %d: got %v want %v", i, got, angles[i])
		}
		got := meta.Position(i)
		for k := 0; k < 3; k++ {
			if math.Abs(got[k]-positions[i][k]) > 1e-5 {
				t.Errorf("position %d axis %d: got %v want %v", i, k, got[k], positions[i][k])
			}
		}
	}
	img, err := r.Frame(1)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.At(3, 4); got != 134 {
		t.Errorf("frame 1 at (3,4): got %v want 134", got)
	}
}

func TestComplexRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "complex.h5")
	shape := amplus.Shape{Images: 2, Height: 2, Width: 3}
	w, err := New(filename, shape, 1, amplus.Complex64)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < shape.Images; i++ {
		img := amplus.NewComplexFrame(shape.Height, shape.Width)
		img.SetC(1, 2, complex(float64(i+1), -float64(i+1)))
		if err := w.SetFrame(i, img, 0, amplus.Position{}); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}
	w.Close()

	r, err := Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if !r.DType().Complex() {
		t.Fatalf("dtype: got %v, want complex", r.DType())
	}
	if r.Shape() != shape {
		t.Fatalf("shape: got %+v want %+v", r.Shape(), shape)
	}
	img, err := r.Frame(1)
	if err != nil {
		t.Fatal(err)
	}
	if v := img.AtC(1, 2); v != complex(2, -2) {
		t.Errorf("got %v want (2-2i)", v)
	}
}

func TestShift(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "shift.h5")
	shape := amplus.Shape{Images: 2, Height: 2, Width: 2}
	w, err := New(filename, shape, 1, amplus.Float32)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := w.SetFrame(i, amplus.NewFrame(2, 2), 0, amplus.Position{}); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.SetShift(1, amplus.Shift{1.5, -2.5}); err != nil {
		t.Fatal(err)
	}
	if err := w.SetShift(2, amplus.Shift{}); err == nil {
		t.Error("out-of-range shift index accepted")
	}
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}
	w.Close()

	f, err := hdf5.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	ds := findDataset(t, f, "entry", "sample", "x_shift")
	vals, err := ds.Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != 2 || math.Abs(vals[1]-1.5) > 1e-6 {
		t.Errorf("x_shift: got %v", vals)
	}
}

// The /entry/data branch must alias the instrument and sample arrays.
func TestDataAliases(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "alias.h5")
	shape, angles, _ := writeSeries(t, filename, amplus.Float32)

	f, err := hdf5.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	ds := findDataset(t, f, "entry", "data", "rotation_angle")
	vals, err := ds.Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != shape.Images || math.Abs(vals[0]-angles[0]) > 1e-5 {
		t.Errorf("aliased rotation_angle: got %v", vals)
	}
}

// Containers without the schema tag are rejected, never defaulted.
func TestMissingDefinition(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "bare.h5")
	fw, err := hdf5.CreateForWrite(filename, hdf5.CreateTruncate)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.CreateGroup("/entry"); err != nil {
		t.Fatal(err)
	}
	if err := fw.Close(); err != nil {
		t.Fatal(err)
	}

	_, err = Open(filename)
	if err == nil {
		t.Fatal("container without definition accepted")
	}
	if _, ok := err.(*amplus.FormatError); !ok {
		t.Errorf("want *FormatError, got %T", err)
	}
}

func findDataset(t *testing.T, f *hdf5.File, path ...string) *hdf5.Dataset {
	t.Helper()
	node := f.Root()
	for _, name := range path[:len(path)-1] {
		var next *hdf5.Group
		for _, child := range node.Children() {
			if g, ok := child.(*hdf5.Group); ok && g.Name() == name {
				next = g
				break
			}
		}
		if next == nil {
			t.Fatalf("group %q not found", name)
		}
		node = next
	}
	want := path[len(path)-1]
	for _, child := range node.Children() {
		if ds, ok := child.(*hdf5.Dataset); ok && ds.Name() == want {
			return ds
		}
	}
	t.Fatalf("dataset %q not found", want)
	return nil
}
