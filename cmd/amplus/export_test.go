/*
 * export_test.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package main

import (
	"io"
	"path/filepath"
	"testing"

	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
	"github.com/rosalindfranklininstitute/amplus-digital-twin/dataio"
)

func writeInputSeries(t *testing.T, filename string) {
	t.Helper()
	shape := amplus.Shape{Images: 3, Height: 4, Width: 4}
	angles := []float64{0, 10, 20}
	positions := []amplus.Position{{0, 0, 0}, {1, 1, 0}, {2, 2, 0}}

	w, err := dataio.New(filename, shape, 1.0, amplus.Float32)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < shape.Images; i++ {
		img := amplus.NewFrame(shape.Height, shape.Width)
		for y := 0; y < shape.Height; y++ {
			for x := 0; x < shape.Width; x++ {
				img.Set(y, x, float64(i))
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
}

func runExport(args ...string) error {
	cmd := exportCmd()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestExportSelectImages(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.mrc")
	output := filepath.Join(dir, "out.mrc")
	writeInputSeries(t, input)

	err := runExport(input, "--output", output, "--select_images=0,2,1")
	if err != nil {
		t.Fatal(err)
	}

	r, err := dataio.Open(output)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Shape().Images != 2 {
		t.Errorf("selected %v images, want 2", r.Shape().Images)
	}
	angles := r.Meta().Angles()
	want := []float64{0, 10}
	for i := range want {
		if angles[i] != want[i] {
			t.Errorf("angle %d: got %v, want %v", i, angles[i], want[i])
		}
	}
}

func TestExportOutputRequired(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.mrc")
	writeInputSeries(t, input)

	if err := runExport(input); err == nil {
		t.Error("export without --output did not fail")
	}
}

func TestExportShortOutputFlag(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.mrc")
	output := filepath.Join(dir, "out.mrc")
	writeInputSeries(t, input)

	if err := runExport(input, "-o", output); err != nil {
		t.Fatal(err)
	}
	r, err := dataio.Open(output)
	if err != nil {
		t.Fatal(err)
	}
	r.Close()
}

func TestExportSelectImagesWantsThreeValues(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.mrc")
	output := filepath.Join(dir, "out.mrc")
	writeInputSeries(t, input)

	err := runExport(input, "-o", output, "--select_images=0,2")
	if err == nil {
		t.Fatal("two-value --select_images did not fail")
	}
	if _, ok := err.(*amplus.ConfigError); !ok {
		t.Errorf("error type %T, want *amplus.ConfigError", err)
	}
}

func TestExportFlagSpelling(t *testing.T) {
	cmd := exportCmd()
	for _, name := range []string{
		"output", "complex_mode", "select_images", "rotation_range",
		"roi", "interlace", "rebin", "rot90", "vmin", "vmax",
	} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("flag --%s is not registered", name)
		}
	}
	if f := cmd.Flags().Lookup("output"); f == nil || f.Shorthand != "o" {
		t.Error("flag --output has no -o shorthand")
	}
}
