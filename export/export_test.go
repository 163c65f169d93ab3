/*
 * export_test.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package export

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
	"github.com/rosalindfranklininstitute/amplus-digital-twin/dataio"
	"github.com/rosalindfranklininstitute/amplus-digital-twin/mrc"
)

func TestInterlaceInverse(t *testing.T) {
	indices := []int{0, 1, 2, 3, 4, 5, 6}
	for k := 0; k <= 4; k++ {
		got := Deinterlace(Interlace(indices, k), k)
		for i := range indices {
			if got[i] != indices[i] {
				t.Fatalf("k=%d: deinterlace(interlace(x)) = %v", k, got)
			}
		}
	}
}

func TestInterlaceOrder(t *testing.T) {
	got := Interlace([]int{0, 1, 2, 3, 4}, 2)
	want := []int{0, 2, 4, 1, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("interlace k=2: got %v want %v", got, want)
		}
	}
}

// imaginary_square on an all-real frame must come out as exactly one
// everywhere.
func TestImaginarySquareAllReal(t *testing.T) {
	f := amplus.FrameFromSlice(2, 2, []float64{-7, 0, 3, 1e6})
	out := ImaginarySquare.apply(f)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if v := out.At(i, j); v != 1 {
				t.Errorf("at (%d,%d): got %v want exactly 1", i, j, v)
			}
		}
	}
}

func TestComplexModes(t *testing.T) {
	f := amplus.NewComplexFrame(1, 1)
	f.SetC(0, 0, complex(3, 4))
	for _, c := range []struct {
		mode ComplexMode
		want float64
	}{
		{Real, 3},
		{Imaginary, 4},
		{Amplitude, 5},
		{Square, 25},
		{ImaginarySquare, 17},
		{Phase, math.Atan2(4, 3)},
	} {
		out := c.mode.apply(f)
		if out.Complex() {
			t.Errorf("%s produced a complex frame", c.mode)
		}
		if got := out.At(0, 0); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("%s: got %v want %v", c.mode, got, c.want)
		}
	}
}

func TestParseComplexMode(t *testing.T) {
	if m, err := ParseComplexMode(""); err != nil || m != Complex {
		t.Errorf("empty mode: got %v, %v", m, err)
	}
	if _, err := ParseComplexMode("magnitude"); err == nil {
		t.Error("unknown mode accepted")
	}
}

func TestRebinConstant(t *testing.T) {
	f := amplus.NewFrame(8, 12)
	for i := 0; i < 8; i++ {
		for j := 0; j < 12; j++ {
			f.Set(i, j, 5)
		}
	}
	out := Rebin(f, 2)
	h, w := out.Dims()
	if h != 4 || w != 6 {
		t.Fatalf("rebin by 2 gave %dx%d, want 4x6", h, w)
	}
	// a low-pass filter must preserve a constant signal
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			if v := out.At(i, j); math.Abs(v-5) > 1e-9 {
				t.Errorf("constant drifted to %v at (%d,%d)", v, i, j)
			}
		}
	}
}

func TestRebinIdentity(t *testing.T) {
	f := amplus.FrameFromSlice(2, 2, []float64{1, 2, 3, 4})
	if out := Rebin(f, 1); out != f {
		t.Error("rebin by 1 should be the identity")
	}
}

func writeInput(t *testing.T, filename string, n int) {
	t.Helper()
	shape := amplus.Shape{Images: n, Height: 4, Width: 6}
	w, err := mrc.New(filename, shape, 1, amplus.Float32)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		img := amplus.NewFrame(4, 6)
		for y := 0; y < 4; y++ {
			for x := 0; x < 6; x++ {
				img.Set(y, x, float64(i*100+y*10+x))
			}
		}
		angle := float64(i*10 - 10)
		if err := w.SetFrame(i, img, angle, amplus.Position{float64(i), float64(i * 2), 0}); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}
	w.Close()
}

func TestRunSelectImages(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mrc")
	out := filepath.Join(dir, "out.mrc")
	writeInput(t, in, 3)

	reader, err := mrc.Open(in)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	err = Run(reader, Options{
		Output:       out,
		SelectImages: &IndexRange{Start: 0, Stop: 2, Step: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	r, err := dataio.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if n := r.Shape().Images; n != 2 {
		t.Fatalf("selected 2 of 3 frames, output has %d", n)
	}
	for i := 0; i < 2; i++ {
		img, err := r.Frame(i)
		if err != nil {
			t.Fatal(err)
		}
		if got := img.At(0, 0); got != float64(i*100) {
			t.Errorf("frame %d origin: got %v want %v", i, got, i*100)
		}
		if a := r.Meta().Angle(i); math.Abs(a-float64(i*10-10)) > 1e-5 {
			t.Errorf("frame %d angle: got %v", i, a)
		}
	}
}

func TestRunRotationRange(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mrc")
	out := filepath.Join(dir, "out.mrc")
	writeInput(t, in, 3) // angles -10, 0, 10

	reader, err := mrc.Open(in)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	err = Run(reader, Options{
		Output:        out,
		RotationRange: &[2]float64{-5, 10}, // keeps only angle 0, hi is exclusive
	})
	if err != nil {
		t.Fatal(err)
	}
	r, err := dataio.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if n := r.Shape().Images; n != 1 {
		t.Fatalf("angle filter kept %d frames, want 1", n)
	}
	img, err := r.Frame(0)
	if err != nil {
		t.Fatal(err)
	}
	if img.At(0, 0) != 100 {
		t.Errorf("wrong frame survived: origin %v", img.At(0, 0))
	}
}

func TestRunRot90AndROI(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mrc")
	out := filepath.Join(dir, "out.mrc")
	writeInput(t, in, 1)

	reader, err := mrc.Open(in)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	err = Run(reader, Options{
		Output: out,
		ROI:    &ROI{X0: 1, Y0: 0, X1: 5, Y1: 3}, // 3 rows x 4 cols
		Rot90:  true,
	})
	if err != nil {
		t.Fatal(err)
	}
	r, err := dataio.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	shape := r.Shape()
	if shape.Height != 4 || shape.Width != 3 {
		t.Fatalf("rot90 shape: got %dx%d want 4x3", shape.Height, shape.Width)
	}
	img, err := r.Frame(0)
	if err != nil {
		t.Fatal(err)
	}
	// source (0,0) of the crop is input (0,1) = 1; after CCW rotation it
	// lands on the last row, first column
	if got := img.At(3, 0); got != 1 {
		t.Errorf("rotated corner: got %v want 1", got)
	}
	// position X/Y swapped with the axes: input was (0, 0, 0) for frame 0
	pos := r.Meta().Position(0)
	if pos[0] != 0 || pos[1] != 0 {
		t.Errorf("rotated position: got %v", pos)
	}
}

// The value range for an image sequence is computed over all selected
// frames, so per-frame ranges {0..100} and {5..50} rescale against the
// common [0, 100].
func TestRunGlobalRange(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mrc")
	writeInput2(t, in)

	reader, err := mrc.Open(in)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	template := filepath.Join(dir, "frame_%d.png")
	if err := Run(reader, Options{Output: template}); err != nil {
		t.Fatal(err)
	}

	// frame 2 peaks at 50, half the global range
	f, err := os.Open(filepath.Join(dir, "frame_2.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	peak := uint32(0)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v, _, _, _ := img.At(x, y).RGBA()
			if v>>8 > peak {
				peak = v >> 8
			}
		}
	}
	if peak < 126 || peak > 129 {
		t.Errorf("frame 2 peak: got %d, want about 127 of 255", peak)
	}
}

func writeInput2(t *testing.T, filename string) {
	t.Helper()
	w, err := mrc.New(filename, amplus.Shape{Images: 2, Height: 2, Width: 2}, 1, amplus.Float32)
	if err != nil {
		t.Fatal(err)
	}
	a := amplus.FrameFromSlice(2, 2, []float64{0, 0, 0, 100})
	b := amplus.FrameFromSlice(2, 2, []float64{5, 5, 5, 50})
	if err := w.SetFrame(0, a, 0, amplus.Position{}); err != nil {
		t.Fatal(err)
	}
	if err := w.SetFrame(1, b, 0, amplus.Position{}); err != nil {
		t.Fatal(err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}
	w.Close()
}

func TestRunValidation(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mrc")
	writeInput(t, in, 1)
	reader, err := mrc.Open(in)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	out := filepath.Join(dir, "out.mrc")
	cases := []Options{
		{Output: ""},
		{Output: out, SelectImages: &IndexRange{Stop: 1, Step: 1}, RotationRange: &[2]float64{0, 1}},
		{Output: out, SelectImages: &IndexRange{Stop: 1, Step: 0}},
		{Output: out, ROI: &ROI{X0: 2, Y0: 0, X1: 1, Y1: 3}},
		{Output: out, Mode: "bogus"},
		{Output: out, Rebin: -2},
	}
	for i, opts := range cases {
		err := Run(reader, opts)
		if err == nil {
			t.Errorf("case %d accepted", i)
			continue
		}
		if _, ok := err.(*amplus.ConfigError); !ok {
			t.Errorf("case %d: want *ConfigError, got %T: %v", i, err, err)
		}
		// nothing may be written on a validation failure
		if _, statErr := os.Stat(out); statErr == nil {
			t.Fatalf("case %d wrote output despite failing validation", i)
		}
	}
}
