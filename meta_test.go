/*
 * meta_test.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package amplus

import "testing"

func TestMetaSteps(t *testing.T) {
	angle := []float64{-60, -30, 0, 30, 60}
	pos := []Position{{0, 0, 0}, {0, 10, 0}, {0, 20, 0}, {0, 30, 0}, {0, 40, 0}}
	meta, err := NewMeta("test.mrc", 5, angle, pos)
	if err != nil {
		t.Fatal(err)
	}
	if meta.StartAngle() != -60 || meta.StopAngle() != 60 {
		t.Errorf("angle endpoints: %v..%v", meta.StartAngle(), meta.StopAngle())
	}
	if s := meta.StepAngle(); s != 30 {
		t.Errorf("step angle: got %v want 30", s)
	}
	if s := meta.StepPosition(); s != 10 {
		t.Errorf("step position: got %v want 10", s)
	}
	if meta.StartPosition() != 0 || meta.StopPosition() != 40 {
		t.Errorf("position endpoints: %v..%v", meta.StartPosition(), meta.StopPosition())
	}
}

// A single-image dataset still has well-defined scalars.
func TestMetaSingleImage(t *testing.T) {
	meta, err := NewMeta("test.mrc", 1, []float64{42}, []Position{{1, 2, 3}})
	if err != nil {
		t.Fatal(err)
	}
	if s := meta.StepAngle(); s != 1 {
		t.Errorf("single-image step angle: got %v want 1", s)
	}
	if s := meta.StepPosition(); s != 0 {
		t.Errorf("single-image step position: got %v want 0", s)
	}
	if meta.StartAngle() != 42 || meta.StopAngle() != 42 {
		t.Errorf("single-image angle endpoints: %v..%v", meta.StartAngle(), meta.StopAngle())
	}
}

func TestMetaLengthMismatch(t *testing.T) {
	_, err := NewMeta("test.mrc", 3, []float64{1, 2}, make([]Position, 3))
	if err == nil {
		t.Fatal("length mismatch accepted")
	}
	if _, ok := err.(*ConsistencyError); !ok {
		t.Errorf("want *ConsistencyError, got %T", err)
	}
}

func TestDTypeFromString(t *testing.T) {
	d, err := DTypeFromString("complex64")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Complex() || d.Size() != 8 {
		t.Errorf("complex64: Complex=%v Size=%v", d.Complex(), d.Size())
	}
	if _, err := DTypeFromString("float16"); err == nil {
		t.Error("unknown dtype accepted")
	}
}
