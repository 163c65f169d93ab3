/*
 * meta.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package amplus

import "fmt"

// Meta holds the per-frame acquisition metadata of a dataset: one tilt
// angle and one stage position per frame. Readers build it eagerly at
// open time, so the derived scalars are always available without touching
// the image data.
type Meta struct {
	angle    []float64
	position []Position
}

// NewMeta checks that both arrays have exactly n entries and wraps them.
// A mismatch means the dataset on disk is malformed.
func NewMeta(filename string, n int, angle []float64, position []Position) (*Meta, error) {
	if len(angle) != n {
		return nil, NewConsistencyError(filename,
			fmt.Sprintf("%d angles for %d images", len(angle), n))
	}
	if len(position) != n {
		return nil, NewConsistencyError(filename,
			fmt.Sprintf("%d positions for %d images", len(position), n))
	}
	return &Meta{angle: angle, position: position}, nil
}

// Len returns the number of frames.
func (m *Meta) Len() int {
	return len(m.angle)
}

// Angle returns the tilt angle of frame i.
func (m *Meta) Angle(i int) float64 {
	return m.angle[i]
}

// Angles returns the full tilt angle array.
func (m *Meta) Angles() []float64 {
	return m.angle
}

// Position returns the stage position of frame i.
func (m *Meta) Position(i int) Position {
	return m.position[i]
}

// Positions returns the full position array.
func (m *Meta) Positions() []Position {
	return m.position
}

// StartAngle returns the tilt angle of the first frame.
func (m *Meta) StartAngle() float64 {
	return m.angle[0]
}

// StopAngle returns the tilt angle of the last frame.
func (m *Meta) StopAngle() float64 {
	return m.angle[len(m.angle)-1]
}

// StepAngle returns the mean first difference of the tilt angles. A
// single-frame dataset has a step of 1 by convention.
func (m *Meta) StepAngle() float64 {
	n := len(m.angle)
	if n == 1 {
		return 1
	}
	return (m.angle[n-1] - m.angle[0]) / float64(n-1)
}

//The position scalars follow the Y column of the stage position, which is
//the scan direction of the simulated acquisitions.

// StartPosition returns the Y position of the first frame.
func (m *Meta) StartPosition() float64 {
	return m.position[0][1]
}

// StopPosition returns the Y position of the last frame.
func (m *Meta) StopPosition() float64 {
	return m.position[len(m.position)-1][1]
}

// StepPosition returns the mean first difference of the Y positions, or 0
// for a single-frame dataset.
func (m *Meta) StepPosition() float64 {
	n := len(m.position)
	if n == 1 {
		return 0
	}
	return (m.position[n-1][1] - m.position[0][1]) / float64(n-1)
}
