/*
 * interfaces.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package amplus

// Shape is the fixed (images, height, width) geometry of a dataset.
// It never changes after the dataset has been created.
type Shape struct {
	Images int
	Height int
	Width  int
}

// Frames returns the number of images in the stack.
func (s Shape) Frames() int {
	return s.Images
}

// Position is the stage position of one frame: in-plane shift X and Y plus
// an out-of-plane Z coordinate. Not every format keeps all three.
type Position [3]float64

// Shift is the per-frame 2-vector beam shift. Only the structured
// container format persists it.
type Shift [2]float64

// Writer is the contract every format backend implements for writing.
// Frames are written one at a time, by index, together with their
// acquisition metadata. Finalize must be called exactly once after the
// last frame; it lets a backend compute whatever trailer information the
// format wants (header statistics, the container layout) before Close
// releases the file.
type Writer interface {

	//The dataset geometry, after any adjustment the backend had to make.
	Shape() Shape

	//The element type actually stored, after any narrowing.
	DType() DType

	//The pixel size in the model units (Å per pixel).
	PixelSize() float64

	//SetFrame writes image data and metadata for frame i. The image must
	//match the dataset height and width, and 0 <= i < Shape().Images.
	SetFrame(i int, img *Frame, angle float64, pos Position) error

	//RequiresRange reports whether the backend needs a global value range
	//to be fixed before frames are written, so that brightness stays
	//comparable across the output. Only the image-sequence backend does.
	RequiresRange() bool

	//SetRange fixes one or both endpoints of the output value range. A nil
	//endpoint keeps the backend default. It is a no-op for backends that
	//do not normalize.
	SetRange(vmin, vmax *float64)

	//Finalize seals the dataset. Mandatory, once, before Close.
	Finalize() error

	//Close releases the underlying resource. Safe to call after an error,
	//but the file is only complete if Finalize ran first.
	Close() error
}

// ShiftWriter is implemented by backends that can persist a per-frame
// 2-vector beam shift in addition to the stage position.
type ShiftWriter interface {
	Writer
	SetShift(i int, s Shift) error
}

// Reader is the read-side contract. Per-frame metadata is scanned eagerly
// at open time (see Meta); image data stays on disk until Frame is called.
type Reader interface {
	Shape() Shape
	DType() DType
	PixelSize() float64

	//Frame reads the i-th image from the backing storage.
	Frame(i int) (*Frame, error)

	//Meta returns the per-frame angle and position arrays together with
	//the scalars derived from them.
	Meta() *Meta

	Close() error
}

// Error is the interface all errors in this module implement. The
// Decorate method adds information to the error as it travels up the call
// stack without changing its type. Passing an empty string just returns
// the current decoration trail.
type Error interface {
	error
	Decorate(string) []string
}

// FileError is an Error tied to a particular dataset file.
type FileError interface {
	Error
	FileName() string
	Critical() bool
}
