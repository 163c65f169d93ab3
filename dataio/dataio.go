/*
 * dataio.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

//Package dataio picks a format backend from a filename extension, once,
//at open time. Callers get back the uniform Writer/Reader contracts and
//never inspect the concrete type again; backend capabilities are exposed
//through the interfaces themselves.
package dataio

import (
	"fmt"
	"path/filepath"
	"strings"

	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
	"github.com/rosalindfranklininstitute/amplus-digital-twin/imageseq"
	"github.com/rosalindfranklininstitute/amplus-digital-twin/mrc"
	"github.com/rosalindfranklininstitute/amplus-digital-twin/nxtomo"
)

//The container extensions, without the dot.
var containerExts = map[string]bool{
	"h5":     true,
	"hdf5":   true,
	"nx":     true,
	"nxs":    true,
	"nexus":  true,
	"nxtomo": true,
}

func ext(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// New creates a dataset writer for the given path; the extension decides
// the format (case-insensitive). Image extensions (.png, .jpg, .jpeg,
// .tif, .tiff) give a write-only image sequence; .mrc the binary volume;
// .h5, .hdf5, .nx, .nxs, .nexus and .nxtomo the structured container.
// Anything else is a FormatError.
func New(filename string, shape amplus.Shape, pixelSize float64, dtype amplus.DType) (amplus.Writer, error) {
	e := ext(filename)
	switch {
	case e == "mrc":
		return mrc.New(filename, shape, pixelSize, dtype)
	case containerExts[e]:
		return nxtomo.New(filename, shape, pixelSize, dtype)
	case imageseq.Extensions["."+e]:
		return imageseq.New(filename, shape)
	}
	return nil, amplus.NewFormatError(filename, fmt.Sprintf("unknown extension %q", e))
}

// Open opens a dataset for reading. The image-sequence format has no
// read path; compressed volumes (.mrc.gz, .mrc.zst) are handled by the
// MRC backend.
func Open(filename string) (amplus.Reader, error) {
	lower := strings.ToLower(filename)
	e := ext(filename)
	switch {
	case e == "mrc",
		strings.HasSuffix(lower, ".mrc.gz"),
		strings.HasSuffix(lower, ".mrc.zst"):
		return mrc.Open(filename)
	case containerExts[e]:
		return nxtomo.Open(filename)
	}
	return nil, amplus.NewFormatError(filename, fmt.Sprintf("unknown extension %q", e))
}
