/*
 * dtype.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package amplus

import "fmt"

// DType is the scalar element type of a dataset. Backends may narrow a
// DType to satisfy a format constraint; that narrowing is silent and
// documented per backend, never an error.
type DType int

const (
	UInt8 DType = iota
	Int16
	UInt16
	Int32
	UInt32
	Float32
	Float64
	Complex64
	Complex128
)

var dtypeNames = map[DType]string{
	UInt8:      "uint8",
	Int16:      "int16",
	UInt16:     "uint16",
	Int32:      "int32",
	UInt32:     "uint32",
	Float32:    "float32",
	Float64:    "float64",
	Complex64:  "complex64",
	Complex128: "complex128",
}

func (d DType) String() string {
	if s, ok := dtypeNames[d]; ok {
		return s
	}
	return fmt.Sprintf("dtype(%d)", int(d))
}

// DTypeFromString parses the numpy-style type names used in configuration
// files ("float32", "complex64", ...).
func DTypeFromString(s string) (DType, error) {
	for d, name := range dtypeNames {
		if name == s {
			return d, nil
		}
	}
	return 0, NewConfigError(fmt.Sprintf("unknown dtype %q", s))
}

// Complex reports whether the type has an imaginary component.
func (d DType) Complex() bool {
	return d == Complex64 || d == Complex128
}

// Size returns the storage size of one element in bytes.
func (d DType) Size() int {
	switch d {
	case UInt8:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Float64, Complex64:
		return 8
	case Complex128:
		return 16
	}
	return 0
}
