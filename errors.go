/*
 * errors.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package amplus

import "fmt"

//The three error kinds of the I/O layer. None of them is ever retried:
//they all describe structural or configuration problems, not transient
//ones, so they just travel up to the invoking command.

// FormatError means a file could not be matched to a format: an
// unrecognized extension, or a structured container missing its required
// schema tag.
type FormatError struct {
	message  string
	filename string //the offending file, or empty if none.
	deco     []string
}

// NewFormatError builds a FormatError for the given file.
func NewFormatError(filename, message string) *FormatError {
	return &FormatError{message: message, filename: filename}
}

func (err *FormatError) Error() string {
	if err.filename == "" {
		return fmt.Sprintf("format error: %s", err.message)
	}
	return fmt.Sprintf("file %s format error: %s", err.filename, err.message)
}

// Decorate adds new information to the error.
func (err *FormatError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// FileName returns the file associated to the error.
func (err *FormatError) FileName() string { return err.filename }

// Critical returns true. A format mismatch is never recoverable.
func (err *FormatError) Critical() bool { return true }

// ConfigError means the caller asked for something the layer cannot do:
// an invalid shape/dtype combination, malformed ROI bounds, an unknown
// complex mode, or mutually exclusive selection options given together.
// Raised before any I/O is attempted.
type ConfigError struct {
	message string
	deco    []string
}

// NewConfigError builds a ConfigError.
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

func (err *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", err.message)
}

// Decorate adds new information to the error.
func (err *ConfigError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// ConsistencyError means a dataset is internally malformed, e.g. its
// metadata arrays disagree with its frame count. Not recoverable.
type ConsistencyError struct {
	message  string
	filename string
	deco     []string
}

// NewConsistencyError builds a ConsistencyError for the given file.
func NewConsistencyError(filename, message string) *ConsistencyError {
	return &ConsistencyError{message: message, filename: filename}
}

func (err *ConsistencyError) Error() string {
	if err.filename == "" {
		return fmt.Sprintf("inconsistent dataset: %s", err.message)
	}
	return fmt.Sprintf("file %s inconsistent: %s", err.filename, err.message)
}

// Decorate adds new information to the error.
func (err *ConsistencyError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// FileName returns the file associated to the error.
func (err *ConsistencyError) FileName() string { return err.filename }

// Critical returns true.
func (err *ConsistencyError) Critical() bool { return true }
