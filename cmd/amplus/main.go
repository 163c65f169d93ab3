/*
 * main.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

// amplus is the command-line front end: simulate a dataset, export it
// into another format, plot diagnostics or show the configuration.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
