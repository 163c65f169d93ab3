/*
 * plot.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package main

import (
	"github.com/spf13/cobra"

	"github.com/rosalindfranklininstitute/amplus-digital-twin/dataio"
	"github.com/rosalindfranklininstitute/amplus-digital-twin/tiltplot"
)

func plotCmd() *cobra.Command {
	var anglesOut, intensityOut string

	cmd := &cobra.Command{
		Use:   "plot INPUT",
		Short: "Plot tilt-series diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := dataio.Open(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()
			if anglesOut != "" {
				if err := tiltplot.Angles(reader.Meta(), args[0], anglesOut); err != nil {
					return err
				}
			}
			if intensityOut != "" {
				if err := tiltplot.Intensity(reader, args[0], intensityOut); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&anglesOut, "angles", "angles.png", "tilt-angle plot filename (empty to skip)")
	cmd.Flags().StringVar(&intensityOut, "intensity", "", "per-frame intensity plot filename")
	return cmd
}
