/*
 * export.go, part of amplus-digital-twin.
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

	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
	"github.com/rosalindfranklininstitute/amplus-digital-twin/dataio"
	"github.com/rosalindfranklininstitute/amplus-digital-twin/export"
)

func exportCmd() *cobra.Command {
	var (
		rot90         bool
		output        string
		mode          string
		interlace     int
		rebin         int
		roi           []int
		selectImages  []int
		rotationRange []float64
		vmin, vmax    float64
	)

	cmd := &cobra.Command{
		Use:   "export INPUT",
		Short: "Convert a dataset to another format",
		Long: `Convert a dataset to another format, selected by the output
extension, with optional frame selection, cropping, complex-mode
conversion, rotation and rebinning applied on the way through.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := export.Options{
				Output:    output,
				Mode:      export.ComplexMode(mode),
				Interlace: interlace,
				Rebin:     rebin,
				Rot90:     rot90,
			}
			if len(selectImages) > 0 {
				if len(selectImages) != 3 {
					return amplus.NewConfigError("--select_images wants start,stop,step")
				}
				opts.SelectImages = &export.IndexRange{
					Start: selectImages[0],
					Stop:  selectImages[1],
					Step:  selectImages[2],
				}
			}
			if len(rotationRange) > 0 {
				if len(rotationRange) != 2 {
					return amplus.NewConfigError("--rotation_range wants start,stop")
				}
				opts.RotationRange = &[2]float64{rotationRange[0], rotationRange[1]}
			}
			if len(roi) > 0 {
				if len(roi) != 4 {
					return amplus.NewConfigError("--roi wants x0,y0,x1,y1")
				}
				opts.ROI = &export.ROI{X0: roi[0], Y0: roi[1], X1: roi[2], Y1: roi[3]}
			}
			if cmd.Flags().Changed("vmin") {
				opts.VMin = &vmin
			}
			if cmd.Flags().Changed("vmax") {
				opts.VMax = &vmax
			}

			reader, err := dataio.Open(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()
			return export.Run(reader, opts)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output filename")
	cmd.Flags().StringVar(&mode, "complex_mode", "complex",
		"complex handling: complex, real, imaginary, amplitude, phase, phase_unwrap, square, imaginary_square")
	cmd.Flags().BoolVar(&rot90, "rot90", false, "rotate frames 90 degrees counter-clockwise")
	cmd.Flags().IntVar(&interlace, "interlace", 0, "interlace the selected frames into N blocks")
	cmd.Flags().IntVar(&rebin, "rebin", 1, "downsample frames by an integer factor")
	cmd.Flags().IntSliceVar(&roi, "roi", nil, "crop region x0,y0,x1,y1")
	cmd.Flags().IntSliceVar(&selectImages, "select_images", nil, "frame index range start,stop,step")
	cmd.Flags().Float64SliceVar(&rotationRange, "rotation_range", nil, "keep frames with tilt angle in [start,stop)")
	cmd.Flags().Float64Var(&vmin, "vmin", 0, "fixed lower bound for image rescaling")
	cmd.Flags().Float64Var(&vmax, "vmax", 0, "fixed upper bound for image rescaling")
	cmd.MarkFlagRequired("output")
	return cmd
}
