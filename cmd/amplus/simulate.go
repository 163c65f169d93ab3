/*
 * simulate.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package main

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
	"github.com/rosalindfranklininstitute/amplus-digital-twin/config"
	"github.com/rosalindfranklininstitute/amplus-digital-twin/dataio"
	"github.com/rosalindfranklininstitute/amplus-digital-twin/sim"
)

func simulateCmd() *cobra.Command {
	var configFile, output string
	var overrides map[string]string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate a synthetic tilt series",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if err := conf.Apply(overrides); err != nil {
				return err
			}
			if output != "" {
				conf.Output = output
			}

			producer, err := sim.New(conf)
			if err != nil {
				return err
			}
			shape := producer.Shape()
			log.Infof("Simulating %d images of %d x %d pixels",
				shape.Images, shape.Height, shape.Width)

			writer, err := dataio.New(conf.Output, shape, producer.PixelSize(), amplus.Float32)
			if err != nil {
				return err
			}
			defer writer.Close()
			if err := producer.Run(writer); err != nil {
				return err
			}
			log.Infof("Writing data to %s", conf.Output)
			return writer.Finalize()
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "configuration file (YAML)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output filename (overrides config)")
	cmd.Flags().StringToStringVarP(&overrides, "set", "s", nil,
		"configuration overrides, e.g. --set scan.step_angle=2")
	return cmd
}
