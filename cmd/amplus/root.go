/*
 * root.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func rootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "amplus",
		Short:        "Generate and convert simulated cryo-EM datasets",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			log.SetDefault(log.NewWithOptions(os.Stderr, log.Options{
				ReportTimestamp: true,
				TimeFormat:      "15:04:05",
				Level:           level,
			}))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(simulateCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(showConfigCmd())
	root.AddCommand(plotCmd())
	return root
}
