/*
 * showconfig.go, part of amplus-digital-twin.
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

	"github.com/rosalindfranklininstitute/amplus-digital-twin/config"
)

func showConfigCmd() *cobra.Command {
	var configFile string
	var overrides map[string]string

	cmd := &cobra.Command{
		Use:   "show-config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if err := conf.Apply(overrides); err != nil {
				return err
			}
			text, err := conf.Show()
			if err != nil {
				return err
			}
			cmd.Print(text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "configuration file (YAML)")
	cmd.Flags().StringToStringVarP(&overrides, "set", "s", nil, "configuration overrides")
	return cmd
}
