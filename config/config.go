/*
 * config.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

//Package config loads, merges and prints the simulation configuration.
//A configuration is a nested YAML mapping; values from a file override
//the built-in defaults, and command-line overrides take precedence over
//both. Sections this layer does not interpret (the physics parameters)
//are carried through untouched.
package config

import (
	"fmt"
	"os"

	amplus "github.com/rosalindfranklininstitute/amplus-digital-twin"
	"gopkg.in/yaml.v3"
)

// Config is the effective configuration after all merging.
type Config struct {
	Device string `yaml:"device"`
	Output string `yaml:"output"`
	Freeze bool   `yaml:"freeze"`

	Phantom string `yaml:"phantom"`

	Microscope Microscope `yaml:"microscope"`
	Sample     Sample     `yaml:"sample"`
	Scan       Scan       `yaml:"scan"`
	Simulation Simulation `yaml:"simulation"`
	Cluster    Cluster    `yaml:"cluster"`
}

type Microscope struct {
	Beam      Beam    `yaml:"beam"`
	Objective Lens    `yaml:"objective_lens"`
	Detector  Display `yaml:"detector"`
}

type Beam struct {
	Energy               float64 `yaml:"energy"`        // keV
	EnergySpread         float64 `yaml:"energy_spread"` // dE/E
	ElectronsPerAngstrom float64 `yaml:"electrons_per_angstrom"`
}

type Lens struct {
	C10 float64 `yaml:"c_10"` // defocus, angstrom
	C30 float64 `yaml:"c_30"` // spherical aberration, mm
}

type Display struct {
	NX        int     `yaml:"nx"`
	NY        int     `yaml:"ny"`
	PixelSize float64 `yaml:"pixel_size"` // angstrom
}

type Sample struct {
	BoxSize   float64    `yaml:"box_size"` // angstrom
	Centre    [3]float64 `yaml:"centre"`
	Shape     string     `yaml:"shape"`
	ShapeSize float64    `yaml:"shape_size"`
}

type Scan struct {
	Mode       string     `yaml:"mode"` // still, tilt_series, helical_scan
	Axis       [3]float64 `yaml:"axis"`
	StartAngle float64    `yaml:"start_angle"`
	StopAngle  float64    `yaml:"stop_angle"`
	StepAngle  float64    `yaml:"step_angle"`
	StartPos   float64    `yaml:"start_pos"`
	StopPos    float64    `yaml:"stop_pos"`
}

type Simulation struct {
	Slice      bool    `yaml:"slice"`
	Margin     int     `yaml:"margin"`
	Padding    int     `yaml:"padding"`
	IceDensity float64 `yaml:"ice_density"` // g/cm^3
	Noise      bool    `yaml:"noise"`
	Seed       int64   `yaml:"seed"`
}

type Cluster struct {
	Method     string `yaml:"method"` // "", sge, slurm
	MaxWorkers int    `yaml:"max_workers"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Device: "gpu",
		Output: "output.h5",
		Microscope: Microscope{
			Beam: Beam{
				Energy:               300,
				EnergySpread:         2.66e-6,
				ElectronsPerAngstrom: 30,
			},
			Objective: Lens{C10: -20000, C30: 2.7},
			Detector:  Display{NX: 1000, NY: 1000, PixelSize: 1},
		},
		Sample: Sample{
			BoxSize:   4000,
			Centre:    [3]float64{2000, 2000, 2000},
			Shape:     "cube",
			ShapeSize: 2000,
		},
		Scan: Scan{
			Mode:       "still",
			Axis:       [3]float64{0, 1, 0},
			StartAngle: 0,
			StopAngle:  0,
			StepAngle:  1,
		},
		Simulation: Simulation{
			Slice:      false,
			Margin:     100,
			Padding:    100,
			IceDensity: 0.94,
			Seed:       0,
		},
		Cluster: Cluster{Method: "", MaxWorkers: 1},
	}
}

// Load reads filename over the defaults. An empty filename returns the
// defaults unchanged.
func Load(filename string) (*Config, error) {
	conf := Default()
	if filename == "" {
		return conf, nil
	}
	buf, err := os.ReadFile(filename)
	if err != nil {
		return nil, amplus.NewConfigError(fmt.Sprintf("reading %s: %v", filename, err))
	}
	if err := yaml.Unmarshal(buf, conf); err != nil {
		return nil, amplus.NewConfigError(fmt.Sprintf("parsing %s: %v", filename, err))
	}
	return conf, nil
}

//Apply merges a flat set of command-line overrides into the
//configuration. Keys are dotted paths ("scan.step_angle"); values are
//parsed as YAML so numbers and booleans come through typed.
func (c *Config) Apply(overrides map[string]string) error {
	if len(overrides) == 0 {
		return nil
	}
	//round-trip through the mapping form so the merge follows the same
	//rules as file loading
	tree := map[string]interface{}{}
	buf, err := yaml.Marshal(c)
	if err != nil {
		return amplus.NewConfigError(err.Error())
	}
	if err := yaml.Unmarshal(buf, &tree); err != nil {
		return amplus.NewConfigError(err.Error())
	}
	for key, val := range overrides {
		var v interface{}
		if err := yaml.Unmarshal([]byte(val), &v); err != nil {
			return amplus.NewConfigError(fmt.Sprintf("override %s=%s: %v", key, val, err))
		}
		if err := setPath(tree, key, v); err != nil {
			return err
		}
	}
	buf, err = yaml.Marshal(tree)
	if err != nil {
		return amplus.NewConfigError(err.Error())
	}
	return yaml.Unmarshal(buf, c)
}

func setPath(tree map[string]interface{}, key string, val interface{}) error {
	node := tree
	path := splitPath(key)
	for _, p := range path[:len(path)-1] {
		child, ok := node[p].(map[string]interface{})
		if !ok {
			if _, exists := node[p]; exists {
				return amplus.NewConfigError(fmt.Sprintf("override %s: %s is not a section", key, p))
			}
			child = map[string]interface{}{}
			node[p] = child
		}
		node = child
	}
	node[path[len(path)-1]] = val
	return nil
}

func splitPath(key string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			parts = append(parts, key[start:i])
			start = i + 1
		}
	}
	return append(parts, key[start:])
}

// Show renders the effective configuration as YAML.
func (c *Config) Show() (string, error) {
	buf, err := yaml.Marshal(c)
	if err != nil {
		return "", amplus.NewConfigError(err.Error())
	}
	return string(buf), nil
}
