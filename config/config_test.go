/*
 * config_test.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	conf, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if conf.Microscope.Beam.Energy != 300 {
		t.Errorf("default beam energy: got %v", conf.Microscope.Beam.Energy)
	}
	if conf.Scan.Mode != "still" {
		t.Errorf("default scan mode: got %q", conf.Scan.Mode)
	}
}

func TestLoadFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "conf.yaml")
	text := `
scan:
  mode: tilt_series
  start_angle: -60
  stop_angle: 60
  step_angle: 3
microscope:
  detector:
    nx: 512
    ny: 512
`
	if err := os.WriteFile(filename, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	conf, err := Load(filename)
	if err != nil {
		t.Fatal(err)
	}
	if conf.Scan.Mode != "tilt_series" || conf.Scan.StepAngle != 3 {
		t.Errorf("scan not loaded: %+v", conf.Scan)
	}
	if conf.Microscope.Detector.NX != 512 {
		t.Errorf("detector not loaded: %+v", conf.Microscope.Detector)
	}
	// untouched sections keep their defaults
	if conf.Microscope.Beam.Energy != 300 {
		t.Errorf("beam default lost: got %v", conf.Microscope.Beam.Energy)
	}
}

func TestApplyOverrides(t *testing.T) {
	conf := Default()
	err := conf.Apply(map[string]string{
		"scan.step_angle":        "2.5",
		"device":                 "cpu",
		"simulation.noise":       "true",
		"microscope.detector.nx": "256",
	})
	if err != nil {
		t.Fatal(err)
	}
	if conf.Scan.StepAngle != 2.5 {
		t.Errorf("step_angle override: got %v", conf.Scan.StepAngle)
	}
	if conf.Device != "cpu" {
		t.Errorf("device override: got %q", conf.Device)
	}
	if !conf.Simulation.Noise {
		t.Error("noise override lost")
	}
	if conf.Microscope.Detector.NX != 256 {
		t.Errorf("nx override: got %v", conf.Microscope.Detector.NX)
	}
}

func TestApplyBadOverride(t *testing.T) {
	conf := Default()
	if err := conf.Apply(map[string]string{"device.nested": "1"}); err == nil {
		t.Error("override through a scalar accepted")
	}
}

func TestShowRoundTrip(t *testing.T) {
	conf := Default()
	conf.Scan.StepAngle = 7
	text, err := conf.Show()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "step_angle: 7") {
		t.Errorf("Show output missing override:\n%s", text)
	}
	if !strings.Contains(text, "energy: 300") {
		t.Errorf("Show output missing defaults:\n%s", text)
	}
}
