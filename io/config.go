package io

import (
	"fmt"
	"strings"

	"github.com/phil-mansfield/hotree/morton"
	"gopkg.in/gcfg.v1"
)

const (
	ExampleRunFile = `[Run]

#######################
# Required Parameters #
#######################

# Directory which snapshot files will be written to.
Output = path/to/output/dir

# Number of time steps to take and the length of each step.
Steps = 1000
Dt = 0.01

#######################
# Optional Parameters #
#######################

# Opening angle used to decide when a node can be treated as a single
# multipole. Smaller values are more accurate and slower. Default is 1.0.
# Theta = 1.0

# Length added in quadrature to every separation. Default is 0.025.
# Softening = 0.025

# Factor by which the tree's root cube is expanded past the outermost body.
# Must be at least 1. Default is 1.01.
# Margin = 1.01

# Algorithm used to order bodies by key. One of
# [ Merge | Radix | ThreePassRadix ]. Default is ThreePassRadix.
# SortMethod = ThreePassRadix

# A snapshot named snap%04d.dat is written every SnapshotEvery steps. The
# initial conditions are always written. Default is 100.
# SnapshotEvery = 100

# Energy is logged every EnergyEvery steps. This costs O(n^2) time, so it is
# off by default.
# EnergyEvery = 0

# Checks every tree invariant after each build. This is slow.
# Validate = false

# Output files which are useful for profiling and debugging. Generally, there
# isn't a reason to use these unless something goes wrong.
# ProfileFile = prof.out
# LogFile = log.out

[InitialConditions]

# Type can be one of [ Uniform | Plummer | Table ].
#   Uniform: Bodies are placed uniformly in a cube of side 2*HalfWidth, with
#            velocity components drawn uniformly from +/-VelocityScale.
#   Plummer: A Plummer sphere with the given ScaleRadius and TotalMass.
#   Table:   Bodies are read from TableFile, a text file with the columns
#            x y z vx vy vz m.
Type = Uniform

Bodies = 10000
Seed = 0

# Uniform parameters.
HalfWidth = 1500
VelocityScale = 1
BodyMass = 1

# Plummer parameters.
# ScaleRadius = 1
# TotalMass = 1

# Table parameters.
# TableFile = path/to/table.txt`

	ExamplePlotFile = `[Plot]

#######################
# Required Parameters #
#######################

# Snapshot file to plot.
Input = path/to/snap0000.dat
# PNG file the plot will be written to.
Output = path/to/plot.png

#######################
# Optional Parameters #
#######################

# The plane bodies are projected onto. One of [ XY | XZ | YZ ]. Default is XY.
# Axes = XY

# Draws the outline of every tree node no deeper than MaxNodeDepth.
# Nodes = false
# MaxNodeDepth = 4

# Title = My Simulation

# LogFile = log.out`
)

type SharedConfig struct {
	// Required
	Input, Output string
	// Optional
	LogFile, ProfileFile string
}

func (con *SharedConfig) ValidInput() bool {
	return con.Input != ""
}
func (con *SharedConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *SharedConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *SharedConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

type RunConfig struct {
	SharedConfig

	// Required
	Steps int
	Dt    float64

	// Optional
	Theta, Softening, Margin   float64
	SortMethod                 string
	SnapshotEvery, EnergyEvery int
	Validate                   bool
}

func (con *RunConfig) ValidSteps() bool {
	return con.Steps >= 0
}
func (con *RunConfig) ValidDt() bool {
	return con.Dt > 0
}
func (con *RunConfig) ValidTheta() bool {
	return con.Theta > 0
}
func (con *RunConfig) ValidSoftening() bool {
	return con.Softening >= 0
}
func (con *RunConfig) ValidMargin() bool {
	return con.Margin >= 1
}
func (con *RunConfig) ValidSortMethod() bool {
	_, ok := morton.SortMethodFromString(con.SortMethod)
	return ok
}
func (con *RunConfig) ValidSnapshotEvery() bool {
	return con.SnapshotEvery > 0
}

// Sort returns the parsed SortMethod.
func (con *RunConfig) Sort() morton.SortMethod {
	m, _ := morton.SortMethodFromString(con.SortMethod)
	return m
}

// ICType is a kind of initial conditions.
type ICType int

const (
	Uniform ICType = iota
	Plummer
	Table
	EndICType
)

func ICTypeFromString(s string) (ic ICType, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uniform":
		return Uniform, true
	case "plummer":
		return Plummer, true
	case "table":
		return Table, true
	}
	return Uniform, false
}

func (ic ICType) String() string {
	switch ic {
	case Uniform:
		return "Uniform"
	case Plummer:
		return "Plummer"
	case Table:
		return "Table"
	}
	panic(fmt.Sprintf("Unknown ICType %d.", int(ic)))
}

type InitialConditionsConfig struct {
	// Required
	Type   string
	Bodies int
	Seed   int64

	// Uniform
	HalfWidth, VelocityScale, BodyMass float64
	// Plummer
	ScaleRadius, TotalMass float64
	// Table
	TableFile string
}

func (con *InitialConditionsConfig) ValidType() bool {
	_, ok := ICTypeFromString(con.Type)
	return ok
}

// ICType returns the parsed initial condition type.
func (con *InitialConditionsConfig) ICType() ICType {
	ic, _ := ICTypeFromString(con.Type)
	return ic
}

// CheckInit returns an error if the parameters needed by the configured
// Type are missing or out of range.
func (con *InitialConditionsConfig) CheckInit() error {
	if !con.ValidType() {
		return fmt.Errorf(
			"InitialConditions Type must be one of [Uniform | Plummer | "+
				"Table], but is '%s'.", con.Type,
		)
	}

	switch con.ICType() {
	case Uniform:
		if con.Bodies <= 0 {
			return fmt.Errorf("Need a positive Bodies count, not %d.",
				con.Bodies)
		} else if con.HalfWidth <= 0 {
			return fmt.Errorf("Need a positive HalfWidth, not %g.",
				con.HalfWidth)
		} else if con.VelocityScale < 0 {
			return fmt.Errorf("VelocityScale cannot be negative, but is %g.",
				con.VelocityScale)
		} else if con.BodyMass < 0 {
			return fmt.Errorf("BodyMass cannot be negative, but is %g.",
				con.BodyMass)
		}
	case Plummer:
		if con.Bodies <= 0 {
			return fmt.Errorf("Need a positive Bodies count, not %d.",
				con.Bodies)
		} else if con.ScaleRadius <= 0 {
			return fmt.Errorf("Need a positive ScaleRadius, not %g.",
				con.ScaleRadius)
		} else if con.TotalMass <= 0 {
			return fmt.Errorf("Need a positive TotalMass, not %g.",
				con.TotalMass)
		}
	case Table:
		if con.TableFile == "" {
			return fmt.Errorf("Type is Table, but no TableFile was given.")
		}
	}
	return nil
}

type RunWrapper struct {
	Run               RunConfig
	InitialConditions InitialConditionsConfig
}

func DefaultRunWrapper() *RunWrapper {
	rc := RunConfig{}
	rc.Theta = 1.0
	rc.Softening = 0.025
	rc.Margin = 1.01
	rc.SortMethod = morton.ThreePassRadix.String()
	rc.SnapshotEvery = 100

	ic := InitialConditionsConfig{}
	ic.Type = Uniform.String()
	ic.HalfWidth = 1500
	ic.VelocityScale = 1
	ic.BodyMass = 1
	ic.ScaleRadius = 1
	ic.TotalMass = 1

	return &RunWrapper{rc, ic}
}

// CheckInit returns an error describing the first invalid parameter.
func (wrap *RunWrapper) CheckInit() error {
	con := &wrap.Run
	switch {
	case !con.ValidOutput():
		return fmt.Errorf("Invalid/non-existent 'Output' value.")
	case !con.ValidSteps():
		return fmt.Errorf("'Steps' cannot be negative, but is %d.", con.Steps)
	case !con.ValidDt():
		return fmt.Errorf("'Dt' must be positive, but is %g.", con.Dt)
	case !con.ValidTheta():
		return fmt.Errorf("'Theta' must be positive, but is %g.", con.Theta)
	case !con.ValidSoftening():
		return fmt.Errorf("'Softening' cannot be negative, but is %g.",
			con.Softening)
	case !con.ValidMargin():
		return fmt.Errorf("'Margin' must be at least 1, but is %g.",
			con.Margin)
	case !con.ValidSortMethod():
		return fmt.Errorf("Unrecognized 'SortMethod' value, '%s'.",
			con.SortMethod)
	case !con.ValidSnapshotEvery():
		return fmt.Errorf("'SnapshotEvery' must be positive, but is %d.",
			con.SnapshotEvery)
	}
	return wrap.InitialConditions.CheckInit()
}

// ReadRunConfig reads and checks a [Run] configuration file.
func ReadRunConfig(fname string) (*RunWrapper, error) {
	wrap := DefaultRunWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	if err := wrap.CheckInit(); err != nil {
		return nil, err
	}
	return wrap, nil
}

type PlotConfig struct {
	SharedConfig

	// Optional
	Axes         string
	Nodes        bool
	MaxNodeDepth int
	Title        string
}

func (con *PlotConfig) ValidAxes() bool {
	switch strings.ToUpper(strings.TrimSpace(con.Axes)) {
	case "XY", "XZ", "YZ":
		return true
	}
	return false
}
func (con *PlotConfig) ValidMaxNodeDepth() bool {
	return con.MaxNodeDepth >= 0 && con.MaxNodeDepth <= morton.MaxDepth
}

type PlotWrapper struct {
	Plot PlotConfig
}

func DefaultPlotWrapper() *PlotWrapper {
	pc := PlotConfig{}
	pc.Axes = "XY"
	pc.MaxNodeDepth = 4
	return &PlotWrapper{pc}
}

// ReadPlotConfig reads and checks a [Plot] configuration file.
func ReadPlotConfig(fname string) (*PlotWrapper, error) {
	wrap := DefaultPlotWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}

	con := &wrap.Plot
	if !con.ValidInput() {
		return nil, fmt.Errorf("Invalid/non-existent 'Input' value.")
	} else if !con.ValidOutput() {
		return nil, fmt.Errorf("Invalid/non-existent 'Output' value.")
	} else if !con.ValidAxes() {
		return nil, fmt.Errorf(
			"'Axes' must be one of [XY | XZ | YZ], but is '%s'.", con.Axes,
		)
	} else if !con.ValidMaxNodeDepth() {
		return nil, fmt.Errorf("'MaxNodeDepth' must be in [0, %d], but is %d.",
			morton.MaxDepth, con.MaxNodeDepth)
	}
	return wrap, nil
}
