package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/phil-mansfield/hotree"
	"github.com/phil-mansfield/hotree/body"
	"github.com/phil-mansfield/hotree/geom"
	"github.com/phil-mansfield/hotree/io"
	"github.com/phil-mansfield/hotree/morton"
	"github.com/phil-mansfield/hotree/plot"
	"github.com/phil-mansfield/hotree/tree"
	plt "github.com/phil-mansfield/pyplot"
)

type FileGroup struct {
	log, prof *os.File
}

func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

var threads int

func main() {
	var (
		runStr, plotStr string
		exampleConfig   string
	)
	vars := map[string]*string{
		"Run":           &runStr,
		"Plot":          &plotStr,
		"ExampleConfig": &exampleConfig,
	}

	flag.IntVar(
		&threads, "Threads", runtime.NumCPU(),
		"Number of threads used. Default is the number of logical cores.",
	)
	flag.StringVar(
		&runStr, "Run", "",
		"Configuration file for [Run] mode.",
	)
	flag.StringVar(
		&plotStr, "Plot", "",
		"Configuration file for [Plot] mode.",
	)
	flag.StringVar(
		&exampleConfig,
		"ExampleConfig", "", "Prints an example configuration file of the "+
			"specified type to stdout. Accepted arguments are 'Run' and "+
			"'Plot'.",
	)

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}
	if threads <= 0 {
		log.Fatalf("'Threads' must be positive, but is %d.", threads)
	}
	runtime.GOMAXPROCS(threads)

	switch modeName {
	case "Run":
		wrap, err := io.ReadRunConfig(runStr)
		if err != nil {
			log.Fatal(err.Error())
		}
		runMain(wrap)

	case "Plot":
		wrap, err := io.ReadPlotConfig(plotStr)
		if err != nil {
			log.Fatal(err.Error())
		}
		plotMain(&wrap.Plot)
		plt.Execute()

	case "ExampleConfig":
		switch exampleConfig {
		case "Run":
			fmt.Println(io.ExampleRunFile)
		case "Plot":
			fmt.Println(io.ExamplePlotFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. Only recognized " +
					"arguments are 'Run' and 'Plot'.",
			)
		}
	default:
		panic("Impossible")
	}
}

func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but hotree "+
				"only accepts one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

// setupIO creates the log and profile files named in con.
func setupIO(con *io.SharedConfig) *FileGroup {
	var err error
	fg := new(FileGroup)

	// Set up log file.
	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		log.SetOutput(fg.log)
	}

	// Set up profile file.
	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		err = pprof.StartCPUProfile(fg.prof)
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	return fg
}

func initialConditions(con *io.InitialConditionsConfig) ([]body.Body, error) {
	seed := uint64(con.Seed)
	switch con.ICType() {
	case io.Uniform:
		return body.Uniform(
			con.Bodies, con.HalfWidth, con.VelocityScale, con.BodyMass, seed,
		)
	case io.Plummer:
		return body.Plummer(con.Bodies, con.ScaleRadius, con.TotalMass, seed)
	case io.Table:
		return io.ReadBodyTable(con.TableFile)
	}
	panic("Impossible")
}

func runParams(con *io.RunConfig) hotree.Params {
	p := hotree.DefaultParams()
	p.Theta = con.Theta
	p.Dt = con.Dt
	p.Softening = con.Softening
	p.Margin = con.Margin
	p.Sort = con.Sort()
	p.Validate = con.Validate
	p.Workers = threads
	p.Log = true
	return p
}

func runMain(wrap *io.RunWrapper) {
	con := &wrap.Run
	fg := setupIO(&con.SharedConfig)
	defer fg.Close()

	bodies, err := initialConditions(&wrap.InitialConditions)
	if err != nil {
		log.Fatal(err.Error())
	}
	log.Printf("Generated %d %s bodies.", len(bodies),
		wrap.InitialConditions.ICType())

	sim, err := hotree.NewSimulation(bodies, runParams(con))
	if err != nil {
		log.Fatal(err.Error())
	}

	if err = os.MkdirAll(con.Output, 0777); err != nil {
		log.Fatal(err.Error())
	}

	// Fills in the bounds and accelerations of the initial snapshot.
	if err = sim.ComputeForces(); err != nil {
		log.Fatal(err.Error())
	}
	sim.Tree().Clear()
	writeSnapshot(sim, con.Output)
	logEnergy(sim)

	err = sim.Run(con.Steps, func(step int) error {
		if step%con.SnapshotEvery == 0 || step == con.Steps {
			writeSnapshot(sim, con.Output)
		}
		if con.EnergyEvery > 0 && step%con.EnergyEvery == 0 {
			logEnergy(sim)
		}
		return nil
	})
	if err != nil {
		log.Fatal(err.Error())
	}
	logEnergy(sim)
}

func writeSnapshot(sim *hotree.Simulation, dir string) {
	p := sim.Params()
	hd := &io.SnapshotHeader{
		Step: int64(sim.StepCount()), Time: sim.Time(), Dt: p.Dt,
		Theta: p.Theta, Softening: p.Softening,
	}
	hd.SetBounds(sim.Bounds())

	fname := path.Join(dir, fmt.Sprintf("snap%04d.dat", sim.StepCount()))
	if err := io.WriteSnapshot(fname, hd, sim.Bodies()); err != nil {
		log.Fatal(err.Error())
	}
	log.Println("Wrote", fname)
}

func logEnergy(sim *hotree.Simulation) {
	k, u := sim.Energy()
	log.Printf("Step %d: t = %.4g, K = %.6g, U = %.6g, E = %.6g",
		sim.StepCount(), sim.Time(), k, u, k+u)
}

func plotMain(con *io.PlotConfig) {
	fg := setupIO(&con.SharedConfig)
	defer fg.Close()

	hd, bodies, err := io.ReadSnapshot(con.Input)
	if err != nil {
		log.Fatal(err.Error())
	}
	axes, _ := plot.AxesFromString(con.Axes)

	var cubes []geom.Cube
	if con.Nodes {
		cubes, err = nodeCubes(bodies, con.MaxNodeDepth)
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	title := con.Title
	if title == "" {
		title = fmt.Sprintf("Step %d: $t$ = %.3g, $N$ = %d",
			hd.Step, hd.Time, hd.Count)
	}

	err = plot.Projection(con.Output, bodies, cubes, axes, title)
	if err != nil {
		log.Fatal(err.Error())
	}
}

// nodeCubes rebuilds the tree of a snapshot and returns the bounds of its
// nodes down to maxDepth.
func nodeCubes(bodies []body.Body, maxDepth int) ([]geom.Cube, error) {
	b, err := geom.NewBounds(body.Positions(bodies, nil), geom.DefaultMargin)
	if err != nil {
		return nil, err
	}
	if err = body.EncodeKeys(bodies, b); err != nil {
		return nil, err
	}
	if err = body.Sort(bodies, morton.ThreePassRadix); err != nil {
		return nil, err
	}
	t := tree.New(tree.NewNodePool(2 * len(bodies)))
	if err = t.Build(bodies, b); err != nil {
		return nil, err
	}
	return t.NodeBoundsTo(maxDepth), nil
}
