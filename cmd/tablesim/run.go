package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/tablesim/tablesim/config"
	"github.com/tablesim/tablesim/monitoring"
	"github.com/tablesim/tablesim/sim"
	"github.com/tablesim/tablesim/simulation"
	"github.com/tablesim/tablesim/table"
	"github.com/tablesim/tablesim/user"
)

// experiment holds everything one run needs, so that the pieces built in
// one step are visible to the next.
type experiment struct {
	sim     *simulation.Simulation
	tables  []*table.Comp
	users   []*user.Comp
	horizon sim.VTimeInSec

	tableReports map[string]table.Report
	userReports  map[string]user.Report
}

func run() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	applyOverrides(cfg)

	e := &experiment{
		sim:          buildSimulation(),
		horizon:      sim.VTimeInSec(cfg.Duration),
		tableReports: make(map[string]table.Report),
		userReports:  make(map[string]user.Report),
	}

	e.buildTables(cfg)
	e.buildUsers(cfg)

	engine := e.sim.GetEngine()

	if logEvents {
		logger := log.New(os.Stderr, "", 0)
		engine.AcceptHook(sim.NewEventLogger(logger))
	}

	var bar *monitoring.ProgressBar
	if e.sim.GetMonitor() != nil && e.horizon > 0 {
		bar = e.sim.GetMonitor().CreateProgressBar(
			"simulated time", uint64(float64(e.horizon)*1000))
		engine.AcceptHook(monitoring.NewTimeProgressHook(
			bar, engine, e.horizon))
	}

	for _, u := range e.users {
		u.Start()
	}

	err = engine.RunUntil(e.horizon)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	engine.Finished()

	e.printSummary(engine.CurrentTime())

	if bar != nil {
		e.sim.GetMonitor().CompleteProgressBar(bar)
	}

	for _, t := range e.tables {
		t.Shutdown()
	}
	e.sim.Terminate()

	return nil
}

func applyOverrides(cfg *config.Config) {
	if duration >= 0 {
		cfg.Duration = duration
	}

	if seed >= 0 {
		cfg.Seed = seed
	}

	if outputName == "" {
		outputName = os.Getenv("TABLESIM_OUTPUT")
	}

	if monitorPort == 0 {
		if p, err := strconv.Atoi(
			os.Getenv("TABLESIM_MONITOR_PORT")); err == nil {
			monitorPort = p
		}
	}
}

func buildSimulation() *simulation.Simulation {
	builder := simulation.MakeBuilder()

	if noMonitor {
		builder = builder.WithoutMonitoring()
	} else {
		if monitorPort > 0 {
			builder = builder.WithMonitorPort(monitorPort)
		}
		if openDashboard {
			builder = builder.WithOpenBrowser()
		}
	}

	if outputName != "" {
		builder = builder.WithOutputFileName(outputName)
	}

	return builder.Build()
}

func (e *experiment) buildTables(cfg *config.Config) {
	engine := e.sim.GetEngine()
	e.tables = make([]*table.Comp, len(cfg.Tables))

	for _, tc := range cfg.Tables {
		t := table.MakeBuilder().
			WithEngine(engine).
			WithSink(e.sim.GetSink()).
			WithTableID(tc.ID).
			Build(fmt.Sprintf("Table%d", tc.ID))

		e.tables[tc.ID] = t
		e.sim.RegisterComponent(t)
		engine.RegisterSimulationEndHandler(
			sim.SimulationEndHandlerFunc(func(now sim.VTimeInSec) {
				e.tableReports[t.Name()] = t.Finalize(now)
			}))
	}
}

func (e *experiment) buildUsers(cfg *config.Config) {
	engine := e.sim.GetEngine()

	tableHandlers := make([]sim.Handler, len(e.tables))
	for i, t := range e.tables {
		tableHandlers[i] = t
	}

	e.users = make([]*user.Comp, 0, len(cfg.Users))

	for _, uc := range cfg.Users {
		distribution := user.Uniform
		if uc.TableDistribution == config.DistributionLognormal {
			distribution = user.Lognormal
		}

		u := user.MakeBuilder().
			WithEngine(engine).
			WithSink(e.sim.GetSink()).
			WithUserID(uc.ID).
			WithLambda(uc.Lambda).
			WithReadProbability(uc.ReadProbability).
			WithTableDistribution(distribution).
			WithLognormalParams(uc.LognormalM, uc.LognormalS).
			WithServiceTime(sim.VTimeInSec(uc.ServiceTime)).
			WithHorizon(e.horizon).
			WithTables(tableHandlers).
			WithSeed(cfg.Seed + int64(uc.ID)).
			Build(fmt.Sprintf("User%d", uc.ID))

		for _, t := range e.tables {
			t.RegisterUser(uc.ID, u)
		}

		e.users = append(e.users, u)
		e.sim.RegisterComponent(u)
		engine.RegisterSimulationEndHandler(
			sim.SimulationEndHandlerFunc(func(now sim.VTimeInSec) {
				e.userReports[u.Name()] = u.Finalize(now)
			}))
	}
}

func (e *experiment) printSummary(now sim.VTimeInSec) {
	fmt.Printf("Simulation finished at t=%.4f\n", now)

	for _, t := range e.tables {
		r := e.tableReports[t.Name()]
		fmt.Printf(
			"%s: served=%d (r=%d, w=%d) maxQ=%d meanQ=%.4f "+
				"meanWait=%.4f throughput=%.4f utilization=%.4f\n",
			t.Name(), r.TotalServed, r.TotalReads, r.TotalWrites,
			r.MaxQueueLength, r.MeanQueueLength, r.MeanWaitingTime,
			r.Throughput, r.Utilization)
	}

	for _, u := range e.users {
		r := e.userReports[u.Name()]
		fmt.Printf(
			"%s: accesses=%d (r=%d, w=%d) meanWait=%.4f accesses/s=%.4f\n",
			u.Name(), r.TotalAccesses, r.TotalReads, r.TotalWrites,
			r.MeanWaitTime, r.AccessesPerSecond)
	}
}
