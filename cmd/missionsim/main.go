package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"runtime"

	kitlog "github.com/go-kit/log"
	"github.com/joho/godotenv"
	missionsim "github.com/utat-ss/HERON-mission-sim"
)

// This code reads the scenario, runs the mission (or its sweep) and writes the exports.

const (
	defaultScenario = "~~unset~~"
	scenarioEnv     = "MISSIONSIM_SCENARIO"
)

var (
	scenario string
	areasCSV string
	metrics  string
	cpus     int
	verbose  bool
)

func init() {
	// Read flags
	flag.StringVar(&scenario, "scenario", defaultScenario, "mission scenario TOML file")
	flag.StringVar(&areasCSV, "areas", "", "STK projected areas report (overrides mission.areas)")
	flag.StringVar(&metrics, "metrics", "", "write the Prometheus metrics to this file")
	flag.IntVar(&cpus, "cpus", -1, "number of CPUs to use for sweeps (less than 1 uses all)")
	flag.BoolVar(&verbose, "verbose", false, "log the status of each orbit")
}

func main() {
	flag.Parse()
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf(".env: %s", err)
	}
	if scenario == defaultScenario {
		scenario = os.Getenv(scenarioEnv)
	}
	if scenario == "" {
		log.Fatalf("no scenario provided, use -scenario or set %s", scenarioEnv)
	}
	if cpus <= 0 {
		cpus = runtime.NumCPU()
	}
	runtime.GOMAXPROCS(cpus)

	logger := newLogger(verbose)

	sc, err := missionsim.LoadScenario(scenario)
	if err != nil {
		log.Fatalf("%s: %s", scenario, err)
	}
	if areasCSV != "" {
		sc.Areas = areasCSV
	}
	orbitLen := sc.Mission.PointsPerOrbit()
	var areas *missionsim.AreaTable
	if sc.Areas == "" {
		logger.Log("level", "warning", "subsys", "areas", "message", "no areas report, the satellite is always in eclipse")
		areas = missionsim.ZeroAreaTable(orbitLen)
	} else if areas, err = missionsim.LoadSTKAreas(sc.Areas, orbitLen); err != nil {
		log.Fatalf("%s: %s", sc.Areas, err)
	}

	variants, err := sc.Variants()
	if err != nil {
		log.Fatalf("%s: %s", scenario, err)
	}
	if verbose {
		log.Printf("[conf] %d variant(s) of %d orbits, %d steps each, on %d CPUs", len(variants), sc.Mission.Orbits, sc.Mission.Points(), cpus)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	results := missionsim.NewSweeper(cpus, logger).Run(ctx, areas, variants)

	failed := false
	for _, res := range results {
		if res.Err != nil {
			failed = true
			fmt.Printf("%s: FAILED %s\n", res.Name, res.Err)
			continue
		}
		s := res.Summary
		fmt.Printf("%s: V=[%.3f, %.3f] charge=%.1f mAh T_batt=[%.2f, %.2f] K T_pay=[%.2f, %.2f] K depleted=%d shunt=%v\n",
			res.Name, s.Voltage.Min, s.Voltage.Max, s.FinalCharge, s.Battery.Min, s.Battery.Max, s.Payload.Min, s.Payload.Max, s.DepletedSteps, s.ShuntEngaged)
	}

	if metrics != "" {
		if err := missionsim.WriteMetrics(metrics); err != nil {
			log.Fatalf("%s: %s", metrics, err)
		}
	}
	if failed {
		os.Exit(1)
	}
}

// newLogger returns a logfmt logger on stderr. Unless verbose, the info entries are dropped.
func newLogger(verbose bool) kitlog.Logger {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)
	if verbose {
		return logger
	}
	return kitlog.LoggerFunc(func(keyvals ...interface{}) error {
		for i := 0; i+1 < len(keyvals); i += 2 {
			if keyvals[i] == "level" && keyvals[i+1] == "info" {
				return nil
			}
		}
		return logger.Log(keyvals...)
	})
}
