package missionsim

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
)

// Variant is one run of a sweep.
type Variant struct {
	Name    string
	Config  Config
	Mission MissionConfig
	Export  ExportConfig
}

// SweepParameter returns one variant per value, where the parameter named by key is set on a copy of base.
// Every variant is validated.
func SweepParameter(base Config, mission MissionConfig, key string, values []float64) ([]Variant, error) {
	if len(values) == 0 {
		return nil, newConfigError("sweep", "values", values, "may not be empty")
	}
	variants := make([]Variant, len(values))
	for i, val := range values {
		cfg, err := base.With(key, val)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		variants[i] = Variant{Name: key + "=" + strconv.FormatFloat(val, 'g', -1, 64), Config: cfg, Mission: mission}
	}
	return variants, nil
}

// RunResult is the outcome of one variant.
type RunResult struct {
	Name    string
	Summary RunSummary
	Err     error
}

// Sweeper runs independent simulations in parallel.
type Sweeper struct {
	workers int
	logger  kitlog.Logger
}

// NewSweeper returns a sweeper with the provided number of workers, or one per CPU if workers is not positive.
func NewSweeper(workers int, logger kitlog.Logger) *Sweeper {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &Sweeper{workers: workers, logger: logger}
}

type sweepJob struct {
	idx     int
	variant Variant
}

// Run simulates every variant on the shared, read only, area table. The results are in the order of the variants.
// A variant which fails does not stop the others; a cancelled context aborts all of them.
func (sw *Sweeper) Run(ctx context.Context, areas *AreaTable, variants []Variant) []RunResult {
	results := make([]RunResult, len(variants))
	if len(variants) == 0 {
		return results
	}
	jobs := make(chan sweepJob, sw.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < sw.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				// Each worker writes its own index only.
				results[job.idx] = sw.runVariant(ctx, areas, job.variant)
			}
		}()
	}

	for i, v := range variants {
		jobs <- sweepJob{idx: i, variant: v}
	}
	close(jobs)
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	sw.logger.Log("level", "notice", "subsys", "sweep", "variants", len(variants), "failed", failed)
	return results
}

func (sw *Sweeper) runVariant(ctx context.Context, areas *AreaTable, v Variant) RunResult {
	result := RunResult{Name: v.Name}
	if err := ctx.Err(); err != nil {
		runsTotal.WithLabelValues(outcomeAborted).Inc()
		result.Err = err
		return result
	}
	start := time.Now()
	sat, err := NewSatellite(v.Name, v.Config, sw.logger)
	if err != nil {
		runsTotal.WithLabelValues(outcomeInvalid).Inc()
		result.Err = err
		return result
	}
	mission, err := NewMission(sat, areas, v.Mission, v.Export, sw.logger)
	if err != nil {
		runsTotal.WithLabelValues(outcomeInvalid).Inc()
		result.Err = err
		return result
	}
	err = mission.Run(ctx)
	runDurationSeconds.Observe(time.Since(start).Seconds())
	depletedStepsTotal.Add(float64(sat.DepletedSteps()))
	result.Summary = Summarize(mission.ID, sat.Tracker())
	switch {
	case err == nil:
		runsTotal.WithLabelValues(outcomeOK).Inc()
	case errors.Is(err, ErrNumericalInstability):
		runsTotal.WithLabelValues(outcomeUnstable).Inc()
		result.Err = err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		runsTotal.WithLabelValues(outcomeAborted).Inc()
		result.Err = err
	default:
		runsTotal.WithLabelValues(outcomeInvalid).Inc()
		result.Err = fmt.Errorf("variant %s: %w", v.Name, err)
	}
	if result.Err != nil {
		sw.logger.Log("level", "error", "subsys", "sweep", "variant", v.Name, "err", result.Err)
	}
	return result
}
