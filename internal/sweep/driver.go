// Package sweep runs grid searches over a single reservoir
// hyperparameter, evaluating configurations in parallel and isolating
// per-configuration failures.
package sweep

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/GJBoth/Reservoir-computing-kernels/internal/dataset"
)

// Result records one grid point. A failed configuration keeps its slot
// with a NaN error value and a non-nil Err so the cause stays
// diagnosable; it never aborts the sweep.
type Result struct {
	Param     float64
	RMSE      float64
	ValidTime float64
	Err       error
}

func (r Result) Failed() bool { return r.Err != nil }

type Driver struct {
	Workers int
	Log     *logrus.Logger

	// OnResult, when set, is called from worker goroutines as each
	// configuration finishes. Used by the live view.
	OnResult func(index int, r Result)
}

func NewDriver(workers int, log *logrus.Logger) *Driver {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = logrus.New()
	}
	return &Driver{Workers: workers, Log: log}
}

// Search sweeps the named hyperparameter over values, evaluating a
// fresh pipeline per grid point against the shared read-only train/test
// windows. Results arrive in value order regardless of scheduling.
func (d *Driver) Search(ctx context.Context, base Pipeline, param string, values []float64, train, test *dataset.Trajectory) ([]Result, error) {
	// reject an unknown parameter up front rather than n times in workers
	probe := base
	if err := probe.SetParam(param, 0); err != nil {
		return nil, err
	}

	results := make([]Result, len(values))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := d.Workers
	if workers > len(values) {
		workers = len(values)
	}
	if workers < 1 {
		workers = 1
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = d.evalOne(ctx, base, param, values[idx], train, test)
				if d.OnResult != nil {
					d.OnResult(idx, results[idx])
				}
			}
		}()
	}

	for i := range values {
		select {
		case <-ctx.Done():
			// let started evaluations observe cancellation themselves
		case jobs <- i:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (d *Driver) evalOne(ctx context.Context, base Pipeline, param string, value float64, train, test *dataset.Trajectory) (res Result) {
	res = Result{Param: value, RMSE: math.NaN(), ValidTime: math.NaN()}

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("sweep: evaluation panicked: %v", r)
			d.Log.WithFields(logrus.Fields{"param": param, "value": value}).
				Error(res.Err)
		}
	}()

	p := base
	if err := p.SetParam(param, value); err != nil {
		res.Err = err
		return res
	}

	eval, err := p.Evaluate(ctx, train, test)
	if err != nil {
		res.Err = err
		d.Log.WithFields(logrus.Fields{
			"param": param,
			"value": value,
		}).WithError(err).Warn("configuration failed, skipping")
		return res
	}

	res.RMSE = eval.RMSE
	res.ValidTime = eval.ValidTime
	d.Log.WithFields(logrus.Fields{
		"param":      param,
		"value":      value,
		"rmse":       eval.RMSE,
		"valid_time": eval.ValidTime,
	}).Debug("configuration evaluated")
	return res
}

// Best returns the index of the lowest-RMSE successful result. The
// second return is false when every configuration failed.
func Best(results []Result) (int, bool) {
	best := -1
	for i, r := range results {
		if r.Failed() || math.IsNaN(r.RMSE) {
			continue
		}
		if best < 0 || r.RMSE < results[best].RMSE {
			best = i
		}
	}
	return best, best >= 0
}

// Failed returns the indices of skipped configurations, reported at
// sweep completion.
func Failed(results []Result) []int {
	var idx []int
	for i, r := range results {
		if r.Failed() {
			idx = append(idx, i)
		}
	}
	return idx
}

// Range builds an inclusive evenly spaced grid of n values.
func Range(min, max float64, n int) []float64 {
	if n <= 1 {
		return []float64{min}
	}
	vals := make([]float64, n)
	step := (max - min) / float64(n-1)
	for i := range vals {
		vals[i] = min + float64(i)*step
	}
	return vals
}
