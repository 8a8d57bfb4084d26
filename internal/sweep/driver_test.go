package sweep_test

import (
	"context"
	"io"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/GJBoth/Reservoir-computing-kernels/internal/dataset"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/reservoir"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/sweep"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func smallPipeline() sweep.Pipeline {
	p := sweep.DefaultPipeline()
	p.Reservoir.Size = 30
	p.Recursion = 10
	return p
}

func sineWindows() (train, test *dataset.Trajectory) {
	traj := dataset.Sine(120, 25)
	train, test, err := traj.Split(100)
	Expect(err).NotTo(HaveOccurred())
	return train, test
}

var _ = Describe("Pipeline", func() {
	Describe("SetParam", func() {
		It("accepts every advertised parameter name", func() {
			for _, name := range sweep.ParamNames() {
				p := sweep.DefaultPipeline()
				Expect(p.SetParam(name, 0.5)).To(Succeed())
			}
		})

		It("rejects unknown parameters", func() {
			p := sweep.DefaultPipeline()
			Expect(p.SetParam("spectral_radius", 0.5)).NotTo(Succeed())
		})

		It("converts integer-valued parameters", func() {
			p := sweep.DefaultPipeline()
			Expect(p.SetParam("reservoir_size", 200)).To(Succeed())
			Expect(p.Reservoir.Size).To(Equal(200))
			Expect(p.SetParam("seed", 9)).To(Succeed())
			Expect(p.Reservoir.Seed).To(Equal(int64(9)))
		})
	})

	Describe("Evaluate", func() {
		It("scores a sine forecast end to end", func() {
			train, test := sineWindows()
			eval, err := smallPipeline().Evaluate(context.Background(), train, test)
			Expect(err).NotTo(HaveOccurred())
			Expect(eval.RMSE).To(BeNumerically(">=", 0))
			Expect(math.IsNaN(eval.RMSE)).To(BeFalse())
			Expect(eval.Path.Steps()).To(Equal(10))
		})

		It("rejects mismatched train and test dimensions", func() {
			train, _ := sineWindows()
			states := make([]dataset.State, 10)
			for i := range states {
				states[i] = dataset.State{0, 0}
			}
			test2d, err := dataset.New(states)
			Expect(err).NotTo(HaveOccurred())

			_, err = smallPipeline().Evaluate(context.Background(), train, test2d)
			Expect(err).To(HaveOccurred())
		})

		It("rejects a horizon longer than the test window", func() {
			train, test := sineWindows()
			p := smallPipeline()
			p.Horizon = test.Len() + 1

			// zero possible forecast steps must fail, not return an
			// empty path whose RMSE of 0 would win the sweep
			_, err := p.Evaluate(context.Background(), train, test)
			Expect(err).To(MatchError(reservoir.ErrDimensionMismatch))
		})

		It("honors context cancellation", func() {
			train, test := sineWindows()
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := smallPipeline().Evaluate(ctx, train, test)
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})

var _ = Describe("Driver", func() {
	var (
		driver      *sweep.Driver
		train, test *dataset.Trajectory
	)

	BeforeEach(func() {
		driver = sweep.NewDriver(2, quietLogger())
		train, test = sineWindows()
	})

	It("evaluates every grid point", func() {
		values := []float64{0.1, 0.4, 0.8}
		results, err := driver.Search(context.Background(), smallPipeline(), "input_scale", values, train, test)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))

		for i, r := range results {
			Expect(r.Param).To(Equal(values[i]), "results keep grid order")
			Expect(r.Failed()).To(BeFalse())
			Expect(math.IsNaN(r.RMSE)).To(BeFalse())
		}
	})

	It("isolates failing configurations", func() {
		// leak rate above one fails validation; the rest must survive
		values := []float64{0.5, 5.0, 1.0}
		results, err := driver.Search(context.Background(), smallPipeline(), "leak_rate", values, train, test)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))

		Expect(results[0].Failed()).To(BeFalse())
		Expect(results[1].Failed()).To(BeTrue())
		Expect(math.IsNaN(results[1].RMSE)).To(BeTrue())
		Expect(results[2].Failed()).To(BeFalse())

		Expect(sweep.Failed(results)).To(Equal([]int{1}))
	})

	It("rejects an unknown parameter before starting workers", func() {
		_, err := driver.Search(context.Background(), smallPipeline(), "warp_factor", []float64{1}, train, test)
		Expect(err).To(HaveOccurred())
	})

	It("reports results through the callback", func() {
		seen := make([]bool, 2)
		driver.OnResult = func(idx int, r sweep.Result) {
			seen[idx] = true
		}

		_, err := driver.Search(context.Background(), smallPipeline(), "input_scale", []float64{0.2, 0.6}, train, test)
		Expect(err).NotTo(HaveOccurred())
		Expect(seen[0]).To(BeTrue())
		Expect(seen[1]).To(BeTrue())
	})

	It("stops feeding work on cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := driver.Search(ctx, smallPipeline(), "input_scale", sweep.Range(0.1, 1, 20), train, test)
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("Best", func() {
	It("returns the argmin over successful results", func() {
		results := []sweep.Result{
			{Param: 0.1, RMSE: 0.5},
			{Param: 0.2, RMSE: 0.1},
			{Param: 0.3, RMSE: math.NaN(), Err: context.DeadlineExceeded},
			{Param: 0.4, RMSE: 0.3},
		}
		best, ok := sweep.Best(results)
		Expect(ok).To(BeTrue())
		Expect(best).To(Equal(1))
	})

	It("reports failure when nothing succeeded", func() {
		results := []sweep.Result{
			{Param: 0.1, RMSE: math.NaN(), Err: context.DeadlineExceeded},
		}
		_, ok := sweep.Best(results)
		Expect(ok).To(BeFalse())
	})

	It("handles the empty slice", func() {
		_, ok := sweep.Best(nil)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Range", func() {
	It("builds an inclusive evenly spaced grid", func() {
		grid := sweep.Range(0, 1, 5)
		Expect(grid).To(HaveLen(5))
		Expect(grid[0]).To(Equal(0.0))
		Expect(grid[4]).To(Equal(1.0))
		Expect(grid[2]).To(BeNumerically("~", 0.5, 1e-12))
	})

	It("collapses degenerate grids to the minimum", func() {
		Expect(sweep.Range(0.3, 0.9, 1)).To(Equal([]float64{0.3}))
		Expect(sweep.Range(0.3, 0.9, 0)).To(Equal([]float64{0.3}))
	})
})
