package metrics

import (
	"math"

	"github.com/GJBoth/Reservoir-computing-kernels/internal/dataset"
)

// Metric accumulates a forecast quality statistic step by step.
type Metric interface {
	Name() string
	Observe(pred, truth dataset.State)
	Value() float64
	Reset()
}

// RMSE is the root mean squared error over all observed components.
type RMSE struct {
	sumSq   float64
	samples int
}

func NewRMSE() *RMSE { return &RMSE{} }

func (m *RMSE) Name() string { return "rmse" }

func (m *RMSE) Observe(pred, truth dataset.State) {
	n := len(pred)
	if len(truth) < n {
		n = len(truth)
	}
	for i := 0; i < n; i++ {
		diff := pred[i] - truth[i]
		m.sumSq += diff * diff
		m.samples++
	}
}

func (m *RMSE) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.samples))
}

func (m *RMSE) Reset() {
	m.sumSq = 0
	m.samples = 0
}
