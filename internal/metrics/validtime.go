package metrics

import "github.com/GJBoth/Reservoir-computing-kernels/internal/dataset"

// ValidTime counts forecast steps until the normalized per-step error
// first exceeds the threshold. Once exceeded the count freezes; a run
// that never exceeds it reports the number of observed steps.
type ValidTime struct {
	threshold float64
	steps     int
	exceeded  bool
}

func NewValidTime(threshold float64) *ValidTime {
	return &ValidTime{threshold: threshold}
}

func (m *ValidTime) Name() string { return "valid_time" }

func (m *ValidTime) Observe(pred, truth dataset.State) {
	if m.exceeded {
		return
	}
	refNorm := truth.Norm()
	if refNorm == 0 {
		refNorm = 1
	}
	if pred.Sub(truth).Norm()/refNorm > m.threshold {
		m.exceeded = true
		return
	}
	m.steps++
}

func (m *ValidTime) Value() float64 { return float64(m.steps) }

func (m *ValidTime) Reset() {
	m.steps = 0
	m.exceeded = false
}
