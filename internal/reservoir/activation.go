package reservoir

import (
	"fmt"
	"math"
)

// Activation is an elementwise saturating nonlinearity.
type Activation func(float64) float64

var activations = map[string]Activation{
	"erf":  math.Erf,
	"tanh": math.Tanh,
	"sign": func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		default:
			return 0
		}
	},
}

// LookupActivation resolves a registered activation by name.
func LookupActivation(name string) (Activation, error) {
	fn, ok := activations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivation, name)
	}
	return fn, nil
}

// Activations lists the registered activation names.
func Activations() []string {
	names := make([]string, 0, len(activations))
	for name := range activations {
		names = append(names, name)
	}
	return names
}
