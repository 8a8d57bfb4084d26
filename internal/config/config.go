package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/GJBoth/Reservoir-computing-kernels/internal/ks"
	"github.com/GJBoth/Reservoir-computing-kernels/internal/sweep"
)

const (
	DefaultTrainFrac = 0.9
	DefaultSweepMin  = 0.1
	DefaultSweepMax  = 1.0
	DefaultSweepLen  = 10
)

type Config struct {
	Source   string         `yaml:"source"` // "ks" or "sine"
	KS       ks.Config      `yaml:"ks"`
	Sine     SineConfig     `yaml:"sine"`
	Data     DataConfig     `yaml:"data"`
	Pipeline sweep.Pipeline `yaml:"pipeline"`
	Sweep    SweepConfig    `yaml:"sweep"`
}

type SineConfig struct {
	Length int     `yaml:"length"`
	Period float64 `yaml:"period"`
}

type DataConfig struct {
	TrainFrac float64 `yaml:"train_frac"`
	Normalize bool    `yaml:"normalize"`
}

type SweepConfig struct {
	Param   string    `yaml:"param"`
	Min     float64   `yaml:"min"`
	Max     float64   `yaml:"max"`
	Steps   int       `yaml:"steps"`
	Values  []float64 `yaml:"values"` // explicit grid, overrides min/max/steps
	Workers int       `yaml:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		Source: "ks",
		KS:     ks.DefaultConfig(),
		Sine: SineConfig{
			Length: 500,
			Period: 50,
		},
		Data: DataConfig{
			TrainFrac: DefaultTrainFrac,
			Normalize: true,
		},
		Pipeline: sweep.DefaultPipeline(),
		Sweep: SweepConfig{
			Param: "input_scale",
			Min:   DefaultSweepMin,
			Max:   DefaultSweepMax,
			Steps: DefaultSweepLen,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Grid resolves the sweep grid: explicit values win over the range.
func (c *Config) Grid() []float64 {
	if len(c.Sweep.Values) > 0 {
		return c.Sweep.Values
	}
	return sweep.Range(c.Sweep.Min, c.Sweep.Max, c.Sweep.Steps)
}
