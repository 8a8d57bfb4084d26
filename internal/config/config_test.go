package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Source != "ks" {
		t.Errorf("expected source ks, got %s", cfg.Source)
	}
	if cfg.KS.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Data.TrainFrac <= 0 || cfg.Data.TrainFrac >= 1 {
		t.Errorf("train fraction should lie in (0,1), got %f", cfg.Data.TrainFrac)
	}
	if cfg.Pipeline.Reservoir.Size <= 0 {
		t.Error("reservoir size should be positive")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("sine", "smoke")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Source != "sine" {
		t.Errorf("expected source sine, got %s", cfg.Source)
	}
	if cfg.Pipeline.Reservoir.Size != 50 {
		t.Errorf("expected reservoir size 50, got %d", cfg.Pipeline.Reservoir.Size)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("ks", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "reference")
	if cfg != nil {
		t.Error("expected nil for nonexistent source")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("ks")
	if len(presets) == 0 {
		t.Error("expected presets for ks")
	}

	presets = ListPresets("nonexistent")
	if presets != nil {
		t.Error("expected nil for nonexistent source")
	}
}

func TestPresetIsolation(t *testing.T) {
	a := GetPreset("ks", "reference")
	a.Pipeline.Reservoir.Size = 7

	b := GetPreset("ks", "reference")
	if b.Pipeline.Reservoir.Size == 7 {
		t.Error("presets should not share state between calls")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Source = "sine"
	cfg.Pipeline.Alpha = 0.5
	cfg.Sweep.Values = []float64{0.1, 0.2}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Source != "sine" {
		t.Errorf("expected source sine, got %s", loaded.Source)
	}
	if loaded.Pipeline.Alpha != 0.5 {
		t.Errorf("expected alpha 0.5, got %f", loaded.Pipeline.Alpha)
	}
	if len(loaded.Sweep.Values) != 2 {
		t.Errorf("expected 2 explicit grid values, got %d", len(loaded.Sweep.Values))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("pipeline:\n  alpha: 0.25\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Pipeline.Alpha != 0.25 {
		t.Errorf("expected alpha overridden to 0.25, got %f", cfg.Pipeline.Alpha)
	}
	if cfg.Source != "ks" {
		t.Errorf("unset fields should keep defaults, got source %s", cfg.Source)
	}
}

func TestGrid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sweep.Min = 0
	cfg.Sweep.Max = 1
	cfg.Sweep.Steps = 3

	grid := cfg.Grid()
	if len(grid) != 3 {
		t.Fatalf("expected 3 grid points, got %d", len(grid))
	}
	if grid[0] != 0 || grid[2] != 1 {
		t.Errorf("expected endpoints 0 and 1, got %f and %f", grid[0], grid[2])
	}

	cfg.Sweep.Values = []float64{0.4}
	grid = cfg.Grid()
	if len(grid) != 1 || grid[0] != 0.4 {
		t.Errorf("explicit values should win over the range, got %v", grid)
	}
}
