package geocluster

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Step maps a zoom band to a grid cell size in coordinate degrees. A step
// applies to every zoom level at or above MinZoom, until the next step.
type Step struct {
	MinZoom float64 `yaml:"min_zoom"`
	CellDeg float64 `yaml:"cell_deg"`
}

// Options are presentation tuning values. The defaults were calibrated by
// eye; none of them is load-bearing beyond monotonicity of the step table.
type Options struct {
	// PadFraction grows the viewport filter box on each side
	PadFraction float64 `yaml:"pad_fraction"`
	// NoClusterZoom is the zoom at or above which clustering turns off
	NoClusterZoom float64 `yaml:"no_cluster_zoom"`
	// Steps must be sorted by ascending MinZoom with non-increasing CellDeg
	Steps []Step `yaml:"steps"`
	// SingleEventZoom is used by Fit when only one event exists
	SingleEventZoom float64 `yaml:"single_event_zoom"`
	// MaxFitZoom caps Fit so a tight group of points does not zoom absurdly far
	MaxFitZoom float64 `yaml:"max_fit_zoom"`
	// FitPadFraction grows the fitted bounding box on each side
	FitPadFraction float64 `yaml:"fit_pad_fraction"`
}

func DefaultOptions() Options {
	return Options{
		PadFraction:   0.25,
		NoClusterZoom: 15,
		Steps: []Step{
			{MinZoom: 0, CellDeg: 0.5},
			{MinZoom: 7, CellDeg: 0.15},
			{MinZoom: 9, CellDeg: 0.04},
			{MinZoom: 11, CellDeg: 0.01},
			{MinZoom: 13, CellDeg: 0.002},
		},
		SingleEventZoom: 16,
		MaxFitZoom:      17,
		FitPadFraction:  0.1,
	}
}

// CellSizeForZoom returns the grid cell size for a zoom level: 0 at or above
// NoClusterZoom, otherwise the cell of the deepest step the zoom reaches.
// Lower zoom never yields a smaller cell than higher zoom.
func (o Options) CellSizeForZoom(zoom float64) float64 {
	if zoom >= o.NoClusterZoom {
		return 0
	}
	cell := 0.0
	for _, step := range o.Steps {
		if zoom >= step.MinZoom {
			cell = step.CellDeg
		}
	}
	return cell
}

// Validate rejects a step table that would break monotonicity.
func (o Options) Validate() error {
	if o.PadFraction < 0 {
		return fmt.Errorf("pad_fraction must not be negative")
	}
	if o.MaxFitZoom <= 0 || o.SingleEventZoom <= 0 {
		return fmt.Errorf("fit zoom levels must be positive")
	}
	for i := 1; i < len(o.Steps); i++ {
		prev, cur := o.Steps[i-1], o.Steps[i]
		if cur.MinZoom <= prev.MinZoom {
			return fmt.Errorf("steps must have strictly ascending min_zoom")
		}
		if cur.CellDeg > prev.CellDeg {
			return fmt.Errorf("cell_deg must not increase with zoom (step %d)", i)
		}
	}
	for _, step := range o.Steps {
		if step.CellDeg <= 0 {
			return fmt.Errorf("cell_deg must be positive")
		}
	}
	return nil
}

// LoadOptions reads a tuning file over the defaults. Missing file fields keep
// their default values.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("failed to parse tuning file: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, fmt.Errorf("invalid tuning file %s: %w", path, err)
	}
	return opts, nil
}
