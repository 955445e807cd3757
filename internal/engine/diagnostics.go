// SPDX-License-Identifier: MIT
package engine

import "fmt"

// Diagnostics is emitted once per LED refresh.
type Diagnostics struct {
	MinRange     float64 `json:"min_range"`
	Volume       float64 `json:"volume"`        // Slew-limited volume
	SmoothVolume float64 `json:"smooth_volume"` // Value shown on the strip
	MaxVolume    float64 `json:"max_volume"`    // Gain-adjusted average peak
	MaxRange     float64 `json:"max_range"`

	Gain     float64 `json:"gain"`
	Baseline float64 `json:"baseline"`
	Lit      int     `json:"lit"`
}

// PlotterLine renders the record in serial-plotter form.
func (d Diagnostics) PlotterLine() string {
	return fmt.Sprintf("MinRange:%.0f,Volume:%.2f,SmoothVolume:%.2f,MaxVolume:%.2f,MaxRange:%.0f",
		d.MinRange, d.Volume, d.SmoothVolume, d.MaxVolume, d.MaxRange)
}
