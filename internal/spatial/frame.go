package spatial

// LegendItem is one magnitude class of the legend
type LegendItem struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Legend returns the magnitude legend, smallest class first
func Legend() []LegendItem {
	return []LegendItem{
		{Label: "< 3.0", Color: ColorSmall},
		{Label: "3.0 - 5.0", Color: ColorMedium},
		{Label: "> 5.0", Color: ColorLarge},
	}
}

// FrameCircle is a circle with its interaction state
type FrameCircle struct {
	Circle
	Selected bool `json:"selected"`
	Hovered  bool `json:"hovered"`
}

// Frame is everything a map widget needs to draw one state
type Frame struct {
	Width       float64       `json:"width"`
	Height      float64       `json:"height"`
	Bounds      [4]float64    `json:"bounds"` // lonMin, lonMax, latMin, latMax
	Circles     []FrameCircle `json:"circles"`
	LegendTitle string        `json:"legendTitle"`
	Legend      []LegendItem  `json:"legend"`
	Brush       *BrushRect    `json:"brush,omitempty"`
}

// RenderFrame describes the map for the given circles and interaction state.
// selected may be nil when nothing is brushed.
func RenderFrame(v Viewport, circles []Circle, selected map[string]bool, hoveredID string, brush *BrushRect) Frame {
	fc := make([]FrameCircle, len(circles))
	for i, c := range circles {
		fc[i] = FrameCircle{
			Circle:   c,
			Selected: selected[c.ID],
			Hovered:  hoveredID != "" && c.ID == hoveredID,
		}
	}
	return Frame{
		Width:       v.Width,
		Height:      v.Height,
		Bounds:      [4]float64{v.lonMin, v.lonMax, v.latMin, v.latMax},
		Circles:     fc,
		LegendTitle: "Magnitude",
		Legend:      Legend(),
		Brush:       brush,
	}
}
