package effects

import (
	"time"

	"github.com/ravelights/strip_controller/pixelstrip"
)

// AccelMeter draws a spirit-level bubble that slides along the segment with
// the X axis of the accelerometer.
type AccelMeter struct {
	pixelstrip.ParamRegistry
	seg        *pixelstrip.Segment
	accelX     float64
	lastUpdate time.Time
}

func NewAccelMeter(seg *pixelstrip.Segment) *AccelMeter {
	e := &AccelMeter{seg: seg}
	e.AddParameter(&pixelstrip.Parameter{Name: "color", Kind: pixelstrip.KIND_COLOR, Value: uint32(0x00FF00)})
	e.AddParameter(&pixelstrip.Parameter{Name: "width", Kind: pixelstrip.KIND_INTEGER, Value: 5, Min: 1, Max: 50})
	return e
}

func (e *AccelMeter) Name() string { return "AccelMeter" }

func (e *AccelMeter) SetAcceleration(x, y, z float64) {
	e.accelX = x
}

func (e *AccelMeter) Update(now time.Time) {
	if now.Sub(e.lastUpdate) < 10*time.Millisecond {
		return
	}
	e.lastUpdate = now

	width := e.LookupParameter("width").IntValue()
	n := e.seg.Len()
	if width > n {
		width = n
	}
	// map accelX from [-1,1] onto the sliding range of the bubble
	pos := (e.accelX + 1.0) * float64(n-width) / 2.0
	center := int(pos)
	if center < 0 {
		center = 0
	}
	if center > n-width {
		center = n - width
	}

	color := e.LookupParameter("color").ColorValue()
	e.seg.AllOff()
	for i := 0; i < width; i++ {
		e.seg.Strip().SetPixel(e.seg.Start()+center+i, color)
	}
}
