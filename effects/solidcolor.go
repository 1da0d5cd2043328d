package effects

import (
	"time"

	"github.com/ravelights/strip_controller/pixelstrip"
)

// SolidColor fills the whole segment with one color every frame.
type SolidColor struct {
	pixelstrip.ParamRegistry
	seg *pixelstrip.Segment
}

func NewSolidColor(seg *pixelstrip.Segment) *SolidColor {
	e := &SolidColor{seg: seg}
	e.AddParameter(&pixelstrip.Parameter{Name: "color", Kind: pixelstrip.KIND_COLOR, Value: uint32(0x800080)})
	return e
}

func (e *SolidColor) Name() string { return "SolidColor" }

func (e *SolidColor) Update(now time.Time) {
	color := e.LookupParameter("color").ColorValue()
	for i := e.seg.Start(); i <= e.seg.End(); i++ {
		e.seg.Strip().SetPixel(i, color)
	}
}
