package effects

import (
	"time"

	"github.com/ravelights/strip_controller/pixelstrip"
)

// FlashOnTrigger lights the whole segment while a trigger is active, scaled
// by the trigger's intensity, and goes dark otherwise.
type FlashOnTrigger struct {
	pixelstrip.ParamRegistry
	seg        *pixelstrip.Segment
	trigActive bool
	trigLevel  uint8
}

func NewFlashOnTrigger(seg *pixelstrip.Segment) *FlashOnTrigger {
	e := &FlashOnTrigger{seg: seg}
	e.AddParameter(&pixelstrip.Parameter{Name: "color", Kind: pixelstrip.KIND_COLOR, Value: uint32(0xFFFFFF)})
	return e
}

func (e *FlashOnTrigger) Name() string { return "FlashOnTrigger" }

func (e *FlashOnTrigger) SetTriggerState(active bool, brightness uint8) {
	e.trigActive = active
	e.trigLevel = brightness
}

func (e *FlashOnTrigger) Update(now time.Time) {
	if !e.trigActive {
		e.seg.AllOff()
		return
	}
	color := pixelstrip.ScaleColor(e.LookupParameter("color").ColorValue(), e.trigLevel)
	for i := e.seg.Start(); i <= e.seg.End(); i++ {
		e.seg.Strip().SetPixel(i, color)
	}
}

// KineticRipple launches two bars outwards from the segment's center when a
// trigger fires, fading as they travel.
type KineticRipple struct {
	pixelstrip.ParamRegistry
	seg        *pixelstrip.Segment
	pending    bool
	active     bool
	startedAt  time.Time
	lastUpdate time.Time
}

func NewKineticRipple(seg *pixelstrip.Segment) *KineticRipple {
	e := &KineticRipple{seg: seg}
	e.AddParameter(&pixelstrip.Parameter{Name: "color", Kind: pixelstrip.KIND_COLOR, Value: uint32(0x0000FF)})
	e.AddParameter(&pixelstrip.Parameter{Name: "width", Kind: pixelstrip.KIND_INTEGER, Value: 3, Min: 1, Max: 20})
	e.AddParameter(&pixelstrip.Parameter{Name: "speed", Kind: pixelstrip.KIND_FLOAT, Value: 0.2, Min: 0.01, Max: 5})
	return e
}

func (e *KineticRipple) Name() string { return "KineticRipple" }

func (e *KineticRipple) SetTriggerState(active bool, brightness uint8) {
	if active && !e.active {
		e.pending = true
	}
}

func (e *KineticRipple) Update(now time.Time) {
	if now.Sub(e.lastUpdate) < 5*time.Millisecond {
		return
	}
	e.lastUpdate = now

	if e.pending {
		e.pending = false
		e.active = true
		e.startedAt = now
	}
	e.seg.AllOff()
	if !e.active {
		return
	}

	elapsed := now.Sub(e.startedAt)
	speed := e.LookupParameter("speed").FloatValue()
	radius := int(float64(elapsed/time.Millisecond) * speed)

	start := e.seg.Start()
	end := e.seg.End()
	center := start + (end-start)/2
	halfLength := (end - start) / 2
	if halfLength == 0 {
		halfLength = 1
	}
	brightness := 255 - radius*255/halfLength
	if brightness < 0 {
		brightness = 0
	}
	faded := pixelstrip.ScaleColor(e.LookupParameter("color").ColorValue(), uint8(brightness))

	width := e.LookupParameter("width").IntValue()
	if width < 1 {
		width = 1
	}
	halfWidth := width / 2
	drawn := false
	drawBar := func(barCenter int) {
		for i := 0; i < width; i++ {
			px := barCenter - halfWidth + i
			if px >= start && px <= end {
				e.seg.Strip().SetPixel(px, faded)
				drawn = true
			}
		}
	}
	drawBar(center + radius)
	if radius != 0 {
		drawBar(center - radius)
	}
	if !drawn && elapsed > 100*time.Millisecond {
		e.active = false
	}
}
