package effects

import (
	"time"

	"github.com/ravelights/strip_controller/pixelstrip"
)

// RainbowCycle sweeps the full hue circle along the segment, advancing the
// first pixel's hue a little each frame.
type RainbowCycle struct {
	pixelstrip.ParamRegistry
	seg        *pixelstrip.Segment
	firstHue   uint32
	lastUpdate time.Time
}

func NewRainbowCycle(seg *pixelstrip.Segment) *RainbowCycle {
	e := &RainbowCycle{seg: seg}
	e.AddParameter(&pixelstrip.Parameter{Name: "speed", Kind: pixelstrip.KIND_INTEGER, Value: 20, Min: 1, Max: 1000})
	return e
}

func (e *RainbowCycle) Name() string { return "RainbowCycle" }

func (e *RainbowCycle) Update(now time.Time) {
	interval := time.Duration(e.LookupParameter("speed").IntValue()) * time.Millisecond
	if now.Sub(e.lastUpdate) < interval {
		return
	}
	e.lastUpdate = now

	n := e.seg.Len()
	for i := e.seg.Start(); i <= e.seg.End(); i++ {
		hue := e.firstHue + uint32(i-e.seg.Start())*65536/uint32(n)
		e.seg.Strip().SetPixel(i, pixelstrip.ColorHSV(uint16(hue), 255, 255))
	}
	e.firstHue += 256
	if e.firstHue >= 5*65536 {
		e.firstHue = 0
	}
}

// RainbowChase is the slower variant of the rainbow sweep the original
// firmware shipped alongside RainbowCycle.
type RainbowChase struct {
	pixelstrip.ParamRegistry
	seg        *pixelstrip.Segment
	firstHue   uint32
	lastUpdate time.Time
}

func NewRainbowChase(seg *pixelstrip.Segment) *RainbowChase {
	e := &RainbowChase{seg: seg}
	e.AddParameter(&pixelstrip.Parameter{Name: "speed", Kind: pixelstrip.KIND_INTEGER, Value: 30, Min: 1, Max: 1000})
	return e
}

func (e *RainbowChase) Name() string { return "RainbowChase" }

func (e *RainbowChase) Update(now time.Time) {
	interval := time.Duration(e.LookupParameter("speed").IntValue()) * time.Millisecond
	if now.Sub(e.lastUpdate) < interval {
		return
	}
	e.lastUpdate = now

	n := e.seg.Len()
	for i := e.seg.Start(); i <= e.seg.End(); i++ {
		hue := e.firstHue + uint32(i-e.seg.Start())*65536/uint32(n)
		e.seg.Strip().SetPixel(i, pixelstrip.ColorHSV(uint16(hue), 255, 255))
	}
	e.firstHue += 256
}

// TheaterChase lights every third pixel, stepping the lit set one pixel per
// frame while slowly rotating the hue.
type TheaterChase struct {
	pixelstrip.ParamRegistry
	seg         *pixelstrip.Segment
	firstHue    uint32
	chaseOffset int
	lastUpdate  time.Time
}

func NewTheaterChase(seg *pixelstrip.Segment) *TheaterChase {
	e := &TheaterChase{seg: seg}
	e.AddParameter(&pixelstrip.Parameter{Name: "speed", Kind: pixelstrip.KIND_INTEGER, Value: 50, Min: 1, Max: 1000})
	e.AddParameter(&pixelstrip.Parameter{Name: "spacing", Kind: pixelstrip.KIND_INTEGER, Value: 3, Min: 2, Max: 10})
	return e
}

func (e *TheaterChase) Name() string { return "TheaterChase" }

func (e *TheaterChase) Update(now time.Time) {
	interval := time.Duration(e.LookupParameter("speed").IntValue()) * time.Millisecond
	if now.Sub(e.lastUpdate) < interval {
		return
	}
	e.lastUpdate = now

	spacing := e.LookupParameter("spacing").IntValue()
	if spacing < 2 {
		spacing = 2
	}
	e.seg.AllOff()
	n := e.seg.Len()
	for i := e.seg.Start() + e.chaseOffset; i <= e.seg.End(); i += spacing {
		hue := e.firstHue + uint32(i-e.seg.Start())*65536/uint32(n)
		e.seg.Strip().SetPixel(i, pixelstrip.ColorHSV(uint16(hue), 255, 255))
	}
	e.chaseOffset = (e.chaseOffset + 1) % spacing
	e.firstHue += 65536 / 90
}
