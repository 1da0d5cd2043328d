package effects

import (
	"math/rand"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ravelights/strip_controller/pixelstrip"
)

// qadd8/qsub8 are the saturating byte helpers the heat diffusion is written
// against.
func qadd8(a, b uint8) uint8 {
	sum := uint16(a) + uint16(b)
	if sum > 255 {
		return 255
	}
	return uint8(sum)
}

func qsub8(a, b uint8) uint8 {
	if b > a {
		return 0
	}
	return a - b
}

// heatColor maps a heat temperature (0-255) to the classic black-body fire
// ramp.
func heatColor(temperature uint8) uint32 {
	t192 := uint8((uint16(temperature)*191 + 127) / 255)
	heatramp := (t192 & 0x3F) << 2
	switch {
	case t192 > 0x80:
		return pixelstrip.Color(255, 255, heatramp)
	case t192 > 0x40:
		return pixelstrip.Color(255, heatramp, 0)
	default:
		return pixelstrip.Color(heatramp, 0, 0)
	}
}

// coolDriftSpark runs the shared heat simulation: cool every cell, drift
// heat upwards, maybe ignite a spark near the bottom. heat is sized to the
// owning segment and never indexed outside it.
func coolDriftSpark(heat []uint8, sparking, cooling uint8) {
	n := len(heat)
	if n == 0 {
		return
	}
	for i := 0; i < n; i++ {
		heat[i] = qsub8(heat[i], uint8(rand.Intn(int(cooling)*10/n+2)))
	}
	for k := n - 1; k >= 2; k-- {
		heat[k] = uint8((uint16(heat[k-1]) + 2*uint16(heat[k-2])) / 3)
	}
	if uint8(rand.Intn(255)) < sparking {
		sparkZone := 7
		if sparkZone > n {
			sparkZone = n
		}
		y := rand.Intn(sparkZone)
		heat[y] = qadd8(heat[y], uint8(160+rand.Intn(96)))
	}
}

// Fire is the heat-diffusion flame effect. The heat buffer is private
// per-frame state sized exactly to the segment at construction.
type Fire struct {
	pixelstrip.ParamRegistry
	seg        *pixelstrip.Segment
	heat       []uint8
	lastUpdate time.Time
}

func NewFire(seg *pixelstrip.Segment) *Fire {
	e := &Fire{seg: seg, heat: make([]uint8, seg.Len())}
	e.AddParameter(&pixelstrip.Parameter{Name: "sparking", Kind: pixelstrip.KIND_INTEGER, Value: 120, Min: 0, Max: 255})
	e.AddParameter(&pixelstrip.Parameter{Name: "cooling", Kind: pixelstrip.KIND_INTEGER, Value: 55, Min: 0, Max: 100})
	e.AddParameter(&pixelstrip.Parameter{Name: "speed", Kind: pixelstrip.KIND_INTEGER, Value: 15, Min: 1, Max: 1000})
	return e
}

func (e *Fire) Name() string { return "Fire" }

func (e *Fire) Update(now time.Time) {
	interval := time.Duration(e.LookupParameter("speed").IntValue()) * time.Millisecond
	if now.Sub(e.lastUpdate) < interval {
		return
	}
	e.lastUpdate = now

	coolDriftSpark(e.heat, uint8(e.LookupParameter("sparking").IntValue()), uint8(e.LookupParameter("cooling").IntValue()))
	for j, h := range e.heat {
		e.seg.Strip().SetPixel(e.seg.Start()+j, heatColor(h))
	}
}

// ColoredFire runs the same simulation but maps heat through a three-color
// palette instead of the black-body ramp.
type ColoredFire struct {
	pixelstrip.ParamRegistry
	seg        *pixelstrip.Segment
	heat       []uint8
	lastUpdate time.Time
}

func NewColoredFire(seg *pixelstrip.Segment) *ColoredFire {
	e := &ColoredFire{seg: seg, heat: make([]uint8, seg.Len())}
	e.AddParameter(&pixelstrip.Parameter{Name: "color1", Kind: pixelstrip.KIND_COLOR, Value: uint32(0x000000)})
	e.AddParameter(&pixelstrip.Parameter{Name: "color2", Kind: pixelstrip.KIND_COLOR, Value: uint32(0xFF0000)})
	e.AddParameter(&pixelstrip.Parameter{Name: "color3", Kind: pixelstrip.KIND_COLOR, Value: uint32(0xFFFF00)})
	e.AddParameter(&pixelstrip.Parameter{Name: "sparking", Kind: pixelstrip.KIND_INTEGER, Value: 120, Min: 0, Max: 255})
	e.AddParameter(&pixelstrip.Parameter{Name: "cooling", Kind: pixelstrip.KIND_INTEGER, Value: 55, Min: 0, Max: 100})
	return e
}

func (e *ColoredFire) Name() string { return "ColoredFire" }

func (e *ColoredFire) Update(now time.Time) {
	if now.Sub(e.lastUpdate) < 15*time.Millisecond {
		return
	}
	e.lastUpdate = now

	coolDriftSpark(e.heat, uint8(e.LookupParameter("sparking").IntValue()), uint8(e.LookupParameter("cooling").IntValue()))
	c1 := unpack(e.LookupParameter("color1").ColorValue())
	c2 := unpack(e.LookupParameter("color2").ColorValue())
	c3 := unpack(e.LookupParameter("color3").ColorValue())
	for j, h := range e.heat {
		var c colorful.Color
		if h <= 127 {
			c = c1.BlendRgb(c2, float64(h)/127.0)
		} else {
			c = c2.BlendRgb(c3, float64(h-128)/127.0)
		}
		r, g, b := c.Clamped().RGB255()
		e.seg.Strip().SetPixel(e.seg.Start()+j, pixelstrip.Color(r, g, b))
	}
}

// Flare is the smoldering-embers variant: a low sparking baseline that an
// audio trigger pushes up in proportion to the beat's intensity.
type Flare struct {
	pixelstrip.ParamRegistry
	seg        *pixelstrip.Segment
	heat       []uint8
	lastUpdate time.Time
	trigActive bool
	trigLevel  uint8
}

func NewFlare(seg *pixelstrip.Segment) *Flare {
	e := &Flare{seg: seg, heat: make([]uint8, seg.Len())}
	e.AddParameter(&pixelstrip.Parameter{Name: "sparking", Kind: pixelstrip.KIND_INTEGER, Value: 50, Min: 0, Max: 255})
	e.AddParameter(&pixelstrip.Parameter{Name: "cooling", Kind: pixelstrip.KIND_INTEGER, Value: 80, Min: 0, Max: 100})
	return e
}

func (e *Flare) Name() string { return "Flare" }

func (e *Flare) SetTriggerState(active bool, brightness uint8) {
	e.trigActive = active
	e.trigLevel = brightness
}

func (e *Flare) Update(now time.Time) {
	if now.Sub(e.lastUpdate) < 15*time.Millisecond {
		return
	}
	e.lastUpdate = now

	sparking := uint8(e.LookupParameter("sparking").IntValue())
	if e.trigActive {
		// beat detected: scale sparking chance 150..255 with intensity
		sparking = uint8(150 + int(e.trigLevel)*105/255)
	}
	coolDriftSpark(e.heat, sparking, uint8(e.LookupParameter("cooling").IntValue()))
	for j, h := range e.heat {
		e.seg.Strip().SetPixel(e.seg.Start()+j, heatColor(h))
	}
}

func unpack(c uint32) colorful.Color {
	return colorful.Color{
		R: float64(c>>16&0xFF) / 255.0,
		G: float64(c>>8&0xFF) / 255.0,
		B: float64(c&0xFF) / 255.0,
	}
}
