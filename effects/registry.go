// Package effects implements the closed set of visual effects a segment can
// run, plus the factory that builds them by name.
package effects

import (
	"strings"

	"github.com/ravelights/strip_controller/pixelstrip"
)

// Names lists the canonical effect identifiers in wire order. The index into
// this list is the effect id used by the binary protocol.
var Names = []string{
	"RainbowChase",
	"SolidColor",
	"FlashOnTrigger",
	"RainbowCycle",
	"TheaterChase",
	"Fire",
	"Flare",
	"ColoredFire",
	"AccelMeter",
	"KineticRipple",
}

func Count() int { return len(Names) }

// NameFromId resolves a protocol effect id to its canonical name.
func NameFromId(id int) (string, bool) {
	if id < 0 || id >= len(Names) {
		return "", false
	}
	return Names[id], true
}

// IsKnown reports whether name matches one of the registered effect kinds,
// using the factory's case-insensitive matching.
func IsKnown(name string) bool {
	for _, n := range Names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// New constructs a fresh effect bound to seg. Matching is case-insensitive
// against the closed set; unknown names return nil and callers must not
// assume a default. Scratch buffers are sized to the segment's pixel count
// at this moment; resizing the segment later does not resize them.
func New(name string, seg *pixelstrip.Segment) pixelstrip.Effect {
	switch {
	case strings.EqualFold(name, "SolidColor"):
		return NewSolidColor(seg)
	case strings.EqualFold(name, "RainbowCycle"):
		return NewRainbowCycle(seg)
	case strings.EqualFold(name, "RainbowChase"):
		return NewRainbowChase(seg)
	case strings.EqualFold(name, "TheaterChase"):
		return NewTheaterChase(seg)
	case strings.EqualFold(name, "Fire"):
		return NewFire(seg)
	case strings.EqualFold(name, "ColoredFire"):
		return NewColoredFire(seg)
	case strings.EqualFold(name, "Flare"):
		return NewFlare(seg)
	case strings.EqualFold(name, "FlashOnTrigger"):
		return NewFlashOnTrigger(seg)
	case strings.EqualFold(name, "AccelMeter"):
		return NewAccelMeter(seg)
	case strings.EqualFold(name, "KineticRipple"):
		return NewKineticRipple(seg)
	}
	return nil
}
