package pixelstrip

import "time"

// Segment is a named pixel-index range with its own brightness and at most
// one active effect. It owns the effect exclusively: installing a new one
// discards the previous one.
type Segment struct {
	strip      *Strip
	id         int
	name       string
	start, end int
	brightness uint8
	effect     Effect
}

func (s *Segment) Id() int           { return s.id }
func (s *Segment) Name() string      { return s.name }
func (s *Segment) Start() int        { return s.start }
func (s *Segment) End() int          { return s.end }
func (s *Segment) Brightness() uint8 { return s.brightness }
func (s *Segment) Strip() *Strip     { return s.strip }
func (s *Segment) Effect() Effect    { return s.effect }

// Len is the number of pixels the segment covers.
func (s *Segment) Len() int { return s.end - s.start + 1 }

func (s *Segment) SetBrightness(b uint8) { s.brightness = b }

// SetRange changes the segment's start/end indices. A reversed range is a
// no-op; indices are clipped to the pixel buffer. Note an already installed
// effect keeps the scratch size it was constructed with.
func (s *Segment) SetRange(start, end int) {
	if end < start {
		return
	}
	s.start, s.end = clipRange(start, end, len(s.strip.pixels))
}

// SetEffect installs an effect, discarding any previous one. Passing nil
// clears the segment's effect.
func (s *Segment) SetEffect(e Effect) {
	s.AllOff()
	s.effect = e
}

func (s *Segment) ClearEffect() { s.SetEffect(nil) }

// Update runs one frame of the active effect, or nothing if the segment has
// none (it stays dark/unchanged). The segment's brightness becomes the
// strip's active brightness for the duration of the effect's writes.
func (s *Segment) Update(now time.Time) {
	if s.effect == nil {
		return
	}
	s.strip.SetActiveBrightness(s.brightness)
	s.effect.Update(now)
}

// AllOff switches every pixel of the segment's range off.
func (s *Segment) AllOff() {
	for i := s.start; i <= s.end; i++ {
		s.strip.ClearPixel(i)
	}
}
