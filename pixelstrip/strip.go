// Package pixelstrip holds the segment/effect data model of the strip
// controller: a fixed pixel buffer partitioned into named segments, each
// running at most one effect per frame.
package pixelstrip

import (
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Effect is one per-frame pixel computation bound to a single segment.
// Implementations live in the effects package; the interface keeps the
// parameter surface uniform so tooling needs no type information.
type Effect interface {
	Name() string
	Update(now time.Time)
	ParameterCount() int
	Parameter(idx int) *Parameter
	LookupParameter(name string) *Parameter
	SetParameter(name string, value interface{}) error
}

// TriggerConsumer is implemented by effects that react to external trigger
// events (audio beat, motion).
type TriggerConsumer interface {
	SetTriggerState(active bool, brightness uint8)
}

// MotionConsumer is implemented by effects that follow accelerometer data.
type MotionConsumer interface {
	SetAcceleration(x, y, z float64)
}

// FrameSink is the out-of-scope LED driver boundary: it receives the whole
// pixel buffer once per frame.
type FrameSink interface {
	Show(pixels []uint32) error
}

// DiscardSink drops every frame. Used when no pixel hardware is attached.
type DiscardSink struct{}

func (DiscardSink) Show([]uint32) error { return nil }

// Strip owns the fixed pixel buffer and the ordered segment list. Segment 0
// ("all") always exists and spans the whole buffer. The buffer size is fixed
// for the strip's lifetime; changing the LED count means building a new
// Strip (the daemon restarts for that).
type Strip struct {
	pixels           []uint32
	segments         []*Segment
	sink             FrameSink
	activeBrightness uint8
}

func NewStrip(ledCount int, brightness uint8, sink FrameSink) *Strip {
	if ledCount < 1 {
		ledCount = 1
	}
	if sink == nil {
		sink = DiscardSink{}
	}
	st := &Strip{
		pixels:           make([]uint32, ledCount),
		sink:             sink,
		activeBrightness: 255,
	}
	all := &Segment{strip: st, id: 0, name: "all", start: 0, end: ledCount - 1, brightness: brightness}
	st.segments = append(st.segments, all)
	return st
}

func (st *Strip) LedCount() int { return len(st.pixels) }

// Segments returns the ordered segment list. Callers must not retain it
// across mutations.
func (st *Strip) Segments() []*Segment { return st.segments }

// Segment returns the segment at index idx, nil if out of range.
func (st *Strip) Segment(idx int) *Segment {
	if idx < 0 || idx >= len(st.segments) {
		return nil
	}
	return st.segments[idx]
}

// AddSegment appends a new segment. Overlap with existing segments is
// permitted; during a frame the last segment in list order wins on shared
// pixels.
func (st *Strip) AddSegment(start, end int, name string) *Segment {
	seg := &Segment{strip: st, id: len(st.segments), name: name, brightness: 255}
	seg.start, seg.end = clipRange(start, end, len(st.pixels))
	st.segments = append(st.segments, seg)
	return seg
}

// ClearUserSegments drops every segment except segment 0, which is resized
// back to the full buffer. The removed segments' effects are discarded.
func (st *Strip) ClearUserSegments() {
	for _, s := range st.segments[1:] {
		s.effect = nil
	}
	st.segments = st.segments[:1]
	st.segments[0].start = 0
	st.segments[0].end = len(st.pixels) - 1
}

// SetActiveBrightness installs the brightness applied by SetPixel. The
// segment about to update sets this to its own brightness, so every effect
// write is scaled exactly once.
func (st *Strip) SetActiveBrightness(b uint8) { st.activeBrightness = b }

// SetPixel writes one pixel, scaled by the active brightness. Out-of-range
// indices are ignored.
func (st *Strip) SetPixel(idx int, color uint32) {
	if idx < 0 || idx >= len(st.pixels) {
		return
	}
	st.pixels[idx] = ScaleColor(color, st.activeBrightness)
}

// ClearPixel switches one pixel off, ignoring the active brightness.
func (st *Strip) ClearPixel(idx int) {
	if idx < 0 || idx >= len(st.pixels) {
		return
	}
	st.pixels[idx] = 0
}

// Pixel reads back the stored color of one pixel (0 if out of range).
func (st *Strip) Pixel(idx int) uint32 {
	if idx < 0 || idx >= len(st.pixels) {
		return 0
	}
	return st.pixels[idx]
}

// UpdateAll advances every segment's effect by one frame, in segment-list
// order (last writer wins on overlapping pixels).
func (st *Strip) UpdateAll(now time.Time) {
	for _, s := range st.segments {
		s.Update(now)
	}
}

// Show flushes the pixel buffer to the frame sink once.
func (st *Strip) Show() error {
	return st.sink.Show(st.pixels)
}

// PropagateTriggerState hands an external trigger event to every segment
// whose effect consumes triggers.
func (st *Strip) PropagateTriggerState(active bool, brightness uint8) {
	for _, s := range st.segments {
		if tc, ok := s.effect.(TriggerConsumer); ok {
			tc.SetTriggerState(active, brightness)
		}
	}
}

// PropagateAcceleration hands accelerometer data to every segment whose
// effect consumes motion.
func (st *Strip) PropagateAcceleration(x, y, z float64) {
	for _, s := range st.segments {
		if mc, ok := s.effect.(MotionConsumer); ok {
			mc.SetAcceleration(x, y, z)
		}
	}
}

// Color packs r/g/b into the 24-bit value used throughout the protocol.
func Color(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// ScaleColor dims a packed color channel-wise by brightness/255.
func ScaleColor(color uint32, brightness uint8) uint32 {
	r := uint8((uint16(color>>16&0xFF) * uint16(brightness)) / 255)
	g := uint8((uint16(color>>8&0xFF) * uint16(brightness)) / 255)
	b := uint8((uint16(color&0xFF) * uint16(brightness)) / 255)
	return Color(r, g, b)
}

// ColorHSV converts a 16-bit hue (full circle = 65536) with 8-bit
// saturation/value into a packed RGB color.
func ColorHSV(hue uint16, sat, val uint8) uint32 {
	c := colorful.Hsv(float64(hue)*360.0/65536.0, float64(sat)/255.0, float64(val)/255.0)
	r, g, b := c.Clamped().RGB255()
	return Color(r, g, b)
}

func clipRange(start, end, ledCount int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > ledCount-1 {
		end = ledCount - 1
	}
	if end < start {
		end = start
	}
	return start, end
}
