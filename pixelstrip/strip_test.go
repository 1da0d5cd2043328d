package pixelstrip

import (
	"testing"
	"time"
)

// fillEffect paints its segment with one fixed color every frame, enough to
// observe brightness scaling and segment ordering.
type fillEffect struct {
	ParamRegistry
	seg   *Segment
	color uint32
}

func (e *fillEffect) Name() string { return "fill" }

func (e *fillEffect) Update(now time.Time) {
	for i := e.seg.Start(); i <= e.seg.End(); i++ {
		e.seg.Strip().SetPixel(i, e.color)
	}
}

func TestSegmentRangesStayInsideBuffer(t *testing.T) {
	st := NewStrip(30, 255, nil)
	seg := st.AddSegment(-5, 10, "low")
	if seg.Start() != 0 || seg.End() != 10 {
		t.Errorf("negative start should clip to 0, got [%d..%d]", seg.Start(), seg.End())
	}
	seg = st.AddSegment(20, 99, "high")
	if seg.Start() != 20 || seg.End() != 29 {
		t.Errorf("end should clip to buffer, got [%d..%d]", seg.Start(), seg.End())
	}
	seg.SetRange(25, 10)
	if seg.Start() != 20 || seg.End() != 29 {
		t.Errorf("reversed range must be a no-op, got [%d..%d]", seg.Start(), seg.End())
	}
}

func TestSegmentZeroAlwaysSpansBuffer(t *testing.T) {
	st := NewStrip(24, 255, nil)
	st.AddSegment(0, 7, "a")
	st.AddSegment(8, 15, "b")
	if len(st.Segments()) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(st.Segments()))
	}
	st.ClearUserSegments()
	if len(st.Segments()) != 1 {
		t.Fatalf("clear should leave exactly segment 0, got %d segments", len(st.Segments()))
	}
	all := st.Segment(0)
	if all.Start() != 0 || all.End() != 23 {
		t.Errorf("segment 0 should span the whole buffer again, got [%d..%d]", all.Start(), all.End())
	}
}

func TestBrightnessScalesEachWriteOnce(t *testing.T) {
	st := NewStrip(10, 255, nil)
	seg := st.AddSegment(0, 4, "front")
	seg.SetBrightness(128)
	seg.SetEffect(&fillEffect{seg: seg, color: 0xFF0000})

	st.UpdateAll(time.Now())
	for i := 0; i < 5; i++ {
		if got := st.Pixel(i); got != 0x800000 {
			t.Errorf("pixel %d: want 0x800000 (red at half brightness), got 0x%06X", i, got)
		}
	}
	for i := 5; i < 10; i++ {
		if got := st.Pixel(i); got != 0 {
			t.Errorf("pixel %d outside the segment must stay off, got 0x%06X", i, got)
		}
	}
}

func TestOverlappingSegmentsLastWins(t *testing.T) {
	st := NewStrip(10, 255, nil)
	a := st.AddSegment(0, 9, "under")
	a.SetEffect(&fillEffect{seg: a, color: 0x0000FF})
	b := st.AddSegment(4, 6, "over")
	b.SetEffect(&fillEffect{seg: b, color: 0x00FF00})

	st.UpdateAll(time.Now())
	if got := st.Pixel(5); got != 0x00FF00 {
		t.Errorf("overlapped pixel should hold the later segment's color, got 0x%06X", got)
	}
	if got := st.Pixel(1); got != 0x0000FF {
		t.Errorf("non-overlapped pixel should hold the earlier segment's color, got 0x%06X", got)
	}
}

func TestSetEffectClearsPreviousOutput(t *testing.T) {
	st := NewStrip(8, 255, nil)
	seg := st.Segment(0)
	seg.SetEffect(&fillEffect{seg: seg, color: 0xFFFFFF})
	st.UpdateAll(time.Now())
	if st.Pixel(3) == 0 {
		t.Fatal("expected lit pixels before the switch")
	}
	seg.ClearEffect()
	if got := st.Pixel(3); got != 0 {
		t.Errorf("installing a new effect must switch the old output off, got 0x%06X", got)
	}
}

func TestParameterSetIsKindChecked(t *testing.T) {
	p := &Parameter{Name: "speed", Kind: KIND_INTEGER, Value: 20}
	if err := p.Set(3.14); err != ErrKindMismatch {
		t.Errorf("float into integer parameter: want ErrKindMismatch, got %v", err)
	}
	if p.IntValue() != 20 {
		t.Errorf("failed Set must leave the value unchanged, got %v", p.Value)
	}
	if err := p.Set(42); err != nil {
		t.Errorf("matching kind should succeed, got %v", err)
	}
	if p.IntValue() != 42 {
		t.Errorf("value not stored, got %v", p.Value)
	}
}

func TestRegistryLookupIsExact(t *testing.T) {
	var r ParamRegistry
	r.AddParameter(&Parameter{Name: "color", Kind: KIND_COLOR, Value: uint32(0)})
	if r.LookupParameter("Color") != nil {
		t.Error("lookup must be case-sensitive")
	}
	if err := r.SetParameter("nosuch", 1); err != ErrUnknownParameter {
		t.Errorf("want ErrUnknownParameter, got %v", err)
	}
}

func TestScaleColor(t *testing.T) {
	if got := ScaleColor(0xFF0000, 128); got != 0x800000 {
		t.Errorf("ScaleColor(0xFF0000, 128) = 0x%06X, want 0x800000", got)
	}
	if got := ScaleColor(0x102030, 255); got != 0x102030 {
		t.Errorf("full brightness must not change the color, got 0x%06X", got)
	}
	if got := ScaleColor(0xFFFFFF, 0); got != 0 {
		t.Errorf("zero brightness must yield black, got 0x%06X", got)
	}
}

func TestTriggerPropagationReachesConsumingEffects(t *testing.T) {
	st := NewStrip(10, 255, nil)
	seg := st.Segment(0)
	te := &triggerRecorder{fillEffect: fillEffect{seg: seg, color: 1}}
	seg.SetEffect(te)
	st.PropagateTriggerState(true, 200)
	if !te.active || te.level != 200 {
		t.Errorf("trigger state did not reach the effect: active=%v level=%d", te.active, te.level)
	}
}

type triggerRecorder struct {
	fillEffect
	active bool
	level  uint8
}

func (e *triggerRecorder) SetTriggerState(active bool, brightness uint8) {
	e.active = active
	e.level = brightness
}
