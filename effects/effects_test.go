package effects

import (
	"testing"
	"time"

	"github.com/ravelights/strip_controller/pixelstrip"
)

func TestFactoryKnowsEveryRegisteredName(t *testing.T) {
	st := pixelstrip.NewStrip(10, 255, nil)
	for id, name := range Names {
		e := New(name, st.Segment(0))
		if e == nil {
			t.Fatalf("factory returned nil for registered effect %q", name)
		}
		if e.Name() != name {
			t.Errorf("effect %q reports name %q", name, e.Name())
		}
		resolved, ok := NameFromId(id)
		if !ok || resolved != name {
			t.Errorf("NameFromId(%d) = %q,%v, want %q", id, resolved, ok, name)
		}
	}
	if _, ok := NameFromId(len(Names)); ok {
		t.Error("NameFromId must reject ids past the registered set")
	}
}

// The numeric effect ids are part of the wire protocol; peers depend on this
// exact assignment. Never reorder Names.
func TestEffectIdsAreStable(t *testing.T) {
	wire := map[int]string{
		0: "RainbowChase",
		1: "SolidColor",
		2: "FlashOnTrigger",
		3: "RainbowCycle",
		4: "TheaterChase",
		5: "Fire",
		6: "Flare",
		7: "ColoredFire",
		8: "AccelMeter",
		9: "KineticRipple",
	}
	if len(Names) != len(wire) {
		t.Fatalf("effect set changed size: %d", len(Names))
	}
	for id, want := range wire {
		if got, ok := NameFromId(id); !ok || got != want {
			t.Errorf("effect id %d: want %q, got %q (ok=%v)", id, want, got, ok)
		}
	}
}

func TestFactoryMatchesCaseInsensitive(t *testing.T) {
	st := pixelstrip.NewStrip(10, 255, nil)
	if e := New("solidcolor", st.Segment(0)); e == nil || e.Name() != "SolidColor" {
		t.Error("lowercase name should resolve to SolidColor")
	}
	if e := New("FIRE", st.Segment(0)); e == nil || e.Name() != "Fire" {
		t.Error("uppercase name should resolve to Fire")
	}
	if e := New("Disco", st.Segment(0)); e != nil {
		t.Errorf("unknown name must yield nil, got %q", e.Name())
	}
	if IsKnown("Disco") {
		t.Error("IsKnown must reject unknown names")
	}
}

func TestSolidColorFillsItsSegmentOnly(t *testing.T) {
	st := pixelstrip.NewStrip(10, 255, nil)
	seg := st.AddSegment(2, 6, "mid")
	e := NewSolidColor(seg)
	if err := e.SetParameter("color", uint32(0x123456)); err != nil {
		t.Fatal(err)
	}
	seg.SetEffect(e)
	st.UpdateAll(time.Now())
	for i := 2; i <= 6; i++ {
		if got := st.Pixel(i); got != 0x123456 {
			t.Errorf("pixel %d: want 0x123456, got 0x%06X", i, got)
		}
	}
	if st.Pixel(1) != 0 || st.Pixel(7) != 0 {
		t.Error("pixels outside the segment must stay off")
	}
}

func TestParameterKindMismatchLeavesValueUnchanged(t *testing.T) {
	st := pixelstrip.NewStrip(10, 255, nil)
	e := NewSolidColor(st.Segment(0))
	if err := e.SetParameter("color", "red"); err != pixelstrip.ErrKindMismatch {
		t.Errorf("want ErrKindMismatch, got %v", err)
	}
	if got := e.LookupParameter("color").ColorValue(); got != 0x800080 {
		t.Errorf("value must keep its default after a failed set, got 0x%06X", got)
	}
}

func TestFireStaysInsideItsSegment(t *testing.T) {
	st := pixelstrip.NewStrip(20, 255, nil)
	seg := st.AddSegment(5, 9, "fire")
	e := NewFire(seg)
	seg.SetEffect(e)

	now := time.Now()
	for frame := 0; frame < 200; frame++ {
		now = now.Add(20 * time.Millisecond)
		st.UpdateAll(now)
	}
	for i := 0; i < 5; i++ {
		if got := st.Pixel(i); got != 0 {
			t.Fatalf("heat leaked below the segment, pixel %d = 0x%06X", i, got)
		}
	}
	for i := 10; i < 20; i++ {
		if got := st.Pixel(i); got != 0 {
			t.Fatalf("heat leaked above the segment, pixel %d = 0x%06X", i, got)
		}
	}
}

func TestTimedEffectHonorsItsInterval(t *testing.T) {
	st := pixelstrip.NewStrip(10, 255, nil)
	seg := st.Segment(0)
	e := NewRainbowCycle(seg)
	seg.SetEffect(e)

	base := time.Now()
	st.UpdateAll(base.Add(25 * time.Millisecond))
	first := st.Pixel(0)
	if first == 0 {
		t.Fatal("first frame should have painted the segment")
	}
	// 5ms later is inside the 20ms default interval, nothing may move
	st.UpdateAll(base.Add(30 * time.Millisecond))
	if got := st.Pixel(0); got != first {
		t.Errorf("update inside the interval must not advance the animation: 0x%06X -> 0x%06X", first, got)
	}
}

func TestFlashOnTriggerFollowsTriggerState(t *testing.T) {
	st := pixelstrip.NewStrip(10, 255, nil)
	seg := st.Segment(0)
	e := NewFlashOnTrigger(seg)
	seg.SetEffect(e)

	st.UpdateAll(time.Now())
	if st.Pixel(4) != 0 {
		t.Error("without a trigger the segment must stay dark")
	}

	st.PropagateTriggerState(true, 255)
	st.UpdateAll(time.Now())
	if got := st.Pixel(4); got != 0xFFFFFF {
		t.Errorf("active trigger at full level should light white, got 0x%06X", got)
	}

	st.PropagateTriggerState(false, 0)
	st.UpdateAll(time.Now())
	if got := st.Pixel(4); got != 0 {
		t.Errorf("released trigger should go dark, got 0x%06X", got)
	}
}

func TestAccelMeterBubbleFollowsTilt(t *testing.T) {
	st := pixelstrip.NewStrip(50, 255, nil)
	seg := st.Segment(0)
	e := NewAccelMeter(seg)
	seg.SetEffect(e)

	now := time.Now()
	st.PropagateAcceleration(-1, 0, 0)
	st.UpdateAll(now.Add(20 * time.Millisecond))
	if st.Pixel(0) == 0 {
		t.Error("full left tilt should park the bubble at the start")
	}
	if st.Pixel(49) != 0 {
		t.Error("bubble must not reach the far end on a left tilt")
	}

	st.PropagateAcceleration(1, 0, 0)
	st.UpdateAll(now.Add(40 * time.Millisecond))
	if st.Pixel(49) == 0 {
		t.Error("full right tilt should park the bubble at the end")
	}
	if st.Pixel(0) != 0 {
		t.Error("bubble must have left the start on a right tilt")
	}
}

func TestKineticRippleFiresOncePerTrigger(t *testing.T) {
	st := pixelstrip.NewStrip(31, 255, nil)
	seg := st.Segment(0)
	e := NewKineticRipple(seg)
	seg.SetEffect(e)

	base := time.Now()
	st.UpdateAll(base.Add(10 * time.Millisecond))
	lit := 0
	for i := 0; i < 31; i++ {
		if st.Pixel(i) != 0 {
			lit++
		}
	}
	if lit != 0 {
		t.Fatalf("ripple must stay dark before any trigger, %d pixels lit", lit)
	}

	st.PropagateTriggerState(true, 255)
	st.UpdateAll(base.Add(20 * time.Millisecond))
	if st.Pixel(15) == 0 {
		t.Error("freshly triggered ripple should light the segment center")
	}
}
