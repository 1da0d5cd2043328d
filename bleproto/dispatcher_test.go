package bleproto

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/ravelights/strip_controller/pixelstrip"
	"github.com/ravelights/strip_controller/stripconfig"
)

type testRig struct {
	d         *Dispatcher
	sent      [][]byte
	restarted bool
	store     *stripconfig.Store
}

func newTestRig(t *testing.T, ledcount int) (*testRig, func()) {
	dir, err := ioutil.TempDir("", "bleproto")
	if err != nil {
		t.Fatal(err)
	}
	rig := &testRig{store: stripconfig.NewStore(filepath.Join(dir, "config.json"))}
	strip := pixelstrip.NewStrip(ledcount, 255, nil)
	rig.d = NewDispatcher(strip, rig.store,
		func(frame []byte) {
			kept := make([]byte, len(frame))
			copy(kept, frame)
			rig.sent = append(rig.sent, kept)
		},
		func() { rig.restarted = true })
	return rig, func() { os.RemoveAll(dir) }
}

func (r *testRig) lastFrame(t *testing.T) []byte {
	if len(r.sent) == 0 {
		t.Fatal("no reply frame was sent")
	}
	return r.sent[len(r.sent)-1]
}

func (r *testRig) expectReply(t *testing.T, code byte, what string) {
	frame := r.lastFrame(t)
	if frame[0] != code {
		t.Fatalf("%s: want reply 0x%02X, got 0x%02X (payload %q)", what, code, frame[0], frame[1:])
	}
}

func TestEmptyFrameIsIgnored(t *testing.T) {
	rig, cleanup := newTestRig(t, 30)
	defer cleanup()
	rig.d.Dispatch(nil)
	rig.d.Dispatch([]byte{})
	if len(rig.sent) != 0 {
		t.Errorf("empty frames must produce no reply, got %d frames", len(rig.sent))
	}
}

func TestUnknownCommandIsNACKed(t *testing.T) {
	rig, cleanup := newTestRig(t, 30)
	defer cleanup()
	rig.d.Dispatch([]byte{0x7F})
	rig.expectReply(t, CMD_NACK_UNKNOWN_CMD, "unknown command byte")
}

func TestShortPayloadIsNACKed(t *testing.T) {
	rig, cleanup := newTestRig(t, 30)
	defer cleanup()
	rig.d.Dispatch([]byte{CMD_SELECT_SEGMENT})
	rig.expectReply(t, CMD_NACK_INVALID_PAYLOAD, "select without index")

	rig.sent = nil
	rig.d.Dispatch([]byte{CMD_SET_LED_COUNT, 0x10})
	rig.expectReply(t, CMD_NACK_INVALID_PAYLOAD, "led count with one byte")
}

func TestSelectSegment(t *testing.T) {
	rig, cleanup := newTestRig(t, 30)
	defer cleanup()
	rig.d.Strip().AddSegment(0, 9, "front")

	rig.d.Dispatch([]byte{CMD_SELECT_SEGMENT, 1})
	rig.expectReply(t, CMD_ACK_GENERIC, "valid select")
	if rig.d.Selected() != 1 {
		t.Errorf("selected segment not updated, got %d", rig.d.Selected())
	}

	rig.sent = nil
	rig.d.Dispatch([]byte{CMD_SELECT_SEGMENT, 9})
	rig.expectReply(t, CMD_NACK_INVALID_SEGMENT, "out-of-range select")
	if rig.d.Selected() != 1 {
		t.Errorf("failed select must keep the previous selection, got %d", rig.d.Selected())
	}
}

func TestClearSegmentsResetsSelection(t *testing.T) {
	rig, cleanup := newTestRig(t, 30)
	defer cleanup()
	rig.d.Strip().AddSegment(0, 9, "front")
	rig.d.SelectSegment(1)

	rig.d.Dispatch([]byte{CMD_CLEAR_SEGMENTS})
	rig.expectReply(t, CMD_ACK_GENERIC, "clear segments")
	if len(rig.d.Strip().Segments()) != 1 {
		t.Errorf("user segments not cleared, %d remain", len(rig.d.Strip().Segments()))
	}
	if rig.d.Selected() != 0 {
		t.Errorf("selection should fall back to segment 0, got %d", rig.d.Selected())
	}
}

func setParamFrame(segIdx byte, kind byte, name string, value []byte) []byte {
	frame := []byte{CMD_SET_EFFECT_PARAMETER, segIdx, kind, byte(len(name))}
	frame = append(frame, name...)
	return append(frame, value...)
}

func TestSetEffectParameter(t *testing.T) {
	rig, cleanup := newTestRig(t, 30)
	defer cleanup()
	if err := rig.d.SetEffect(0, "SolidColor"); err != nil {
		t.Fatal(err)
	}

	colorBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(colorBytes, 0x00FF00)
	rig.d.Dispatch(setParamFrame(0, PARAM_KIND_COLOR, "color", colorBytes))
	rig.expectReply(t, CMD_ACK_PARAM_SET, "valid color parameter")
	e := rig.d.Strip().Segment(0).Effect()
	if got := e.LookupParameter("color").ColorValue(); got != 0x00FF00 {
		t.Errorf("parameter not applied, got 0x%06X", got)
	}

	rig.sent = nil
	rig.d.Dispatch(setParamFrame(0, PARAM_KIND_COLOR, "nosuch", colorBytes))
	rig.expectReply(t, CMD_NACK_UNKNOWN_PARAMETER, "unknown parameter name")

	// wrong kind for a registered parameter: reported, value untouched
	rig.sent = nil
	rig.d.Dispatch(setParamFrame(0, PARAM_KIND_BOOLEAN, "color", []byte{1}))
	rig.expectReply(t, CMD_NACK_INVALID_PAYLOAD, "kind mismatch")
	if got := e.LookupParameter("color").ColorValue(); got != 0x00FF00 {
		t.Errorf("failed set must keep the stored value, got 0x%06X", got)
	}

	rig.sent = nil
	rig.d.Dispatch(setParamFrame(5, PARAM_KIND_COLOR, "color", colorBytes))
	rig.expectReply(t, CMD_NACK_INVALID_SEGMENT, "invalid segment index")
}

func TestSetParameterWithoutEffectIsNACKed(t *testing.T) {
	rig, cleanup := newTestRig(t, 30)
	defer cleanup()
	value := make([]byte, 4)
	rig.d.Dispatch(setParamFrame(0, PARAM_KIND_INTEGER, "speed", value))
	rig.expectReply(t, CMD_NACK_NO_EFFECT, "parameter on effect-less segment")
}

func TestGetEffectInfo(t *testing.T) {
	rig, cleanup := newTestRig(t, 30)
	defer cleanup()
	rig.d.Dispatch([]byte{CMD_GET_EFFECT_INFO, 0})
	frame := rig.lastFrame(t)
	if frame[0] != CMD_GET_EFFECT_INFO {
		t.Fatalf("reply must echo the command byte, got 0x%02X", frame[0])
	}
	if !bytes.Contains(frame[1:], []byte("RainbowChase")) {
		t.Errorf("effect id 0 must describe RainbowChase: %s", frame[1:])
	}
	if !bytes.Contains(frame[1:], []byte(`"params"`)) {
		t.Errorf("effect info document is missing the params list: %s", frame[1:])
	}

	rig.sent = nil
	rig.d.Dispatch([]byte{CMD_GET_EFFECT_INFO, 99})
	rig.expectReply(t, CMD_NACK_UNKNOWN_EFFECT, "effect id past the set")
}

func TestGetLedCount(t *testing.T) {
	rig, cleanup := newTestRig(t, 300)
	defer cleanup()
	rig.d.Dispatch([]byte{CMD_GET_LED_COUNT})
	frame := rig.lastFrame(t)
	if frame[0] != CMD_GET_LED_COUNT || len(frame) != 3 {
		t.Fatalf("malformed led count reply: % x", frame)
	}
	if got := binary.LittleEndian.Uint16(frame[1:]); got != 300 {
		t.Errorf("want led count 300, got %d", got)
	}
}

func TestSetLedCountSavesAcksAndRestarts(t *testing.T) {
	rig, cleanup := newTestRig(t, 30)
	defer cleanup()
	frame := []byte{CMD_SET_LED_COUNT, 0, 0}
	binary.LittleEndian.PutUint16(frame[1:], 200)
	rig.d.Dispatch(frame)

	if len(rig.sent) != 2 || rig.sent[0][0] != CMD_ACK_CONFIG_SAVED || rig.sent[1][0] != CMD_ACK_RESTARTING {
		t.Fatalf("want config-saved then restarting, got % x", rig.sent)
	}
	if !rig.restarted {
		t.Error("restart function was not invoked")
	}
	cfg, ok := rig.store.Load()
	if !ok || cfg.LedCount != 200 {
		t.Errorf("new led count not persisted: %+v ok=%v", cfg, ok)
	}
}

func TestSetLedCountRejectsOutOfRange(t *testing.T) {
	rig, cleanup := newTestRig(t, 30)
	defer cleanup()
	for _, n := range []uint16{0, MAX_LED_COUNT + 1} {
		rig.sent = nil
		frame := []byte{CMD_SET_LED_COUNT, 0, 0}
		binary.LittleEndian.PutUint16(frame[1:], n)
		rig.d.Dispatch(frame)
		rig.expectReply(t, CMD_NACK_INVALID_PAYLOAD, "led count out of range")
		if rig.restarted {
			t.Fatal("rejected led count must not restart")
		}
	}
}

func TestSetSingleSegmentJSON(t *testing.T) {
	rig, cleanup := newTestRig(t, 30)
	defer cleanup()
	doc := `{"id":1,"name":"front","startLed":0,"endLed":9,"brightness":255,"effect":"SolidColor"}`
	rig.d.Dispatch(append([]byte{CMD_SET_SINGLE_SEGMENT_JSON}, doc...))
	rig.expectReply(t, CMD_ACK_EFFECT_SET, "valid segment document")
	if len(rig.d.Strip().Segments()) != 2 {
		t.Fatalf("segment not added, have %d", len(rig.d.Strip().Segments()))
	}

	rig.sent = nil
	rig.d.Dispatch(append([]byte{CMD_SET_SINGLE_SEGMENT_JSON}, `{"effect":"Disco","id":2,"name":"x"}`...))
	rig.expectReply(t, CMD_NACK_UNKNOWN_EFFECT, "unknown effect in document")

	rig.sent = nil
	rig.d.Dispatch(append([]byte{CMD_SET_SINGLE_SEGMENT_JSON}, `{broken`...))
	rig.expectReply(t, CMD_NACK_JSON_ERROR, "malformed document")
}

func TestSaveConfig(t *testing.T) {
	rig, cleanup := newTestRig(t, 30)
	defer cleanup()
	rig.d.Dispatch([]byte{CMD_SAVE_CONFIG})
	rig.expectReply(t, CMD_ACK_CONFIG_SAVED, "save")
	if _, err := rig.store.Raw(); err != nil {
		t.Errorf("no document written: %v", err)
	}
}

func TestSendReady(t *testing.T) {
	rig, cleanup := newTestRig(t, 30)
	defer cleanup()
	rig.d.SendReady()
	rig.expectReply(t, CMD_READY, "ready announcement")
}
