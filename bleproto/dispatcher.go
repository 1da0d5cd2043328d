package bleproto

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/ravelights/strip_controller/effects"
	"github.com/ravelights/strip_controller/pixelstrip"
	"github.com/ravelights/strip_controller/stripconfig"
)

var (
	ErrInvalidSegment = errors.New("invalid segment index")
	ErrNoEffect       = errors.New("no active effect on segment")
	ErrUnknownEffect  = errors.New("unknown effect name")
)

// Dispatcher routes inbound command frames, emits ACK/NACK reply frames
// through the transport's send primitive, and owns the batch-transfer state
// machine. It must only be touched from the control loop; it does no
// locking of its own.
type Dispatcher struct {
	strip   *pixelstrip.Strip
	store   *stripconfig.Store
	send    func(frame []byte)
	restart func()
	now     func() time.Time
	logf    func(format string, v ...interface{})

	selected int

	state batchState
	batch batchAccumulator
	push  pushQueue
}

// NewDispatcher wires the dispatcher to its collaborators. send delivers a
// reply frame to the peer; restart performs the full device restart that a
// successful set-led-count demands.
func NewDispatcher(strip *pixelstrip.Strip, store *stripconfig.Store, send func(frame []byte), restart func()) *Dispatcher {
	return &Dispatcher{
		strip:   strip,
		store:   store,
		send:    send,
		restart: restart,
		now:     time.Now,
		logf:    func(string, ...interface{}) {},
	}
}

// SetLogger routes the dispatcher's diagnostic output, e.g. to syslog.
func (d *Dispatcher) SetLogger(logf func(format string, v ...interface{})) {
	d.logf = logf
}

// Strip returns the strip the dispatcher mutates (for status snapshots).
func (d *Dispatcher) Strip() *pixelstrip.Strip { return d.strip }

// Selected returns the segment index last chosen via select-segment.
func (d *Dispatcher) Selected() int { return d.selected }

// SendReady pushes the READY code, announcing the device to a freshly
// connected peer.
func (d *Dispatcher) SendReady() { d.send([]byte{CMD_READY}) }

func (d *Dispatcher) ack(code byte) { d.send([]byte{code}) }

func (d *Dispatcher) nack(code byte, msg string) {
	frame := make([]byte, 0, 1+len(msg))
	frame = append(frame, code)
	frame = append(frame, msg...)
	d.send(frame)
}

// Dispatch decodes and executes one inbound transport frame. Every path
// answers with a definite ACK or NACK; nothing escapes past this boundary.
// Empty frames are ignored (transport keepalive).
func (d *Dispatcher) Dispatch(frame []byte) {
	if len(frame) == 0 {
		return
	}

	// While an inbound batch is open, frames are fragments, not commands.
	switch d.state {
	case STATE_EXPECT_BATCH_JSON:
		d.feedBatchJSON(frame)
		return
	case STATE_EXPECT_SEGMENT_COUNT:
		d.feedSegmentCount(frame)
		return
	case STATE_EXPECT_SEGMENT_JSON:
		d.feedSegmentJSON(frame)
		return
	}

	cmd, payload := frame[0], frame[1:]
	if min, ok := minPayloadLen[cmd]; ok && len(payload) < min {
		d.nack(CMD_NACK_INVALID_PAYLOAD, "short payload")
		return
	}

	switch cmd {
	case CMD_SELECT_SEGMENT:
		d.handleSelectSegment(payload)
	case CMD_CLEAR_SEGMENTS:
		d.ClearSegments()
		d.ack(CMD_ACK_GENERIC)
	case CMD_BATCH_CONFIG:
		d.startBatchJSON(payload)
	case CMD_SET_EFFECT_PARAMETER:
		d.handleSetEffectParameter(payload)
	case CMD_GET_EFFECT_INFO:
		d.handleGetEffectInfo(payload)
	case CMD_SET_LED_COUNT:
		d.handleSetLedCount(payload)
	case CMD_GET_LED_COUNT:
		reply := make([]byte, 3)
		reply[0] = CMD_GET_LED_COUNT
		binary.LittleEndian.PutUint16(reply[1:], uint16(d.strip.LedCount()))
		d.send(reply)
	case CMD_GET_ALL_SEGMENT_CONFIGS:
		d.handleGetAllSegmentConfigs()
	case CMD_SET_ALL_SEGMENT_CONFIGS:
		d.startSegmentBatch()
	case CMD_GET_ALL_EFFECTS:
		d.handleGetAllEffects()
	case CMD_SET_SINGLE_SEGMENT_JSON:
		d.handleSetSingleSegmentJSON(payload)
	case CMD_SAVE_CONFIG:
		if err := d.SaveConfig(); err != nil {
			d.nack(CMD_NACK_FS_ERROR, err.Error())
			return
		}
		d.ack(CMD_ACK_CONFIG_SAVED)
	case CMD_ACK_GENERIC:
		d.pushAcked()
	default:
		d.nack(CMD_NACK_UNKNOWN_CMD, "unknown command")
	}
}

func (d *Dispatcher) handleSelectSegment(payload []byte) {
	if err := d.SelectSegment(int(payload[0])); err != nil {
		d.nack(CMD_NACK_INVALID_SEGMENT, err.Error())
		return
	}
	d.ack(CMD_ACK_GENERIC)
}

func (d *Dispatcher) handleSetEffectParameter(payload []byte) {
	segIdx := int(payload[0])
	kind := payload[1]
	nameLen := int(payload[2])
	if len(payload) < 3+nameLen+1 {
		d.nack(CMD_NACK_INVALID_PAYLOAD, "short payload")
		return
	}
	name := string(payload[3 : 3+nameLen])
	raw := payload[3+nameLen:]

	var value interface{}
	switch kind {
	case PARAM_KIND_INTEGER:
		if len(raw) < 4 {
			d.nack(CMD_NACK_INVALID_PAYLOAD, "short value")
			return
		}
		value = int(int32(binary.LittleEndian.Uint32(raw)))
	case PARAM_KIND_FLOAT:
		if len(raw) < 4 {
			d.nack(CMD_NACK_INVALID_PAYLOAD, "short value")
			return
		}
		value = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw)))
	case PARAM_KIND_COLOR:
		if len(raw) < 4 {
			d.nack(CMD_NACK_INVALID_PAYLOAD, "short value")
			return
		}
		value = binary.LittleEndian.Uint32(raw)
	case PARAM_KIND_BOOLEAN:
		value = raw[0] != 0
	default:
		d.nack(CMD_NACK_INVALID_PAYLOAD, "unknown parameter kind")
		return
	}

	switch err := d.SetParameter(segIdx, name, value); err {
	case nil:
		d.ack(CMD_ACK_PARAM_SET)
	case ErrInvalidSegment:
		d.nack(CMD_NACK_INVALID_SEGMENT, err.Error())
	case ErrNoEffect:
		d.nack(CMD_NACK_NO_EFFECT, err.Error())
	case pixelstrip.ErrUnknownParameter:
		d.nack(CMD_NACK_UNKNOWN_PARAMETER, err.Error())
	default:
		// kind mismatch: reported, stored value unchanged
		d.nack(CMD_NACK_INVALID_PAYLOAD, err.Error())
	}
}

func (d *Dispatcher) handleGetEffectInfo(payload []byte) {
	name, ok := effects.NameFromId(int(payload[0]))
	if !ok {
		d.nack(CMD_NACK_UNKNOWN_EFFECT, "unknown effect id")
		return
	}
	doc, err := EffectInfoJSON(name)
	if err != nil {
		d.nack(CMD_NACK_UNKNOWN_EFFECT, err.Error())
		return
	}
	d.send(append([]byte{CMD_GET_EFFECT_INFO}, doc...))
}

// handleSetLedCount is the deliberate fail-stop: every downstream structure
// is sized against the pixel buffer, so the new count is persisted and the
// whole device restarts instead of resizing live.
func (d *Dispatcher) handleSetLedCount(payload []byte) {
	n := int(binary.LittleEndian.Uint16(payload))
	if n < 1 || n > MAX_LED_COUNT {
		d.nack(CMD_NACK_INVALID_PAYLOAD, "led count out of range")
		return
	}
	if err := d.SetLedCount(n); err != nil {
		d.nack(CMD_NACK_FS_ERROR, err.Error())
		return
	}
	d.ack(CMD_ACK_CONFIG_SAVED)
	d.ack(CMD_ACK_RESTARTING)
	d.restart()
}

func (d *Dispatcher) handleSetSingleSegmentJSON(payload []byte) {
	sc, err := stripconfig.UnmarshalSegment(payload)
	if err != nil {
		d.nack(CMD_NACK_JSON_ERROR, err.Error())
		return
	}
	if err := stripconfig.ApplySegment(sc, d.strip); err != nil {
		d.nack(CMD_NACK_UNKNOWN_EFFECT, err.Error())
		return
	}
	d.ack(CMD_ACK_EFFECT_SET)
}

// --- Core operations, shared with the serial text console ---

func (d *Dispatcher) SelectSegment(idx int) error {
	if d.strip.Segment(idx) == nil {
		return ErrInvalidSegment
	}
	d.selected = idx
	return nil
}

func (d *Dispatcher) ClearSegments() {
	d.strip.ClearUserSegments()
	d.selected = 0
}

// SetEffect installs a fresh effect by name on the given segment. The
// segment's previous effect stays untouched when the name is unknown.
func (d *Dispatcher) SetEffect(segIdx int, name string) error {
	seg := d.strip.Segment(segIdx)
	if seg == nil {
		return ErrInvalidSegment
	}
	e := effects.New(name, seg)
	if e == nil {
		return ErrUnknownEffect
	}
	seg.SetEffect(e)
	return nil
}

func (d *Dispatcher) SetParameter(segIdx int, name string, value interface{}) error {
	seg := d.strip.Segment(segIdx)
	if seg == nil {
		return ErrInvalidSegment
	}
	e := seg.Effect()
	if e == nil {
		return ErrNoEffect
	}
	return e.SetParameter(name, value)
}

func (d *Dispatcher) SaveConfig() error {
	return d.store.Save(stripconfig.Snapshot(d.strip))
}

// SetLedCount validates and persists a new LED count. The caller (or the
// binary handler) is responsible for the restart that follows.
func (d *Dispatcher) SetLedCount(n int) error {
	if n < 1 || n > MAX_LED_COUNT {
		return errors.New("led count out of range")
	}
	cfg := stripconfig.Snapshot(d.strip)
	cfg.LedCount = n
	return d.store.Save(cfg)
}

// Restart invokes the injected restart function (used by the console's
// setledcount path).
func (d *Dispatcher) Restart() { d.restart() }

// --- Effect info documents ---

type paramInfo struct {
	Name  string      `json:"name"`
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
	Min   float64     `json:"min_val"`
	Max   float64     `json:"max_val"`
}

type effectInfo struct {
	Effect string      `json:"effect"`
	Params []paramInfo `json:"params"`
}

// EffectInfoJSON describes one effect kind and its parameter defaults, built
// from a throwaway instance bound to a one-pixel dummy segment.
func EffectInfoJSON(name string) ([]byte, error) {
	dummy := pixelstrip.NewStrip(1, 255, nil)
	e := effects.New(name, dummy.Segment(0))
	if e == nil {
		return nil, ErrUnknownEffect
	}
	info := effectInfo{Effect: e.Name()}
	for i := 0; i < e.ParameterCount(); i++ {
		p := e.Parameter(i)
		info.Params = append(info.Params, paramInfo{
			Name:  p.Name,
			Type:  p.Kind.String(),
			Value: p.Value,
			Min:   p.Min,
			Max:   p.Max,
		})
	}
	return json.Marshal(info)
}
