package bleproto

import (
	"encoding/json"
	"time"

	"github.com/hishboy/gocommons/lang"

	"github.com/ravelights/strip_controller/effects"
	"github.com/ravelights/strip_controller/stripconfig"
)

// ACK_WAIT_TIMEOUT is how long an outbound push waits for the peer's
// generic ACK before resending the pending frame.
const ACK_WAIT_TIMEOUT = 5 * time.Second

// pushQueue paces an outbound enumeration: one document frame in flight,
// the next released only by the peer's generic ACK. An unanswered frame is
// resent once; a second timeout abandons the push.
type pushQueue struct {
	pending  *lang.Queue
	inflight []byte
	deadline time.Time
	resent   bool
}

func (q *pushQueue) reset() {
	*q = pushQueue{}
}

// startPush queues the document frames, sends the count header and the
// first document, and moves the dispatcher into the matching ack-wait state.
func (d *Dispatcher) startPush(reqCmd byte, docs [][]byte, state batchState) {
	d.send([]byte{reqCmd, byte(len(docs))})
	if len(docs) == 0 {
		return
	}
	d.push.reset()
	d.push.pending = lang.NewQueue()
	for _, doc := range docs {
		d.push.pending.Push(append([]byte{reqCmd}, doc...))
	}
	d.state = state
	d.pushNext()
}

func (d *Dispatcher) pushNext() {
	next := d.push.pending.Poll()
	if next == nil {
		d.push.reset()
		d.state = STATE_IDLE
		return
	}
	d.push.inflight = next.([]byte)
	d.push.deadline = d.now().Add(ACK_WAIT_TIMEOUT)
	d.push.resent = false
	d.send(d.push.inflight)
}

// pushAcked advances the push when the peer sends its generic ACK. A stray
// ACK outside a push is ignored.
func (d *Dispatcher) pushAcked() {
	if d.state != STATE_EXPECT_EFFECT_ACK && d.state != STATE_EXPECT_SEGMENT_ACK {
		return
	}
	d.pushNext()
}

// Tick drives the push timeout from the control loop's frame timer. The
// first expiry resends the pending frame; the second abandons the push
// without a NACK, the peer having already gone quiet.
func (d *Dispatcher) Tick(now time.Time) {
	if d.state != STATE_EXPECT_EFFECT_ACK && d.state != STATE_EXPECT_SEGMENT_ACK {
		return
	}
	if now.Before(d.push.deadline) {
		return
	}
	if !d.push.resent {
		d.push.resent = true
		d.push.deadline = now.Add(ACK_WAIT_TIMEOUT)
		d.send(d.push.inflight)
		return
	}
	d.push.reset()
	d.state = STATE_IDLE
}

func (d *Dispatcher) handleGetAllEffects() {
	if d.state != STATE_IDLE {
		d.nack(CMD_NACK_INVALID_PAYLOAD, "batch already in progress")
		return
	}
	docs := make([][]byte, 0, effects.Count())
	for _, name := range effects.Names {
		doc, err := EffectInfoJSON(name)
		if err != nil {
			d.nack(CMD_NACK_JSON_ERROR, err.Error())
			return
		}
		docs = append(docs, doc)
	}
	d.startPush(CMD_GET_ALL_EFFECTS, docs, STATE_EXPECT_EFFECT_ACK)
}

func (d *Dispatcher) handleGetAllSegmentConfigs() {
	if d.state != STATE_IDLE {
		d.nack(CMD_NACK_INVALID_PAYLOAD, "batch already in progress")
		return
	}
	cfg := stripconfig.Snapshot(d.strip)
	docs := make([][]byte, 0, len(cfg.Segments))
	for _, sc := range cfg.Segments {
		doc, err := json.Marshal(sc)
		if err != nil {
			d.nack(CMD_NACK_JSON_ERROR, err.Error())
			return
		}
		docs = append(docs, doc)
	}
	d.startPush(CMD_GET_ALL_SEGMENT_CONFIGS, docs, STATE_EXPECT_SEGMENT_ACK)
}
