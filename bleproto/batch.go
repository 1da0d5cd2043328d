package bleproto

import (
	"github.com/ravelights/strip_controller/stripconfig"
)

// batchState enumerates the multi-frame transfer states. At most one batch
// (inbound or outbound) is open at a time; starting another while non-Idle
// is rejected.
type batchState int

const (
	STATE_IDLE batchState = iota
	STATE_EXPECT_BATCH_JSON
	STATE_EXPECT_SEGMENT_COUNT
	STATE_EXPECT_SEGMENT_JSON
	STATE_EXPECT_EFFECT_ACK
	STATE_EXPECT_SEGMENT_ACK
)

// MAX_BATCH_BUFFER bounds the accumulated bytes of one inbound batch. The
// accumulator grows as fragments arrive but never past this; exceeding it
// aborts the batch.
const MAX_BATCH_BUFFER = 4096

// batchAccumulator collects an inbound multi-frame transfer. buf grows up
// to MAX_BATCH_BUFFER; the depth/inString/escaped trio tracks JSON brace
// balance so the end of a length-prefix-less document can be detected.
type batchAccumulator struct {
	buf      []byte
	depth    int
	inString bool
	escaped  bool
	seenAny  bool

	expected int
	received int
	docs     [][]byte
}

func (b *batchAccumulator) reset() {
	*b = batchAccumulator{}
}

// feedJSON appends a fragment and reports whether the accumulated document
// is brace-balanced and therefore complete.
func (b *batchAccumulator) feedJSON(frag []byte) (complete bool) {
	b.buf = append(b.buf, frag...)
	for _, c := range frag {
		if b.inString {
			switch {
			case b.escaped:
				b.escaped = false
			case c == '\\':
				b.escaped = true
			case c == '"':
				b.inString = false
			}
			continue
		}
		switch c {
		case '"':
			b.inString = true
		case '{', '[':
			b.depth++
			b.seenAny = true
		case '}', ']':
			b.depth--
		}
	}
	return b.seenAny && b.depth <= 0
}

// State exposes the current transfer state for diagnostics and tests.
func (d *Dispatcher) State() batchState { return d.state }

// startBatchJSON opens a whole-configuration batch. Any payload already in
// the initiating frame counts as the first fragment.
func (d *Dispatcher) startBatchJSON(payload []byte) {
	if d.state != STATE_IDLE {
		d.nack(CMD_NACK_INVALID_PAYLOAD, "batch already in progress")
		return
	}
	d.batch.reset()
	d.state = STATE_EXPECT_BATCH_JSON
	d.ack(CMD_ACK_GENERIC)
	if len(payload) > 0 {
		d.feedBatchJSON(payload)
	}
}

func (d *Dispatcher) feedBatchJSON(frag []byte) {
	if len(d.batch.buf)+len(frag) > MAX_BATCH_BUFFER {
		d.abortBatch(CMD_NACK_BUFFER_OVERFLOW, "batch buffer overflow")
		return
	}
	if !d.batch.feedJSON(frag) {
		return
	}
	buf := d.batch.buf
	d.batch.reset()
	d.state = STATE_IDLE

	cfg, err := stripconfig.Unmarshal(buf)
	if err != nil {
		d.nack(CMD_NACK_JSON_ERROR, err.Error())
		return
	}
	if skipped := stripconfig.Apply(cfg, d.strip); len(skipped) > 0 {
		d.logf("batch config skipped unknown effects: %v", skipped)
	}
	d.ack(CMD_ACK_GENERIC)
}

// startSegmentBatch opens a per-segment enumeration: the next frame carries
// the segment count, then one [seq][document] fragment per segment.
func (d *Dispatcher) startSegmentBatch() {
	if d.state != STATE_IDLE {
		d.nack(CMD_NACK_INVALID_PAYLOAD, "batch already in progress")
		return
	}
	d.batch.reset()
	d.state = STATE_EXPECT_SEGMENT_COUNT
	d.ack(CMD_ACK_GENERIC)
}

func (d *Dispatcher) feedSegmentCount(frame []byte) {
	count := int(frame[0])
	if count < 1 {
		d.abortBatch(CMD_NACK_INVALID_PAYLOAD, "invalid segment count")
		return
	}
	d.batch.expected = count
	d.state = STATE_EXPECT_SEGMENT_JSON
	d.ack(CMD_ACK_GENERIC)
}

// feedSegmentJSON consumes one [seq][segment document] fragment. Fragments
// must arrive in order; nothing is applied until the full set parsed.
func (d *Dispatcher) feedSegmentJSON(frame []byte) {
	if len(frame) < 2 {
		d.abortBatch(CMD_NACK_INVALID_PAYLOAD, "short fragment")
		return
	}
	seq, doc := int(frame[0]), frame[1:]
	if seq != d.batch.received {
		d.abortBatch(CMD_NACK_INVALID_PAYLOAD, "fragment out of sequence")
		return
	}
	total := len(doc)
	for _, b := range d.batch.docs {
		total += len(b)
	}
	if total > MAX_BATCH_BUFFER {
		d.abortBatch(CMD_NACK_BUFFER_OVERFLOW, "batch buffer overflow")
		return
	}
	kept := make([]byte, len(doc))
	copy(kept, doc)
	d.batch.docs = append(d.batch.docs, kept)
	d.batch.received++
	if d.batch.received < d.batch.expected {
		d.ack(CMD_ACK_GENERIC)
		return
	}

	docs := d.batch.docs
	d.batch.reset()
	d.state = STATE_IDLE

	// parse everything before touching live state: all or nothing
	cfg := stripconfig.StripConfig{LedCount: d.strip.LedCount()}
	for _, raw := range docs {
		sc, err := stripconfig.UnmarshalSegment(raw)
		if err != nil {
			d.nack(CMD_NACK_JSON_ERROR, err.Error())
			return
		}
		cfg.Segments = append(cfg.Segments, sc)
	}
	if skipped := stripconfig.Apply(cfg, d.strip); len(skipped) > 0 {
		d.logf("segment batch skipped unknown effects: %v", skipped)
	}
	d.ack(CMD_ACK_GENERIC)
}

// abortBatch cancels the in-progress transfer, reports it (never silently)
// and returns to Idle. The previous configuration stays untouched.
func (d *Dispatcher) abortBatch(code byte, msg string) {
	d.batch.reset()
	d.state = STATE_IDLE
	d.nack(code, msg)
}
