// Package bleproto implements the binary command protocol of the strip
// controller: one command byte plus payload per transport frame, every
// command answered with a specific ACK or NACK, and the multi-frame batch
// transfer state machine for configurations too large for one frame.
package bleproto

// Command bytes exchanged with the peer app. The transport layer (radio
// link or serial framing) delivers exactly one of these frames at a time;
// there is no length prefix.
const (
	CMD_SELECT_SEGMENT          byte = 0x05 // payload: segment index
	CMD_CLEAR_SEGMENTS          byte = 0x06
	CMD_BATCH_CONFIG            byte = 0x09 // initiates a whole-config JSON batch
	CMD_SET_EFFECT_PARAMETER    byte = 0x0A // payload: seg, kind, name, value
	CMD_GET_EFFECT_INFO         byte = 0x0B // payload: effect id
	CMD_SET_LED_COUNT           byte = 0x0C // payload: u16 LE, triggers restart
	CMD_GET_LED_COUNT           byte = 0x0D
	CMD_GET_ALL_SEGMENT_CONFIGS byte = 0x0E // starts an ack-paced push
	CMD_SET_ALL_SEGMENT_CONFIGS byte = 0x0F // starts a per-segment batch
	CMD_GET_ALL_EFFECTS         byte = 0x10 // starts an ack-paced push
	CMD_SET_SINGLE_SEGMENT_JSON byte = 0x11 // payload: one segment document
	CMD_SAVE_CONFIG             byte = 0x12

	CMD_ACK_GENERIC      byte = 0xA0 // also sent by the peer to pace pushes
	CMD_ACK_EFFECT_SET   byte = 0xA1
	CMD_ACK_PARAM_SET    byte = 0xA2
	CMD_ACK_CONFIG_SAVED byte = 0xA3
	CMD_ACK_RESTARTING   byte = 0xA4

	CMD_READY byte = 0xD0 // pushed when the transport (re)connects

	CMD_NACK_UNKNOWN_CMD       byte = 0xE0
	CMD_NACK_INVALID_PAYLOAD   byte = 0xE1
	CMD_NACK_INVALID_SEGMENT   byte = 0xE2
	CMD_NACK_NO_EFFECT         byte = 0xE3
	CMD_NACK_UNKNOWN_EFFECT    byte = 0xE4
	CMD_NACK_UNKNOWN_PARAMETER byte = 0xE5
	CMD_NACK_JSON_ERROR        byte = 0xE6
	CMD_NACK_FS_ERROR          byte = 0xE7
	CMD_NACK_BUFFER_OVERFLOW   byte = 0xE8
)

// Parameter kind bytes in CMD_SET_EFFECT_PARAMETER payloads. They mirror
// pixelstrip.ParamKind's order.
const (
	PARAM_KIND_INTEGER byte = 0x00
	PARAM_KIND_FLOAT   byte = 0x01
	PARAM_KIND_COLOR   byte = 0x02
	PARAM_KIND_BOOLEAN byte = 0x03
)

// Minimum payload lengths per command; anything shorter is NACKed as an
// invalid payload before the handler runs.
var minPayloadLen = map[byte]int{
	CMD_SELECT_SEGMENT:          1,
	CMD_SET_EFFECT_PARAMETER:    5,
	CMD_GET_EFFECT_INFO:         1,
	CMD_SET_LED_COUNT:           2,
	CMD_SET_SINGLE_SEGMENT_JSON: 2,
}

// MAX_LED_COUNT bounds CMD_SET_LED_COUNT, matching the firmware's strip
// driver limit.
const MAX_LED_COUNT = 4000
