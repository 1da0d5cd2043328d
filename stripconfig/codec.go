// Package stripconfig serializes the strip/segment/effect state to the
// configuration document used for persistence and batch transfers, and
// rebuilds live state from such a document.
package stripconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ravelights/strip_controller/effects"
	"github.com/ravelights/strip_controller/pixelstrip"
)

// MAX_CONFIG_BYTES bounds a serialized configuration document. Documents
// past the bound fail whole, they are never partially applied.
const MAX_CONFIG_BYTES = 4096

// EFFECT_NONE is the sentinel an effect-less segment carries in documents.
const EFFECT_NONE = "None"

var ErrConfigTooLarge = errors.New("configuration document exceeds size bound")

type SegmentConfig struct {
	Id         int                    `json:"id"`
	Name       string                 `json:"name"`
	StartLed   int                    `json:"startLed"`
	EndLed     int                    `json:"endLed"`
	Brightness uint8                  `json:"brightness"`
	Effect     string                 `json:"effect"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

type StripConfig struct {
	LedCount int             `json:"led_count"`
	Segments []SegmentConfig `json:"segments"`
}

// Snapshot walks the strip's segments in order and captures them, including
// every registered parameter of each active effect.
func Snapshot(st *pixelstrip.Strip) StripConfig {
	cfg := StripConfig{LedCount: st.LedCount()}
	for _, s := range st.Segments() {
		sc := SegmentConfig{
			Id:         s.Id(),
			Name:       s.Name(),
			StartLed:   s.Start(),
			EndLed:     s.End(),
			Brightness: s.Brightness(),
			Effect:     EFFECT_NONE,
		}
		if e := s.Effect(); e != nil {
			sc.Effect = e.Name()
			sc.Parameters = make(map[string]interface{}, e.ParameterCount())
			for i := 0; i < e.ParameterCount(); i++ {
				p := e.Parameter(i)
				sc.Parameters[p.Name] = p.Value
			}
		}
		cfg.Segments = append(cfg.Segments, sc)
	}
	return cfg
}

// Marshal serializes a configuration, enforcing the document size bound.
func Marshal(cfg StripConfig) ([]byte, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	if len(data) > MAX_CONFIG_BYTES {
		return nil, ErrConfigTooLarge
	}
	return data, nil
}

func Unmarshal(data []byte) (StripConfig, error) {
	if len(data) > MAX_CONFIG_BYTES {
		return StripConfig{}, ErrConfigTooLarge
	}
	var cfg StripConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return StripConfig{}, err
	}
	return cfg, nil
}

func UnmarshalSegment(data []byte) (SegmentConfig, error) {
	var sc SegmentConfig
	if err := json.Unmarshal(data, &sc); err != nil {
		return SegmentConfig{}, err
	}
	return sc, nil
}

// Apply replaces the strip's segment layout with the document's (full
// replace, not merge): user segments are cleared first, then every entry is
// recreated with its effect and parameters. Ranges are clipped to the
// buffer, so a document saved for a longer strip still loads after the LED
// count shrank. Unknown effect names skip that segment's effect; the names
// are returned so the caller can log them. Replay never fails over a single
// bad value.
func Apply(cfg StripConfig, st *pixelstrip.Strip) (skippedEffects []string) {
	st.ClearUserSegments()
	for _, sc := range cfg.Segments {
		var seg *pixelstrip.Segment
		if sc.Id == 0 || strings.EqualFold(sc.Name, "all") {
			seg = st.Segment(0)
			seg.SetRange(sc.StartLed, sc.EndLed)
		} else {
			seg = st.AddSegment(sc.StartLed, sc.EndLed, sc.Name)
		}
		seg.SetBrightness(sc.Brightness)
		if sc.Effect == "" || strings.EqualFold(sc.Effect, EFFECT_NONE) {
			seg.ClearEffect()
			continue
		}
		e := effects.New(sc.Effect, seg)
		if e == nil {
			skippedEffects = append(skippedEffects, sc.Effect)
			seg.ClearEffect()
			continue
		}
		applyParameters(e, sc.Parameters)
		seg.SetEffect(e)
	}
	return skippedEffects
}

// ApplySegment configures one segment from a document without touching the
// others. A document whose id matches an existing segment updates that
// segment in place, so a peer re-sending its configuration never grows the
// segment list; only unseen ids append. Unlike replay, it is strict: an
// unknown effect name is an error and nothing is mutated.
func ApplySegment(sc SegmentConfig, st *pixelstrip.Strip) error {
	wantEffect := sc.Effect != "" && !strings.EqualFold(sc.Effect, EFFECT_NONE)
	if wantEffect && !effects.IsKnown(sc.Effect) {
		return fmt.Errorf("unknown effect %q", sc.Effect)
	}

	var seg *pixelstrip.Segment
	if strings.EqualFold(sc.Name, "all") {
		seg = st.Segment(0)
	} else {
		seg = st.Segment(sc.Id)
	}
	if seg != nil {
		seg.SetRange(sc.StartLed, sc.EndLed)
	} else {
		seg = st.AddSegment(sc.StartLed, sc.EndLed, sc.Name)
	}
	seg.SetBrightness(sc.Brightness)
	if !wantEffect {
		seg.ClearEffect()
		return nil
	}
	e := effects.New(sc.Effect, seg)
	applyParameters(e, sc.Parameters)
	seg.SetEffect(e)
	return nil
}

// applyParameters sets every key present in the document on the matching
// registry parameter, coercing JSON numbers to the registered kind. Keys
// with no matching parameter and values that cannot be coerced are skipped;
// parameters absent from the document keep their constructed defaults.
func applyParameters(e pixelstrip.Effect, params map[string]interface{}) {
	for name, raw := range params {
		p := e.LookupParameter(name)
		if p == nil {
			continue
		}
		switch p.Kind {
		case pixelstrip.KIND_INTEGER:
			if v, ok := raw.(float64); ok {
				p.Set(int(v))
			}
		case pixelstrip.KIND_FLOAT:
			if v, ok := raw.(float64); ok {
				p.Set(v)
			}
		case pixelstrip.KIND_COLOR:
			if v, ok := raw.(float64); ok && v >= 0 {
				p.Set(uint32(v))
			}
		case pixelstrip.KIND_BOOLEAN:
			if v, ok := raw.(bool); ok {
				p.Set(v)
			}
		}
	}
}
