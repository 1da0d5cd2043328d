package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ravelights/strip_controller/bleproto"
	"github.com/ravelights/strip_controller/effects"
	"github.com/ravelights/strip_controller/pixelstrip"
	"github.com/ravelights/strip_controller/stripconfig"
)

// ---------- Console Command Handling Code -------------

// The console is a thin human-readable adapter over the same dispatcher
// operations the binary protocol calls. It never touches the strip
// directly.

type TextCmdHandler struct {
	Checker func(tokens []string) error
	Handler func(d *bleproto.Dispatcher, store *stripconfig.Store, tokens []string) (string, error)
}

var cmdToTextCmdHandler map[string]TextCmdHandler

func init() {
	cmdToTextCmdHandler = map[string]TextCmdHandler{
		"help":           TextCmdHandler{checkCmdNoArgs, cmdHelp},
		"listeffects":    TextCmdHandler{checkCmdNoArgs, cmdListEffects},
		"listsegments":   TextCmdHandler{checkCmdNoArgs, cmdListSegments},
		"addsegment":     TextCmdHandler{checkCmdAddSegment, cmdAddSegment},
		"clearsegments":  TextCmdHandler{checkCmdNoArgs, cmdClearSegments},
		"select":         TextCmdHandler{checkCmdOneInt, cmdSelect},
		"seteffect":      TextCmdHandler{checkCmdOneArg, cmdSetEffect},
		"setparam":       TextCmdHandler{checkCmdSetParam, cmdSetParam},
		"getparams":      TextCmdHandler{checkCmdNoArgs, cmdGetParams},
		"getledcount":    TextCmdHandler{checkCmdNoArgs, cmdGetLedCount},
		"setledcount":    TextCmdHandler{checkCmdOneInt, cmdSetLedCount},
		"saveconfig":     TextCmdHandler{checkCmdNoArgs, cmdSaveConfig},
		"getcurrconfig":  TextCmdHandler{checkCmdNoArgs, cmdGetCurrConfig},
		"getsavedconfig": TextCmdHandler{checkCmdNoArgs, cmdGetSavedConfig},
		"batchconfig":    TextCmdHandler{checkCmdHasArgs, cmdBatchConfig},
	}
}

// HandleTextCommand executes one console line and returns the reply text.
// Keywords are case-insensitive; errors come back as "Err: ..." lines
// instead of propagating.
func HandleTextCommand(d *bleproto.Dispatcher, store *stripconfig.Store, line string) string {
	tokens := strings.Fields(line)
	if len(tokens) < 1 {
		return ""
	}
	tch, present := cmdToTextCmdHandler[strings.ToLower(tokens[0])]
	if !present {
		return "Err: unknown command, try help"
	}
	if err := tch.Checker(tokens); err != nil {
		return "Err: " + err.Error()
	}
	reply, err := tch.Handler(d, store, tokens)
	if err != nil {
		return "Err: " + err.Error()
	}
	return reply
}

func checkCmdNoArgs(tokens []string) error {
	if len(tokens) != 1 {
		return errors.New("command does not accept arguments")
	}
	return nil
}

func checkCmdOneArg(tokens []string) error {
	if len(tokens) != 2 {
		return errors.New("command takes exactly one argument")
	}
	return nil
}

func checkCmdHasArgs(tokens []string) error {
	if len(tokens) < 2 {
		return errors.New("command needs arguments")
	}
	return nil
}

func checkCmdOneInt(tokens []string) error {
	if len(tokens) != 2 {
		return errors.New("command takes exactly one numeric argument")
	}
	if _, err := strconv.Atoi(tokens[1]); err != nil {
		return errors.New("argument must be a number")
	}
	return nil
}

func checkCmdAddSegment(tokens []string) error {
	usage := "syntax: addsegment <startled> <endled> <name>"
	if len(tokens) != 4 {
		return errors.New(usage)
	}
	if _, err := strconv.Atoi(tokens[1]); err != nil {
		return errors.New(usage)
	}
	if _, err := strconv.Atoi(tokens[2]); err != nil {
		return errors.New(usage)
	}
	return nil
}

func checkCmdSetParam(tokens []string) error {
	if len(tokens) != 3 {
		return errors.New("syntax: setparam <name> <value>")
	}
	return nil
}

func cmdHelp(d *bleproto.Dispatcher, store *stripconfig.Store, tokens []string) (string, error) {
	verbs := make([]string, 0, len(cmdToTextCmdHandler))
	for verb := range cmdToTextCmdHandler {
		verbs = append(verbs, verb)
	}
	sort.Strings(verbs)
	return "commands: " + strings.Join(verbs, " "), nil
}

func cmdListEffects(d *bleproto.Dispatcher, store *stripconfig.Store, tokens []string) (string, error) {
	return "effects: " + strings.Join(effects.Names, " "), nil
}

func cmdListSegments(d *bleproto.Dispatcher, store *stripconfig.Store, tokens []string) (string, error) {
	var sb strings.Builder
	for _, s := range d.Strip().Segments() {
		effectname := "None"
		if e := s.Effect(); e != nil {
			effectname = e.Name()
		}
		fmt.Fprintf(&sb, "segment %d %q [%d..%d] brightness %d effect %s\r\n", s.Id(), s.Name(), s.Start(), s.End(), s.Brightness(), effectname)
	}
	fmt.Fprintf(&sb, "selected: %d", d.Selected())
	return sb.String(), nil
}

func cmdAddSegment(d *bleproto.Dispatcher, store *stripconfig.Store, tokens []string) (string, error) {
	start, _ := strconv.Atoi(tokens[1])
	end, _ := strconv.Atoi(tokens[2])
	seg := d.Strip().AddSegment(start, end, tokens[3])
	return fmt.Sprintf("Ok: segment %d added [%d..%d]", seg.Id(), seg.Start(), seg.End()), nil
}

func cmdClearSegments(d *bleproto.Dispatcher, store *stripconfig.Store, tokens []string) (string, error) {
	d.ClearSegments()
	return "Ok: segments cleared", nil
}

func cmdSelect(d *bleproto.Dispatcher, store *stripconfig.Store, tokens []string) (string, error) {
	idx, _ := strconv.Atoi(tokens[1])
	if err := d.SelectSegment(idx); err != nil {
		return "", err
	}
	return fmt.Sprintf("Ok: segment %d selected", idx), nil
}

func cmdSetEffect(d *bleproto.Dispatcher, store *stripconfig.Store, tokens []string) (string, error) {
	if err := d.SetEffect(d.Selected(), tokens[1]); err != nil {
		return "", err
	}
	return "Ok: effect set", nil
}

func cmdSetParam(d *bleproto.Dispatcher, store *stripconfig.Store, tokens []string) (string, error) {
	seg := d.Strip().Segment(d.Selected())
	if seg == nil {
		return "", errors.New("no segment selected")
	}
	e := seg.Effect()
	if e == nil {
		return "", errors.New("no active effect on selected segment")
	}
	p := e.LookupParameter(tokens[1])
	if p == nil {
		return "", fmt.Errorf("unknown parameter %q", tokens[1])
	}
	value, err := parseParamValue(p.Kind, tokens[2])
	if err != nil {
		return "", err
	}
	if err := d.SetParameter(d.Selected(), tokens[1], value); err != nil {
		return "", err
	}
	return "Ok: parameter set", nil
}

// parseParamValue converts console text to the registered kind. Colors
// accept 0xRRGGBB hex or plain decimal.
func parseParamValue(kind pixelstrip.ParamKind, text string) (interface{}, error) {
	switch kind {
	case pixelstrip.KIND_INTEGER:
		v, err := strconv.Atoi(text)
		if err != nil {
			return nil, errors.New("value must be an integer")
		}
		return v, nil
	case pixelstrip.KIND_FLOAT:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errors.New("value must be a number")
		}
		return v, nil
	case pixelstrip.KIND_COLOR:
		v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(text), "0x"), 16, 32)
		if err != nil {
			return nil, errors.New("value must be a hex color like 0xFF8800")
		}
		return uint32(v), nil
	case pixelstrip.KIND_BOOLEAN:
		switch strings.ToLower(text) {
		case "on", "true", "1":
			return true, nil
		case "off", "false", "0":
			return false, nil
		}
		return nil, errors.New("value must be on or off")
	}
	return nil, errors.New("unknown parameter kind")
}

func cmdGetParams(d *bleproto.Dispatcher, store *stripconfig.Store, tokens []string) (string, error) {
	seg := d.Strip().Segment(d.Selected())
	if seg == nil {
		return "", errors.New("no segment selected")
	}
	e := seg.Effect()
	if e == nil {
		return "", errors.New("no active effect on selected segment")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "effect %s:", e.Name())
	for i := 0; i < e.ParameterCount(); i++ {
		p := e.Parameter(i)
		if p.Kind == pixelstrip.KIND_COLOR {
			fmt.Fprintf(&sb, "\r\n  %s (%s) = 0x%06X", p.Name, p.Kind, p.Value)
		} else {
			fmt.Fprintf(&sb, "\r\n  %s (%s) = %v", p.Name, p.Kind, p.Value)
		}
	}
	return sb.String(), nil
}

func cmdGetLedCount(d *bleproto.Dispatcher, store *stripconfig.Store, tokens []string) (string, error) {
	return fmt.Sprintf("ledcount: %d", d.Strip().LedCount()), nil
}

func cmdSetLedCount(d *bleproto.Dispatcher, store *stripconfig.Store, tokens []string) (string, error) {
	n, _ := strconv.Atoi(tokens[1])
	if err := d.SetLedCount(n); err != nil {
		return "", err
	}
	Syslog_.Printf("led count changed to %d via console, restarting", n)
	d.Restart()
	return "Ok: saved, restarting", nil
}

func cmdSaveConfig(d *bleproto.Dispatcher, store *stripconfig.Store, tokens []string) (string, error) {
	if err := d.SaveConfig(); err != nil {
		return "", err
	}
	return "Ok: config saved", nil
}

func cmdGetCurrConfig(d *bleproto.Dispatcher, store *stripconfig.Store, tokens []string) (string, error) {
	data, err := stripconfig.Marshal(stripconfig.Snapshot(d.Strip()))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func cmdGetSavedConfig(d *bleproto.Dispatcher, store *stripconfig.Store, tokens []string) (string, error) {
	data, err := store.Raw()
	if err != nil {
		return "", errors.New("no saved configuration")
	}
	return string(data), nil
}

func cmdBatchConfig(d *bleproto.Dispatcher, store *stripconfig.Store, tokens []string) (string, error) {
	doc := strings.Join(tokens[1:], " ")
	cfg, err := stripconfig.Unmarshal([]byte(doc))
	if err != nil {
		return "", err
	}
	skipped := stripconfig.Apply(cfg, d.Strip())
	if len(skipped) > 0 {
		return "Ok: applied, skipped unknown effects: " + strings.Join(skipped, " "), nil
	}
	return "Ok: applied", nil
}
