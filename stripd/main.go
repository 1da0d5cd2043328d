package main

import (
	"flag"
	"os"
	"time"

	"github.com/btittelbach/pubsub"

	"github.com/ravelights/strip_controller/bleproto"
	"github.com/ravelights/strip_controller/pixelstrip"
	"github.com/ravelights/strip_controller/stripconfig"
)

// ---------- Main Code -------------

var (
	enable_syslog_ bool
	enable_debug_  bool
)

const (
	DEFAULT_SC_MQTT_BROKER    string = "tcp://127.0.0.1:1883"
	DEFAULT_SC_MQTT_CLIENTID  string = "stripd"
	DEFAULT_SC_CONFIG_FILE    string = "/var/lib/stripd/strip_config.json"
	DEFAULT_SC_TTY_PATH       string = "/dev/ttyAMA0"
	DEFAULT_SC_HTTP_INTERFACE string = ":8080"
	DEFAULT_SC_OPC_SERVER     string = "localhost:7890"
	DEFAULT_SC_LED_COUNT      int    = 144
)

const (
	FRAME_INTERVAL  = 20 * time.Millisecond
	STATUS_INTERVAL = 2 * time.Second
)

func init() {
	flag.BoolVar(&enable_syslog_, "syslog", false, "enable logging to syslog")
	flag.BoolVar(&enable_debug_, "debug", false, "enable debug output")
	flag.Parse()
}

func EnvironOrDefault(envvarname, defvalue string) string {
	if len(os.Getenv(envvarname)) > 0 {
		return os.Getenv(envvarname)
	}
	return defvalue
}

// makeFrameSink connects the Open Pixel Control server or, when none is
// reachable, falls back to discarding frames so the controller still
// answers the protocol.
func makeFrameSink() pixelstrip.FrameSink {
	server := EnvironOrDefault("SC_OPC_SERVER", DEFAULT_SC_OPC_SERVER)
	if server == "off" {
		return pixelstrip.DiscardSink{}
	}
	sink, err := NewOPCSink(server)
	if err != nil {
		Syslog_.Printf("could not reach OPC server %s, running without pixel output: %s", server, err)
		return pixelstrip.DiscardSink{}
	}
	Syslog_.Printf("pixel output via OPC server %s", server)
	return sink
}

func main() {
	// Logging
	if enable_syslog_ {
		LogEnableSyslog()
	}
	if enable_debug_ {
		LogEnableDebuglog()
	}
	Syslog_.Print("started")
	defer Syslog_.Print("exiting")

	// Persisted configuration. Missing or malformed files boot the default
	// strip; the saved LED count wins over the environment.
	store := stripconfig.NewStore(EnvironOrDefault("SC_CONFIG_FILE", DEFAULT_SC_CONFIG_FILE))
	cfg, have_cfg := store.Load()
	ledcount := DEFAULT_SC_LED_COUNT
	if have_cfg && cfg.LedCount >= 1 && cfg.LedCount <= bleproto.MAX_LED_COUNT {
		ledcount = cfg.LedCount
	}

	strip := pixelstrip.NewStrip(ledcount, 255, makeFrameSink())
	if have_cfg {
		if skipped := stripconfig.Apply(cfg, strip); len(skipped) > 0 {
			Syslog_.Printf("saved config referenced unknown effects, skipped: %v", skipped)
		}
		Syslog_.Printf("restored configuration: %d leds, %d segments", ledcount, len(strip.Segments()))
	} else {
		Syslog_.Printf("no saved configuration, booting default strip with %d leds", ledcount)
	}

	// Connect to MQTT Broker: inbound command frames, outbound reply frames,
	// trigger events onto the in-process bus
	mqttc := ConnectMQTTBroker(EnvironOrDefault("SC_MQTT_BROKER", DEFAULT_SC_MQTT_BROKER), EnvironOrDefault("SC_MQTT_CLIENTID", DEFAULT_SC_MQTT_CLIENTID))
	defer mqttc.Disconnect(20)
	frame_chan := SubscribeFramesToChannel(mqttc, TOPIC_CMD)

	ps := pubsub.New(10)
	trigger_chan := ps.Sub(PS_TRIGGER, PS_MOTION)
	SubscribeTriggersToPubSub(mqttc, ps)

	dispatcher := bleproto.NewDispatcher(strip, store, MakeFramePublisher(mqttc), func() {
		Syslog_.Print("restart requested, exiting for service manager respawn")
		os.Exit(0)
	})
	dispatcher.SetLogger(Syslog_.Printf)
	dispatcher.SendReady()

	// Serial maintenance console, optional
	console_wr, console_rd, err := OpenAndHandleConsole(EnvironOrDefault("SC_TTY_PATH", DEFAULT_SC_TTY_PATH))
	if err != nil {
		Syslog_.Printf("no serial console: %s", err)
		console_rd = nil
	} else {
		defer close(console_wr)
	}

	// Status Webserver
	UpdateStatusJSON(dispatcher)
	go goRunWebserver(EnvironOrDefault("SC_HTTP_INTERFACE", DEFAULT_SC_HTTP_INTERFACE))

	// All strip and dispatcher mutation happens in this loop, nowhere else.
	frame_ticker := time.NewTicker(FRAME_INTERVAL)
	status_ticker := time.NewTicker(STATUS_INTERVAL)
	for {
		select {
		case frame, is_notclosed := <-frame_chan:
			if !is_notclosed {
				Syslog_.Print("mqtt frame chan closed, exiting")
				os.Exit(1)
			}
			Debug_.Printf("inbound frame % x", frame)
			dispatcher.Dispatch(frame)
		case <-notify_on_connect_chan_:
			dispatcher.SendReady()
		case line, is_notclosed := <-console_rd:
			if !is_notclosed {
				Syslog_.Print("serial console disappeared")
				console_rd = nil
				continue
			}
			if reply := HandleTextCommand(dispatcher, store, line); len(reply) > 0 {
				console_wr <- reply
			}
		case evnt := <-trigger_chan:
			switch te := evnt.(type) {
			case AudioTrigger:
				strip.PropagateTriggerState(te.Active, te.Level)
			case MotionTrigger:
				strip.PropagateAcceleration(te.X, te.Y, te.Z)
			}
		case now := <-frame_ticker.C:
			dispatcher.Tick(now)
			strip.UpdateAll(now)
			if err := strip.Show(); err != nil {
				Debug_.Printf("frame sink error: %s", err)
			}
		case <-status_ticker.C:
			UpdateStatusJSON(dispatcher)
		}
	}
}
