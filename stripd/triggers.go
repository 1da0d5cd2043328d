package main

import (
	"encoding/json"

	"github.com/btittelbach/pubsub"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Trigger events published by external sensor daemons (beat detector,
// accelerometer bridge). They fan out to the effects that consume them.
const (
	TOPIC_TRIGGER_AUDIO  string = "ledstrip/trigger/audio"
	TOPIC_TRIGGER_MOTION string = "ledstrip/trigger/motion"

	PS_TRIGGER string = "trigger"
	PS_MOTION  string = "motion"
)

type AudioTrigger struct {
	Active bool  `json:"active"`
	Level  uint8 `json:"level"`
	Ts     int64 `json:"ts"`
}

type MotionTrigger struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	Ts int64   `json:"ts"`
}

// SubscribeTriggersToPubSub bridges the trigger topics onto the in-process
// event bus. Malformed events are logged and dropped, they never reach the
// control loop.
func SubscribeTriggersToPubSub(mqttc mqtt.Client, ps *pubsub.PubSub) {
	tk := mqttc.Subscribe(TOPIC_TRIGGER_AUDIO, MQTT_QOS_NOCONFIRMATION, func(mqttc mqtt.Client, msg mqtt.Message) {
		var evnt AudioTrigger
		if err := json.Unmarshal(msg.Payload(), &evnt); err != nil {
			Syslog_.Printf("Error unmarshalling audio trigger: %s", err)
			return
		}
		ps.Pub(evnt, PS_TRIGGER)
	})
	tk.Wait()
	if tk.Error() != nil {
		Syslog_.Fatalf("Error subscribing to %s:%s", TOPIC_TRIGGER_AUDIO, tk.Error())
	}
	addSubscribedTopics(tk.(*mqtt.SubscribeToken).Result())

	tk = mqttc.Subscribe(TOPIC_TRIGGER_MOTION, MQTT_QOS_NOCONFIRMATION, func(mqttc mqtt.Client, msg mqtt.Message) {
		var evnt MotionTrigger
		if err := json.Unmarshal(msg.Payload(), &evnt); err != nil {
			Syslog_.Printf("Error unmarshalling motion trigger: %s", err)
			return
		}
		ps.Pub(evnt, PS_MOTION)
	})
	tk.Wait()
	if tk.Error() != nil {
		Syslog_.Fatalf("Error subscribing to %s:%s", TOPIC_TRIGGER_MOTION, tk.Error())
	}
	addSubscribedTopics(tk.(*mqtt.SubscribeToken).Result())
}
