package main

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const MQTT_QOS_NOCONFIRMATION byte = 0
const MQTT_QOS_REQCONFIRMATION byte = 1

// Topics of the wireless transport. Command frames arrive on TOPIC_CMD,
// every reply frame (ACK, NACK, pushed document, READY) goes out on
// TOPIC_REPLY. Trigger events use their own subtree, see triggers.go.
const (
	TOPIC_CMD   string = "ledstrip/cmd"
	TOPIC_REPLY string = "ledstrip/reply"
)

var mqtt_topics_we_subscribed_ map[string]byte
var mqtt_topics_we_subscribed_lock_ sync.RWMutex
var notify_on_connect_chan_ chan bool

func init() {
	mqtt_topics_we_subscribed_ = make(map[string]byte, 2)
	notify_on_connect_chan_ = make(chan bool, 2)
}

func addSubscribedTopics(subresult map[string]byte) {
	mqtt_topics_we_subscribed_lock_.Lock()
	defer mqtt_topics_we_subscribed_lock_.Unlock()
	for topic, qos := range subresult {
		if qos > 2 {
			Syslog_.Printf("addSubscribedTopics: not remembering topic since we didn't subscribe it successfully: %s (qos: %d)", topic, qos)
			continue
		}
		Debug_.Printf("addSubscribedTopics: remembering subscribed topic: %s (qos: %d)", topic, qos)
		mqtt_topics_we_subscribed_[topic] = qos
	}
}

func mqttOnConnectionHandler(mqttc mqtt.Client) {
	Syslog_.Print("MQTT connection to broker established. (re)subscribing topics")
	mqtt_topics_we_subscribed_lock_.RLock()
	defer mqtt_topics_we_subscribed_lock_.RUnlock()
	if len(mqtt_topics_we_subscribed_) > 0 {
		tk := mqttc.SubscribeMultiple(mqtt_topics_we_subscribed_, nil)
		tk.Wait()
		if tk.Error() != nil {
			Syslog_.Fatal("Error resubscribing on connect", tk.Error())
		}
	}
	// the control loop announces READY to the peer on every (re)connect
	select {
	case notify_on_connect_chan_ <- true:
	default:
	}
}

func ConnectMQTTBroker(brocker_addr, clientid string) mqtt.Client {
	options := mqtt.NewClientOptions().AddBroker(brocker_addr).SetAutoReconnect(true).SetKeepAlive(30 * time.Second).SetMaxReconnectInterval(2 * time.Minute)
	options = options.SetClientID(clientid).SetConnectionLostHandler(func(c mqtt.Client, err error) { Syslog_.Print("ERROR MQTT connection lost:", err) })
	options = options.SetOnConnectHandler(mqttOnConnectionHandler)
	c := mqtt.NewClient(options)
	tk := c.Connect()
	tk.Wait()
	if tk.Error() != nil {
		Syslog_.Fatal("Error connecting to mqtt broker", tk.Error())
	}
	return c
}

// SubscribeFramesToChannel forwards each message payload on filter as one
// command frame to the returned channel. Payload bytes are copied since the
// mqtt library reuses its buffers.
func SubscribeFramesToChannel(mqttc mqtt.Client, filter string) (channel chan []byte) {
	channel = make(chan []byte, 50)
	tk := mqttc.Subscribe(filter, MQTT_QOS_REQCONFIRMATION, func(mqttc mqtt.Client, msg mqtt.Message) {
		frame := make([]byte, len(msg.Payload()))
		copy(frame, msg.Payload())
		channel <- frame
	})
	tk.Wait()
	if tk.Error() != nil {
		Syslog_.Fatalf("Error subscribing to %s:%s", filter, tk.Error())
	}
	addSubscribedTopics(tk.(*mqtt.SubscribeToken).Result())
	return
}

// MakeFramePublisher returns the dispatcher's send primitive: one reply
// frame per publish, fire and forget.
func MakeFramePublisher(mqttc mqtt.Client) func(frame []byte) {
	return func(frame []byte) {
		Debug_.Printf("publishing reply frame % x", frame)
		mqttc.Publish(TOPIC_REPLY, MQTT_QOS_NOCONFIRMATION, false, frame)
	}
}
