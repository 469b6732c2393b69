/*
 * MQTT output.
 *
 * Publishes every event as a JSON message to the broker's topic
 */

package mqtttopic

import (
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/cert-lv/abusefinder/pdk"
)

const (
	Name    = "mqtt"
	Version = "1.0.0"
)

type Plugin struct {

	// Inherit default configuration fields
	output *pdk.Output

	// Custom fields
	client   mqtt.Client
	topic    string
	qos      byte
	retained bool
}

func New() *Plugin {
	return &Plugin{}
}
