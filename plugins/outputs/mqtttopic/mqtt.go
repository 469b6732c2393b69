package mqtttopic

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/cert-lv/abusefinder/pdk"
)

/*
 * Check "pdk/plugin.go" for the built-in plugin functions description
 */

func (p *Plugin) Conf() *pdk.Output {
	return p.output
}

func (p *Plugin) Setup(output *pdk.Output) error {

	opts, err := p.parse(output)
	if err != nil {
		return err
	}

	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(output.Timeout) {
		// Stop the connection attempt going on in background
		client.Disconnect(0)
		return fmt.Errorf("Can't connect to '%s': timeout", output.Access["broker"])
	}
	if token.Error() != nil {
		return fmt.Errorf("Can't connect to '%s': %s", output.Access["broker"], token.Error().Error())
	}

	p.client = client

	return nil
}

/*
 * Validate necessary parameters and store settings
 */
func (p *Plugin) parse(output *pdk.Output) (*mqtt.ClientOptions, error) {
	if output.Access["broker"] == "" {
		return nil, fmt.Errorf("'access.broker' is not defined")
	} else if output.Access["topic"] == "" {
		return nil, fmt.Errorf("'access.topic' is not defined")
	}

	p.qos = 0
	if output.Access["qos"] != "" {
		qos, err := strconv.Atoi(output.Access["qos"])
		if err != nil || qos < 0 || qos > 2 {
			return nil, fmt.Errorf("'access.qos' must be 0, 1 or 2")
		}
		p.qos = byte(qos)
	}

	p.retained = output.Access["retained"] == "true"

	// Client ID must be unique for the broker
	clientID := output.Access["clientID"]
	if clientID == "" {
		clientID = "abusefinder-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(output.Access["broker"])
	opts.SetClientID(clientID)
	opts.SetUsername(output.Access["user"])
	opts.SetPassword(output.Access["password"])
	opts.SetConnectTimeout(output.Timeout)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(1 * time.Minute)

	p.output = output
	p.topic = output.Access["topic"]

	return opts, nil
}

func (p *Plugin) Publish(ctx context.Context, event *pdk.Event) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("Can't encode an event: %s", err.Error())
	}

	token := p.client.Publish(p.topic, p.qos, p.retained, b)

	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("Can't publish to '%s': %s", p.topic, token.Error().Error())
		}
		return nil

	case <-ctx.Done():
		return fmt.Errorf("Can't publish to '%s': %s", p.topic, ctx.Err().Error())
	}
}

func (p *Plugin) Stop() error {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}

	return nil
}
