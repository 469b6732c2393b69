package pdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

/*
 * Single event created by an agent.
 * Events are never modified after the creation
 */
type Event struct {
	ID        string                 `json:"id" bson:"_id"`
	Agent     string                 `json:"agent" bson:"agent"`
	Payload   map[string]interface{} `json:"payload" bson:"payload"`
	CreatedAt time.Time              `json:"createdAt" bson:"createdAt"`
}

/*
 * Create a new event of the given agent
 */
func NewEvent(agent string, payload map[string]interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Agent:     agent,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

/*
 * Parse incoming events.
 *
 * Accepts a single JSON object or an array of objects.
 * Object with a "payload" object inside is treated as a complete event,
 * otherwise the whole object becomes a payload of a new event
 */
func ParseEvents(data []byte) ([]*Event, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []*Event{}, nil
	}

	var objects []map[string]interface{}

	if data[0] == '[' {
		err := json.Unmarshal(data, &objects)
		if err != nil {
			return nil, fmt.Errorf("Can't parse events list: %s", err.Error())
		}
	} else {
		var object map[string]interface{}

		err := json.Unmarshal(data, &object)
		if err != nil {
			return nil, fmt.Errorf("Can't parse event: %s", err.Error())
		}

		objects = append(objects, object)
	}

	events := make([]*Event, 0, len(objects))

	for i, object := range objects {
		if object == nil {
			return nil, fmt.Errorf("Event #%d is not an object", i)
		}

		payload, ok := object["payload"].(map[string]interface{})
		if !ok {
			events = append(events, NewEvent("", object))
			continue
		}

		event := NewEvent("", payload)

		if id, ok := object["id"].(string); ok && id != "" {
			event.ID = id
		}

		if agent, ok := object["agent"].(string); ok {
			event.Agent = agent
		}

		if ts, ok := object["createdAt"].(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				event.CreatedAt = t
			}
		}

		events = append(events, event)
	}

	return events, nil
}
