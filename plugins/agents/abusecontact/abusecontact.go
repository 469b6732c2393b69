package abusecontact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/cert-lv/abusefinder/pdk"
)

/*
 * Check "pdk/plugin.go" for the built-in plugin functions description
 */

func (p *Plugin) Conf() *pdk.Agent {
	return p.agent
}

func (p *Plugin) Setup(agent *pdk.Agent) error {

	// Fill in the missing options
	if agent.Options == nil {
		agent.Options = make(map[string]interface{})
	}

	for k, v := range DefaultOptions() {
		if _, ok := agent.Options[k]; !ok {
			agent.Options[k] = v
		}
	}

	// Only plain field paths can be interpolated
	keys := make([]string, 0, len(agent.Options))
	for k := range agent.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if tag := pdk.UnsupportedTag(agent.Options[k]); tag != "" {
			return &ValidationError{k, "has unsupported template '" + tag + "', filters are not supported"}
		}
	}

	// Validate raw options, template tags are not replaced yet
	req, err := parseRequest(agent.Options)
	if err != nil {
		return err
	}

	// Lookup service can be replaced by a mirror
	url := Endpoint

	if agent.Access["url"] != "" {
		if !strings.HasPrefix(agent.Access["url"], "http") {
			return fmt.Errorf("'access.url' must start with 'http[s]://'")
		}
		url = agent.Access["url"]
	}

	// Store settings
	p.agent = agent
	p.period = req.ExpectedReceivePeriod
	p.connector = &Connector{
		URL:    url,
		Client: &http.Client{Timeout: agent.Timeout},
	}

	return nil
}

func (p *Plugin) Check(ctx context.Context) ([]map[string]interface{}, map[string]interface{}, error) {
	return p.fetch(ctx, map[string]interface{}{})
}

func (p *Plugin) Receive(ctx context.Context, event *pdk.Event) ([]map[string]interface{}, map[string]interface{}, error) {
	return p.fetch(ctx, event.Payload)
}

func (p *Plugin) Working(state *pdk.State) bool {
	return state.EventCreatedWithin(p.period) && !state.RecentErrorLogs()
}

func (p *Plugin) Stop() error {

	// No error to check, so return nil
	return nil
}

/*
 * Run a single lookup with the options interpolated
 * by the given event's fields
 */
func (p *Plugin) fetch(ctx context.Context, event map[string]interface{}) ([]map[string]interface{}, map[string]interface{}, error) {
	req, err := ResolveTemplates(p.agent.Options, event)
	if err != nil {
		return nil, nil, err
	}

	result, debug, err := p.connector.Lookup(ctx, req)
	if err != nil {
		return nil, debug, err
	}

	// The lookup is done anyway, only emission depends on the option
	if !req.EmitEvents {
		debug["emit"] = false
		return nil, debug, nil
	}

	return []map[string]interface{}{result}, debug, nil
}

/*
 * Query the lookup service for the requested IP
 * and merge request fields into the response.
 *
 * Returns the result, debug info & error
 */
func (c *Connector) Lookup(ctx context.Context, req *LookupRequest) (LookupResult, map[string]interface{}, error) {

	// Debug info
	debug := make(map[string]interface{})

	ip := strings.TrimSpace(req.IP)
	if ip == "" {
		return nil, debug, &ValidationError{"ip", "is a required field"}
	}

	// Create a request object
	r, err := http.NewRequestWithContext(ctx, "GET", c.URL, nil)
	if err != nil {
		return nil, debug, fmt.Errorf("Can't create a GET request: %s", err.Error())
	}

	query := r.URL.Query()
	query.Set("resource", ip)
	r.URL.RawQuery = query.Encode()
	r.Header.Add("Accept", "application/json")

	debug["query"] = r.URL.String()

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	// Send an HTTP request using a 'r' object
	resp, err := client.Do(r)
	if err != nil {
		return nil, debug, &TransportError{err}
	}

	body := &bytes.Buffer{}
	_, err = body.ReadFrom(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, debug, &TransportError{err}
	}

	// Status is reported only, error responses of the service are JSON as well
	debug["status"] = resp.StatusCode

	var payload map[string]interface{}

	err = json.Unmarshal(body.Bytes(), &payload)
	if err != nil {
		return nil, debug, &DecodeError{err}
	}

	if payload == nil {
		return nil, debug, &DecodeError{errors.New("response is not a JSON object")}
	}

	if req.Debug {
		debug["response"] = body.String()
	}

	payload["logs"] = req.Logs
	payload["ip"] = ip
	payload["host"] = req.Host
	payload["type"] = req.Type

	return payload, debug, nil
}
