package abusecontact

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cert-lv/abusefinder/pdk"
)

/*
 * Fake lookup service, counts received requests
 */
func newService(t *testing.T, body string, status int) (*httptest.Server, *int32) {
	calls := new(int32)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)

		if r.Method != "GET" {
			t.Errorf("Unexpected method: %s", r.Method)
		}

		if r.URL.Query().Get("resource") == "" {
			t.Errorf("No 'resource' in query: %s", r.URL.RawQuery)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))

	t.Cleanup(server.Close)

	return server, calls
}

/*
 * Test response and request fields merging
 */
func TestLookup(t *testing.T) {

	server, calls := newService(t, `{"status":"ok","data":{"abuse_contacts":["a@b.com"]}}`, http.StatusOK)
	c := &Connector{URL: server.URL}

	req := &LookupRequest{
		IP:   "192.0.2.1",
		Host: "h",
		Type: "spam",
		Logs: "l1",
	}

	result, debug, err := c.Lookup(context.Background(), req)
	if err != nil {
		t.Fatalf("Can't lookup: %s", err.Error())
	}

	if atomic.LoadInt32(calls) != 1 {
		t.Errorf("Invalid amount of requests: %d, expected: 1", *calls)
	}

	expected := map[string]interface{}{
		"status": "ok",
		"logs":   "l1",
		"ip":     "192.0.2.1",
		"host":   "h",
		"type":   "spam",
	}

	for k, v := range expected {
		if result[k] != v {
			t.Errorf("Invalid result's '%s': %v, expected: %v", k, result[k], v)
		}
	}

	if len(result) != len(expected)+1 {
		t.Errorf("Unexpected result fields: %v", result)
	}

	contacts := result["data"].(map[string]interface{})["abuse_contacts"].([]interface{})
	if len(contacts) != 1 || contacts[0] != "a@b.com" {
		t.Errorf("Invalid abuse contacts: %v", contacts)
	}

	if debug["status"] != http.StatusOK {
		t.Errorf("Invalid debug status: %v", debug["status"])
	}

	if _, ok := debug["response"]; ok {
		t.Errorf("Response body is in debug info without 'debug' option")
	}

	if debug["query"] != server.URL+"?resource=192.0.2.1" {
		t.Errorf("Invalid debug query: %v", debug["query"])
	}
}

/*
 * Test request fields overwrite the same response fields
 */
func TestLookupOverwrite(t *testing.T) {

	server, _ := newService(t, `{"ip":"203.0.113.9","host":"other","type":1,"logs":null}`, http.StatusOK)
	c := &Connector{URL: server.URL}

	result, _, err := c.Lookup(context.Background(), &LookupRequest{IP: "192.0.2.1"})
	if err != nil {
		t.Fatalf("Can't lookup: %s", err.Error())
	}

	expected := map[string]interface{}{
		"ip":   "192.0.2.1",
		"host": "",
		"type": "",
		"logs": "",
	}

	for k, v := range expected {
		if result[k] != v {
			t.Errorf("Field '%s' is not overwritten: %v, expected: %v", k, result[k], v)
		}
	}
}

/*
 * Test surrounding spaces of the IP are not sent
 */
func TestLookupTrim(t *testing.T) {

	var resource string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resource = r.URL.Query().Get("resource")
		fmt.Fprint(w, `{"status":"ok"}`)
	}))
	defer server.Close()

	c := &Connector{URL: server.URL}

	result, debug, err := c.Lookup(context.Background(), &LookupRequest{IP: " 192.0.2.1\n"})
	if err != nil {
		t.Fatalf("Can't lookup: %s", err.Error())
	}

	if resource != "192.0.2.1" {
		t.Errorf("Invalid requested resource: %q, expected: %q", resource, "192.0.2.1")
	}

	if debug["query"] != server.URL+"?resource=192.0.2.1" {
		t.Errorf("Invalid debug query: %v", debug["query"])
	}

	if result["ip"] != "192.0.2.1" {
		t.Errorf("Invalid result's IP: %q", result["ip"])
	}
}

/*
 * Test lookup failures
 */
func TestLookupErrors(t *testing.T) {

	// Not a JSON
	server, _ := newService(t, `<html>Bad gateway</html>`, http.StatusBadGateway)
	c := &Connector{URL: server.URL}

	_, debug, err := c.Lookup(context.Background(), &LookupRequest{IP: "192.0.2.1"})

	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Errorf("No decode error for a non-JSON body: %v", err)
	}

	if debug["status"] != http.StatusBadGateway {
		t.Errorf("Status is not reported: %v", debug["status"])
	}

	// JSON, but not an object
	server, _ = newService(t, `null`, http.StatusOK)
	c = &Connector{URL: server.URL}

	_, _, err = c.Lookup(context.Background(), &LookupRequest{IP: "192.0.2.1"})
	if !errors.As(err, &derr) {
		t.Errorf("No decode error for a 'null' body: %v", err)
	}

	// Service is down
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	c = &Connector{URL: down.URL}

	_, _, err = c.Lookup(context.Background(), &LookupRequest{IP: "192.0.2.1"})

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Errorf("No transport error when service is down: %v", err)
	}

	// No IP, no request
	server, calls := newService(t, `{}`, http.StatusOK)
	c = &Connector{URL: server.URL}

	_, _, err = c.Lookup(context.Background(), &LookupRequest{})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("No validation error for an empty IP: %v", err)
	}

	if atomic.LoadInt32(calls) != 0 {
		t.Errorf("Request is sent without IP")
	}
}

/*
 * Test agent's run with and without events emission
 */
func TestCheck(t *testing.T) {

	server, calls := newService(t, `{"status":"ok"}`, http.StatusOK)

	table := []struct {
		emit  string
		debug string
		count int
	}{
		{"true", "false", 1},
		{"false", "false", 0},
		{"true", "true", 1},
	}

	for _, row := range table {
		p := New()

		err := p.Setup(&pdk.Agent{
			Name:    "abuse",
			Timeout: 5 * time.Second,
			Access:  map[string]string{"url": server.URL},
			Options: map[string]interface{}{
				"ip":          "192.0.2.1",
				"emit_events": row.emit,
				"debug":       row.debug,
			},
		})
		if err != nil {
			t.Fatalf("Can't setup an agent: %s", err.Error())
		}

		before := atomic.LoadInt32(calls)

		payloads, debug, err := p.Check(context.Background())
		if err != nil {
			t.Errorf("Can't check with emit_events=%s: %s", row.emit, err.Error())
			continue
		}

		if atomic.LoadInt32(calls) != before+1 {
			t.Errorf("Lookup is not done with emit_events=%s", row.emit)
		}

		if len(payloads) != row.count {
			t.Errorf("Invalid amount of payloads with emit_events=%s: %d, expected: %d", row.emit, len(payloads), row.count)
		}

		if _, ok := debug["response"]; ok != (row.debug == "true") {
			t.Errorf("Invalid debug info with debug=%s: %v", row.debug, debug)
		}
	}
}

/*
 * Test options interpolation by the received event
 */
func TestReceive(t *testing.T) {

	var resource string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resource = r.URL.Query().Get("resource")
		fmt.Fprint(w, `{"status":"ok"}`)
	}))
	defer server.Close()

	p := New()

	err := p.Setup(&pdk.Agent{
		Name:   "abuse",
		Access: map[string]string{"url": server.URL},
		Options: map[string]interface{}{
			"ip":   "{{ ip }}",
			"host": "{{ host }}",
			"type": "{{ jail }}",
		},
	})
	if err != nil {
		t.Fatalf("Can't setup an agent: %s", err.Error())
	}

	event := pdk.NewEvent("fail2ban", map[string]interface{}{
		"ip":   "198.51.100.7",
		"host": "web1",
		"jail": "nginx-botsearch",
	})

	payloads, _, err := p.Receive(context.Background(), event)
	if err != nil {
		t.Fatalf("Can't receive an event: %s", err.Error())
	}

	if resource != "198.51.100.7" {
		t.Errorf("Invalid requested resource: %s", resource)
	}

	if payloads[0]["host"] != "web1" || payloads[0]["type"] != "nginx-botsearch" {
		t.Errorf("Event fields are not interpolated: %v", payloads[0])
	}

	// Template options must stay untouched for the next events
	if p.Conf().Options["ip"] != "{{ ip }}" {
		t.Errorf("Options are modified: %v", p.Conf().Options)
	}
}

/*
 * Test configuration time validation
 */
func TestSetup(t *testing.T) {

	table := []struct {
		agent *pdk.Agent
		valid bool
	}{
		{&pdk.Agent{Options: map[string]interface{}{"ip": "192.0.2.1"}}, true},
		{&pdk.Agent{Options: map[string]interface{}{"ip": "{{ ip }}"}}, true},
		{&pdk.Agent{}, false},
		{&pdk.Agent{Options: map[string]interface{}{"ip": "192.0.2.1", "debug": "maybe"}}, false},
		{&pdk.Agent{Options: map[string]interface{}{"ip": "192.0.2.1", "expected_receive_period_in_days": "0"}}, false},
		{&pdk.Agent{Options: map[string]interface{}{"ip": "192.0.2.1"}, Access: map[string]string{"url": "ftp://x"}}, false},
		{&pdk.Agent{Options: map[string]interface{}{"ip": "{{ ip | strip }}"}}, false},
		{&pdk.Agent{Options: map[string]interface{}{"ip": "{{ ip }}", "logs": "{{ logs | join: ', ' }}"}}, false},
	}

	for _, row := range table {
		err := New().Setup(row.agent)

		if row.valid && err != nil {
			t.Errorf("Valid agent %v rejected: %s", row.agent.Options, err.Error())
		} else if !row.valid && err == nil {
			t.Errorf("Invalid agent %v accepted", row.agent.Options)
		}
	}
}

/*
 * Test template filters are reported for the right option
 */
func TestSetupFilters(t *testing.T) {

	err := New().Setup(&pdk.Agent{
		Options: map[string]interface{}{
			"ip": "{{ ip | strip }}",
		},
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("No validation error for a template filter: %v", err)
	}

	if verr.Option != "ip" || !strings.Contains(verr.Reason, "{{ ip | strip }}") {
		t.Errorf("Invalid validation error: %s", verr.Error())
	}
}

/*
 * Test agent's working state
 */
func TestWorking(t *testing.T) {

	p := New()

	err := p.Setup(&pdk.Agent{
		Options: map[string]interface{}{
			"ip":                              "192.0.2.1",
			"expected_receive_period_in_days": 3,
		},
	})
	if err != nil {
		t.Fatalf("Can't setup an agent: %s", err.Error())
	}

	state := pdk.NewState()
	if p.Working(state) {
		t.Errorf("Agent without events is working")
	}

	state.EventCreated(time.Now().Add(-48 * time.Hour))
	if !p.Working(state) {
		t.Errorf("Agent with a fresh event is not working")
	}

	state.ErrorLogged(time.Now(), "Can't do an HTTP request")
	if p.Working(state) {
		t.Errorf("Agent with a recent error is working")
	}

	state = pdk.NewState()
	state.EventCreated(time.Now().Add(-96 * time.Hour))
	if p.Working(state) {
		t.Errorf("Agent with a stale event is working")
	}
}
