package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cert-lv/abusefinder/pdk"
	"github.com/cert-lv/abusefinder/plugins/agents/abusecontact"
)

/*
 * Write definition files into the temporary directory
 * and use it as the definitions root
 */
func writeDefinitions(t *testing.T, files map[string]string) {
	dir := t.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, name)

		err := os.MkdirAll(filepath.Dir(path), 0755)
		if err != nil {
			t.Fatalf("Can't create a directory: %s", err.Error())
		}

		err = os.WriteFile(path, []byte(content), 0644)
		if err != nil {
			t.Fatalf("Can't write a definition: %s", err.Error())
		}
	}

	old := config.Definitions
	config.Definitions = dir

	t.Cleanup(func() {
		stopAll()
		config.Definitions = old
		agents = nil
		outputs = nil
	})
}

/*
 * Test agents and outputs loading
 */
func TestSetupAgents(t *testing.T) {

	dir := t.TempDir()

	writeDefinitions(t, map[string]string{
		"outputs/console.yaml": `
name: file
plugin: console
access:
  file: ` + filepath.Join(dir, "events.log") + `
`,
		"outputs/unknown.yaml": `
name: nowhere
plugin: carrier-pigeon
`,
		"agents/finder.yaml": `
name: finder
plugin: abuse_contact_finder
timeout: 10s
options:
  ip: "{{ ip }}"
  expected_receive_period_in_days: 7
outputs:
  - file
  - file
`,
		"agents/invalid.yaml": `
name: invalid
plugin: abuse_contact_finder
options:
  debug: maybe
`,
		"agents/lost.yaml": `
name: lost
plugin: abuse_contact_finder
options:
  ip: 192.0.2.1
outputs:
  - nowhere
`,
		"agents/noname.yaml": `
plugin: abuse_contact_finder
`,
		"agents/notes.txt": `not a definition`,
	})

	err := setupOutputs()
	if err != nil {
		t.Fatalf("Can't setup outputs: %s", err.Error())
	}

	if len(outputs) != 1 || outputs["file"] == nil {
		t.Fatalf("Invalid outputs: %v", outputs)
	}

	err = setupAgents()
	if err != nil {
		t.Fatalf("Can't setup agents: %s", err.Error())
	}

	if len(agents) != 1 {
		t.Fatalf("Invalid amount of agents: %d, expected: 1", len(agents))
	}

	a, ok := agents["finder"]
	if !ok {
		t.Fatalf("Agent 'finder' expected")
	}

	if len(a.outputs) != 1 {
		t.Errorf("Duplicated outputs expected to be skipped, got: %d", len(a.outputs))
	}

	conf := a.plugin.Conf()
	if conf.Timeout != 10*time.Second {
		t.Errorf("Invalid timeout: %s", conf.Timeout)
	}

	// Defaults are filled in
	if conf.Options["emit_events"] != "true" {
		t.Errorf("Invalid default 'emit_events': %v", conf.Options["emit_events"])
	}
}

/*
 * Test outputs directory is optional
 */
func TestSetupNoOutputs(t *testing.T) {

	writeDefinitions(t, map[string]string{
		"agents/finder.yaml": `
name: finder
plugin: abuse_contact_finder
options:
  ip: 192.0.2.1
`,
	})

	err := setupOutputs()
	if err != nil {
		t.Fatalf("Can't setup outputs: %s", err.Error())
	}

	err = setupAgents()
	if err != nil {
		t.Fatalf("Can't setup agents: %s", err.Error())
	}

	a, ok := agents["finder"]
	if !ok {
		t.Fatalf("Agent 'finder' expected")
	}

	if a.plugin.Conf().Timeout != defaultTimeout {
		t.Errorf("Invalid default timeout: %s", a.plugin.Conf().Timeout)
	}
}

/*
 * Test agents directory is required
 */
func TestSetupNoAgents(t *testing.T) {

	writeDefinitions(t, map[string]string{})

	err := setupAgents()
	if err == nil {
		t.Errorf("Error expected for the missing agents directory")
	}
}

func TestNewAgent(t *testing.T) {

	agents = make(map[string]*agent)
	outputs = map[string]pdk.OutputPlugin{
		"fake": &fakeOutput{conf: &pdk.Output{Name: "fake"}},
	}

	t.Cleanup(func() {
		agents = nil
		outputs = nil
	})

	tests := []struct {
		name string
		def  *pdk.Agent
		ok   bool
	}{
		{
			"valid",
			&pdk.Agent{Name: "a", Plugin: abusecontact.Name, Options: map[string]interface{}{"ip": "192.0.2.1"}, Outputs: []string{"fake"}},
			true,
		},
		{
			"unknown plugin",
			&pdk.Agent{Name: "a", Plugin: "weather", Options: map[string]interface{}{"ip": "192.0.2.1"}},
			false,
		},
		{
			"unknown output",
			&pdk.Agent{Name: "a", Plugin: abusecontact.Name, Options: map[string]interface{}{"ip": "192.0.2.1"}, Outputs: []string{"fax"}},
			false,
		},
		{
			"missing ip",
			&pdk.Agent{Name: "a", Plugin: abusecontact.Name},
			false,
		},
		{
			"invalid period",
			&pdk.Agent{Name: "a", Plugin: abusecontact.Name, Options: map[string]interface{}{"ip": "192.0.2.1", "expected_receive_period_in_days": "0"}},
			false,
		},
		{
			"invalid url",
			&pdk.Agent{Name: "a", Plugin: abusecontact.Name, Access: map[string]string{"url": "ftp://mirror"}, Options: map[string]interface{}{"ip": "192.0.2.1"}},
			false,
		},
	}

	for _, test := range tests {
		_, err := newAgent(test.def)

		if test.ok && err != nil {
			t.Errorf("%s: unexpected error: %s", test.name, err.Error())
		} else if !test.ok && err == nil {
			t.Errorf("%s: error expected", test.name)
		}
	}
}
