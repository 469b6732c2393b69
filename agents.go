package main

import (
	"fmt"
	"os"

	"github.com/cert-lv/abusefinder/pdk"
	"github.com/cert-lv/abusefinder/plugins/agents/abusecontact"
	"github.com/cert-lv/abusefinder/plugins/outputs/console"
	"github.com/cert-lv/abusefinder/plugins/outputs/mongocollection"
	"github.com/cert-lv/abusefinder/plugins/outputs/mqtttopic"
	"github.com/cert-lv/abusefinder/plugins/outputs/redischannel"
)

var (
	// Known agent plugins, plugin name -> constructor
	agentPlugins = map[string]func() pdk.AgentPlugin{
		abusecontact.Name: func() pdk.AgentPlugin { return abusecontact.New() },
	}

	// Known output plugins, plugin name -> constructor
	outputPlugins = map[string]func() pdk.OutputPlugin{
		console.Name:         func() pdk.OutputPlugin { return console.New() },
		redischannel.Name:    func() pdk.OutputPlugin { return redischannel.New() },
		mongocollection.Name: func() pdk.OutputPlugin { return mongocollection.New() },
		mqtttopic.Name:       func() pdk.OutputPlugin { return mqtttopic.New() },
	}

	// Configured agents,
	// is a map of agent's name -> instance
	agents map[string]*agent

	// Configured outputs,
	// is a map of output's name -> related plugin
	outputs map[string]pdk.OutputPlugin
)

/*
 * Configured agent with its runtime data
 */
type agent struct {
	plugin  pdk.AgentPlugin
	outputs []pdk.OutputPlugin
	state   *pdk.State
	stats   *pdk.Stats
}

/*
 * Setup outputs of the emitted events.
 * Directory may be missing when no outputs are needed
 */
func setupOutputs() error {
	// Clear old content
	outputs = make(map[string]pdk.OutputPlugin)

	if _, err := os.Stat(config.Definitions + "/outputs"); os.IsNotExist(err) {
		log.Debug().Msg("No outputs directory found")
		return nil
	}

	files, err := definitionFiles("outputs")
	if err != nil {
		return err
	}

	for _, file := range files {
		def, err := loadOutput(file)
		if err != nil {
			log.Error().Msgf("Can't load output file '%s': %s", file, err.Error())
			continue
		}

		// Use needed plugin
		newPlugin, ok := outputPlugins[def.Plugin]
		if !ok {
			log.Error().
				Str("output", def.Name).
				Str("plugin", def.Plugin).
				Msg("No such plugin required by an output")
			continue
		}

		if _, exists := outputs[def.Name]; exists {
			log.Error().
				Str("output", def.Name).
				Msg("Output name is already used")
			continue
		}

		output := newPlugin()

		// Set current unique parameters
		err = output.Setup(def)
		if err != nil {
			log.Error().
				Str("output", def.Name).
				Str("plugin", def.Plugin).
				Msg("Can't setup: " + err.Error())
			continue
		}

		outputs[def.Name] = output

		log.Info().
			Str("output", def.Name).
			Str("plugin", def.Plugin).
			Msg("Output initialized")
	}

	return nil
}

/*
 * Setup agents of the predefined definitions.
 * Outputs must be ready before
 */
func setupAgents() error {
	// Clear old content
	agents = make(map[string]*agent)

	files, err := definitionFiles("agents")
	if err != nil {
		return err
	}

	for _, file := range files {
		def, err := loadAgent(file)
		if err != nil {
			log.Error().Msgf("Can't load agent file '%s': %s", file, err.Error())
			continue
		}

		a, err := newAgent(def)
		if err != nil {
			log.Error().
				Str("agent", def.Name).
				Str("plugin", def.Plugin).
				Msg("Can't setup: " + err.Error())
			continue
		}

		agents[def.Name] = a

		log.Info().
			Str("agent", def.Name).
			Str("plugin", def.Plugin).
			Strs("outputs", def.Outputs).
			Msg("Agent initialized")
	}

	if len(agents) == 0 {
		log.Warn().Msg("No agents initialized")
	}

	return nil
}

/*
 * Create an agent of the given definition
 * with its outputs
 */
func newAgent(def *pdk.Agent) (*agent, error) {
	newPlugin, ok := agentPlugins[def.Plugin]
	if !ok {
		return nil, fmt.Errorf("No such plugin '%s'", def.Plugin)
	}

	if _, exists := agents[def.Name]; exists {
		return nil, fmt.Errorf("Agent name '%s' is already used", def.Name)
	}

	plugin := newPlugin()

	// Options are validated here
	err := plugin.Setup(def)
	if err != nil {
		return nil, err
	}

	a := &agent{
		plugin:  plugin,
		outputs: []pdk.OutputPlugin{},
		state:   pdk.NewState(),
		stats:   pdk.NewStats(def.StatsFields...),
	}

	used := []string{}

	for _, name := range def.Outputs {
		if pdk.StringSliceContains(used, name) {
			continue
		}

		output, ok := outputs[name]
		if !ok {
			return nil, fmt.Errorf("Unknown output '%s'", name)
		}

		a.outputs = append(a.outputs, output)
		used = append(used, name)
	}

	return a, nil
}

/*
 * Stop agents and outputs on service exit
 */
func stopAll() {
	for name, a := range agents {
		err := a.plugin.Stop()

		if err != nil {
			log.Error().
				Str("agent", name).
				Msg("Can't stop the agent: " + err.Error())
		} else {
			log.Debug().
				Str("agent", name).
				Msg("Agent stopped")
		}
	}

	for name, output := range outputs {
		err := output.Stop()

		if err != nil {
			log.Error().
				Str("output", name).
				Msg("Can't stop the output: " + err.Error())
		} else {
			log.Debug().
				Str("output", name).
				Msg("Output stopped")
		}
	}
}
