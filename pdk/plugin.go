package pdk

import (
	"context"
)

/*
 * Plugin interface to be implemented by the agent plugins
 */
type AgentPlugin interface {
	// Return agent instance configuration
	Conf() *Agent

	// Validate and store options of the agent instance.
	// Invalid options are reported at the configuration time,
	// before any work is done
	Setup(*Agent) error

	// Run the agent manually, without any incoming event.
	// Returns payloads to be emitted as new events, debug info & error
	Check(context.Context) ([]map[string]interface{}, map[string]interface{}, error)

	// Handle a single event received from an upstream agent.
	// Returns payloads to be emitted as new events, debug info & error
	Receive(context.Context, *Event) ([]map[string]interface{}, map[string]interface{}, error)

	// Tell whether the agent is working as expected,
	// based on the state collected by the core service
	Working(*State) bool

	// Stop the agent when the core service stops
	Stop() error
}

/*
 * Plugin interface to be implemented by the output plugins,
 * the downstream consumers of the emitted events
 */
type OutputPlugin interface {
	// Return instance configuration
	Conf() *Output

	// Set specific parameters for the instance,
	// establish connection, etc.
	Setup(*Output) error

	// Deliver a single event
	Publish(context.Context, *Event) error

	// Gracefully disconnect when the core service stops
	Stop() error
}
