/*
 * Abuse contact finder.
 *
 * Fetches abuse contacts of the IP address from the RIPEstat Data API
 * and creates an event with the API response and a few extra fields,
 * useful for the abuse report sent by the next agents
 */

package abusecontact

import (
	"net/http"

	"github.com/cert-lv/abusefinder/pdk"
)

/*
 * Plugin identity
 */
const (
	Name    = "abuse_contact_finder"
	Version = "1.0.0"
)

// RIPEstat "abuse-contact-finder" data call
const Endpoint = "https://stat.ripe.net/data/abuse-contact-finder/data.json"

/*
 * Structure to be used by the core as an agent plugin
 */
type Plugin struct {

	// Inherit default configuration fields
	agent *pdk.Agent

	// Custom fields
	connector *Connector
	period    int
}

/*
 * Connection to the lookup service, a single GET request per lookup
 */
type Connector struct {
	URL    string
	Client *http.Client
}

func New() *Plugin {
	return &Plugin{}
}

/*
 * Options of a newly created agent
 */
func DefaultOptions() map[string]interface{} {
	return map[string]interface{}{
		"ip":                              "",
		"host":                            "",
		"type":                            "",
		"logs":                            "",
		"debug":                           "false",
		"expected_receive_period_in_days": "2",
		"emit_events":                     "true",
	}
}
