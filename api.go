package main

import (
	"encoding/json"
	"net"
	"net/http"
	"sort"

	"github.com/cert-lv/abusefinder/pdk"
)

/*
 * Serves '/api' to run the requested agent.
 *
 * Without events the agent is checked once,
 * otherwise every given event is received separately
 */
func apiHandler(w http.ResponseWriter, r *http.Request) {
	// Get requestor IP
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		log.Error().Msg("User IP: " + r.RemoteAddr + " is not IP:port")
	}

	// User inputs:
	//   - agent name
	//   - output format
	//   - incoming events, JSON object or list
	//   - dry run, events are not published
	name := r.FormValue("agent")
	format := r.FormValue("format")
	raw := r.FormValue("events")
	dryRun, _ := pdk.Boolify(r.FormValue("dryRun"))

	// Response to send back
	response := &APIresponse{
		Events: []*pdk.Event{},
	}

	a, ok := agents[name]
	if !ok {
		response.Error = "Unknown agent requested"
		response.send(w, ip, name, format)

		log.Error().
			Str("ip", ip).
			Str("agent", name).
			Msg("Unknown agent requested")
		return
	}

	events, err := pdk.ParseEvents([]byte(raw))
	if err != nil {
		response.Error = err.Error()
		response.send(w, ip, name, format)

		log.Error().
			Str("ip", ip).
			Str("agent", name).
			Msg("Invalid events: " + err.Error())
		return
	}

	log.Info().
		Str("ip", ip).
		Str("agent", name).
		Int("events", len(events)).
		Bool("dryRun", dryRun).
		Msg("New request")

	created, err := a.run(r.Context(), events, dryRun)
	if created != nil {
		response.Events = created
	}
	if err != nil {
		response.Error = err.Error()
	}

	response.send(w, ip, name, format)
}

/*
 * Working state of a single agent
 */
type agentStatus struct {
	Name    string         `json:"name"`
	Plugin  string         `json:"plugin"`
	Working bool           `json:"working"`
	State   *pdk.StateInfo `json:"state"`
}

/*
 * Collect working states of all the configured agents,
 * sorted by the agent name
 */
func agentStatuses() ([]*agentStatus, bool) {
	statuses := []*agentStatus{}
	healthy := true

	for name, a := range agents {
		working := a.working()
		if !working {
			healthy = false
		}

		statuses = append(statuses, &agentStatus{
			Name:    name,
			Plugin:  a.plugin.Conf().Plugin,
			Working: working,
			State:   a.state.Info(),
		})
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})

	return statuses, healthy
}

/*
 * Serves '/health' to report whether all the agents are working
 */
func healthHandler(w http.ResponseWriter, r *http.Request) {
	statuses, healthy := agentStatuses()

	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	err := json.NewEncoder(w).Encode(map[string]interface{}{
		"healthy": healthy,
		"agents":  statuses,
	})
	if err != nil {
		log.Error().Msg("Can't send health status: " + err.Error())
	}
}

/*
 * Serves '/stats' to return Top 10 values
 * of the requested agent's event fields
 */
func statsHandler(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("agent")

	w.Header().Set("Content-Type", "application/json")

	a, ok := agents[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Unknown agent requested"}`))
		return
	}

	stats, err := a.stats.ToJSON(name)
	if err != nil {
		log.Error().
			Str("agent", name).
			Msg("Can't convert stats: " + err.Error())

		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Can't convert stats"}`))
		return
	}

	err = json.NewEncoder(w).Encode(stats)
	if err != nil {
		log.Error().Msg("Can't send stats: " + err.Error())
	}
}
