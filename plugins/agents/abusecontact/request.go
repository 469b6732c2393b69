package abusecontact

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cert-lv/abusefinder/pdk"
)

/*
 * Single lookup parameters, built from the agent options
 * after the template tags are replaced
 */
type LookupRequest struct {
	// IP address to find the abuse contacts of
	IP string

	// Copied to the result as is
	Host string
	Type string
	Logs string

	// Log the raw response body
	Debug bool

	// Emit the result as a new event
	EmitEvents bool

	// Maximum days without new events
	// before the agent is considered as not working
	ExpectedReceivePeriod int
}

/*
 * Decoded lookup service response with the request fields merged in
 */
type LookupResult map[string]interface{}

/*
 * Replace template tags of the raw options with the event fields
 * and build a validated lookup request.
 *
 * Options and event are not modified
 */
func ResolveTemplates(options, event map[string]interface{}) (*LookupRequest, error) {
	return parseRequest(pdk.InterpolateOptions(options, event))
}

/*
 * Validate options and convert them to the lookup request
 */
func parseRequest(options map[string]interface{}) (*LookupRequest, error) {
	req := &LookupRequest{
		IP:   strings.TrimSpace(stringOption(options, "ip")),
		Host: stringOption(options, "host"),
		Type: stringOption(options, "type"),
		Logs: stringOption(options, "logs"),
	}

	if req.IP == "" {
		return nil, &ValidationError{"ip", "is a required field"}
	}

	var err error

	req.EmitEvents, err = boolOption(options, "emit_events", true)
	if err != nil {
		return nil, err
	}

	req.Debug, err = boolOption(options, "debug", false)
	if err != nil {
		return nil, err
	}

	req.ExpectedReceivePeriod, err = periodOption(options, "expected_receive_period_in_days")
	if err != nil {
		return nil, err
	}

	return req, nil
}

/*
 * Textual option value, empty if missing
 */
func stringOption(options map[string]interface{}, key string) string {
	switch v := options[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

/*
 * Boolean option value, if provided it must be "true" or "false"
 */
func boolOption(options map[string]interface{}, key string, def bool) (bool, error) {
	value, ok := options[key]
	if !ok {
		return def, nil
	}

	b, known := pdk.Boolify(value)
	if !known {
		return false, &ValidationError{key, "must be true or false, if provided"}
	}

	return b, nil
}

/*
 * Positive amount of days
 */
func periodOption(options map[string]interface{}, key string) (int, error) {
	invalid := &ValidationError{key, "must be a positive number of days that can pass before this agent is considered to be not working"}

	var days int

	switch v := options[key].(type) {
	case int:
		days = v

	case float64:
		if v != math.Trunc(v) {
			return 0, invalid
		}
		days = int(v)

	case string:
		var err error
		days, err = strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, invalid
		}

	default:
		return 0, invalid
	}

	if days <= 0 {
		return 0, invalid
	}

	return days, nil
}
