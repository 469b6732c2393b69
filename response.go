package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/yukithm/json2csv"

	"github.com/cert-lv/abusefinder/pdk"
)

/*
 * Structure that API returns as an agent's run result
 */
type APIresponse struct {
	// Events created by the agent
	Events []*pdk.Event `json:"events"`

	// If agent returns an error this message will be shown.
	// Events created before the error will be returned as well
	Error string `json:"error,omitempty"`
}

/*
 * Send run results to the API user.
 * Receives user's IP, agent name and output format
 */
func (a *APIresponse) send(w http.ResponseWriter, ip, agent, format string) {
	if format == "table" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}

	_, err := fmt.Fprint(w, a.format(format))
	if err != nil {
		log.Error().
			Str("ip", ip).
			Str("agent", agent).
			Msg("Can't send an API response: " + err.Error())
	}
}

/*
 * Format run output data.
 * Receives a requested format, JSON will be used by default
 */
func (a *APIresponse) format(f string) string {

	// Validate the format value
	if f != "" && f != "json" && f != "table" {
		log.Error().Msg("Unexpected API response format requested: '" + f + "', JSON used instead")
		a.Error = "Unexpected API response format: '" + f + "', JSON used instead. " + a.Error
		f = "json"
	}

	// Format the content if necessary
	if f == "table" {
		output := ""

		if a.Error != "" {
			output += "Error: " + a.Error + "\n"

			if len(a.Events) != 0 {
				output += "\n"
			}
		}

		if len(a.Events) != 0 {
			table, err := formatTo(a.Events, "table")
			if err != nil {
				output += "Error: " + err.Error()
			} else {
				output += table
			}
		} else if a.Error == "" {
			output += "No events created\n"
		}

		return output
	}

	// Return JSON by default
	output, err := formatTo(a, "json")
	if err != nil {
		return `{"error":"` + err.Error() + `"}`
	}

	return output
}

/*
 * Format the given single object
 */
func formatTo(data interface{}, format string) (string, error) {
	if format == "table" {
		// Lists and maps of the native JSON types are expected
		plain, err := toPlainJSON(data)
		if err != nil {
			return "", err
		}

		// JSON to CSV
		// to get all the existing headers
		csvSTR, err := json2csv.JSON2CSV(plain)
		if err != nil {
			return "", fmt.Errorf("Can't convert API response to CSV: %s", err.Error())
		}

		buf := &bytes.Buffer{}
		wr := json2csv.NewCSVWriter(buf)
		wr.HeaderStyle = json2csv.DotNotationStyle

		err = wr.WriteCSV(csvSTR)
		if err != nil {
			return "", fmt.Errorf("Can't format API response to CSV: %s", err.Error())
		}

		// Read csv values using csv.Reader.
		// Strings splitting by \n and "," is not enough as some fields
		// may contain them
		csvReader := csv.NewReader(strings.NewReader(buf.String()))
		rows, err := csvReader.ReadAll()
		if err != nil {
			return "", fmt.Errorf("Can't parse CSV: %s", err.Error())
		}

		if len(rows) == 0 {
			return "", nil
		}

		// Clear CSV data from buffer to render a table
		buf.Reset()
		table := tablewriter.NewWriter(buf)
		table.SetHeader(rows[0])
		table.SetAutoWrapText(false)

		for i := 1; i < len(rows); i++ {
			table.Append(rows[i])
		}

		table.Render()

		return buf.String(), nil
	}

	// Return JSON by default
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("Can't format API response to JSON: %s", err.Error())
	}

	return string(b), nil
}

/*
 * Convert structs into the maps & slices
 * by the JSON encoding round
 */
func toPlainJSON(data interface{}) (interface{}, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("Can't encode data: %s", err.Error())
	}

	var plain interface{}

	err = json.Unmarshal(b, &plain)
	if err != nil {
		return nil, fmt.Errorf("Can't decode data: %s", err.Error())
	}

	return plain, nil
}
