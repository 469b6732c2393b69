package pdk

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs/v2"
)

var (
	// Template tag to be replaced by the value of the event's field,
	// like "{{ ip }}" or "{{ data.parameters.resource }}"
	reTag = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)
)

/*
 * Replace all the template tags of the given string
 * with the values found in the context.
 *
 * Tag content is a dot separated path to the value.
 * Unknown paths are replaced with an empty string,
 * non-string values are rendered as JSON
 */
func Interpolate(template string, context map[string]interface{}) string {
	if !strings.Contains(template, "{{") {
		return template
	}

	container := gabs.Wrap(context)

	return reTag.ReplaceAllStringFunc(template, func(tag string) string {
		path := reTag.FindStringSubmatch(tag)[1]
		if path == "" || context == nil {
			return ""
		}

		return render(container.Path(path).Data())
	})
}

/*
 * Interpolate all the string values of the options,
 * internal maps and lists included.
 *
 * Options itself are not modified, a new copy is returned
 */
func InterpolateOptions(options, context map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(options))

	for k, v := range options {
		result[k] = interpolateValue(v, context)
	}

	return result
}

func interpolateValue(value interface{}, context map[string]interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return Interpolate(v, context)

	case map[string]interface{}:
		return InterpolateOptions(v, context)

	case []interface{}:
		list := make([]interface{}, len(v))
		for i, item := range v {
			list[i] = interpolateValue(item, context)
		}
		return list

	default:
		return v
	}
}

/*
 * Find the first template tag that can't be interpolated,
 * like the one with filters "{{ ip | strip }}".
 * Internal maps and lists are checked as well.
 *
 * Returns an empty string when all the tags are supported
 */
func UnsupportedTag(value interface{}) string {
	switch v := value.(type) {
	case string:
		for _, match := range reTag.FindAllStringSubmatch(v, -1) {
			if strings.Contains(match[1], "|") {
				return match[0]
			}
		}

	case map[string]interface{}:
		for _, item := range v {
			if tag := UnsupportedTag(item); tag != "" {
				return tag
			}
		}

	case []interface{}:
		for _, item := range v {
			if tag := UnsupportedTag(item); tag != "" {
				return tag
			}
		}
	}

	return ""
}

/*
 * Textual representation of the interpolated value
 */
func render(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}

	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}

	return string(b)
}

/*
 * Convert an option value to the boolean.
 * Second returned value tells whether the value is a known true/false token
 */
func Boolify(value interface{}) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true

	case string:
		switch v {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}

	return false, false
}
