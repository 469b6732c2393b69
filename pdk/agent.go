/*
 * Agent and output definitions.
 * For YAML files in "../definitions/agents" and "../definitions/outputs" by default.
 *
 * Check "../definitions/agents/agent.yaml.example" for the fields description
 */

package pdk

import (
	"time"
)

type Agent struct {
	Name        string                 `yaml:"name"`
	Plugin      string                 `yaml:"plugin"`
	Timeout     time.Duration          `yaml:"timeout"`
	Access      map[string]string      `yaml:"access"`
	Options     map[string]interface{} `yaml:"options"`
	Outputs     []string               `yaml:"outputs"`
	StatsFields []string               `yaml:"statsFields"`
}

type Output struct {
	Name    string            `yaml:"name"`
	Plugin  string            `yaml:"plugin"`
	Timeout time.Duration     `yaml:"timeout"`
	Access  map[string]string `yaml:"access"`
}
