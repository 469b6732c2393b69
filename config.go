package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	yaml "gopkg.in/yaml.v3"
)

/*
 * Structure to store all the service settings.
 * Check "abusefinder.yaml.example" file for a detailed all fields description
 */
type Config struct {
	Server *ServerConfig `yaml:"server"`

	Environment string `yaml:"environment"`
	Definitions string `yaml:"definitions"`
	Workers     int    `yaml:"workers"`

	Log *LogConfig `yaml:"log"`
}

type ServerConfig struct {
	Host              string `yaml:"host"`
	Port              string `yaml:"port"`
	CertFile          string `yaml:"certFile"`
	KeyFile           string `yaml:"keyFile"`
	ReadTimeout       int    `yaml:"readTimeout"`
	ReadHeaderTimeout int    `yaml:"readHeaderTimeout"`
}

type LogConfig struct {
	File       string         `yaml:"file"`
	MaxSize    int            `yaml:"maxSize"`
	MaxBackups int            `yaml:"maxBackups"`
	MaxAge     int            `yaml:"maxAge"`
	Level      *zerolog.Level `yaml:"level"`
}

/*
 * Load configuration from a YAML file.
 *
 * Service searches for the "./abusefinder.yaml" file by default,
 * however, "CONFIG" environment variable can be set to use a different file.
 * Non-empty "path" has the priority over both
 */
func loadConfig(path string) error {
	if path == "" {
		path = "abusefinder.yaml"

		if os.Getenv("CONFIG") != "" {
			path = os.Getenv("CONFIG")
		}
	}

	buffer, err := loadFileIntoString(path)
	if err != nil {
		return fmt.Errorf("Failed to open configuration file '%s': %s", path, err.Error())
	}

	c := &Config{}

	err = yaml.Unmarshal([]byte(buffer), c)
	if err != nil {
		return fmt.Errorf("Invalid configuration YAML file '%s': %s", path, err.Error())
	}

	c.setDefaults()
	config = c

	return nil
}

/*
 * Set default values if not specified
 */
func (c *Config) setDefaults() {
	if c.Definitions == "" {
		c.Definitions = "definitions"
	}

	if c.Workers <= 0 {
		c.Workers = 4
	}

	if c.Server == nil {
		c.Server = &ServerConfig{}
	}

	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}

	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 60
	}

	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = 10
	}

	if c.Log == nil {
		c.Log = &LogConfig{}
	}

	// Missing level is "info", not the zero value "debug"
	if c.Log.Level == nil {
		level := zerolog.InfoLevel
		c.Log.Level = &level
	}

	if c.Log.File == "" {
		c.Log.File = "abusefinder.log"
	}
}
