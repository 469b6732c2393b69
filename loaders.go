package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/cert-lv/abusefinder/pdk"
)

// Timeout of the agent's single run or output's request
const defaultTimeout = 60 * time.Second

/*
 * Return content of the requested file by its path
 */
func loadFileIntoString(path string) (string, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return string(file), nil
}

/*
 * Load service's version.
 * Missing version is not an error, "dev" is used instead
 */
func loadVersion() {
	path := "VERSION"

	// Try to get from the environment variable first
	if os.Getenv(path) != "" {
		version = os.Getenv(path)
		return
	}

	v, err := loadFileIntoString(path)
	if err != nil {
		version = "dev"
		return
	}

	version = strings.TrimSpace(v)
}

/*
 * Load agent definition file
 */
func loadAgent(filename string) (*pdk.Agent, error) {
	buffer, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("Can't read: %s", err.Error())
	}

	agent := &pdk.Agent{}
	err = yaml.Unmarshal(buffer, agent)
	if err != nil {
		return nil, fmt.Errorf("Can't unmarshall: %s", err.Error())
	}

	if agent.Name == "" {
		return nil, fmt.Errorf("'name' is not defined")
	}

	// Set default values if not specified
	if agent.Timeout == 0*time.Second {
		agent.Timeout = defaultTimeout
	}

	return agent, nil
}

/*
 * Load output definition file
 */
func loadOutput(filename string) (*pdk.Output, error) {
	buffer, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("Can't read: %s", err.Error())
	}

	output := &pdk.Output{}
	err = yaml.Unmarshal(buffer, output)
	if err != nil {
		return nil, fmt.Errorf("Can't unmarshall: %s", err.Error())
	}

	if output.Name == "" {
		return nil, fmt.Errorf("'name' is not defined")
	}

	// Set default values if not specified
	if output.Timeout == 0*time.Second {
		output.Timeout = defaultTimeout
	}

	return output, nil
}

/*
 * List YAML files of the definitions subdirectory
 */
func definitionFiles(group string) ([]string, error) {
	dir := config.Definitions + "/" + group

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("Can't read directory '%s': %s", dir, err.Error())
	}

	files := []string{}

	for _, entry := range entries {
		// Skip not YAML files
		name := entry.Name()
		if entry.IsDir() || len(name) <= 5 || name[len(name)-5:] != ".yaml" {
			continue
		}

		files = append(files, dir+"/"+name)
	}

	return files, nil
}
