package toolkit

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// EnvironmentInfo is the environment section of a toolkit config file
// (config.<env>.yaml). Only the keys the dry run reports on are decoded;
// everything else, including the variables tree, is ignored.
//
// Example:
//
//	environment:
//	  name: dev
//	  project: my-cdf-project
//	  validation-type: dev
//	  selected:
//	    - modules/
type EnvironmentInfo struct {
	Name           string   `yaml:"name"`
	Project        string   `yaml:"project"`
	ValidationType string   `yaml:"validation-type"`
	Selected       []string `yaml:"selected"`
}

type configFile struct {
	Environment EnvironmentInfo `yaml:"environment"`
}

// ParseEnvironment decodes the environment section from raw YAML.
// A document without an environment section yields a zero EnvironmentInfo.
func ParseEnvironment(data []byte) (*EnvironmentInfo, error) {
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse toolkit config: %w", err)
	}
	return &cfg.Environment, nil
}
