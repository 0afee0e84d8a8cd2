package config

import (
	"encoding/json"

	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

type yamlParser struct{}

// YAMLParser returns a koanf.Parser backed by gopkg.in/yaml.v3.
func YAMLParser() koanf.Parser {
	return yamlParser{}
}

// Unmarshal parses YAML bytes into a nested map.
func (yamlParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Marshal encodes a nested map as YAML.
func (yamlParser) Marshal(o map[string]interface{}) ([]byte, error) {
	return yaml.Marshal(o)
}

type jsonParser struct{}

func (jsonParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (jsonParser) Marshal(o map[string]interface{}) ([]byte, error) {
	return json.Marshal(o)
}
