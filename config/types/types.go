package types

import "encoding/json"

// Config is implemented by the root configuration and every module.
type Config interface {
	Validate() error
	PostProcess() error
}

// Map decodes from a JSON object when read from the environment.
type Map map[string]string

func (m *Map) Decode(value string) error {
	return json.Unmarshal([]byte(value), m)
}
