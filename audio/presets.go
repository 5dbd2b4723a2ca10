package audio

import (
	"fmt"
	"sort"
)

type Device interface {
	Set(key string, val interface{}) error
	Get(key string) (interface{}, error)
}

type preset map[string]interface{}

var presets = map[string]preset{
	"default": {
		PropEnvAttack:  0.01,
		PropEnvRelease: 0.3,
		PropLevel:      0.1,
	},
	"pad": {
		PropEnvAttack:  0.8,
		PropEnvRelease: 2.5,
		PropLevel:      0.08,
	},
	"pluck": {
		PropEnvAttack:  0.002,
		PropEnvRelease: 0.08,
		PropLevel:      0.12,
	},
	"organ": {
		PropEnvAttack:  0.005,
		PropEnvRelease: 0.02,
		PropLevel:      0.1,
	},
}

func LoadPreset(name string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %v", name)
	}
	for k, v := range p {
		if err := d.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
