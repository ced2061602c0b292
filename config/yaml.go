package config

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/stl/errors"
)

// ParseYAML decodes a YAML document. Unknown keys are rejected. The result
// is not validated.
func ParseYAML(src []byte) (*Config, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, errors.Load(errors.PhaseConfig, "decode yaml", err)
	}
	return f.apply(), nil
}
