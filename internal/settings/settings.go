package settings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crmtools/dvenv/internal/core"
)

// Load reads and parses a settings file. A missing file is a configuration
// error: the caller asked for this path, and silently proceeding with empty
// settings would mask the typo.
func Load(path string) (core.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Settings{}, fmt.Errorf("%w: reading settings file: %v", core.ErrConfiguration, err)
	}
	s, err := Parse(data)
	if err != nil {
		return core.Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes YAML settings data. ${VAR} references are expanded from the
// process environment before decoding; unset variables expand to the empty
// string. Unknown keys are rejected so a misspelled field fails loudly
// instead of silently inheriting a default.
func Parse(data []byte) (core.Settings, error) {
	expanded := os.Expand(string(data), os.Getenv)

	var s core.Settings
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return core.Settings{}, fmt.Errorf("%w: parsing settings: %v", core.ErrConfiguration, err)
	}

	for name, p := range s.Profiles {
		p.Name = name
		s.Profiles[name] = p
	}
	return s, nil
}
