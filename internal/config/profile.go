package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"testdesk/internal/errors"
	"testdesk/internal/extract"

	"gopkg.in/yaml.v3"
)

// profileFile is the YAML layout of an import profile. Omitted keys keep
// their defaults.
type profileFile struct {
	ScenarioMarker   string              `yaml:"scenario_marker"`
	HeaderMarker     string              `yaml:"header_marker"`
	ScreenLabels     []string            `yaml:"screen_labels"`
	ReservedPrefixes []string            `yaml:"reserved_prefixes"`
	Fields           map[string][]string `yaml:"fields"`
}

// LoadImportProfile reads the YAML profile at path. An empty path yields
// the default profile.
func LoadImportProfile(path string) (extract.Profile, error) {
	if path == "" {
		return extract.DefaultProfile(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return extract.Profile{}, errors.Wrapf(errors.ConfigInvalid(err.Error()), "failed to read import profile %s", path)
	}
	return ParseImportProfile(data)
}

// ParseImportProfile decodes a YAML profile, rejecting unknown keys and
// unknown field names.
func ParseImportProfile(data []byte) (extract.Profile, error) {
	profile := extract.DefaultProfile()
	if len(bytes.TrimSpace(data)) == 0 {
		return profile, nil
	}

	var file profileFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return extract.Profile{}, errors.ConfigInvalid(fmt.Sprintf("invalid import profile: %v", err))
	}

	if file.ScenarioMarker != "" {
		profile.ScenarioMarker = file.ScenarioMarker
	}
	if file.HeaderMarker != "" {
		profile.HeaderMarker = file.HeaderMarker
	}
	if file.ScreenLabels != nil {
		profile.ScreenLabels = file.ScreenLabels
	}
	if file.ReservedPrefixes != nil {
		profile.ReservedPrefixes = file.ReservedPrefixes
	}

	known := make(map[extract.Field]bool, len(extract.AllFields))
	for _, f := range extract.AllFields {
		known[f] = true
	}
	for name, aliases := range file.Fields {
		field := extract.Field(name)
		if !known[field] {
			return extract.Profile{}, errors.ConfigInvalid(fmt.Sprintf("unknown item field %q in import profile", name))
		}
		if len(aliases) == 0 {
			return extract.Profile{}, errors.ConfigInvalid(fmt.Sprintf("item field %q needs at least one alias", name))
		}
		profile.Fields[field] = aliases
	}

	return profile, nil
}
