package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Spec is a YAML-defined encoding profile. Profiles let deployments add
// custom ffmpeg encodings (hardware encoders, different containers) without
// code changes.
type Spec struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Extensions  []string `yaml:"extensions"`    // source extensions, e.g. [".avi", ".mts"]
	SourceCodec string   `yaml:"source_codec"`  // codec this profile converts from, default h264
	Target      string   `yaml:"target"`        // output extension without dot, default mp4
	CRF         int      `yaml:"crf"`
	Preset      string   `yaml:"preset"`
	ExtraArgs   []string `yaml:"extra_args"`    // appended to the ffmpeg command line
	Timeout     int      `yaml:"timeout"`       // seconds, 0 means no limit
}

// Parse decodes a profile from YAML.
func Parse(yamlContent []byte) (*Spec, error) {
	spec := &Spec{}
	if err := yaml.Unmarshal(yamlContent, spec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return spec, nil
}

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validate returns a list of problems, empty when the spec is usable.
func (spec *Spec) Validate() []string {
	var errors []string
	if spec.Name == "" {
		errors = append(errors, "profile name is required")
	} else if !nameRe.MatchString(spec.Name) {
		errors = append(errors, "profile name must be alphanumeric with hyphens/underscores")
	}
	if spec.CRF < 0 || spec.CRF > 51 {
		errors = append(errors, "crf must be between 0 and 51")
	}
	if spec.Timeout < 0 {
		errors = append(errors, "timeout must not be negative")
	}
	for _, ext := range spec.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errors = append(errors, fmt.Sprintf("extension %q must start with a dot", ext))
		}
	}
	return errors
}

// LoadDir parses every .yml/.yaml file in dir. Invalid profiles are returned
// as errors keyed by filename; valid ones load regardless.
func LoadDir(dir string) ([]*Spec, map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	var specs []*Spec
	problems := make(map[string][]string)
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yml" && ext != ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			problems[e.Name()] = []string{err.Error()}
			continue
		}
		spec, err := Parse(data)
		if err != nil {
			problems[e.Name()] = []string{err.Error()}
			continue
		}
		if errs := spec.Validate(); len(errs) > 0 {
			problems[e.Name()] = errs
			continue
		}
		specs = append(specs, spec)
	}
	return specs, problems, nil
}
