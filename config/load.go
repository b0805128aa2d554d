package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"pwrsim/control"
)

// ConfigurationError is fatal: the plant cannot be built from the mapping.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid plant configuration: " + strings.Join(e.Problems, "; ")
}

func (e *ConfigurationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *ConfigurationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// Warning is a non-fatal finding produced while canonicalising.
type Warning struct {
	Field   string
	Message string
}

func (w Warning) String() string {
	return w.Field + ": " + w.Message
}

// standalone sections that historically duplicated secondary_system.*
var standaloneSections = []string{"steam_generator", "turbine", "feedwater", "condenser"}

type document struct {
	PlantConfiguration `yaml:",inline"`

	SteamGenerator map[string]any `yaml:"steam_generator"`
	Turbine        map[string]any `yaml:"turbine"`
	Feedwater      map[string]any `yaml:"feedwater"`
	Condenser      map[string]any `yaml:"condenser"`
}

func (d *document) standalone(name string) map[string]any {
	switch name {
	case "steam_generator":
		return d.SteamGenerator
	case "turbine":
		return d.Turbine
	case "feedwater":
		return d.Feedwater
	case "condenser":
		return d.Condenser
	}
	return nil
}

// Load reads and resolves the plant mapping at path.
func Load(path string) (*PlantConfiguration, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read plant configuration: %w", err)
	}
	cfg, warnings, err := Parse(data)
	if err != nil {
		return nil, warnings, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, warnings, nil
}

// Parse binds a YAML mapping into the canonical configuration. The nested
// secondary_system block is authoritative; standalone duplicates must agree
// with it key by key.
func Parse(data []byte) (*PlantConfiguration, []Warning, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, &ConfigurationError{Problems: []string{"decode: " + err.Error()}}
	}

	if err := reconcile(data, &doc); err != nil {
		return nil, nil, err
	}

	cfg := doc.PlantConfiguration
	warnings := canonicalize(&cfg)
	for _, w := range warnings {
		log.WithFields(log.Fields{
			"field": w.Field,
		}).Warn(w.Message)
	}
	if err := Validate(&cfg); err != nil {
		return nil, warnings, err
	}
	return &cfg, warnings, nil
}

func reconcile(data []byte, doc *document) error {
	var raw struct {
		Secondary map[string]any `yaml:"secondary_system"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return &ConfigurationError{Problems: []string{"decode: " + err.Error()}}
	}

	cerr := &ConfigurationError{}
	for _, name := range standaloneSections {
		dup := doc.standalone(name)
		if dup == nil {
			continue
		}
		nested, _ := raw.Secondary[name].(map[string]any)
		if nested == nil {
			cerr.add("standalone section %s has no secondary_system.%s counterpart", name, name)
			continue
		}
		keys := make([]string, 0, len(dup))
		for k := range dup {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			nv, ok := nested[k]
			if !ok {
				cerr.add("%s.%s is only set in the standalone section", name, k)
				continue
			}
			if diff := cmp.Diff(normalize(nv), normalize(dup[k])); diff != "" {
				cerr.add("%s.%s disagrees with secondary_system.%s.%s (-nested +standalone):\n%s", name, k, name, k, diff)
			}
		}
	}
	return cerr.orNil()
}

// normalize folds YAML integers into float64 so 500 and 500.0 compare equal.
func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = normalize(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = normalize(e)
		}
		return s
	}
	return v
}

func canonicalize(cfg *PlantConfiguration) []Warning {
	var warnings []Warning
	sec := &cfg.Secondary

	if cfg.Simulation.TimeStep == 0 {
		cfg.Simulation.TimeStep = 1
	}
	if sec.SteamGenerator.NumSteamGenerators == 0 {
		sec.SteamGenerator.NumSteamGenerators = sec.NumLoops
	}
	fw := &sec.Feedwater
	if fw.InitialConditions.RunningPumps == 0 {
		fw.InitialConditions.RunningPumps = fw.PumpsNormallyRunning
	}

	w, skew, err := fw.Weights().Normalize()
	if err == nil && skew {
		warnings = append(warnings, Warning{
			Field:   "secondary_system.feedwater.*_weight",
			Message: fmt.Sprintf("three-element weights sum to %.4f, normalized to 1.0", fw.Weights().Sum()),
		})
		fw.SteamFlowWeight, fw.LevelControlWeight, fw.FeedwaterFlowWeight = w.SteamFlow, w.Level, w.Feedwater
	}
	return warnings
}

// Weights returns the configured three-element weights.
func (f *FeedwaterConfig) Weights() control.Weights {
	return control.Weights{SteamFlow: f.SteamFlowWeight, Level: f.LevelControlWeight, Feedwater: f.FeedwaterFlowWeight}
}

// IsConfigurationError reports whether err carries a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
