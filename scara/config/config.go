// Package config loads and validates machine configuration files
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"scarastylus/scara"
)

// LoadConfig parses a YAML configuration on top of the defaults.
// Unknown fields and trailing documents are rejected.
func LoadConfig(data []byte) (*scara.Config, error) {
	cfg := scara.DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty file: defaults only
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace/comments are allowed after the document
	if err := dec.Decode(&struct{}{}); err == nil {
		return nil, errors.New("decode config yaml: unexpected trailing document")
	}

	// Apply defaults
	applyDefaults(cfg)

	return cfg, nil
}

// LoadConfigFile reads and parses a YAML config file
func LoadConfigFile(path string) (*scara.Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return LoadConfig(b)
}

// Marshal renders cfg as YAML
func Marshal(cfg *scara.Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// applyDefaults fills in values a file set to zero with the reference values
func applyDefaults(cfg *scara.Config) {
	def := scara.DefaultConfig()

	if cfg.Geometry.ForkAngle == 0 {
		cfg.Geometry.ForkAngle = def.Geometry.ForkAngle
	}

	for _, s := range []*scara.ServoConfig{&cfg.Servos.Left, &cfg.Servos.Right, &cfg.Servos.Lift} {
		if s.MaxDeg == 0 {
			s.MaxDeg = def.Servos.Left.MaxDeg
		}
		if s.MinUs == 0 {
			s.MinUs = def.Servos.Left.MinUs
		}
		if s.MaxUs == 0 {
			s.MaxUs = def.Servos.Left.MaxUs
		}
	}

	if cfg.Timing.Poll == 0 {
		cfg.Timing.Poll = def.Timing.Poll
	}

	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = def.Serial.Baud
	}

	if cfg.Motion.StepsPerMM == 0 {
		cfg.Motion.StepsPerMM = def.Motion.StepsPerMM
	}
	if cfg.Motion.SlideLength == 0 {
		cfg.Motion.SlideLength = def.Motion.SlideLength
	}
}

// FlagOverrides carries command-line values applied on top of a loaded config.
// Each override is applied only when its pointer is non-nil.
type FlagOverrides struct {
	Device      *string
	Baud        *int
	StepsPerMM  *float64
	SlideLength *float64
}

// Apply merges the overrides into cfg
func (o FlagOverrides) Apply(cfg *scara.Config) {
	if cfg == nil {
		return
	}
	if o.Device != nil {
		cfg.Serial.Device = *o.Device
	}
	if o.Baud != nil {
		cfg.Serial.Baud = *o.Baud
	}
	if o.StepsPerMM != nil {
		cfg.Motion.StepsPerMM = *o.StepsPerMM
	}
	if o.SlideLength != nil {
		cfg.Motion.SlideLength = *o.SlideLength
	}
}
