package chartconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/geochart/internal/schema"
)

// ErrInvalidConfiguration wraps the joined schema violations when a
// configuration fails the inputs-schema gate.
var ErrInvalidConfiguration = errors.New("invalid chart configuration")

// Load reads a chart configuration document from path, accepting JSON
// or YAML, validates it against the inputs schema, and returns the
// normalized configuration. An invalid document halts the pipeline
// before any fetch or series build.
func Load(path string) (*Config, error) {
	raw, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}

	return Parse(raw)
}

// ReadDocument reads a configuration document and normalizes YAML
// input to JSON, so one schema gate covers both formats.
func ReadDocument(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chart configuration: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		raw, err = yamlToJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("convert yaml configuration: %w", err)
		}
	}

	return raw, nil
}

// Parse validates raw JSON against the inputs schema and unmarshals it.
func Parse(raw []byte) (*Config, error) {
	result, err := schema.Validate(schema.KindInputs, raw)
	if err != nil {
		return nil, err
	}

	if !result.Valid {
		return nil, fmt.Errorf("%w:\n%s", ErrInvalidConfiguration, result.Message())
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(raw, &cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal chart configuration: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, validateErr
	}

	cfg.Normalize()

	return &cfg, nil
}

// yamlToJSON re-encodes a YAML document as JSON so the same schema gate
// applies to both formats.
func yamlToJSON(raw []byte) ([]byte, error) {
	var doc any

	err := yaml.Unmarshal(raw, &doc)
	if err != nil {
		return nil, err
	}

	return json.Marshal(normalizeYAML(doc))
}

// normalizeYAML rewrites map[any]any trees produced by older YAML
// documents into map[string]any so they are JSON-marshalable.
func normalizeYAML(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))

		for k, val := range tv {
			out[k] = normalizeYAML(val)
		}

		return out
	case map[any]any:
		out := make(map[string]any, len(tv))

		for k, val := range tv {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}

		return out
	case []any:
		out := make([]any, len(tv))

		for i, val := range tv {
			out[i] = normalizeYAML(val)
		}

		return out
	default:
		return v
	}
}
