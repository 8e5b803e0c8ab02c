// Package schema validates the three JSON surfaces of the pipeline —
// the inputs configuration, the computed series, and the computed
// render options — against fixed embedded schemas. Validation is a
// pure function and is run as a correctness gate before anything is
// drawn.
package schema

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// PayloadKind selects which fixed schema a payload is checked against.
type PayloadKind string

// The three payload kinds.
const (
	KindInputs  PayloadKind = "inputs"
	KindSeries  PayloadKind = "series"
	KindOptions PayloadKind = "options"
)

var schemaFiles = map[PayloadKind]string{
	KindInputs:  "schemas/inputs.schema.json",
	KindSeries:  "schemas/series.schema.json",
	KindOptions: "schemas/options.schema.json",
}

// Result reports the outcome of one validation.
type Result struct {
	Valid  bool
	Errors []string
}

// Message joins the individual violations into one block.
func (r Result) Message() string {
	return strings.Join(r.Errors, "\n")
}

// Validate checks payload against the fixed schema for kind. The
// payload may be raw JSON bytes or any JSON-marshalable Go value;
// neither is mutated. Each violation is formatted as
// "<schema-path> | <violated-keyword> | <message>".
func Validate(kind PayloadKind, payload any) (Result, error) {
	file, ok := schemaFiles[kind]
	if !ok {
		return Result{}, fmt.Errorf("unknown payload kind %q", kind)
	}

	schemaBytes, err := schemaFS.ReadFile(file)
	if err != nil {
		return Result{}, fmt.Errorf("read embedded schema %s: %w", file, err)
	}

	var payloadLoader gojsonschema.JSONLoader

	switch tp := payload.(type) {
	case []byte:
		payloadLoader = gojsonschema.NewBytesLoader(tp)
	case string:
		payloadLoader = gojsonschema.NewStringLoader(tp)
	default:
		payloadLoader = gojsonschema.NewGoLoader(payload)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaBytes), payloadLoader)
	if err != nil {
		return Result{}, fmt.Errorf("validate %s payload: %w", kind, err)
	}

	if result.Valid() {
		return Result{Valid: true}, nil
	}

	violations := make([]string, 0, len(result.Errors()))

	for _, verr := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s | %s | %s",
			verr.Context().String(), verr.Type(), verr.Description()))
	}

	return Result{Valid: false, Errors: violations}, nil
}

// Join concatenates the error blocks of several results into one
// human-readable message, trimming leading and trailing blank lines.
func Join(results ...Result) string {
	blocks := make([]string, 0, len(results))

	for _, r := range results {
		blocks = append(blocks, r.Message())
	}

	joined := strings.Join(blocks, "\n")

	return strings.Trim(joined, "\n")
}
