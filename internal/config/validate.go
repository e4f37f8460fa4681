// CUE schema validation code
package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource []byte

// ValidateWithCue checks raw YAML against the embedded #Config schema.
// Unknown keys and mistyped values are rejected; ranges are left to
// Normalize and the endpoint resolver.
func ValidateWithCue(name string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	file, err := yaml.Extract(name, data)
	if err != nil {
		return fmt.Errorf("cannot parse YAML config: %w", err)
	}
	val := ctx.BuildFile(file)
	if err := val.Err(); err != nil {
		return fmt.Errorf("cannot build YAML config: %w", err)
	}

	final := def.Unify(val)
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
