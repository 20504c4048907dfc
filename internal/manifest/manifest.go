// Package manifest reads declared dependencies from a package.json manifest.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "https://deadscan.dev/schemas/manifest.json"

// schemaJSON constrains the parts of package.json the scan relies on.
// Only section keys are read, so entry values are unconstrained and a null
// section counts as empty.
const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "dependencies": {"type": ["object", "null"]},
    "devDependencies": {"type": ["object", "null"]}
  }
}`

var manifestSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		panic(err)
	}
	return c.MustCompile(schemaURL)
}

// Manifest is the dependency section of a package manifest.
// Values are kept raw: version ranges, workspace objects and the like are never interpreted.
type Manifest struct {
	Path            string                     `json:"-"`
	Dependencies    map[string]json.RawMessage `json:"dependencies"`
	DevDependencies map[string]json.RawMessage `json:"devDependencies"`
}

// ParseError reports a manifest that exists but cannot be used.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load reads the manifest at path. A missing file is not an error: Load
// returns nil, nil and the scan reports no unused dependencies.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &ParseError{Path: path, Err: err}
	}
	m, err := Parse(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	m.Path = path
	return m, nil
}

// Parse validates and decodes manifest content.
func Parse(data []byte) (*Manifest, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := manifestSchema.Validate(inst); err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Declared maps every declared dependency name to whether it is declared only
// as a development dependency. A name in both sections counts as production.
func (m *Manifest) Declared() map[string]bool {
	if m == nil {
		return nil
	}
	declared := make(map[string]bool, len(m.Dependencies)+len(m.DevDependencies))
	for name := range m.DevDependencies {
		declared[name] = true
	}
	for name := range m.Dependencies {
		declared[name] = false
	}
	return declared
}

// Names returns the union of production and development dependency names, sorted.
func (m *Manifest) Names() []string {
	declared := m.Declared()
	names := make([]string, 0, len(declared))
	for name := range declared {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
