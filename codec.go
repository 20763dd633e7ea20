package statez

import (
	"encoding/json"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Codec decodes raw source bytes into a state value.
// Decoded values should be built from map[string]any, []any and scalars so
// nested edits through Tracked work on them.
type Codec interface {
	// Decode turns data into a value.
	Decode(data []byte) (any, error)

	// ContentType returns the MIME type for observability and debugging.
	ContentType() string
}

// JSONCodec implements Codec using encoding/json. Numbers decode as float64.
type JSONCodec struct{}

// Decode parses JSON data.
func (JSONCodec) Decode(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ContentType returns the JSON MIME type.
func (JSONCodec) ContentType() string {
	return "application/json"
}

// Ensure JSONCodec implements Codec.
var _ Codec = JSONCodec{}

// YAMLCodec implements Codec using gopkg.in/yaml.v3.
type YAMLCodec struct{}

// Decode parses YAML data. Mappings with string keys decode as map[string]any.
func (YAMLCodec) Decode(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ContentType returns the YAML MIME type.
func (YAMLCodec) ContentType() string {
	return "application/x-yaml"
}

// Ensure YAMLCodec implements Codec.
var _ Codec = YAMLCodec{}

// TOMLCodec implements Codec using github.com/pelletier/go-toml/v2.
// Tables decode as map[string]any, integers as int64.
type TOMLCodec struct{}

// Decode parses a TOML document.
func (TOMLCodec) Decode(data []byte) (any, error) {
	var v map[string]any
	if err := toml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ContentType returns the TOML MIME type.
func (TOMLCodec) ContentType() string {
	return "application/toml"
}

// Ensure TOMLCodec implements Codec.
var _ Codec = TOMLCodec{}
