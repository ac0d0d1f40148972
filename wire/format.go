// Package wire stores codec payloads as bytes. It ships the two persistence
// layers the codec talks to: a current layer writing name to value mappings
// and a legacy layer writing parallel name and value lists it fills itself.
//
// Values are decoded lazily: the raw encoding of each value is handed to the
// field's setter as a fields.Decoder and decoded into the field's own type.
package wire

import (
	"bytes"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"serialcompat/codec"
	"serialcompat/fields"
)

var (
	// ErrUnknownGeneration is returned for envelopes of an unknown payload generation.
	ErrUnknownGeneration = errors.New("wire: unknown payload generation")
	// ErrTypeMismatch is returned when an envelope was written for another type.
	ErrTypeMismatch = errors.New("wire: envelope type does not match instance")
)

// Envelope is the stored form of a payload. Current payloads fill Fields,
// legacy payloads fill Names and Values in parallel.
type Envelope struct {
	Generation string
	Type       string
	Fields     map[string]any
	Names      []string
	Values     []any
}

// Format encodes envelopes. Decoded values are fields.Decoder instances.
type Format interface {
	Name() string
	Encode(env *Envelope) ([]byte, error)
	Decode(data []byte) (*Envelope, error)
}

// JSON encodes envelopes as JSON.
type JSON struct {
	api jsoniter.API
}

// NewJSON returns the JSON format, compatible with encoding/json output.
func NewJSON() *JSON {
	return &JSON{api: jsoniter.ConfigCompatibleWithStandardLibrary}
}

type jsonEnvelope struct {
	Generation string         `json:"generation"`
	Type       string         `json:"type,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
	Names      []string       `json:"names,omitempty"`
	Values     []any          `json:"values,omitempty"`
}

type jsonRawEnvelope struct {
	Generation string                `json:"generation"`
	Type       string                `json:"type"`
	Fields     jsoniter.RawMessage   `json:"fields"`
	Names      []string              `json:"names"`
	Values     []jsoniter.RawMessage `json:"values"`
}

type jsonValue struct {
	api jsoniter.API
	raw jsoniter.RawMessage
}

func (v jsonValue) Decode(dst any) error {
	return v.api.Unmarshal(v.raw, dst)
}

// value wraps raw for deferred decoding. JSON null, which jsoniter may hand
// back as an empty message, becomes nil so the field is zeroed.
func (f *JSON) value(raw jsoniter.RawMessage) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}

	return jsonValue{api: f.api, raw: raw}
}

func (f *JSON) Name() string { return "json" }

func (f *JSON) Encode(env *Envelope) ([]byte, error) {
	return f.api.Marshal(jsonEnvelope(*env))
}

func (f *JSON) Decode(data []byte) (*Envelope, error) {
	var raw jsonRawEnvelope
	if err := f.api.Unmarshal(data, &raw); err != nil {
		return nil, &codec.MalformedPayloadError{Reason: "json envelope: " + err.Error()}
	}

	env := &Envelope{Generation: raw.Generation, Type: raw.Type, Names: raw.Names}

	if len(raw.Fields) > 0 && string(raw.Fields) != "null" {
		var m map[string]jsoniter.RawMessage
		if err := f.api.Unmarshal(raw.Fields, &m); err != nil {
			return nil, &codec.MalformedPayloadError{Reason: "json fields are not a mapping"}
		}

		env.Fields = make(map[string]any, len(m))
		for k, v := range m {
			env.Fields[k] = f.value(v)
		}
	}

	for _, v := range raw.Values {
		env.Values = append(env.Values, f.value(v))
	}

	return env, nil
}

// YAML encodes envelopes as YAML.
type YAML struct{}

// NewYAML returns the YAML format.
func NewYAML() *YAML {
	return &YAML{}
}

type yamlEnvelope struct {
	Generation string         `yaml:"generation"`
	Type       string         `yaml:"type,omitempty"`
	Fields     map[string]any `yaml:"fields,omitempty"`
	Names      []string       `yaml:"names,omitempty"`
	Values     []any          `yaml:"values,omitempty"`
}

type yamlRawEnvelope struct {
	Generation string      `yaml:"generation"`
	Type       string      `yaml:"type"`
	Fields     yaml.Node   `yaml:"fields"`
	Names      []string    `yaml:"names"`
	Values     []yaml.Node `yaml:"values"`
}

type yamlValue struct {
	node *yaml.Node
}

func (v yamlValue) Decode(dst any) error {
	return v.node.Decode(dst)
}

func (YAML) Name() string { return "yaml" }

func (YAML) Encode(env *Envelope) ([]byte, error) {
	return yaml.Marshal(yamlEnvelope(*env))
}

func (YAML) Decode(data []byte) (*Envelope, error) {
	var raw yamlRawEnvelope
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &codec.MalformedPayloadError{Reason: "yaml envelope: " + err.Error()}
	}

	env := &Envelope{Generation: raw.Generation, Type: raw.Type, Names: raw.Names}

	switch raw.Fields.Kind {
	case 0:
	case yaml.MappingNode:
		env.Fields = make(map[string]any, len(raw.Fields.Content)/2)
		for i := 0; i+1 < len(raw.Fields.Content); i += 2 {
			env.Fields[raw.Fields.Content[i].Value] = yamlValue{node: raw.Fields.Content[i+1]}
		}
	default:
		if raw.Fields.Tag != "!!null" {
			return nil, &codec.MalformedPayloadError{Reason: "yaml fields are not a mapping"}
		}
	}

	for i := range raw.Values {
		env.Values = append(env.Values, yamlValue{node: &raw.Values[i]})
	}

	return env, nil
}

var (
	_ fields.Decoder = jsonValue{}
	_ fields.Decoder = yamlValue{}
)
