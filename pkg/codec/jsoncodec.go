package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	ContentType() string
}

type jsonCodec struct {
	strict bool
}

// JSON tolerates unknown fields; JSONStrict rejects them. Both reject
// trailing content and never escape HTML.
var (
	JSON       Codec = jsonCodec{}
	JSONStrict Codec = jsonCodec{strict: true}
)

func (jsonCodec) Marshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (c jsonCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if c.strict {
		dec.DisallowUnknownFields()
	}
	return decodeOnce(dec, v)
}

func (jsonCodec) ContentType() string { return "application/json" }

// DecodeObject parses a JSON object keeping numbers as json.Number so that
// callers decide between integer and float.
func DecodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := decodeOnce(dec, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("json decode: not an object")
	}
	return m, nil
}

func decodeOnce(dec *json.Decoder, v any) error {
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	// Probe for trailing data (must be EOF)
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return fmt.Errorf("json trailing content")
	}
	return nil
}
