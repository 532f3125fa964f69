package rpc

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec carries the plain Go message structs as JSON under the codec
// name connect uses for application/json.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// WithJSON configures a client or handler to use the JSON codec.
func WithJSON() connect.Option { return connect.WithCodec(jsonCodec{}) }
