package srpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const codecName = "json"

// jsonCodec marshals the hand-written message structs in this package for
// transport over a real google.golang.org/grpc.ClientConn, standing in for
// the generated protobuf codec this service would normally use. Registered
// once at package init so every call site just needs
// grpc.CallContentSubtype(codecName).
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
