package api

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// CodecName is the gRPC content-subtype of the JSON codec (application/grpc+json).
const CodecName = "json"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec marshals plain Go structs as JSON. Protobuf messages (health checks)
// go through protojson so both kinds can share one connection.
type Codec struct{}

func (Codec) Name() string { return CodecName }

func (Codec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return protojson.Marshal(m)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec marshal %T: %w", v, err)
	}
	return b, nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, isProto := v.(proto.Message)
	if len(data) == 0 {
		if isProto {
			proto.Reset(m)
		}
		return nil
	}
	if isProto {
		return protojson.Unmarshal(data, m)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec unmarshal %T: %w", v, err)
	}
	return nil
}
