package taskfarmpb

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// codecName is the gRPC content-subtype this package registers. Both the
// client (via grpc.CallContentSubtype) and the server (which looks up the
// subtype from the incoming request's content-type) resolve to this codec,
// so no protobuf runtime is involved in encoding TaskRequest/TaskReply.
const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
