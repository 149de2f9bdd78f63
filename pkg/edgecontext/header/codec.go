package header

import (
	"context"
	"fmt"

	"github.com/apache/thrift/lib/go/thrift"
)

const poolSize = 64

var (
	serializers   = thrift.NewTSerializerPoolSizeFactory(poolSize, thrift.NewTBinaryProtocolFactoryConf(nil))
	deserializers = thrift.NewTDeserializerPoolSizeFactory(poolSize, thrift.NewTBinaryProtocolFactoryConf(nil))
)

// Encode serializes r. The output is deterministic for a given Request.
func Encode(r Request) ([]byte, error) {
	b, err := serializers.Write(context.Background(), &r)
	if err != nil {
		return nil, fmt.Errorf("header: encode: %w", err)
	}
	return b, nil
}

// Decode parses an envelope. It always returns a usable Request: on any
// structural error the empty Request is returned together with the error, and
// callers are expected to treat the error as a diagnostic only. Unknown
// fields are skipped.
func Decode(data []byte) (Request, error) {
	if len(data) == 0 {
		return Request{}, nil
	}
	var r Request
	if err := deserializers.Read(context.Background(), &r, data); err != nil {
		return Request{}, fmt.Errorf("header: decode: %w", err)
	}
	return r, nil
}
