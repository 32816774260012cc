package sesskit

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec converts session records to and from their stored byte form.
//
// Implementations must be self-describing and schema-tolerant: bytes written
// before a field was added to [Record] must remain decodable afterwards.
type Codec interface {
	Encode(rec *Record) ([]byte, error)
	Decode(data []byte) (*Record, error)
}

// MsgpackCodec is the wire format shared by every backend. Records are
// encoded as MessagePack maps keyed by field name, so payloads stay readable
// across schema changes and from other languages.
//
// The zero value is ready to use.
type MsgpackCodec struct{}

var _ Codec = MsgpackCodec{}

// Encode marshals rec into a self-describing MessagePack map.
func (MsgpackCodec) Encode(rec *Record) ([]byte, error) {
	return msgpack.Marshal(rec)
}

// Decode unmarshals a payload produced by [MsgpackCodec.Encode]. Interface
// values inside Record.Data are normalized to int64, float64, string, bool,
// []byte, time.Time, []any, and map[string]any.
func (MsgpackCodec) Decode(data []byte) (*Record, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
