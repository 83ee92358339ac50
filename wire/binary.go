package wire

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// MarshalBinary encodes a document as MessagePack, for caches and queues
// that move documents as bytes without re-tokenizing JSON. The payload is
// the document's value tree, so anything Render can emit survives the trip.
func MarshalBinary(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(toGo(d.Val())); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a MessagePack buffer produced by MarshalBinary.
func UnmarshalBinary(data []byte) (*Document, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &MalformedDocumentError{Reason: "invalid binary document: " + err.Error()}
	}
	v, err := fromGo(raw)
	if err != nil {
		return nil, err
	}
	return ParseDocument(v)
}
