// Package codec encodes persisted state as deterministic CBOR.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, shortest integer forms, no indefinite-length items. The same value
// always produces the same bytes, so snapshots can be compared byte for byte.
//
// # Usage
//
//	data, err := codec.Marshal(snapshot)
//	...
//	var loaded Snapshot
//	err = codec.Unmarshal(data, &loaded)
package codec
