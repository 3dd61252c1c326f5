// Package cache stores merged tables on disk so unchanged inputs skip merging.
//
// Entries are addressed by the identity of their inputs, not by the bytes they
// hold. BuildKey derives a Key from a logical path and the ordered origins that
// contributed to it; each Entry also records the last-write time of every
// source, and TryGet only returns the artifact when those recorded sources
// match the current ones exactly and in order.
//
// # Layout
//
//	<dir>/index.cbor          index snapshot (deterministic CBOR)
//	<dir>/<k0k1>/<key>        merged artifact, sharded by key prefix
//
// # Lifecycle
//
// BeginPass starts a pass; lookups and adds mark an entry as used in it. At the
// end of a pass RemoveExpiredItems drops entries left unused for longer than
// Config.RetainPasses. Sweeping between passes measures against the last pass
// started and never advances it. Persist (or PersistAsync)
// writes the index snapshot; losing it only costs a rebuild.
//
// Add is not single-flight. Callers that need one build per key must serialize
// per key themselves.
package cache
