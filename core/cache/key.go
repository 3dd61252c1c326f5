package cache

import (
	"encoding/binary"
	"encoding/hex"

	"tbl-merger/core/tbl"

	"github.com/zeebo/blake3"
)

// Key identifies a merge result: one logical path merged from an ordered list
// of origins.
type Key string

// keyDomain is the BLAKE3 key for cache key derivation. Changing it
// invalidates every persisted cache entry.
var keyDomain = [32]byte{
	't', 'b', 'l', '-', 'm', 'e', 'r', 'g', 'e', 'r', '.', 'c', 'a', 'c', 'h', 'e',
	'.', 'k', 'e', 'y', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// BuildKey derives the cache key for path merged from origins, in order.
// The same inputs produce the same key in every process.
func BuildKey(path tbl.LogicalPath, origins []string) Key {
	hasher, err := blake3.NewKeyed(keyDomain[:])
	if err != nil {
		panic("cache: BLAKE3 keyed hash initialization failed: " + err.Error())
	}

	// Length-prefixed so ("ab","c") and ("a","bc") differ.
	writeField(hasher, string(path))
	var count [8]byte
	binary.LittleEndian.PutUint64(count[:], uint64(len(origins)))
	hasher.Write(count[:])
	for _, origin := range origins {
		writeField(hasher, origin)
	}
	return Key(hex.EncodeToString(hasher.Sum(nil)))
}

func writeField(h *blake3.Hasher, s string) {
	var length [8]byte
	binary.LittleEndian.PutUint64(length[:], uint64(len(s)))
	h.Write(length[:])
	h.Write([]byte(s))
}
