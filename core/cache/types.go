package cache

import "time"

// Source is one contributor to a cached merge, recorded when the entry was
// created.
type Source struct {
	Origin    string    `cbor:"origin" json:"origin"`
	LastWrite time.Time `cbor:"last_write" json:"last_write"`
}

// Entry is one cached merge result.
type Entry struct {
	Key Key `cbor:"key" json:"key"`
	// RelativePath locates the merged artifact under the cache directory.
	RelativePath string   `cbor:"path" json:"path"`
	Sources      []Source `cbor:"sources" json:"sources"`
	// Generation is the pass in which the entry was last looked up or added.
	Generation uint64 `cbor:"generation" json:"generation"`
}

// snapshot is the persisted form of the index.
type snapshot struct {
	Version    int     `cbor:"version"`
	Generation uint64  `cbor:"generation"`
	Entries    []Entry `cbor:"entries"`
}

const snapshotVersion = 1

func sourcesEqual(a, b []Source) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Origin != b[i].Origin || !a[i].LastWrite.Equal(b[i].LastWrite) {
			return false
		}
	}
	return true
}

func cloneSources(in []Source) []Source {
	out := make([]Source, len(in))
	for i, s := range in {
		out[i] = Source{Origin: s.Origin, LastWrite: s.LastWrite.UTC()}
	}
	return out
}
