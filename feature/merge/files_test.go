package merge

import (
	"fmt"
	"sync"
	"testing"

	"tbl-merger/core/tbl"

	"github.com/stretchr/testify/assert"
)

func TestFileMap_GetReturnsCopy(t *testing.T) {
	m := NewFileMap()
	m.Add("A.TBL", CandidateSource{Origin: "mod-a"})

	got, ok := m.Get("A.TBL")
	assert.True(t, ok)
	got[0].Origin = "changed"

	again, _ := m.Get("A.TBL")
	assert.Equal(t, "mod-a", again[0].Origin)

	_, ok = m.Get("B.TBL")
	assert.False(t, ok)
}

func TestFileMap_ConcurrentReplace(t *testing.T) {
	m := NewFileMap()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		path := tbl.LogicalPath(fmt.Sprintf("T%02d.TBL", i))
		m.Add(path, CandidateSource{Origin: "mod-a"})
		m.Add(path, CandidateSource{Origin: "mod-b"})
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Replace(path, CandidateSource{Origin: MergedOrigin, Path: string(path)})
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Len(t, snap, 50)
	for path, files := range snap {
		assert.Equal(t, []CandidateSource{{Origin: MergedOrigin, Path: string(path)}}, files)
	}
	assert.Equal(t, tbl.LogicalPath("T00.TBL"), m.Paths()[0])
}
