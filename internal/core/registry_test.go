package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceRegistry_AddLookupRemove(t *testing.T) {
	reg := NewSourceRegistry()

	a, err := reg.Add(&Source{FileName: "a.csv", Table: tableA(), Fingerprint: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.UploadedAt.IsZero())

	b, err := reg.Add(&Source{FileName: "b.xlsx", Sheet: "Q1", Table: tableB(), Fingerprint: 2})
	require.NoError(t, err)
	assert.Equal(t, "b.xlsx [Q1]", b.Label())

	got, ok := reg.Lookup(a.ID)
	require.True(t, ok)
	assert.Same(t, a, got)

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, []string{a.ID, b.ID}, []string{list[0].ID, list[1].ID})

	assert.True(t, reg.Remove(a.ID))
	assert.False(t, reg.Remove(a.ID))
	_, ok = reg.Lookup(a.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, reg.Len())
}

func TestSourceRegistry_RejectsDuplicateContent(t *testing.T) {
	reg := NewSourceRegistry()
	_, err := reg.Add(&Source{FileName: "a.csv", Table: tableA(), Fingerprint: 99})
	require.NoError(t, err)

	_, err = reg.Add(&Source{FileName: "copy of a.csv", Table: tableA(), Fingerprint: 99})
	assert.ErrorIs(t, err, ErrDuplicateSource)

	// Other sheets of the same workbook are distinct sources.
	_, err = reg.Add(&Source{FileName: "a.xlsx", Sheet: "S1", Table: tableA(), Fingerprint: 7})
	require.NoError(t, err)
	_, err = reg.Add(&Source{FileName: "a.xlsx", Sheet: "S2", Table: tableB(), Fingerprint: 7})
	assert.NoError(t, err)
}

func TestSourceRegistry_RejectsNilTable(t *testing.T) {
	_, err := NewSourceRegistry().Add(&Source{FileName: "x.csv"})
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestSourceRegistry_Concurrent(t *testing.T) {
	reg := NewSourceRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src, err := reg.Add(&Source{FileName: "f.csv", Table: tableA(), Fingerprint: uint64(i + 1)})
			if assert.NoError(t, err) {
				reg.Lookup(src.ID)
				reg.List()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, reg.Len())
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("ID,Name\n1,x\n"))
	assert.Equal(t, a, Fingerprint([]byte("ID,Name\n1,x\n")))
	assert.NotEqual(t, a, Fingerprint([]byte("ID,Name\n1,y\n")))
}
