package mapping

import (
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqGen hands out codes from a fixed list, skipping ones the index knows.
type seqGen struct {
	codes []string
	calls int
}

func (g *seqGen) Next(_ int, known Index) (string, error) {
	for g.calls < len(g.codes) {
		c := g.codes[g.calls]
		g.calls++
		if !known.Contains(c) {
			return c, nil
		}
	}
	return "", errors.New("out of codes")
}

func TestStore_InsertAndLookup(t *testing.T) {
	s := NewStore()
	s.Insert(Entry{Code: "5231", Identity: "a.jpg"})
	s.Insert(Entry{Code: "1007", Identity: "a.jpg"})

	assert.True(t, s.Contains("5231"))
	assert.False(t, s.Contains("0000"))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, int64(2), s.CountWidth(4))
	assert.Equal(t, int64(0), s.CountWidth(5))

	e, ok := s.Lookup("1007")
	require.True(t, ok)
	assert.Equal(t, "a.jpg", e.Identity)

	_, ok = s.Lookup("9999")
	assert.False(t, ok)
}

func TestStore_InsertDuplicatePanics(t *testing.T) {
	s := NewStore()
	s.Insert(Entry{Code: "42", Identity: "a.jpg"})
	assert.Panics(t, func() { s.Insert(Entry{Code: "42", Identity: "b.jpg"}) })
}

func TestStore_AssignSkipsKnownCodes(t *testing.T) {
	s := NewStore()
	s.Insert(Entry{Code: "5231", Identity: "old.jpg"})

	gen := &seqGen{codes: []string{"5231", "6000"}}
	e, err := s.Assign(gen, 4, "new.jpg")
	require.NoError(t, err)
	assert.Equal(t, Entry{Code: "6000", Identity: "new.jpg"}, e)
	assert.Equal(t, 2, gen.calls)
	assert.True(t, s.Contains("6000"))
}

func TestStore_AssignPropagatesGeneratorError(t *testing.T) {
	s := NewStore()
	_, err := s.Assign(&seqGen{}, 4, "a.jpg")
	require.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestStore_AssignConcurrentNeverDuplicates(t *testing.T) {
	s := NewStore()
	codes := make([]string, 0, 200)
	for i := range 200 {
		codes = append(codes, strconv.Itoa(1000+i))
	}
	gen := &seqGen{codes: append(codes, codes...)}

	var wg sync.WaitGroup
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Assign(gen, 4, "x.jpg")
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for e := range s.Iterate {
		assert.False(t, seen[e.Code], "duplicate code %s", e.Code)
		seen[e.Code] = true
	}
	assert.Equal(t, 200, s.Len())
}

func TestStore_DiscardOnlyRunEntries(t *testing.T) {
	s := NewStore()
	s.Insert(Entry{Code: "11", Identity: "prior.jpg"})
	s.loaded = 1
	s.Insert(Entry{Code: "22", Identity: "a.jpg"})
	s.Insert(Entry{Code: "33", Identity: "b.jpg"})

	assert.False(t, s.Discard("11"), "prior snapshot entries are immutable")
	assert.False(t, s.Discard("99"))
	assert.True(t, s.Discard("22"))

	assert.False(t, s.Contains("22"))
	assert.Equal(t, int64(2), s.CountWidth(2))
	assert.Equal(t, []Entry{{Code: "11", Identity: "prior.jpg"}, {Code: "33", Identity: "b.jpg"}}, s.Entries())

	e, ok := s.Lookup("33")
	require.True(t, ok)
	assert.Equal(t, "b.jpg", e.Identity)
	assert.Equal(t, []Entry{{Code: "33", Identity: "b.jpg"}}, s.Added())
}

func TestStore_IterateStopsEarly(t *testing.T) {
	s := NewStore()
	for _, c := range []string{"1", "2", "3"} {
		s.Insert(Entry{Code: c, Identity: c + ".png"})
	}
	var got []string
	for e := range s.Iterate {
		got = append(got, e.Code)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"1", "2"}, got)
}

func TestValidCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"5231", true},
		{"1", true},
		{"", false},
		{"0123", false},
		{"12a4", false},
		{"-123", false},
		{" 123", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCode(tt.code))
		})
	}
}
