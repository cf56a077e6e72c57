package resume

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func TestRowSet_Contains(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		set      RowSet
		key      string
		expected bool
	}{
		"empty set selects everything": {key: "x", expected: true},
		"unbounded range":              {set: RowSet{Ranges: []Range{{}}}, key: "x", expected: true},
		"listed key":                   {set: RowSet{Keys: keys("a", "x")}, key: "x", expected: true},
		"unlisted key":                 {set: RowSet{Keys: keys("a")}, key: "x", expected: false},
		"closed start": {
			set: RowSet{Ranges: []Range{{Start: Closed("b"), End: Open("d")}}}, key: "b", expected: true,
		},
		"open start": {
			set: RowSet{Ranges: []Range{{Start: Open("b"), End: Open("d")}}}, key: "b", expected: false,
		},
		"open end": {
			set: RowSet{Ranges: []Range{{Start: Closed("b"), End: Open("d")}}}, key: "d", expected: false,
		},
		"closed end": {
			set: RowSet{Ranges: []Range{{Start: Closed("b"), End: Closed("d")}}}, key: "d", expected: true,
		},
		"unbounded end": {
			set: RowSet{Ranges: []Range{{Start: Open("b")}}}, key: "zzz", expected: true,
		},
		"prefix": {
			set: RowSet{Ranges: []Range{Prefix([]byte("user#"))}}, key: "user#42", expected: true,
		},
		"outside prefix": {
			set: RowSet{Ranges: []Range{Prefix([]byte("user#"))}}, key: "user$", expected: false,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, tc.set.Contains([]byte(tc.key)))
		})
	}
}

func TestPrefix(t *testing.T) {
	req := require.New(t)
	req.Equal(Range{Start: Closed("ab"), End: Open("ac")}, Prefix([]byte("ab")))
	req.Equal(Range{Start: Closed("a"), End: Open("b")}, Prefix([]byte("a\xff\xff")))
	req.Equal(Range{}, Prefix([]byte("\xff")))
	req.Equal(Range{}, Prefix(nil))
}
