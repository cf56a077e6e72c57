// Package resume tracks which part of a ReadRows request is still unread so an interrupted
// scan can be reissued without returning a row twice.
package resume

import (
	"bytes"
	"errors"
)

// Bound is one end of a key range. An empty key leaves that end unbounded.
type Bound struct {
	Key       []byte
	Inclusive bool
}

// Closed returns an inclusive bound at key.
func Closed(key string) Bound {
	return Bound{Key: []byte(key), Inclusive: true}
}

// Open returns an exclusive bound at key.
func Open(key string) Bound {
	return Bound{Key: []byte(key)}
}

func (b Bound) unbounded() bool {
	return len(b.Key) == 0
}

// Range is a contiguous span of row keys.
type Range struct {
	Start Bound
	End   Bound
}

// Prefix returns the range of every key starting with prefix.
func Prefix(prefix []byte) Range {
	p := bytes.TrimRight(prefix, "\xff")
	if len(p) == 0 {
		return Range{}
	}
	end := append([]byte(nil), p...)
	end[len(end)-1]++
	return Range{
		Start: Bound{Key: append([]byte(nil), p...), Inclusive: true},
		End:   Bound{Key: end},
	}
}

// Contains reports whether key falls inside the range.
func (r Range) Contains(key []byte) bool {
	if !r.Start.unbounded() {
		c := bytes.Compare(key, r.Start.Key)
		if c < 0 || (c == 0 && !r.Start.Inclusive) {
			return false
		}
	}
	if !r.End.unbounded() {
		c := bytes.Compare(key, r.End.Key)
		if c > 0 || (c == 0 && !r.End.Inclusive) {
			return false
		}
	}
	return true
}

func (r Range) validate() error {
	if r.Start.unbounded() || r.End.unbounded() {
		return nil
	}
	c := bytes.Compare(r.Start.Key, r.End.Key)
	if c > 0 || (c == 0 && !(r.Start.Inclusive && r.End.Inclusive)) {
		return errors.New("range start must not be after its end")
	}
	return nil
}

func (r Range) clone() Range {
	return Range{
		Start: Bound{Key: cloneKey(r.Start.Key), Inclusive: r.Start.Inclusive},
		End:   Bound{Key: cloneKey(r.End.Key), Inclusive: r.End.Inclusive},
	}
}

// RowSet selects rows by key and by range. A set without keys and ranges selects every row.
type RowSet struct {
	Keys   [][]byte
	Ranges []Range
}

// All reports whether the set selects the whole table.
func (s RowSet) All() bool {
	if len(s.Keys) == 0 && len(s.Ranges) == 0 {
		return true
	}
	for _, r := range s.Ranges {
		if r.Start.unbounded() && r.End.unbounded() {
			return true
		}
	}
	return false
}

// Contains reports whether the set selects key.
func (s RowSet) Contains(key []byte) bool {
	if s.All() {
		return true
	}
	for _, k := range s.Keys {
		if bytes.Equal(k, key) {
			return true
		}
	}
	for _, r := range s.Ranges {
		if r.Contains(key) {
			return true
		}
	}
	return false
}

func (s RowSet) clone() RowSet {
	var out RowSet
	for _, k := range s.Keys {
		out.Keys = append(out.Keys, cloneKey(k))
	}
	for _, r := range s.Ranges {
		out.Ranges = append(out.Ranges, r.clone())
	}
	return out
}

func cloneKey(k []byte) []byte {
	if k == nil {
		return nil
	}
	return append([]byte(nil), k...)
}
