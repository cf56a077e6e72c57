package resume

import (
	"bytes"
	"github.com/rs/zerolog/log"
)

// Strategy narrows a request as rows are read so it can be resumed after an interruption.
// Retry timing is left to the caller.
type Strategy struct {
	table      string
	appProfile string
	reversed   bool
	rowsLimit  int64
	rowsRead   int64

	keys   [][]byte
	ranges []Range
	last   []byte
}

// NewStrategy starts tracking req. The request is copied and never modified.
func NewStrategy(req *Request) (*Strategy, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	rows := req.Rows.clone()
	s := &Strategy{
		table:      req.Table,
		appProfile: req.AppProfile,
		reversed:   req.Reversed,
		rowsLimit:  req.RowsLimit,
		keys:       rows.Keys,
		ranges:     rows.Ranges,
	}
	// a full table scan is tracked as one unbounded range
	if len(s.keys) == 0 && len(s.ranges) == 0 {
		s.ranges = append(s.ranges, Range{})
	}
	return s, nil
}

// RowRead counts one more row returned to the caller.
func (s *Strategy) RowRead() {
	s.rowsRead++
}

// RowsRead returns the number of rows counted so far.
func (s *Strategy) RowsRead() int64 {
	return s.rowsRead
}

// Advance drops every key and range portion up to and including last. Calling it again with
// the same key changes nothing.
func (s *Strategy) Advance(last []byte) {
	if len(last) == 0 {
		return
	}
	if s.last != nil && !s.after(last, s.last) {
		return
	}
	s.last = cloneKey(last)

	keys := s.keys[:0]
	for _, k := range s.keys {
		if s.after(k, last) {
			keys = append(keys, k)
		}
	}
	s.keys = keys

	ranges := s.ranges[:0]
	for _, r := range s.ranges {
		if next, ok := s.splice(r, last); ok {
			ranges = append(ranges, next)
		}
	}
	s.ranges = ranges
	log.Debug().Bytes("lastRowKey", last).Int("keys", len(s.keys)).Int("ranges", len(s.ranges)).
		Msg("resume point advanced")
}

// splice trims the part of r that was already scanned. It reports false when nothing of r is
// left.
func (s *Strategy) splice(r Range, last []byte) (Range, bool) {
	if s.reversed {
		// a reversed scan reads a range from its end down
		endRead := r.End.unbounded() || bytes.Compare(r.End.Key, last) >= 0
		if !endRead {
			return r, true
		}
		if r.Start.unbounded() || bytes.Compare(r.Start.Key, last) < 0 {
			r.End = Bound{Key: cloneKey(last)}
			return r, true
		}
		return Range{}, false
	}

	startRead := r.Start.unbounded() || bytes.Compare(r.Start.Key, last) <= 0
	if !startRead {
		return r, true
	}
	if r.End.unbounded() || bytes.Compare(last, r.End.Key) < 0 {
		r.Start = Bound{Key: cloneKey(last)}
		return r, true
	}
	return Range{}, false
}

// after reports whether key comes after ref in scan order.
func (s *Strategy) after(key, ref []byte) bool {
	if s.reversed {
		return bytes.Compare(key, ref) < 0
	}
	return bytes.Compare(key, ref) > 0
}

// CanResume reports whether anything is left to read.
func (s *Strategy) CanResume() bool {
	if len(s.keys) == 0 && len(s.ranges) == 0 {
		return false
	}
	if s.rowsLimit > 0 && s.rowsRead >= s.rowsLimit {
		return false
	}
	return true
}

// Next returns the request that reads the remainder of the scan, or nil when CanResume is
// false. An empty row set would select the whole table, so it is never returned.
func (s *Strategy) Next() *Request {
	if !s.CanResume() {
		return nil
	}
	req := &Request{
		Table:      s.table,
		AppProfile: s.appProfile,
		Reversed:   s.reversed,
		Rows:       RowSet{Keys: s.keys, Ranges: s.ranges}.clone(),
	}
	if s.rowsLimit > 0 {
		req.RowsLimit = s.rowsLimit - s.rowsRead
	}
	return req
}
