package codec

import (
	"bytes"
	"encoding/hex"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindString Kind = iota + 1
	KindInt
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBytes:
		return "bytes"
	}
	return "unknown"
}

// Value is a decoded cell value or qualifier. The set of implementations is closed:
// String, Int and Bytes.
type Value interface {
	Kind() Kind
	sealed()
}

// String is a value decoded as text.
type String string

// Int is a value decoded as a big-endian 64-bit counter.
type Int int64

// Bytes is a value left undecoded.
type Bytes []byte

func (String) Kind() Kind { return KindString }
func (Int) Kind() Kind    { return KindInt }
func (Bytes) Kind() Kind  { return KindBytes }

func (String) sealed() {}
func (Int) sealed()    {}
func (Bytes) sealed()  {}

// Equal reports whether two values hold the same variant and content.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Bytes:
		bv, ok := b.(Bytes)
		return ok && bytes.Equal(av, bv)
	}
	return a == nil && b == nil
}

// Text renders a value for logs and map keys. Bytes are hex encoded.
func Text(v Value) string {
	switch tv := v.(type) {
	case String:
		return string(tv)
	case Int:
		return strconv.FormatInt(int64(tv), 10)
	case Bytes:
		return hex.EncodeToString(tv)
	}
	return ""
}
