package codec

import (
	"errors"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestDecode(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input       []byte
		opts        Options
		counter     bool
		expected    Value
		expectedErr error
	}{
		"utf-8 text": {
			input:    []byte("hello"),
			expected: String("hello"),
		},
		"counter hint with 8 bytes": {
			input:    []byte{0, 0, 0, 0, 0, 0, 0, 42},
			counter:  true,
			expected: Int(42),
		},
		"negative counter": {
			input:    []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe},
			counter:  true,
			expected: Int(-2),
		},
		"counter hint ignored without hint": {
			input:    []byte{0, 0, 0, 0, 0, 0, 0, 'A'},
			expected: String("\x00\x00\x00\x00\x00\x00\x00A"),
		},
		"counter hint with wrong length": {
			input:    []byte{0, 0, 0, 42},
			counter:  true,
			expected: String("\x00\x00\x00*"),
		},
		"counter outside exact range falls through to text": {
			input:    []byte("abcdefgh"),
			counter:  true,
			expected: String("abcdefgh"),
		},
		"counter outside exact range falls through to bytes": {
			input:    []byte("abcdefgh"),
			opts:     Options{DecodeAsBytes: true},
			counter:  true,
			expected: Bytes("abcdefgh"),
		},
		"decode as bytes": {
			input:    []byte{0xff, 0x00},
			opts:     Options{DecodeAsBytes: true},
			expected: Bytes{0xff, 0x00},
		},
		"invalid utf-8": {
			input:       []byte{0xff, 0xfe},
			expectedErr: ErrDecode,
		},
		"latin-1": {
			input:    []byte{'c', 'a', 'f', 0xe9},
			opts:     Options{TextEncoding: "ISO-8859-1"},
			expected: String("café"),
		},
		"hex": {
			input:    []byte{0xca, 0xfe},
			opts:     Options{TextEncoding: "hex"},
			expected: String("cafe"),
		},
		"base64": {
			input:    []byte("hi"),
			opts:     Options{TextEncoding: "base64"},
			expected: String("aGk="),
		},
		"unknown encoding": {
			input:       []byte("x"),
			opts:        Options{TextEncoding: "klingon"},
			expectedErr: ErrUnknownEncoding,
		},
		"empty payload": {
			input:    nil,
			expected: String(""),
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			got, err := Decode(tc.input, tc.opts, tc.counter)
			if tc.expectedErr != nil {
				req.True(errors.Is(err, tc.expectedErr), "expected %v, got %v", tc.expectedErr, err)
				return
			}
			req.NoError(err)
			req.Equal(tc.expected, got)
		})
	}
}

func TestDecoder_DecodeCopiesBytes(t *testing.T) {
	req := require.New(t)
	d, err := NewDecoder(Options{DecodeAsBytes: true})
	req.NoError(err)

	src := []byte("abc")
	got, err := d.Decode(src, false)
	req.NoError(err)
	src[0] = 'z'
	req.Equal(Bytes("abc"), got)
}

func TestEncode(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input       any
		expected    []byte
		expectedErr error
	}{
		"raw bytes":    {input: []byte{1, 2}, expected: []byte{1, 2}},
		"bytes value":  {input: Bytes{3}, expected: []byte{3}},
		"string":       {input: "abc", expected: []byte("abc")},
		"string value": {input: String("abc"), expected: []byte("abc")},
		"int":          {input: 42, expected: []byte{0, 0, 0, 0, 0, 0, 0, 42}},
		"int value":    {input: Int(-1), expected: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		"unsupported":  {input: 3.14, expectedErr: ErrUnsupportedType},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			got, err := Encode(tc.input)
			if tc.expectedErr != nil {
				req.ErrorIs(err, tc.expectedErr)
				return
			}
			req.NoError(err)
			req.Equal(tc.expected, got)
		})
	}
}

func TestEncodeDecodeCounter(t *testing.T) {
	req := require.New(t)
	b, err := Encode(Int(1234567))
	req.NoError(err)

	got, err := Decode(b, Options{}, true)
	req.NoError(err)
	req.Equal(Int(1234567), got)
}

func TestText(t *testing.T) {
	req := require.New(t)
	req.Equal("abc", Text(String("abc")))
	req.Equal("-7", Text(Int(-7)))
	req.Equal("0aff", Text(Bytes{0x0a, 0xff}))
	req.Equal("", Text(nil))
	req.Equal("bytes", KindBytes.String())
}
