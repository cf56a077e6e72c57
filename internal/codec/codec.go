// Package codec converts raw cell payloads to and from typed values.
package codec

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultTextEncoding is used when Options.TextEncoding is empty.
	DefaultTextEncoding = "utf-8"

	// MaxExactInt is the largest counter magnitude returned as an Int. Larger 8 byte payloads
	// are not counters a float64 consumer could read back, so they decode as text or bytes.
	MaxExactInt = 1<<53 - 1

	counterSize = 8
)

// Options control how payloads are decoded.
type Options struct {
	// DecodeAsBytes skips text decoding and returns raw bytes.
	DecodeAsBytes bool
	// TextEncoding names the charset used for text. Accepts IANA names plus "hex" and "base64".
	TextEncoding string
}

// Validate reports whether the configured text encoding is known.
func (o Options) Validate() error {
	_, err := NewDecoder(o)
	return err
}

type textFunc func([]byte) (string, error)

// Decoder decodes payloads with a fixed set of Options. The text encoding is resolved once.
type Decoder struct {
	opts Options
	text textFunc
}

// NewDecoder resolves the text encoding named in opts.
func NewDecoder(opts Options) (*Decoder, error) {
	fn, err := resolveText(opts.TextEncoding)
	if err != nil {
		return nil, err
	}
	return &Decoder{opts: opts, text: fn}, nil
}

// Options returns the options the decoder was built with.
func (d *Decoder) Options() Options {
	return d.opts
}

// Decode converts b to a Value. When counter is set and b is exactly 8 bytes, b is read as a
// big-endian int64 and returned as an Int if it is within MaxExactInt.
func (d *Decoder) Decode(b []byte, counter bool) (Value, error) {
	if counter && len(b) == counterSize {
		n := int64(binary.BigEndian.Uint64(b))
		if n >= -MaxExactInt && n <= MaxExactInt {
			return Int(n), nil
		}
	}

	if d.opts.DecodeAsBytes {
		out := make(Bytes, len(b))
		copy(out, b)
		return out, nil
	}

	s, err := d.text(b)
	if err != nil {
		return nil, err
	}
	return String(s), nil
}

// Decode is a convenience wrapper that builds a Decoder for a single call.
func Decode(b []byte, opts Options, counter bool) (Value, error) {
	d, err := NewDecoder(opts)
	if err != nil {
		return nil, err
	}
	return d.Decode(b, counter)
}

// Encode converts v to its wire form: bytes pass through, integers become 8 big-endian
// bytes and text is written as UTF-8.
func Encode(v any) ([]byte, error) {
	switch tv := v.(type) {
	case []byte:
		return tv, nil
	case Bytes:
		return tv, nil
	case string:
		return []byte(tv), nil
	case String:
		return []byte(tv), nil
	case Int:
		return encodeInt(int64(tv)), nil
	case int64:
		return encodeInt(tv), nil
	case int:
		return encodeInt(int64(tv)), nil
	case int32:
		return encodeInt(int64(tv)), nil
	}
	return nil, newError(ErrUnsupportedType, "%T", v)
}

func encodeInt(n int64) []byte {
	out := make([]byte, counterSize)
	binary.BigEndian.PutUint64(out, uint64(n))
	return out
}

func resolveText(name string) (textFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf8", "utf-8":
		return decodeUTF8, nil
	case "hex":
		return func(b []byte) (string, error) { return hex.EncodeToString(b), nil }, nil
	case "base64":
		return func(b []byte) (string, error) {
			return base64.StdEncoding.EncodeToString(b), nil
		}, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, newError(ErrUnknownEncoding, "%q", name)
	}
	return charsetDecoder(name, enc), nil
}

func decodeUTF8(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", newError(ErrDecode, "invalid utf-8 sequence in %d byte payload", len(b))
	}
	return string(b), nil
}

func charsetDecoder(name string, enc encoding.Encoding) textFunc {
	return func(b []byte) (string, error) {
		out, err := enc.NewDecoder().Bytes(b)
		if err != nil {
			return "", newError(ErrDecode, "%s: %v", name, err)
		}
		return string(out), nil
	}
}
