// Package handle maps meeting identifiers to and from short URL-safe strings.
//
// A handle is the unpadded URL-safe base64 form of the 8-byte big-endian
// representation of an unsigned 64-bit value, so every handle is exactly
// 11 characters from [A-Za-z0-9_-].
package handle

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidHandle is returned for any string that is not a well-formed handle.
var ErrInvalidHandle = errors.New("invalid handle")

const (
	// Min and Max bound generated values (both inclusive).
	Min uint64 = 100
	Max uint64 = 1 << 63

	// Len is the length of every encoded handle.
	Len = 11
)

var alphabet = regexp.MustCompile(`^[0-9a-zA-Z_-]+$`)

// strict rejects encodings whose unused trailing bits are not zero, so each
// value has exactly one accepted handle.
var enc = base64.URLEncoding.Strict()

// Encode renders v as a handle. It never fails.
func Encode(v uint64) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b[:]), "=")
}

// Validate checks that s only uses the URL-safe alphabet. Passing Validate
// does not mean s decodes; see Decode.
func Validate(s string) error {
	if !alphabet.MatchString(s) {
		return fmt.Errorf("%w: %q has characters outside [A-Za-z0-9_-]", ErrInvalidHandle, s)
	}
	return nil
}

// Decode is the inverse of Encode.
func Decode(s string) (uint64, error) {
	if err := Validate(s); err != nil {
		return 0, err
	}
	// restore padding; a remainder of 1 can't come from any byte string
	switch len(s) % 4 {
	case 1:
		return 0, fmt.Errorf("%w: %q has impossible length %d", ErrInvalidHandle, s, len(s))
	case 2:
		s += "=="
	case 3:
		s += "="
	}
	b, err := enc.DecodeString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidHandle, err)
	}
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: decodes to %d bytes, want 8", ErrInvalidHandle, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// Parse validates a handle supplied by a caller and returns it unchanged.
func Parse(s string) (string, error) {
	if _, err := Decode(s); err != nil {
		return "", err
	}
	return s, nil
}

// Source produces uniformly distributed 64-bit values.
type Source interface {
	Uint64() uint64
}

// CryptoSource reads from crypto/rand. It is safe for concurrent use.
type CryptoSource struct{}

func (CryptoSource) Uint64() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand.Read does not fail on supported platforms
		panic(fmt.Sprintf("handle: crypto/rand: %v", err))
	}
	return binary.BigEndian.Uint64(b[:])
}

// Generator draws fresh handles. Handles are not guaranteed unique; callers
// that need uniqueness must check against their own index and retry.
type Generator struct {
	src Source
}

// NewGenerator returns a Generator reading from src, or from CryptoSource when
// src is nil.
func NewGenerator(src Source) *Generator {
	if src == nil {
		src = CryptoSource{}
	}
	return &Generator{src: src}
}

// Value draws a value uniformly from [Min, Max].
func (g *Generator) Value() uint64 {
	span := Max - Min + 1
	// 2^64 mod span; draws below it would bias the low end
	thresh := -span % span
	for {
		r := g.src.Uint64()
		if r >= thresh {
			return Min + r%span
		}
	}
}

// Generate returns a new handle.
func (g *Generator) Generate() string {
	return Encode(g.Value())
}
