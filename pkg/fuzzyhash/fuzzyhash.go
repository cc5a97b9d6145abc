package fuzzyhash

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DigestPrefix starts every digest string.
	DigestPrefix = "fuzzy_"

	// DigestLen is the length of a digest string: the prefix plus 8 hex digits.
	DigestLen = len(DigestPrefix) + 8

	// Delimiter joins seed parts in HashToRange.
	Delimiter = "|"

	cycles = 3
	golden = 0x9E3779B9
)

// Sum32 returns the fuzzy hash of data. It fails with ErrInvalidInput when data
// is empty. data is never modified.
func Sum32(data []byte) (uint32, error) {
	n := len(data)
	if n == 0 {
		return 0, ErrInvalidInput
	}

	b := make([]byte, n)
	copy(b, data)

	for c := 0; c < cycles; c++ {
		for i := 0; i < n; i++ {
			prev := b[n-1]
			if i > 0 {
				prev = b[i-1]
			}
			next := b[(i+1)%n]

			v := (b[i] ^ prev) + next + byte(c)
			shift := uint(i%3) + 1
			b[i] = v<<shift | v>>(8-shift)
		}
	}

	var h uint32
	for i, v := range b {
		h = h<<8 ^ uint32(v) ^ uint32(i)*golden
	}
	return h, nil
}

// Sum32String hashes the UTF-8 bytes of s.
func Sum32String(s string) (uint32, error) {
	return Sum32([]byte(s))
}

// Format renders h as a digest string.
func Format(h uint32) string {
	return fmt.Sprintf("%s%08x", DigestPrefix, h)
}

// Hex returns the digest string of data.
func Hex(data []byte) (string, error) {
	h, err := Sum32(data)
	if err != nil {
		return "", err
	}
	return Format(h), nil
}

// HexString returns the digest string of the UTF-8 bytes of s.
func HexString(s string) (string, error) {
	return Hex([]byte(s))
}

// Verify reports whether digest is exactly the digest of data. Empty data has
// no digest, so Verify returns false for it.
func Verify(data []byte, digest string) bool {
	got, err := Hex(data)
	if err != nil {
		return false
	}
	return got == digest
}

// VerifyString is Verify for text input.
func VerifyString(s, digest string) bool {
	return Verify([]byte(s), digest)
}

// ParseDigest returns the hash value encoded in a digest string. Only the
// canonical form produced by Format is accepted.
func ParseDigest(digest string) (uint32, error) {
	if len(digest) != DigestLen || !strings.HasPrefix(digest, DigestPrefix) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDigest, digest)
	}
	hexPart := digest[len(DigestPrefix):]
	for i := 0; i < len(hexPart); i++ {
		ch := hexPart[i]
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDigest, digest)
		}
	}
	v, err := strconv.ParseUint(hexPart, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDigest, digest)
	}
	return uint32(v), nil
}

// JoinSeed joins seed parts with sep. Parts are used verbatim: a part that
// itself contains sep can produce the same seed as a different split, and
// choosing a delimiter that cannot occur in any part is up to the caller.
func JoinSeed(sep string, parts ...string) string {
	return strings.Join(parts, sep)
}

// HashToRange hashes the parts joined with Delimiter and reduces the result
// into [0, modulus).
func HashToRange(parts []string, modulus int) (int, error) {
	return HashToRangeSep(Delimiter, parts, modulus)
}

// HashToRangeSep is HashToRange with a caller-chosen delimiter.
func HashToRangeSep(sep string, parts []string, modulus int) (int, error) {
	if modulus <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidArgument, modulus)
	}
	h, err := Sum32String(JoinSeed(sep, parts...))
	if err != nil {
		return 0, err
	}
	return int(uint64(h) % uint64(modulus)), nil
}
