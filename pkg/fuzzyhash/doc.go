// Package fuzzyhash implements the fuzzy hash, a small deterministic byte-mixing
// function that folds an arbitrary non-empty byte sequence into a uint32.
//
// # Algorithm
//
// The input is copied into a working buffer which is mixed in three cycles.
// Each cycle walks the buffer front to back and combines every byte with its
// already-updated left neighbour and its right neighbour (both wrapping around
// the buffer ends), adds the cycle index, and rotates the result left by 1, 2 or
// 3 bits depending on the byte position. The mixed buffer is then folded into a
// 32-bit value, shifting in one byte at a time and XOR-ing each position with a
// multiple of the golden-ratio constant 0x9E3779B9.
//
// The function is not cryptographic. It offers no collision or preimage
// resistance; it is a reproducible mixer whose exact bit-level output is part
// of its contract.
//
// # Usage
//
// One-shot values and digests:
//
//	h, err := fuzzyhash.Sum32String("Hello, World!")   // 0x3ecbf53b
//	d, err := fuzzyhash.HexString("Hello, World!")     // "fuzzy_3ecbf53b"
//	ok := fuzzyhash.VerifyString("Hello, World!", d)  // true
//
// Mapping a seed to a bounded outcome:
//
//	n, err := fuzzyhash.HashToRange([]string{seed, ts, bet}, 37)
//
// Empty input is rejected with ErrInvalidInput and a non-positive modulus with
// ErrInvalidArgument. All functions are safe for concurrent use.
package fuzzyhash
