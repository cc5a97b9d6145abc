package fuzzyhash

import "errors"

var (
	// ErrInvalidInput is returned when the byte sequence to hash is empty.
	ErrInvalidInput = errors.New("fuzzyhash: input must not be empty")

	// ErrInvalidArgument is returned when a range modulus is not positive.
	ErrInvalidArgument = errors.New("fuzzyhash: modulus must be positive")

	// ErrInvalidDigest is returned by ParseDigest for strings that are not
	// well-formed digests.
	ErrInvalidDigest = errors.New("fuzzyhash: malformed digest")
)
