// Package seed supplies the per-call entropy consumed by draws.
package seed

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

// Size is the number of bytes produced per call.
const Size = 32

// ErrInvalidSeed is returned when a seed string cannot be decoded.
var ErrInvalidSeed = errors.New("invalid seed")

// Crypto reads a fresh seed from Rand on every call.
type Crypto struct {
	Rand io.Reader
}

// Seed returns Size bytes read from the configured reader.
func (c *Crypto) Seed(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, Size)
	if _, err := io.ReadFull(c.Rand, buf); err != nil {
		return nil, fmt.Errorf("reading entropy: %w", err)
	}
	return buf, nil
}

// Chain derives a reproducible sequence of seeds from Base by repeated
// BLAKE2b-256 hashing. The first call returns H(Base), the next H(H(Base)).
type Chain struct {
	Base []byte
	prev []byte
}

// NewChain decodes a hex base seed.
func NewChain(hexSeed string) (*Chain, error) {
	base, err := hex.DecodeString(hexSeed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	if len(base) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSeed)
	}
	return &Chain{Base: base}, nil
}

// Seed returns the next link of the chain.
func (c *Chain) Seed(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in := c.prev
	if in == nil {
		in = c.Base
	}
	sum := blake2b.Sum256(in)
	c.prev = sum[:]

	out := make([]byte, Size)
	copy(out, sum[:])
	return out, nil
}
