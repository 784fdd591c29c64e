// Package ordering allocates dense lexicographic order keys for sibling lists.
//
// Keys are non-empty strings over [0-9a-z] that never end in '0'. They compare
// bytewise, so a plain ORDER BY order_key returns display order. Between any two
// distinct keys there is always room for another key, so inserting never rewrites
// a neighbor.
package ordering

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"kanban-board-api/internal/domain"
)

const (
	digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	radix  = len(digits)

	// DefaultMaxKeyLength bounds key growth before compaction is requested
	DefaultMaxKeyLength = 64
	// MaxStoredKeyLength is the width of the order_key column. Keys, jitter
	// included, never exceed it.
	MaxStoredKeyLength = 255
	// DefaultJitterDigits is the number of random digits appended to each key
	DefaultJitterDigits = 2
)

// ErrInvalidKey is returned for malformed or misordered neighbor keys
var ErrInvalidKey = errors.New("invalid order key")

// Config controls key growth and collision resistance
type Config struct {
	MaxKeyLength int
	JitterDigits int
}

// Allocator computes order keys between two neighbors.
// It holds no state about any list and is safe for concurrent use.
type Allocator struct {
	maxLen int
	jitter int
	intN   func(n int) int
}

// Option customizes an Allocator
type Option func(*Allocator)

// WithRand replaces the jitter source, mainly for deterministic tests
func WithRand(intN func(n int) int) Option {
	return func(a *Allocator) {
		a.intN = intN
	}
}

// NewAllocator creates an Allocator from cfg. A zero MaxKeyLength becomes
// DefaultMaxKeyLength and larger values are capped at MaxStoredKeyLength.
// JitterDigits is used as given: zero or negative disables jitter, so callers
// wanting collision resistance pass DefaultJitterDigits (config.Default does).
func NewAllocator(cfg Config, opts ...Option) *Allocator {
	a := &Allocator{
		maxLen: cfg.MaxKeyLength,
		jitter: cfg.JitterDigits,
		intN:   rand.IntN,
	}
	if a.maxLen <= 0 {
		a.maxLen = DefaultMaxKeyLength
	}
	if a.maxLen > MaxStoredKeyLength {
		a.maxLen = MaxStoredKeyLength
	}
	if a.jitter < 0 {
		a.jitter = 0
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MaxKeyLength returns the length above which Allocate requests compaction
func (a *Allocator) MaxKeyLength() int {
	return a.maxLen
}

// Allocate returns a key strictly between before and after.
// An empty before means "start of list", an empty after means "end of list".
// It returns domain.ErrCompactionRequired when the new key would exceed the configured length.
func (a *Allocator) Allocate(before, after string) (string, error) {
	if before != "" {
		if err := Validate(before); err != nil {
			return "", err
		}
	}
	if after != "" {
		if err := Validate(after); err != nil {
			return "", err
		}
	}
	if before != "" && after != "" && before >= after {
		return "", fmt.Errorf("%w: %q is not before %q", ErrInvalidKey, before, after)
	}

	key := midpoint(before, after)
	if a.jitter > 0 {
		key += a.suffix()
	}
	if len(key) > a.maxLen {
		return "", domain.ErrCompactionRequired
	}
	return key, nil
}

// suffix returns jitter digits whose last digit is never '0'.
// Any suffix keeps the key inside the interval because midpoint never returns
// a prefix of either bound.
func (a *Allocator) suffix() string {
	var b strings.Builder
	for i := 0; i < a.jitter-1; i++ {
		b.WriteByte(digits[a.intN(radix)])
	}
	b.WriteByte(digits[1+a.intN(radix-1)])
	return b.String()
}

// midpoint returns a key strictly between lo and hi, where "" stands for the
// open bound on either side. The result is never a prefix of lo or hi.
func midpoint(lo, hi string) string {
	if hi != "" {
		n := 0
		for n < len(hi) && digitAt(lo, n) == hi[n] {
			n++
		}
		if n > 0 {
			return hi[:n] + midpoint(trimFront(lo, n), hi[n:])
		}
	}

	lower := 0
	if lo != "" {
		lower = strings.IndexByte(digits, lo[0])
	}
	upper := radix
	if hi != "" {
		upper = strings.IndexByte(digits, hi[0])
	}

	if upper-lower > 1 {
		return string(digits[(lower+upper+1)/2])
	}
	// consecutive leading digits: keep lo's digit and grow past the rest of lo
	return string(digits[lower]) + midpoint(trimFront(lo, 1), "")
}

// digitAt returns s[i], treating positions past the end as '0'
func digitAt(s string, i int) byte {
	if i < len(s) {
		return s[i]
	}
	return digits[0]
}

func trimFront(s string, n int) string {
	if n >= len(s) {
		return ""
	}
	return s[n:]
}

// Validate checks that key is a well-formed order key
func Validate(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	for i := 0; i < len(key); i++ {
		if strings.IndexByte(digits, key[i]) < 0 {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidKey, key, key[i])
		}
	}
	if key[len(key)-1] == digits[0] {
		return fmt.Errorf("%w: %q has a trailing zero", ErrInvalidKey, key)
	}
	return nil
}

// Spread returns n evenly spaced ascending keys of equal width, with trailing
// zeros removed. Compaction uses it to rewrite a whole sibling sequence.
func Spread(n int) []string {
	if n <= 0 {
		return nil
	}

	// leave at least one digit of headroom between consecutive keys
	width := 1
	space := int64(radix)
	for space < int64(n+1)*int64(radix) && width < 11 {
		space *= int64(radix)
		width++
	}

	keys := make([]string, n)
	step := space / int64(n+1)
	for i := 0; i < n; i++ {
		keys[i] = strings.TrimRight(encode(step*int64(i+1), width), digits[:1])
	}
	return keys
}

func encode(v int64, width int) string {
	buf := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		buf[i] = digits[v%int64(radix)]
		v /= int64(radix)
	}
	return string(buf)
}
