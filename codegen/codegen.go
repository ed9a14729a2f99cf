package codegen

import (
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/dendrascience/filecoder/mapping"
	"github.com/dendrascience/filecoder/util"
)

const (
	// MaxLength is the widest code that still fits in an int64.
	MaxLength = 18

	// DefaultMaxAttempts bounds the random draws made for one code before
	// falling back to enumeration or giving up.
	DefaultMaxAttempts = 1000

	// enumerateLimit is the largest code space that is scanned for free
	// codes once the random draws have failed.
	enumerateLimit = 1 << 20
)

var pow10 = func() [MaxLength + 1]int64 {
	var p [MaxLength + 1]int64
	p[0] = 1
	for i := 1; i <= MaxLength; i++ {
		p[i] = p[i-1] * 10
	}
	return p
}()

// Generator draws random fixed-width codes that the given index does not
// already hold. It is safe for concurrent use, but callers that need the
// returned code to stay unused must hold the index stable until they record
// it; mapping.Store.Assign does that.
type Generator struct {
	mu          sync.Mutex
	rng         *rand.Rand
	maxAttempts int
}

// Option configures a Generator.
type Option func(*Generator)

// WithSource makes the generator draw from src. Tests use a seeded PCG
// source for repeatable codes.
func WithSource(src rand.Source) Option {
	return func(g *Generator) {
		g.rng = rand.New(src)
	}
}

// WithMaxAttempts overrides DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// New returns a Generator seeded from the runtime's random source.
func New(opts ...Option) *Generator {
	g := &Generator{
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var _ mapping.Generator = (*Generator)(nil)

// ValidateLength rejects code lengths outside 1..MaxLength.
func ValidateLength(length int) error {
	switch {
	case length <= 0:
		return &util.ConfigurationError{Field: "length", Value: strconv.Itoa(length), Reason: "code length must be positive"}
	case length > MaxLength:
		return &util.ConfigurationError{Field: "length", Value: strconv.Itoa(length), Reason: "code length must be at most " + strconv.Itoa(MaxLength)}
	}
	return nil
}

// Capacity returns how many codes of the given length exist: 9*10^(length-1).
func Capacity(length int) int64 {
	if ValidateLength(length) != nil {
		return 0
	}
	return pow10[length] - pow10[length-1]
}

// Next returns a code of exactly length digits with no leading zero that
// known does not contain. Values are drawn uniformly from
// [10^(length-1), 10^length-1] and redrawn on collision. When every code of
// that width is taken, or no free one turns up within the attempt budget,
// Next fails with *util.ExhaustedCodespaceError instead of looping forever.
func (g *Generator) Next(length int, known mapping.Index) (string, error) {
	if err := ValidateLength(length); err != nil {
		return "", err
	}
	lo := pow10[length-1]
	capacity := Capacity(length)
	used := known.CountWidth(length)
	if used >= capacity {
		return "", &util.ExhaustedCodespaceError{Length: length, Capacity: capacity, Used: used}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for range g.maxAttempts {
		code := strconv.FormatInt(lo+g.rng.Int64N(capacity), 10)
		if !known.Contains(code) {
			return code, nil
		}
	}

	if capacity <= enumerateLimit {
		if code, ok := g.pickFree(lo, capacity, known); ok {
			return code, nil
		}
	}
	return "", &util.ExhaustedCodespaceError{Length: length, Capacity: capacity, Used: used}
}

// pickFree scans the whole space and returns a uniformly chosen unused code.
func (g *Generator) pickFree(lo, capacity int64, known mapping.Index) (string, bool) {
	var free []int64
	for v := lo; v < lo+capacity; v++ {
		if !known.Contains(strconv.FormatInt(v, 10)) {
			free = append(free, v)
		}
	}
	if len(free) == 0 {
		return "", false
	}
	return strconv.FormatInt(free[g.rng.IntN(len(free))], 10), true
}
