package shortener

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// MembershipFilter is an approximate set of every code the process has
// issued. Contains may report true for a code never added (false positive),
// never false for one that was. It starts empty on every restart and
// re-learns codes as they are issued; collisions with codes from before the
// restart are caught by the cache check instead.
type MembershipFilter interface {
	Contains(code string) bool
	Add(code string)
}

const (
	defaultFilterCapacity = 20_000_000
	defaultFilterFPRate   = 0.01
)

// BloomFilter is an in-process MembershipFilter safe for concurrent use.
type BloomFilter struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewBloomFilter creates a filter provisioned for the default expected
// cardinality. Sizing is a deployment knob, not a correctness requirement:
// a positive answer only means "go verify".
func NewBloomFilter() *BloomFilter {
	return NewBloomFilterWithEstimates(defaultFilterCapacity, defaultFilterFPRate)
}

// NewBloomFilterWithEstimates creates a filter sized for n entries at the
// given false-positive rate.
func NewBloomFilterWithEstimates(n uint, fpRate float64) *BloomFilter {
	return &BloomFilter{filter: bloom.NewWithEstimates(n, fpRate)}
}

func (f *BloomFilter) Contains(code string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.filter.TestString(code)
}

func (f *BloomFilter) Add(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.filter.AddString(code)
}
