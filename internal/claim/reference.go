package claim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	ReferenceDateLayout   = "20060102"
	ReferenceSequenceSize = 7
	MaxReferenceSequence  = 9999999
)

var ErrReferenceIDExhausted = errors.New("reference id exhausted")

// ExistsFunc reports whether a candidate reference is already taken.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// ReferenceCounter gives the number of references already issued for a day prefix.
type ReferenceCounter interface {
	CountByReferencePrefix(ctx context.Context, prefix string) (int64, error)
}

// ReferenceGenerator issues YYYYMMDD + 7 digit references. The starting point
// comes from the store count; a per-process high-water mark keeps claims created
// in the same tick apart, and the exists check catches other processes.
type ReferenceGenerator struct {
	counter     ReferenceCounter
	maxAttempts int

	mu   sync.Mutex
	day  string
	last int64
}

func NewReferenceGenerator(counter ReferenceCounter, maxAttempts int) *ReferenceGenerator {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &ReferenceGenerator{counter: counter, maxAttempts: maxAttempts}
}

func (g *ReferenceGenerator) MaxAttempts() int {
	return g.maxAttempts
}

func FormatReference(day time.Time, seq int64) string {
	return fmt.Sprintf("%s%0*d", day.Format(ReferenceDateLayout), ReferenceSequenceSize, seq)
}

func (g *ReferenceGenerator) Generate(ctx context.Context, today time.Time, exists ExistsFunc) (string, error) {
	ref, _, err := g.GenerateWithin(ctx, today, exists, g.maxAttempts)
	return ref, err
}

// GenerateWithin proposes at most budget candidates and reports how many it used,
// so callers that retry the insert can share one attempt budget.
func (g *ReferenceGenerator) GenerateWithin(ctx context.Context, today time.Time, exists ExistsFunc, budget int) (string, int, error) {
	prefix := today.Format(ReferenceDateLayout)

	var issued int64
	if g.counter != nil {
		n, err := g.counter.CountByReferencePrefix(ctx, prefix)
		if err != nil {
			return "", 0, fmt.Errorf("count references for %s: %w", prefix, err)
		}
		issued = n
	}

	used := 0
	for used < budget {
		seq := g.reserve(prefix, issued)
		if seq > MaxReferenceSequence {
			return "", used, fmt.Errorf("%w: sequence for %s is full", ErrReferenceIDExhausted, prefix)
		}

		used++
		candidate := FormatReference(today, seq)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", used, fmt.Errorf("check reference %s: %w", candidate, err)
		}
		if !taken {
			return candidate, used, nil
		}
	}

	return "", used, fmt.Errorf("%w: %d candidates for %s were taken", ErrReferenceIDExhausted, used, prefix)
}

func (g *ReferenceGenerator) reserve(prefix string, floor int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.day != prefix {
		g.day = prefix
		g.last = 0
	}
	if g.last < floor {
		g.last = floor
	}
	g.last++
	return g.last
}
