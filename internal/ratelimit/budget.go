package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrBudgetExceeded is wrapped by Check when a subject used up its window.
var ErrBudgetExceeded = errors.New("budget exceeded")

// Budget tracks per-subject operation counts within time windows. Subjects
// are sessions for wizard submissions and proposals for paid flows.
type Budget struct {
	mu     sync.Mutex
	counts map[string]*windowCounter

	maxPerWindow int
	windowSize   time.Duration
	now          func() time.Time
}

type windowCounter struct {
	count     int
	windowEnd time.Time
}

// NewBudget creates a budget limiter.
// maxPerWindow limits calls per (subject, op) within windowSize.
func NewBudget(maxPerWindow int, windowSize time.Duration) *Budget {
	return &Budget{
		counts:       make(map[string]*windowCounter),
		maxPerWindow: maxPerWindow,
		windowSize:   windowSize,
		now:          time.Now,
	}
}

func budgetKey(subject, op string) string {
	return subject + "|" + op
}

// Check returns an error if the subject has exceeded the budget for op.
func (b *Budget) Check(subject, op string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	wc, ok := b.counts[budgetKey(subject, op)]
	if !ok || b.now().After(wc.windowEnd) {
		return nil
	}
	if wc.count >= b.maxPerWindow {
		return fmt.Errorf("%w: %s %s (%d/%d in window)",
			ErrBudgetExceeded, subject, op, wc.count, b.maxPerWindow)
	}
	return nil
}

// Record records a call of op for the subject.
func (b *Budget) Record(subject, op string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := budgetKey(subject, op)
	wc, ok := b.counts[key]
	if !ok || b.now().After(wc.windowEnd) {
		b.counts[key] = &windowCounter{
			count:     1,
			windowEnd: b.now().Add(b.windowSize),
		}
		return
	}
	wc.count++
}

// Take checks and records in one step under the lock.
func (b *Budget) Take(subject, op string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := budgetKey(subject, op)
	wc, ok := b.counts[key]
	if !ok || b.now().After(wc.windowEnd) {
		b.counts[key] = &windowCounter{count: 1, windowEnd: b.now().Add(b.windowSize)}
		return nil
	}
	if wc.count >= b.maxPerWindow {
		return fmt.Errorf("%w: %s %s (%d/%d in window)",
			ErrBudgetExceeded, subject, op, wc.count, b.maxPerWindow)
	}
	wc.count++
	return nil
}
