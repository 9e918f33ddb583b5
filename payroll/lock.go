package payroll

import (
	"sync"

	"github.com/foco/nomina/hr"
)

// periodLocks serialises work per exact period. Entries are removed when the
// last holder unlocks.
type periodLocks struct {
	mu    sync.Mutex
	locks map[hr.Period]*periodLock
}

type periodLock struct {
	mu   sync.Mutex
	refs int
}

func newPeriodLocks() *periodLocks {
	return &periodLocks{locks: make(map[hr.Period]*periodLock)}
}

// lock blocks until the period is free and returns its unlock func.
func (p *periodLocks) lock(period hr.Period) func() {
	p.mu.Lock()
	l, ok := p.locks[period]
	if !ok {
		l = &periodLock{}
		p.locks[period] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, period)
		}
		p.mu.Unlock()
	}
}

func (p *periodLocks) held() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
