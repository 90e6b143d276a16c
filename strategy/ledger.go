package strategy

import (
	"sync"

	"github.com/google/uuid"
)

// portfolioLocks serializes ledger mutations per portfolio. All cash debits,
// credits, and position updates for one portfolio go through its mutex;
// different portfolios proceed concurrently.
type portfolioLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newPortfolioLocks() *portfolioLocks {
	return &portfolioLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (p *portfolioLocks) get(portfolioID uuid.UUID) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.locks[portfolioID]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[portfolioID] = lock
	}
	return lock
}
