package taxation

import (
	"fmt"
	"sync"

	"go-paytax/internal/shared/fiscal"
)

// recordLocks serializes recomputation per employee and tax year: the
// TaxationRecord is the unit of mutual exclusion, so concurrent attempts
// queue instead of interleaving and losing updates.
type recordLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newRecordLocks() *recordLocks {
	return &recordLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *recordLocks) lockFor(employeeID string, year fiscal.Year) *sync.Mutex {
	key := fmt.Sprintf("%s:%s", employeeID, year)

	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}
