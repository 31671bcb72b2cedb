package evaluator

import (
	"reflect"
	"sync"

	"github.com/sandrolain/goscheme/pkg/types"
)

// monitors implements reentrant mutual exclusion keyed by object identity.
// The owner of a monitor is an Evaluator, the unit of a logical thread.
// Only reference values have an identity: symbols, pairs, vectors, mutable
// strings, procedures and host pointers. Numbers, characters, booleans and
// literal strings are rejected, since equal values would share one lock.
//
// THREAD-SAFETY AUDIT: safe.
//   - held is only accessed under mu.
//   - Waiters block on cond and re-check ownership after every broadcast.
type monitors struct {
	mu   sync.Mutex
	cond *sync.Cond
	held map[types.Value]*monitor
}

type monitor struct {
	owner *Evaluator
	count int
}

func newMonitors() *monitors {
	m := &monitors{held: make(map[types.Value]*monitor)}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// acquire blocks until e holds the monitor of obj.
func (m *monitors) acquire(obj types.Value, e *Evaluator) error {
	if !hasIdentity(obj) {
		return types.NewError(types.ErrBadArgument, "cannot synchronize on value", obj)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		mon, ok := m.held[obj]
		if !ok {
			m.held[obj] = &monitor{owner: e, count: 1}
			return nil
		}
		if mon.owner == e {
			mon.count++
			return nil
		}
		m.cond.Wait()
	}
}

func hasIdentity(obj types.Value) bool {
	if obj == nil {
		return false
	}
	switch reflect.TypeOf(obj).Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan:
		return true
	}
	return false
}

// release gives up one hold of the monitor of obj. Releasing a monitor e
// does not hold is ignored.
func (m *monitors) release(obj types.Value, e *Evaluator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mon, ok := m.held[obj]
	if !ok || mon.owner != e {
		e.logger.Warn("release of a monitor not held", "object", types.String(obj, true))
		return
	}
	mon.count--
	if mon.count == 0 {
		delete(m.held, obj)
		m.cond.Broadcast()
	}
}

// holds reports how many times e holds the monitor of obj.
func (m *monitors) holds(obj types.Value, e *Evaluator) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mon, ok := m.held[obj]; ok && mon.owner == e {
		return mon.count
	}
	return 0
}
