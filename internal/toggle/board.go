// Package toggle holds the server-side checkbox board: one toggle per route
// plus the "all" toggle.
package toggle

import (
	"errors"
	"fmt"
	"sync"

	"trajview/internal/domain"
	"trajview/internal/selection"
)

// AllID addresses the all toggle in Set.
const AllID = domain.AllToggleID

var ErrUnknownToggle = errors.New("unknown toggle")

// Board is the toggle state. R is what the change callback returns; every
// mutating call hands back the callback's result for that change.
type Board[R any] struct {
	// change is held across a mutation and its callback, so the callback
	// always observes the state its own call produced.
	change sync.Mutex

	mu       sync.RWMutex
	all      bool
	checked  map[string]bool
	unknown  map[string]bool
	order    []string
	onChange func() R
}

func NewBoard[R any]() *Board[R] {
	return &Board[R]{checked: make(map[string]bool)}
}

// Populate replaces the board with one unchecked toggle per id and the all
// toggle set to allChecked. It does not fire the change callback.
func (b *Board[R]) Populate(ids []string, allChecked bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.all = allChecked
	b.checked = make(map[string]bool, len(ids))
	b.unknown = nil
	b.order = make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := b.checked[id]; dup {
			continue
		}
		b.checked[id] = false
		b.order = append(b.order, id)
	}
}

// OnChange registers the single callback fired after every state change.
func (b *Board[R]) OnChange(fn func() R) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

// Set checks or unchecks one toggle. AllID addresses the all toggle.
func (b *Board[R]) Set(id string, checked bool) (R, error) {
	if id == AllID {
		return b.SetAll(checked), nil
	}

	b.change.Lock()
	defer b.change.Unlock()

	b.mu.Lock()
	if _, ok := b.checked[id]; !ok {
		b.mu.Unlock()
		var zero R
		return zero, fmt.Errorf("%w: %q", ErrUnknownToggle, id)
	}
	b.checked[id] = checked
	fn := b.onChange
	b.mu.Unlock()

	return fire(fn), nil
}

// SetAll checks or unchecks the all toggle.
func (b *Board[R]) SetAll(checked bool) R {
	b.change.Lock()
	defer b.change.Unlock()

	b.mu.Lock()
	b.all = checked
	fn := b.onChange
	b.mu.Unlock()

	return fire(fn)
}

// Apply replaces the whole board state with a snapshot in one change.
// Ids the board was not populated with are kept as-is so the consumer can
// detect them; they are dropped again by the next Apply or Populate.
func (b *Board[R]) Apply(s selection.Snapshot) R {
	b.change.Lock()
	defer b.change.Unlock()

	b.mu.Lock()
	b.all = s.All
	for id := range b.checked {
		b.checked[id] = s.Toggles[id]
	}
	b.unknown = make(map[string]bool)
	for id, on := range s.Toggles {
		if _, ok := b.checked[id]; !ok {
			b.unknown[id] = on
		}
	}
	fn := b.onChange
	b.mu.Unlock()

	return fire(fn)
}

func fire[R any](fn func() R) R {
	if fn == nil {
		var zero R
		return zero
	}
	return fn()
}

// Snapshot returns a copy of the complete current state.
func (b *Board[R]) Snapshot() selection.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	toggles := make(map[string]bool, len(b.checked)+len(b.unknown))
	for id, on := range b.unknown {
		toggles[id] = on
	}
	for id, on := range b.checked {
		toggles[id] = on
	}
	return selection.Snapshot{All: b.all, Toggles: toggles}
}

// IDs returns the route toggle ids in the order they were populated.
func (b *Board[R]) IDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, len(b.order))
	copy(ids, b.order)
	return ids
}
