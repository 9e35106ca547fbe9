package devserver

import (
	"sort"
	"sync"

	"github.com/jrsteele09/go-visitas/internal/errors"
	"github.com/jrsteele09/go-visitas/resources"
)

// row constrains P to a pointer to T that is also an Entity.
type row[T any] interface {
	*T
	resources.Entity
}

// Table is an in-memory collection of records keyed by an auto-incremented id.
// Records are copied on the way in and out.
type Table[T any, P row[T]] struct {
	rows   map[int64]P
	nextID int64
	lock   sync.RWMutex
}

func NewTable[T any, P row[T]]() *Table[T, P] {
	return &Table[T, P]{rows: make(map[int64]P)}
}

func clone[T any, P row[T]](p P) P {
	v := *p
	return P(&v)
}

// Insert stores a copy of record under a new id and returns the stored copy.
func (t *Table[T, P]) Insert(record P) P {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.nextID++
	stored := clone[T, P](record)
	stored.SetID(t.nextID)
	t.rows[t.nextID] = stored
	return clone[T, P](stored)
}

func (t *Table[T, P]) Get(id int64) (P, error) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	stored, ok := t.rows[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "id %d", id)
	}
	return clone[T, P](stored), nil
}

// Exists reports whether id is stored.
func (t *Table[T, P]) Exists(id int64) bool {
	t.lock.RLock()
	defer t.lock.RUnlock()
	_, ok := t.rows[id]
	return ok
}

// Update replaces the record stored under id.
func (t *Table[T, P]) Update(id int64, record P) (P, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.rows[id]; !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "id %d", id)
	}
	stored := clone[T, P](record)
	stored.SetID(id)
	t.rows[id] = stored
	return clone[T, P](stored), nil
}

func (t *Table[T, P]) Delete(id int64) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.rows[id]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "id %d", id)
	}
	delete(t.rows, id)
	return nil
}

// List returns copies of the records matching keep, or all of them when keep
// is nil, ordered by id.
func (t *Table[T, P]) List(keep func(P) bool) []P {
	t.lock.RLock()
	defer t.lock.RUnlock()

	list := make([]P, 0, len(t.rows))
	for _, stored := range t.rows {
		if keep == nil || keep(stored) {
			list = append(list, clone[T, P](stored))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].GetID() < list[j].GetID() })
	return list
}

// Len reports the number of stored records.
func (t *Table[T, P]) Len() int {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return len(t.rows)
}
