package rack

import (
	"sort"
	"sync"
)

// Locker serializes slot allocation per rack. A sort scan locks every rack
// it may allocate from; locks are always taken in ascending id order so two
// scans cannot deadlock.
type Locker struct {
	mu    sync.Mutex
	racks map[uint]*sync.Mutex
}

// NewLocker returns an empty Locker.
func NewLocker() *Locker {
	return &Locker{racks: make(map[uint]*sync.Mutex)}
}

func (l *Locker) get(id uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.racks[id]
	if !ok {
		m = &sync.Mutex{}
		l.racks[id] = m
	}
	return m
}

// Lock acquires the locks of the given racks and returns the function that
// releases them.
func (l *Locker) Lock(ids ...uint) (unlock func()) {
	ordered := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			ordered = append(ordered, id)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	held := make([]*sync.Mutex, 0, len(ordered))
	for _, id := range ordered {
		m := l.get(id)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
