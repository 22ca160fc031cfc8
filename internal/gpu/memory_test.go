//go:build !nogpu

package gpu

import (
	"errors"
	"strings"
	"testing"
)

const mb = 1024 * 1024

func TestMemoryManagerDefaults(t *testing.T) {
	m := newMemoryManager(MemoryManagerConfig{MaxMemoryMB: 1, EvictionThreshold: 2}, nil)
	st := m.Stats()
	if st.TotalBytes != DefaultMaxMemoryMB*mb {
		t.Errorf("TotalBytes = %d, want default budget", st.TotalBytes)
	}
	if m.evictionThreshold != DefaultEvictionThreshold {
		t.Errorf("threshold = %v", m.evictionThreshold)
	}
	if !strings.Contains(st.String(), "0 buffers") {
		t.Errorf("String() = %q", st.String())
	}
}

func TestMemoryManagerEvictsLeastRecentlyDrawn(t *testing.T) {
	var evicted []*bufferResources
	m := newMemoryManager(MemoryManagerConfig{MaxMemoryMB: MinMemoryMB}, func(r *bufferResources) {
		evicted = append(evicted, r)
	})
	r1, r2, r3 := &bufferResources{label: "r1"}, &bufferResources{label: "r2"}, &bufferResources{label: "r3"}

	for _, r := range []*bufferResources{r1, r2, r3} {
		m.beginFrame()
		if err := m.register(r, 6*mb); err != nil {
			t.Fatalf("register %s: %v", r.label, err)
		}
	}
	if len(evicted) != 1 || evicted[0] != r1 {
		t.Fatalf("evicted = %v, want [r1]", evicted)
	}
	st := m.Stats()
	if st.UsedBytes != 12*mb || st.BufferCount != 2 || st.EvictionCount != 1 {
		t.Errorf("Stats() = %+v", st)
	}

	// r3 is pinned by the current frame, r2 is not.
	r4 := &bufferResources{label: "r4"}
	if err := m.register(r4, 8*mb); err != nil {
		t.Fatalf("register r4: %v", err)
	}
	if len(evicted) != 2 || evicted[1] != r2 {
		t.Fatalf("evicted = %v, want r2 second", evicted)
	}

	// Only pinned entries remain.
	err := m.register(&bufferResources{label: "r5"}, 8*mb)
	if !errors.Is(err, ErrMemoryBudgetExceeded) {
		t.Errorf("register over pinned budget error = %v", err)
	}
	if m.Stats().BufferCount != 2 {
		t.Errorf("failed register changed the count: %d", m.Stats().BufferCount)
	}
}

func TestMemoryManagerTouchProtects(t *testing.T) {
	var evicted []*bufferResources
	m := newMemoryManager(MemoryManagerConfig{MaxMemoryMB: MinMemoryMB}, func(r *bufferResources) {
		evicted = append(evicted, r)
	})
	old, recent := &bufferResources{label: "old"}, &bufferResources{label: "recent"}
	m.beginFrame()
	_ = m.register(old, 6*mb)
	_ = m.register(recent, 6*mb)

	// Draw old again in a later frame; recent becomes the LRU victim.
	m.beginFrame()
	m.touch(old)
	m.beginFrame()
	if err := m.register(&bufferResources{label: "new"}, 6*mb); err != nil {
		t.Fatal(err)
	}
	if len(evicted) != 1 || evicted[0] != recent {
		t.Errorf("evicted = %v, want [recent]", evicted)
	}
}

func TestMemoryManagerTooLarge(t *testing.T) {
	m := newMemoryManager(MemoryManagerConfig{MaxMemoryMB: MinMemoryMB}, nil)
	err := m.register(&bufferResources{}, (MinMemoryMB+1)*mb)
	if !errors.Is(err, ErrMemoryBudgetExceeded) {
		t.Errorf("error = %v, want ErrMemoryBudgetExceeded", err)
	}
}

func TestMemoryManagerSetBudget(t *testing.T) {
	var evicted int
	m := newMemoryManager(MemoryManagerConfig{MaxMemoryMB: 64}, func(*bufferResources) { evicted++ })
	m.beginFrame()
	_ = m.register(&bufferResources{}, 10*mb)
	_ = m.register(&bufferResources{}, 10*mb)
	m.beginFrame()
	if err := m.SetBudget(1); err != nil {
		t.Fatal(err)
	}
	st := m.Stats()
	if st.TotalBytes != MinMemoryMB*mb {
		t.Errorf("budget = %d, want clamped to minimum", st.TotalBytes)
	}
	if evicted != 1 || st.UsedBytes != 10*mb {
		t.Errorf("evicted %d, used %d", evicted, st.UsedBytes)
	}
}

func TestMemoryManagerClosed(t *testing.T) {
	m := newMemoryManager(MemoryManagerConfig{}, nil)
	m.close()
	if err := m.register(&bufferResources{}, 1); !errors.Is(err, ErrMemoryManagerClosed) {
		t.Errorf("register after close error = %v", err)
	}
	if err := m.SetBudget(32); !errors.Is(err, ErrMemoryManagerClosed) {
		t.Errorf("SetBudget after close error = %v", err)
	}
}
