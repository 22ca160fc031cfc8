//go:build !nogpu

package gpu

import (
	"container/list"
	"errors"
	"fmt"
	"sync"
)

// Memory management errors.
var (
	// ErrMemoryBudgetExceeded is returned when an allocation does not fit
	// even after eviction.
	ErrMemoryBudgetExceeded = errors.New("gpu: memory budget exceeded")

	// ErrMemoryManagerClosed is returned when operating on a closed manager.
	ErrMemoryManagerClosed = errors.New("gpu: memory manager closed")
)

// Default memory limits.
const (
	// DefaultMaxMemoryMB is the default GPU buffer budget (256 MB).
	DefaultMaxMemoryMB = 256

	// DefaultEvictionThreshold is when eviction starts (80% of budget).
	DefaultEvictionThreshold = 0.8

	// MinMemoryMB is the minimum allowed budget (16 MB).
	MinMemoryMB = 16
)

// MemoryStats contains GPU buffer memory statistics.
type MemoryStats struct {
	TotalBytes     uint64
	UsedBytes      uint64
	AvailableBytes uint64
	// BufferCount is the number of buffers with GPU resources.
	BufferCount   int
	EvictionCount uint64
	// Utilization is the fraction of the budget in use (0.0 to 1.0).
	Utilization float64
}

// String returns a human-readable string of memory stats.
func (s MemoryStats) String() string {
	return fmt.Sprintf("Memory[%.1f%% used, %d/%d MB, %d buffers, %d evictions]",
		s.Utilization*100,
		s.UsedBytes/(1024*1024),
		s.TotalBytes/(1024*1024),
		s.BufferCount,
		s.EvictionCount)
}

type memoryEntry struct {
	res       *bufferResources
	sizeBytes uint64
	lastFrame uint64
	element   *list.Element
}

// MemoryManager tracks the GPU memory held by buffer resources and evicts
// the least recently drawn ones when the budget is exceeded. Resources
// drawn in the current frame are never evicted.
//
// MemoryManager is safe for concurrent use.
type MemoryManager struct {
	mu sync.Mutex

	budgetBytes uint64
	usedBytes   uint64

	entries map[*bufferResources]*memoryEntry
	// front = most recently drawn
	lru *list.List

	evictionCount     uint64
	evictionThreshold float64
	frame             uint64

	// evict is called without the lock held, after the entry is removed.
	evict func(res *bufferResources)

	closed bool
}

// MemoryManagerConfig holds configuration for creating a MemoryManager.
type MemoryManagerConfig struct {
	// MaxMemoryMB defaults to DefaultMaxMemoryMB if below MinMemoryMB.
	MaxMemoryMB int

	// EvictionThreshold defaults to DefaultEvictionThreshold if <= 0.
	EvictionThreshold float64
}

func newMemoryManager(config MemoryManagerConfig, evict func(*bufferResources)) *MemoryManager {
	maxMB := config.MaxMemoryMB
	if maxMB < MinMemoryMB {
		maxMB = DefaultMaxMemoryMB
	}
	threshold := config.EvictionThreshold
	if threshold <= 0 || threshold > 1.0 {
		threshold = DefaultEvictionThreshold
	}
	//nolint:gosec // G115: maxMB is bounded by MinMemoryMB minimum
	return &MemoryManager{
		budgetBytes:       uint64(maxMB) * 1024 * 1024,
		entries:           make(map[*bufferResources]*memoryEntry),
		lru:               list.New(),
		evictionThreshold: threshold,
		evict:             evict,
	}
}

// beginFrame starts a new frame. Entries touched after this call are
// pinned until the next beginFrame.
func (m *MemoryManager) beginFrame() {
	m.mu.Lock()
	m.frame++
	m.mu.Unlock()
}

// register accounts for new resources, evicting older ones if needed.
func (m *MemoryManager) register(res *bufferResources, size uint64) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrMemoryManagerClosed
	}
	if size > m.budgetBytes {
		m.mu.Unlock()
		return fmt.Errorf("%w: buffer size %d MB exceeds total budget %d MB",
			ErrMemoryBudgetExceeded, size/(1024*1024), m.budgetBytes/(1024*1024))
	}
	victims, err := m.evictLocked(size)
	if err == nil {
		e := &memoryEntry{res: res, sizeBytes: size, lastFrame: m.frame}
		e.element = m.lru.PushFront(e)
		m.entries[res] = e
		m.usedBytes += size
	}
	m.mu.Unlock()

	m.release(victims)
	return err
}

// touch marks resources as drawn in the current frame.
func (m *MemoryManager) touch(res *bufferResources) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[res]; ok {
		e.lastFrame = m.frame
		m.lru.MoveToFront(e.element)
	}
}

// unregister removes resources from tracking without calling evict.
func (m *MemoryManager) unregister(res *bufferResources) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[res]; ok {
		m.removeLocked(e)
	}
}

// Stats returns current memory usage statistics.
func (m *MemoryManager) Stats() MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var utilization float64
	if m.budgetBytes > 0 {
		utilization = float64(m.usedBytes) / float64(m.budgetBytes)
	}
	var available uint64
	if m.usedBytes < m.budgetBytes {
		available = m.budgetBytes - m.usedBytes
	}
	return MemoryStats{
		TotalBytes:     m.budgetBytes,
		UsedBytes:      m.usedBytes,
		AvailableBytes: available,
		BufferCount:    len(m.entries),
		EvictionCount:  m.evictionCount,
		Utilization:    utilization,
	}
}

// SetBudget updates the budget. Eviction may be triggered.
func (m *MemoryManager) SetBudget(megabytes int) error {
	if megabytes < MinMemoryMB {
		megabytes = MinMemoryMB
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrMemoryManagerClosed
	}
	//nolint:gosec // G115: megabytes bounded by MinMemoryMB minimum
	m.budgetBytes = uint64(megabytes) * 1024 * 1024
	victims, err := m.evictLocked(0)
	m.mu.Unlock()

	m.release(victims)
	return err
}

// close stops tracking. Resources are released by the backend.
func (m *MemoryManager) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.lru = nil
	m.usedBytes = 0
	m.closed = true
}

func (m *MemoryManager) removeLocked(e *memoryEntry) {
	if e.element != nil {
		m.lru.Remove(e.element)
	}
	delete(m.entries, e.res)
	m.usedBytes -= e.sizeBytes
}

// evictLocked removes least recently drawn entries until requested bytes
// fit. Pinned entries stop the scan. Caller must hold mu and release the
// returned victims after unlocking.
func (m *MemoryManager) evictLocked(requested uint64) ([]*bufferResources, error) {
	target := m.usedBytes + requested
	threshold := uint64(float64(m.budgetBytes) * m.evictionThreshold)
	if target <= m.budgetBytes && m.usedBytes < threshold {
		return nil, nil
	}

	var victims []*bufferResources
	for target > m.budgetBytes && m.lru.Len() > 0 {
		e, ok := m.lru.Back().Value.(*memoryEntry)
		if !ok || e.lastFrame == m.frame {
			break
		}
		m.removeLocked(e)
		victims = append(victims, e.res)
		m.evictionCount++
		target = m.usedBytes + requested
	}

	if target > m.budgetBytes {
		return victims, fmt.Errorf("%w: need %d bytes, have %d bytes available",
			ErrMemoryBudgetExceeded, requested, m.budgetBytes-min(m.usedBytes, m.budgetBytes))
	}
	return victims, nil
}

func (m *MemoryManager) release(victims []*bufferResources) {
	for _, res := range victims {
		slogger().Debug("gpu: evicted buffer", "label", res.label, "bytes", res.bytes)
		if m.evict != nil {
			m.evict(res)
		}
	}
}
