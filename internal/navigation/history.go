package navigation

import "sync"

// HistoryEntry is one back/forward stack entry.
type HistoryEntry struct {
	Path  string       `json:"path"`
	State HistoryState `json:"state"`
}

// History is the back/forward stack of one client.
type History interface {
	Push(e HistoryEntry)
	Replace(e HistoryEntry)
	// Go moves by delta entries and returns the entry landed on. It fails when out of range.
	Go(delta int) (HistoryEntry, bool)
	Current() (HistoryEntry, bool)
	Index() int
	Len() int
	Entries() []HistoryEntry
}

// MemoryHistory is an in-process History. Push drops any forward entries.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []HistoryEntry
	index   int
}

// NewMemoryHistory returns an empty history.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{index: -1}
}

func (h *MemoryHistory) Push(e HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], e)
	h.index = len(h.entries) - 1
}

func (h *MemoryHistory) Replace(e HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index < 0 {
		h.entries = append(h.entries, e)
		h.index = 0
		return
	}
	h.entries[h.index] = e
}

func (h *MemoryHistory) Go(delta int) (HistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := h.index + delta
	if delta == 0 || next < 0 || next >= len(h.entries) {
		return HistoryEntry{}, false
	}
	h.index = next
	return h.entries[next], true
}

func (h *MemoryHistory) Current() (HistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index < 0 {
		return HistoryEntry{}, false
	}
	return h.entries[h.index], true
}

func (h *MemoryHistory) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index
}

func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func (h *MemoryHistory) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}
