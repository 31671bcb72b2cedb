package evaluator

import (
	"io"
	"log/slog"
	"slices"
	"sync"
)

// resources is the cleanup registry shared by an evaluator family. Anything
// that opens a stream and does not guarantee closing it marks the stream
// here; Cleanup closes whatever is still marked.
type resources struct {
	mu     sync.Mutex
	order  []io.Closer
	marked map[io.Closer]struct{}
	logger *slog.Logger
}

func newResources(logger *slog.Logger) *resources {
	return &resources{
		marked: make(map[io.Closer]struct{}),
		logger: logger,
	}
}

// mark registers c for cleanup.
func (r *resources) mark(c io.Closer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.marked[c]; ok {
		return
	}
	r.marked[c] = struct{}{}
	r.order = append(r.order, c)
}

// unmark removes c, typically because it was closed explicitly.
func (r *resources) unmark(c io.Closer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.marked[c]; !ok {
		return
	}
	delete(r.marked, c)
	if i := slices.Index(r.order, c); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}

// count returns the number of marked resources.
func (r *resources) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.marked)
}

// closeAll closes every marked resource in the order it was marked. Close
// errors are logged and otherwise ignored.
func (r *resources) closeAll() {
	r.mu.Lock()
	order := r.order
	marked := r.marked
	r.order = nil
	r.marked = make(map[io.Closer]struct{})
	r.mu.Unlock()

	for _, c := range order {
		if _, ok := marked[c]; !ok {
			continue
		}
		if err := c.Close(); err != nil {
			r.logger.Warn("cleanup: close failed", "error", err)
		}
	}
}
