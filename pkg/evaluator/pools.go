package evaluator

import (
	"bytes"
	"sync"
)

// bufPool is a process-wide pool of *bytes.Buffer used by string-append,
// read-line and Backtrace.
//
// THREAD-SAFETY AUDIT: safe.
//   - sync.Pool is designed for concurrent use; Get/Put are internally locked.
//   - Each caller receives exclusive ownership of a buffer for the duration of its
//     use; the buffer is never shared between goroutines.
//   - Buffers are always Reset via acquireBuf() before use, so no residual state
//     from a previous owner is visible.
var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// acquireBuf returns a reset buffer from the pool.
func acquireBuf() *bytes.Buffer {
	b := bufPool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

// releaseBuf returns a buffer to the pool. Only buffers whose internal backing
// array is reasonably sized are returned; very large ones are discarded to
// prevent unbounded memory retention.
func releaseBuf(b *bytes.Buffer) {
	if b.Cap() <= 64*1024 { // 64 KB ceiling
		bufPool.Put(b)
	}
}
