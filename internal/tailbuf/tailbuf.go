// Package tailbuf keeps the trailing bytes of process diagnostic output.
package tailbuf

import (
	"sync"
	"unicode/utf8"
)

// Buffer is an io.Writer that retains only the last Limit bytes written.
// It is safe for concurrent use.
type Buffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

// New returns a Buffer retaining at most limit bytes.
func New(limit int) *Buffer {
	if limit < 0 {
		limit = 0
	}
	return &Buffer{limit: limit, buf: make([]byte, 0, limit)}
}

// Write appends p, discarding the oldest bytes beyond the limit. It never
// fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	if b.limit == 0 {
		return n, nil
	}
	if len(p) >= b.limit {
		b.buf = append(b.buf[:0], p[len(p)-b.limit:]...)
		return n, nil
	}
	if overflow := len(b.buf) + len(p) - b.limit; overflow > 0 {
		b.buf = append(b.buf[:0], b.buf[overflow:]...)
	}
	b.buf = append(b.buf, p...)
	return n, nil
}

// String returns the retained bytes, starting at a rune boundary.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return trimToRuneStart(string(b.buf))
}

// Last returns roughly the last n bytes of s, starting at a rune boundary.
func Last(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	return trimToRuneStart(s[len(s)-n:])
}

func trimToRuneStart(s string) string {
	i := 0
	for ; i < len(s) && i < utf8.UTFMax; i++ {
		if utf8.RuneStart(s[i]) {
			break
		}
	}
	return s[i:]
}
