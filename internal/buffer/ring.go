package buffer

import "github.com/drake/ember/text"

// Ring is a fixed-capacity ring buffer of styled lines. It backs the
// game output and chat panes: O(1) append, O(1) eviction when full,
// and O(1) random access by logical index.
type Ring struct {
	lines    []text.Line
	head     int // index of oldest line
	tail     int // index where the next line will be written
	count    int
	capacity int
}

// NewRing creates a ring buffer holding at most capacity lines.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 2000
	}
	return &Ring{
		lines:    make([]text.Line, capacity),
		capacity: capacity,
	}
}

// Append adds a line. If the buffer is full, the oldest line is evicted.
func (r *Ring) Append(line text.Line) {
	r.lines[r.tail] = line
	r.tail = (r.tail + 1) % r.capacity

	if r.count < r.capacity {
		r.count++
	} else {
		r.head = (r.head + 1) % r.capacity
	}
}

// AppendBatch adds multiple lines in order.
func (r *Ring) AppendBatch(lines []text.Line) {
	for _, line := range lines {
		r.Append(line)
	}
}

// Count returns the number of lines currently stored.
func (r *Ring) Count() int {
	return r.count
}

// Capacity returns the maximum number of lines the buffer can hold.
func (r *Ring) Capacity() int {
	return r.capacity
}

// Get retrieves a line by logical index (0 = oldest, Count()-1 = newest).
// Out-of-range indexes return a zero Line.
func (r *Ring) Get(index int) text.Line {
	if index < 0 || index >= r.count {
		return text.Line{}
	}
	return r.lines[(r.head+index)%r.capacity]
}

// Range retrieves lines by logical index range [start, end), clamped to
// the stored extent.
func (r *Ring) Range(start, end int) []text.Line {
	if start < 0 {
		start = 0
	}
	if end > r.count {
		end = r.count
	}
	if start >= end {
		return nil
	}

	result := make([]text.Line, 0, end-start)
	for i := start; i < end; i++ {
		result = append(result, r.Get(i))
	}
	return result
}

// Newest retrieves the n most recent lines, newest last.
func (r *Ring) Newest(n int) []text.Line {
	if n <= 0 {
		return nil
	}
	if n > r.count {
		n = r.count
	}
	return r.Range(r.count-n, r.count)
}

// Clear removes all lines. The backing array is not zeroed; old data is
// overwritten on the next append.
func (r *Ring) Clear() {
	r.head = 0
	r.tail = 0
	r.count = 0
}

// IsFull reports whether the buffer is at capacity.
func (r *Ring) IsFull() bool {
	return r.count == r.capacity
}
