package fusion

// DefaultBufferCapacity is the number of entries kept per modality.
const DefaultBufferCapacity = 10

// fifo is a capacity-bounded queue that evicts its oldest entry first.
type fifo[T any] struct {
	items    []T
	capacity int
}

func newFIFO[T any](capacity int) *fifo[T] {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &fifo[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

func (q *fifo[T]) push(v T) {
	q.items = append(q.items, v)
	if over := len(q.items) - q.capacity; over > 0 {
		// Shift down rather than reslice so the backing array stays bounded
		n := copy(q.items, q.items[over:])
		clear(q.items[n:])
		q.items = q.items[:n]
	}
}

func (q *fifo[T]) snapshot() []T {
	return append([]T(nil), q.items...)
}

func (q *fifo[T]) resize(capacity int) {
	if capacity <= 0 {
		return
	}
	q.capacity = capacity
	if over := len(q.items) - capacity; over > 0 {
		n := copy(q.items, q.items[over:])
		clear(q.items[n:])
		q.items = q.items[:n]
	}
}

// InputBuffer holds the most recent raw inputs of every modality.
type InputBuffer struct {
	capacity int
	buffers  map[Modality]*fifo[RawInput]
}

// NewInputBuffer creates a buffer holding up to capacity inputs per modality.
func NewInputBuffer(capacity int) *InputBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	b := &InputBuffer{
		capacity: capacity,
		buffers:  make(map[Modality]*fifo[RawInput], len(AllModalities)),
	}
	for _, m := range AllModalities {
		b.buffers[m] = newFIFO[RawInput](capacity)
	}
	return b
}

// Add appends an input to its modality's buffer, evicting the oldest entry
// when the buffer is full. Inputs for unknown modalities are ignored.
func (b *InputBuffer) Add(m Modality, input RawInput) {
	q, ok := b.buffers[m]
	if !ok {
		return
	}
	q.push(input)
}

// Snapshot returns a copy of a modality's buffer, oldest first.
func (b *InputBuffer) Snapshot(m Modality) []RawInput {
	q, ok := b.buffers[m]
	if !ok {
		return nil
	}
	return q.snapshot()
}

// Len returns the number of inputs buffered for a modality.
func (b *InputBuffer) Len(m Modality) int {
	q, ok := b.buffers[m]
	if !ok {
		return 0
	}
	return len(q.items)
}

// Capacity returns the per-modality capacity.
func (b *InputBuffer) Capacity() int {
	return b.capacity
}

// Resize changes the per-modality capacity, trimming oldest entries.
func (b *InputBuffer) Resize(capacity int) {
	if capacity <= 0 {
		return
	}
	b.capacity = capacity
	for _, q := range b.buffers {
		q.resize(capacity)
	}
}

// commandHistory holds the recently executed commands of every modality.
type commandHistory struct {
	byModality map[Modality]*fifo[Command]
}

func newCommandHistory(capacity int) *commandHistory {
	h := &commandHistory{
		byModality: make(map[Modality]*fifo[Command], len(AllModalities)),
	}
	for _, m := range AllModalities {
		h.byModality[m] = newFIFO[Command](capacity)
	}
	return h
}

func (h *commandHistory) record(cmd Command) {
	if q, ok := h.byModality[cmd.Modality]; ok {
		q.push(cmd)
	}
}

// since returns a modality's commands with Timestamp >= start, oldest first.
func (h *commandHistory) since(m Modality, start int64) []Command {
	q, ok := h.byModality[m]
	if !ok {
		return nil
	}
	var out []Command
	for _, c := range q.items {
		if c.Timestamp >= start {
			out = append(out, c)
		}
	}
	return out
}

func (h *commandHistory) resize(capacity int) {
	for _, q := range h.byModality {
		q.resize(capacity)
	}
}
