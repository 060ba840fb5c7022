package lexer

// DefaultSegmentSize is the number of inputs held by one buffer segment.
const DefaultSegmentSize = 4096

// segment is one link of the input FIFO. Its data is only ever appended
// to, so slices of it stay valid after the segment is dropped. Segments
// are reachable only through positions, and are reclaimed once no
// position refers to them or to an earlier segment.
type segment[I any] struct {
	data   []I
	offset int64
	next   *segment[I]
}

// position is a non-owning cursor into the buffer.
type position[I any] struct {
	seg   *segment[I]
	index int
}

func (p position[I]) offset() int64 {
	return p.seg.offset + int64(p.index)
}

// read returns the input at p and the position after it.
func (p position[I]) read() (I, position[I], bool) {
	seg, i := p.seg, p.index
	for i == len(seg.data) {
		if seg.next == nil {
			var zero I
			return zero, p, false
		}
		seg, i = seg.next, 0
	}
	return seg.data[i], position[I]{seg: seg, index: i + 1}, true
}

// span returns the inputs between from and to. Inputs held by a single
// segment are returned without copying.
func span[I any](from, to position[I]) []I {
	if from.seg == to.seg {
		return from.seg.data[from.index:to.index:to.index]
	}
	out := make([]I, 0, to.offset()-from.offset())
	seg, i := from.seg, from.index
	for seg != to.seg {
		out = append(out, seg.data[i:]...)
		seg, i = seg.next, 0
	}
	return append(out, to.seg.data[:to.index]...)
}

// buffer appends inputs to the tail segment, linking in new segments as
// the tail fills up.
type buffer[I any] struct {
	tail *segment[I]
	size int
}

func newBuffer[I any](size int) *buffer[I] {
	if size <= 0 {
		size = DefaultSegmentSize
	}
	return &buffer[I]{tail: &segment[I]{data: make([]I, 0, size)}, size: size}
}

// head returns the position of the next input to be written.
func (b *buffer[I]) head() position[I] {
	return position[I]{seg: b.tail, index: len(b.tail.data)}
}

func (b *buffer[I]) write(inputs []I) {
	for len(inputs) > 0 {
		t := b.tail
		if len(t.data) == cap(t.data) {
			next := &segment[I]{data: make([]I, 0, b.size), offset: t.offset + int64(len(t.data))}
			t.next = next
			b.tail = next
			t = next
		}
		n := min(cap(t.data)-len(t.data), len(inputs))
		t.data = append(t.data, inputs[:n]...)
		inputs = inputs[n:]
	}
}
