package rangeset

// Membership tags a sub-range produced by EnumerateSets.
type Membership uint8

const (
	LeftOnly Membership = iota + 1
	RightOnly
	Both
)

func (m Membership) String() string {
	switch m {
	case LeftOnly:
		return "left"
	case RightOnly:
		return "right"
	case Both:
		return "both"
	}
	return "none"
}

// Enumerate walks two sorted lists of pairwise disjoint ranges and calls fn
// for every maximal sub-range in ascending order, together with the index
// of the left and right range it belongs to. An index is -1 when the
// sub-range is not covered by that side. The inputs do not need to be
// condensed; adjacent input ranges produce separate sub-ranges.
func Enumerate[T Symbol](left, right []Range[T], fn func(r Range[T], leftIndex, rightIndex int)) {
	i, j := 0, 0
	var l, r Range[T]
	if i < len(left) {
		l = left[i]
	}
	if j < len(right) {
		r = right[j]
	}
	for i < len(left) && j < len(right) {
		switch {
		case l.To < r.From:
			fn(l, i, -1)
			i++
			if i < len(left) {
				l = left[i]
			}
		case r.To < l.From:
			fn(r, -1, j)
			j++
			if j < len(right) {
				r = right[j]
			}
		case l.From < r.From:
			fn(Range[T]{From: l.From, To: Pred(r.From)}, i, -1)
			l.From = r.From
		case r.From < l.From:
			fn(Range[T]{From: r.From, To: Pred(l.From)}, -1, j)
			r.From = l.From
		case l.To < r.To:
			fn(l, i, j)
			r.From = Succ(l.To)
			i++
			if i < len(left) {
				l = left[i]
			}
		case r.To < l.To:
			fn(r, i, j)
			l.From = Succ(r.To)
			j++
			if j < len(right) {
				r = right[j]
			}
		default:
			fn(l, i, j)
			i++
			j++
			if i < len(left) {
				l = left[i]
			}
			if j < len(right) {
				r = right[j]
			}
		}
	}
	for i < len(left) {
		fn(l, i, -1)
		i++
		if i < len(left) {
			l = left[i]
		}
	}
	for j < len(right) {
		fn(r, -1, j)
		j++
		if j < len(right) {
			r = right[j]
		}
	}
}

// EnumerateSets walks two sets and classifies every maximal sub-range as
// belonging to the left set only, the right set only, or both.
func EnumerateSets[T Symbol](a, b Set[T], fn func(r Range[T], m Membership)) {
	Enumerate(a.ranges, b.ranges, func(r Range[T], li, ri int) {
		switch {
		case li >= 0 && ri >= 0:
			fn(r, Both)
		case li >= 0:
			fn(r, LeftOnly)
		default:
			fn(r, RightOnly)
		}
	})
}
