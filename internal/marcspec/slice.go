package marcspec

// resolve maps r onto a collection of n elements and returns inclusive
// bounds. '#' is the last element as an end bound or a single selector, and
// the first element as a start bound. An end bound past the collection is
// clamped; a start bound past it selects nothing.
func (r Range) resolve(n int) (lo, hi int, ok bool) {
	if n == 0 {
		return 0, 0, false
	}
	last := n - 1

	if !r.IsRange {
		i := r.Start.Value
		if r.Start.Last {
			i = last
		}
		if i > last {
			return 0, 0, false
		}
		return i, i, true
	}

	lo = r.Start.Value
	if r.Start.Last {
		lo = 0
	}
	hi = r.End.Value
	if r.End.Last || hi > last {
		hi = last
	}
	if lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// slice applies r to the characters of s.
func (r Range) slice(s string) (string, bool) {
	runes := []rune(s)
	lo, hi, ok := r.resolve(len(runes))
	if !ok {
		return "", false
	}
	return string(runes[lo : hi+1]), true
}

func sliceAll(values []string, r *Range) []string {
	if r == nil {
		return values
	}

	out := values[:0]
	for _, v := range values {
		if s, ok := r.slice(v); ok {
			out = append(out, s)
		}
	}
	return out
}
