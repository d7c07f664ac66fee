// Package series holds year-indexed value sequences. The aggregate of a series is
// always computed from its yearly values and never stored inside the sequence.
package series

// Series is one value per timeline year in chronological order.
type Series []float64

// New returns a zero series of n years.
func New(n int) Series {
	return make(Series, n)
}

// Total is the sum over all years.
func (s Series) Total() float64 {
	var sum float64
	for _, v := range s {
		sum += v
	}
	return sum
}

// Clone copies the series.
func (s Series) Clone() Series {
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// Sum adds series element-wise. Shorter operands are treated as zero-padded.
func Sum(parts ...Series) Series {
	n := 0
	for _, p := range parts {
		if len(p) > n {
			n = len(p)
		}
	}
	out := New(n)
	for _, p := range parts {
		for i, v := range p {
			out[i] += v
		}
	}
	return out
}

// Sub returns s - others, element-wise.
func (s Series) Sub(others ...Series) Series {
	neg := make([]Series, 0, len(others)+1)
	neg = append(neg, s)
	for _, o := range others {
		neg = append(neg, o.Scale(-1))
	}
	return Sum(neg...)
}

// Scale multiplies every year by k.
func (s Series) Scale(k float64) Series {
	out := make(Series, len(s))
	for i, v := range s {
		out[i] = v * k
	}
	return out
}

// Fill sets years [from, to) to v, clipped to the series bounds.
func (s Series) Fill(from, to int, v float64) {
	if from < 0 {
		from = 0
	}
	if to > len(s) {
		to = len(s)
	}
	for i := from; i < to; i++ {
		s[i] = v
	}
}

// Window returns years [from, to) clipped to the series bounds.
func (s Series) Window(from, to int) Series {
	if from < 0 {
		from = 0
	}
	if to > len(s) {
		to = len(s)
	}
	if from >= to {
		return Series{}
	}
	return s[from:to].Clone()
}

// Floats exposes the yearly values as a plain slice copy.
func (s Series) Floats() []float64 {
	return []float64(s.Clone())
}
