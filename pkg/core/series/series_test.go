package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalAndArithmetic(t *testing.T) {
	a := Series{1, 2, 3}
	b := Series{10, 20}

	assert.InDelta(t, 6.0, a.Total(), 1e-12)
	assert.Equal(t, Series{11, 22, 3}, Sum(a, b))
	assert.Equal(t, Series{-9, -18, 3}, a.Sub(b))
	assert.Equal(t, Series{2, 4, 6}, a.Scale(2))
	assert.Equal(t, Series{1, 2, 3}, a, "operands are left untouched")
}

func TestFillAndWindowClip(t *testing.T) {
	s := New(4)
	s.Fill(2, 10, 5)
	assert.Equal(t, Series{0, 0, 5, 5}, s)

	assert.Equal(t, Series{0, 5}, s.Window(1, 3))
	assert.Equal(t, Series{}, s.Window(3, 1))
	assert.Equal(t, Series{5, 5}, s.Window(2, 99))
}

func TestSumOfNothing(t *testing.T) {
	assert.Len(t, Sum(), 0)
	assert.Zero(t, Series(nil).Total())
}
