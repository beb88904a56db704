package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPaginate_FullAndRemainder(t *testing.T) {
	items := seq(13)

	p1 := Paginate(items, "1", 10)
	assert.Len(t, p1.Items, 10)
	assert.Equal(t, 2, p1.TotalPages)
	assert.False(t, p1.HasPrevious())
	assert.True(t, p1.HasNext())
	assert.Equal(t, 2, p1.NextNumber())

	p2 := Paginate(items, "2", 10)
	assert.Equal(t, []int{11, 12, 13}, p2.Items)
	assert.True(t, p2.HasPrevious())
	assert.False(t, p2.HasNext())
	assert.Equal(t, 1, p2.PreviousNumber())
}

func TestPaginate_Clamping(t *testing.T) {
	items := seq(13)
	tests := []struct {
		raw    string
		number int
	}{
		{"", 1},
		{"abc", 1},
		{"0", 1},
		{"-3", 1},
		{" 2 ", 2},
		{"99", 2},
		{"99999999999999999999", 2},
		{"-99999999999999999999", 1},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			p := Paginate(items, tt.raw, 10)
			assert.Equal(t, tt.number, p.Number)
		})
	}

	// 越界页返回最后一页的内容
	assert.Equal(t, Paginate(items, "2", 10).Items, Paginate(items, "1000", 10).Items)
}

func TestPaginate_Empty(t *testing.T) {
	p := Paginate([]string{}, "5", 10)
	assert.Empty(t, p.Items)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 1, p.TotalPages)
	assert.False(t, p.HasOther())
	assert.Equal(t, []int{1}, p.Numbers())
}

func TestResolve(t *testing.T) {
	w := Resolve("3", 25, 10)
	assert.Equal(t, Window{Number: 3, TotalPages: 3, Offset: 20, Limit: 10, Total: 25}, w)
	assert.Equal(t, []int{1, 2, 3}, w.Numbers())

	w = Resolve("1", 20, 10)
	assert.Equal(t, 2, w.TotalPages)
	assert.Equal(t, 2, Resolve("7", 20, 10).Number)

	w = Resolve("99999999999999999999", 13, 10)
	assert.Equal(t, Window{Number: 2, TotalPages: 2, Offset: 10, Limit: 10, Total: 13}, w)
}
