// Package pagination 页码解析与切片。非法或越界的页码一律钳制到合法范围，不报错。
package pagination

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Window 一页在整个列表中的位置
type Window struct {
	Number     int
	TotalPages int
	Offset     int
	Limit      int
	Total      int64
}

// Resolve 根据原始页码字符串与总数计算分页窗口
func Resolve(raw string, total int64, size int) Window {
	if size <= 0 {
		size = 1
	}
	if total < 0 {
		total = 0
	}
	pages := int((total + int64(size) - 1) / int64(size))
	if pages < 1 {
		// 空列表也有一页
		pages = 1
	}
	n := parse(raw)
	if n > pages {
		n = pages
	}
	return Window{
		Number:     n,
		TotalPages: pages,
		Offset:     (n - 1) * size,
		Limit:      size,
		Total:      total,
	}
}

func parse(raw string) int {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
		// 超出 int 的正数按越界处理，由调用方钳制到最后一页
		return math.MaxInt
	}
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Page 模板使用的一页数据
type Page[T any] struct {
	Items []T
	Window
}

// New wraps items already fetched for w.
func New[T any](items []T, w Window) Page[T] {
	return Page[T]{Items: items, Window: w}
}

// Paginate 对内存切片分页
func Paginate[T any](items []T, raw string, size int) Page[T] {
	w := Resolve(raw, int64(len(items)), size)
	end := w.Offset + w.Limit
	if end > len(items) {
		end = len(items)
	}
	start := w.Offset
	if start > end {
		start = end
	}
	return New(items[start:end], w)
}

func (w Window) HasPrevious() bool { return w.Number > 1 }
func (w Window) HasNext() bool     { return w.Number < w.TotalPages }
func (w Window) HasOther() bool    { return w.TotalPages > 1 }

func (w Window) PreviousNumber() int {
	if w.HasPrevious() {
		return w.Number - 1
	}
	return w.Number
}

func (w Window) NextNumber() int {
	if w.HasNext() {
		return w.Number + 1
	}
	return w.Number
}

// Numbers 返回 1..TotalPages
func (w Window) Numbers() []int {
	out := make([]int, w.TotalPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
