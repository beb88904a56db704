package web

import (
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultFuncs 模板函数。imageURL 需由调用方按存储后端覆盖
func DefaultFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate":   Truncate,
		"linebreaks": Linebreaks,
		"date":       func(t time.Time) string { return t.Format("2 January 2006") },
		"pageURL":    PageURL,
		"dict":       dict,
		"imageURL":   func(key string) string { return key },
		"eqID":       func(a uint, b *uint) bool { return b != nil && *b == a },
	}
}

// Truncate 超过 n 个字符时截断并追加省略号
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// Linebreaks 转义 HTML 后把换行转成 <br>，空行分段
func Linebreaks(s string) template.HTML {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\r\n", "\n")
	if s == "" {
		return ""
	}
	var b strings.Builder
	for _, para := range strings.Split(s, "\n\n") {
		lines := strings.Split(para, "\n")
		for i, l := range lines {
			lines[i] = template.HTMLEscapeString(l)
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(lines, "<br>"))
		b.WriteString("</p>")
	}
	return template.HTML(b.String())
}

// PageURL 在当前查询串上替换 page 参数
func PageURL(u *url.URL, page int) string {
	q := url.Values{}
	if u != nil {
		q = u.Query()
	}
	q.Set("page", strconv.Itoa(page))
	return "?" + q.Encode()
}

func dict(kv ...interface{}) (map[string]interface{}, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict: odd number of arguments")
	}
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}
