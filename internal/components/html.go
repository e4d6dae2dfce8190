package components

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/a-h/templ"
)

// markup writes HTML, remembering the first error so views can be written
// without checking every call.
type markup struct {
	w   io.Writer
	ctx context.Context
	err error
}

func newMarkup(ctx context.Context, w io.Writer) *markup {
	return &markup{w: w, ctx: ctx}
}

func (m *markup) raw(s string) {
	if m.err == nil {
		_, m.err = io.WriteString(m.w, s)
	}
}

func (m *markup) text(s string) {
	m.raw(templ.EscapeString(s))
}

func (m *markup) textf(format string, args ...any) {
	m.text(fmt.Sprintf(format, args...))
}

// open writes a start tag. Attribute maps are merged left to right and
// written in sorted order; true booleans render bare, false ones are
// dropped.
func (m *markup) open(tag string, attrs ...templ.Attributes) {
	merged := templ.Attributes{}
	for _, a := range attrs {
		for k, v := range a {
			merged[k] = v
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m.raw("<" + tag)
	for _, k := range keys {
		switch v := merged[k].(type) {
		case bool:
			if v {
				m.raw(" " + k)
			}
		case string:
			m.raw(" " + k + `="` + templ.EscapeString(v) + `"`)
		default:
			m.raw(" " + k + `="` + templ.EscapeString(fmt.Sprint(v)) + `"`)
		}
	}
	m.raw(">")
}

func (m *markup) close(tag string) {
	m.raw("</" + tag + ">")
}

// elem writes <tag attrs>text</tag>.
func (m *markup) elem(tag, text string, attrs ...templ.Attributes) {
	m.open(tag, attrs...)
	m.text(text)
	m.close(tag)
}

func (m *markup) render(c templ.Component) {
	if m.err == nil && c != nil {
		m.err = c.Render(m.ctx, m.w)
	}
}

func class(names string) templ.Attributes {
	return templ.Attributes{"class": names}
}

// view adapts a markup-writing function to templ.Component.
func view(fn func(m *markup)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := newMarkup(ctx, w)
		fn(m)
		return m.err
	})
}
