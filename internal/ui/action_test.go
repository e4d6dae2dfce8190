package ui

import (
	"net/http"
	"testing"
)

func TestWireAttrs(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		encoded string
		want    map[string]string
	}{
		{"get with props", http.MethodGet, "abc.def", map[string]string{"hx-get": "/x?p=abc.def"}},
		{"get without props", "", "", map[string]string{"hx-get": "/x"}},
		{"post", http.MethodPost, "abc", map[string]string{"hx-post": "/x", "hx-vals": `{"p":"abc"}`}},
		{"put", http.MethodPut, "", map[string]string{"hx-put": "/x"}},
		{"patch", http.MethodPatch, "", map[string]string{"hx-patch": "/x"}},
		{"delete", http.MethodDelete, "z", map[string]string{"hx-delete": "/x", "hx-vals": `{"p":"z"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := WireAttrs("/x", tt.method, tt.encoded)
			if len(attrs) != len(tt.want) {
				t.Fatalf("attrs = %v, want %v", attrs, tt.want)
			}
			for k, v := range tt.want {
				if attrs[k] != v {
					t.Errorf("%s = %v, want %q", k, attrs[k], v)
				}
			}
		})
	}
}

func TestActionAttrs(t *testing.T) {
	attrs := NewAction("/_c/notes-1/create?p=tok", http.MethodPost).
		Target("#notes").
		Swap(SwapOuter).
		OnEvent("note:created").
		OnEvent("note:updated").
		Confirm("Sure?").
		Indicator("#spinner").
		Attrs()

	want := map[string]string{
		"hx-post":      "/_c/notes-1/create",
		"hx-vals":      `{"p":"tok"}`,
		"hx-target":    "#notes",
		"hx-swap":      "outerHTML",
		"hx-trigger":   "note:created from:body, note:updated from:body",
		"hx-confirm":   "Sure?",
		"hx-indicator": "#spinner",
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("%s = %v, want %q", k, attrs[k], v)
		}
	}
}

func TestActionOnRawTrigger(t *testing.T) {
	attrs := NewAction("/x", http.MethodGet).On("input changed delay:300ms").Attrs()
	if attrs["hx-trigger"] != "input changed delay:300ms" {
		t.Errorf("hx-trigger = %v", attrs["hx-trigger"])
	}
	if _, ok := attrs["hx-swap"]; ok {
		t.Error("hx-swap set without Swap")
	}
}

func TestCallUsesRegisteredMethod(t *testing.T) {
	c := newCounter()
	newTestRegistry(t, c)

	if _, ok := c.Wire("peek", counterProps{})["hx-get"]; !ok {
		t.Error("peek should wire as hx-get")
	}
	attrs := c.Wire("increment", counterProps{})
	if attrs["hx-post"] != c.Prefix()+"/increment" {
		t.Errorf("hx-post = %v", attrs["hx-post"])
	}
	if attrs["hx-swap"] != "outerHTML" {
		t.Errorf("hx-swap = %v", attrs["hx-swap"])
	}
}

func TestActionNames(t *testing.T) {
	got := newCounter().ActionNames()
	want := []string{"away", "fail", "increment", "peek", "raw"}
	if len(got) != len(want) {
		t.Fatalf("ActionNames() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ActionNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestUnsupportedHandlerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	New[counterProps]("bad").Action("x", func() {})
}
