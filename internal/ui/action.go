package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

// actionDef holds metadata about a registered action.
type actionDef[P any] struct {
	name    string
	method  string
	handler func(w http.ResponseWriter, r *http.Request, props P) Result[P]
}

// ActionBuilder configures an action after registration.
//
//	c.Action("commit", c.commit)                        // POST by default
//	c.Action("activate", c.activate).Method(http.MethodGet)
type ActionBuilder[P any] struct {
	action *actionDef[P]
}

// Method overrides the default POST method.
func (ab *ActionBuilder[P]) Method(m string) *ActionBuilder[P] {
	ab.action.method = m
	return ab
}

// adaptHandler normalises the supported handler signatures:
//
//	func(ctx, P) Result[P]
//	func(ctx, P, *http.Request) Result[P]
//	func(ctx, P, http.ResponseWriter) Result[P]
func adaptHandler[P any](name string, handler any) func(http.ResponseWriter, *http.Request, P) Result[P] {
	switch h := handler.(type) {
	case func(context.Context, P) Result[P]:
		return func(w http.ResponseWriter, r *http.Request, p P) Result[P] {
			return h(r.Context(), p)
		}
	case func(context.Context, P, *http.Request) Result[P]:
		return func(w http.ResponseWriter, r *http.Request, p P) Result[P] {
			return h(r.Context(), p, r)
		}
	case func(context.Context, P, http.ResponseWriter) Result[P]:
		return func(w http.ResponseWriter, r *http.Request, p P) Result[P] {
			return h(r.Context(), p, w)
		}
	default:
		panic(fmt.Sprintf("ui: action %q has unsupported handler type %T", name, handler))
	}
}

// Action is an HTMX request description for a component route. Build one
// with Component.Call or Component.Refresh and finish with Attrs.
//
//	templ.Attributes(c.Call("activate", props).Target("#company-info").Attrs())
type Action struct {
	URL    string
	Method string

	target   string
	swap     SwapMode
	trigger  string
	confirm  string
	indicate string
}

// NewAction creates an action for url and method. Props encoded in url as
// ?p= are moved into hx-vals for non-GET methods.
func NewAction(url, method string) *Action {
	return &Action{URL: url, Method: method}
}

// Target sets hx-target.
func (a *Action) Target(selector string) *Action {
	a.target = selector
	return a
}

// Swap sets hx-swap.
func (a *Action) Swap(mode SwapMode) *Action {
	a.swap = mode
	return a
}

// On sets a raw hx-trigger specification.
func (a *Action) On(trigger string) *Action {
	a.trigger = trigger
	return a
}

// OnEvent fires the action when event is triggered anywhere on the page.
// Several calls accumulate.
func (a *Action) OnEvent(event string) *Action {
	spec := event + " from:body"
	if a.trigger == "" {
		a.trigger = spec
	} else {
		a.trigger += ", " + spec
	}
	return a
}

// Confirm sets hx-confirm.
func (a *Action) Confirm(message string) *Action {
	a.confirm = message
	return a
}

// Indicator sets hx-indicator.
func (a *Action) Indicator(selector string) *Action {
	a.indicate = selector
	return a
}

// Attrs renders the action as templ attributes.
func (a *Action) Attrs() templ.Attributes {
	path, encoded, _ := strings.Cut(a.URL, "?p=")
	attrs := WireAttrs(path, a.Method, encoded)
	if a.target != "" {
		attrs["hx-target"] = a.target
	}
	if a.swap != "" {
		attrs["hx-swap"] = string(a.swap)
	}
	if a.trigger != "" {
		attrs["hx-trigger"] = a.trigger
	}
	if a.confirm != "" {
		attrs["hx-confirm"] = a.confirm
	}
	if a.indicate != "" {
		attrs["hx-indicator"] = a.indicate
	}
	return attrs
}

// WireAttrs builds the minimal HTMX attributes for a component route.
//
// GET puts the encoded props in the query string; other methods send them
// as hx-vals so they arrive as the "p" form value.
func WireAttrs(path, method, encoded string) templ.Attributes {
	attrs := templ.Attributes{}

	if method == http.MethodGet || method == "" {
		url := path
		if encoded != "" {
			url = path + "?p=" + encoded
		}
		attrs["hx-get"] = url
		return attrs
	}

	switch method {
	case http.MethodPost:
		attrs["hx-post"] = path
	case http.MethodPut:
		attrs["hx-put"] = path
	case http.MethodPatch:
		attrs["hx-patch"] = path
	case http.MethodDelete:
		attrs["hx-delete"] = path
	}
	if encoded != "" {
		data, _ := json.Marshal(map[string]string{"p": encoded})
		attrs["hx-vals"] = string(data)
	}
	return attrs
}
