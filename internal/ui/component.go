package ui

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/BigLep01/CRMdev/internal/ui/encoding"
)

// Lifecycle is implemented by every component.
//
// Hydrate turns the lean, serialisable props decoded from the request into
// fully populated ones (records, field groups, option lists). It runs once
// per request, before any handler. Render must be pure: it reads props and
// produces HTML.
type Lifecycle[P any] interface {
	Hydrate(ctx context.Context, props *P) error
	Render(ctx context.Context, props P) templ.Component
}

// ErrorHandler writes the response for a failed component request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Component[P] is the base type embedded by components. P is the props
// type; its serialisable fields carry msgpack tags, hydrated fields are
// tagged `msgpack:"-"`.
//
//	type CompanyInfo struct {
//	    *ui.Component[CompanyInfoProps]
//	    store query.Collaborator
//	}
//
//	func NewCompanyInfo(store query.Collaborator) *CompanyInfo {
//	    c := &CompanyInfo{Component: ui.New[CompanyInfoProps]("companyinfo"), store: store}
//	    c.Action("commit", c.commit)
//	    c.Action("activate", c.activate).Method(http.MethodGet)
//	    return c
//	}
//
// Each instance gets a URL prefix derived from its name and the source
// location of the New call, so two instances never collide.
type Component[P any] struct {
	name      string
	prefix    string
	sensitive bool
	actions   map[string]*actionDef[P]

	encoder *encoding.Encoder
	impl    Lifecycle[P]
	onError ErrorHandler
	log     *zap.Logger
}

// New creates a component. Props are signed by default; see Sensitive.
func New[P any](name string) *Component[P] {
	return &Component[P]{
		name:    name,
		prefix:  "/_c/" + name + "-" + componentHash(name, 1),
		actions: make(map[string]*actionDef[P]),
		log:     zap.NewNop(),
	}
}

// Sensitive switches props from signed to encrypted.
func (c *Component[P]) Sensitive() *Component[P] {
	c.sensitive = true
	return c
}

// Name returns the component's name.
func (c *Component[P]) Name() string {
	return c.name
}

// Prefix returns the URL prefix all routes of the component live under.
func (c *Component[P]) Prefix() string {
	return c.prefix
}

// IsSensitive reports whether props are encrypted.
func (c *Component[P]) IsSensitive() bool {
	return c.sensitive
}

// Action registers a named action, POST unless overridden with Method.
// Supported handler signatures:
//
//	func(ctx, P) Result[P]
//	func(ctx, P, *http.Request) Result[P]
//	func(ctx, P, http.ResponseWriter) Result[P]
//
// The runtime calls Hydrate before the handler and Render after it.
func (c *Component[P]) Action(name string, handler any) *ActionBuilder[P] {
	def := &actionDef[P]{
		name:    name,
		method:  http.MethodPost,
		handler: adaptHandler[P](name, handler),
	}
	c.actions[name] = def
	return &ActionBuilder[P]{action: def}
}

// ActionNames returns the registered action names, sorted.
func (c *Component[P]) ActionNames() []string {
	names := make([]string, 0, len(c.actions))
	for name := range c.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// URL returns the route for action with props encoded. An empty action is
// the default render.
func (c *Component[P]) URL(action string, props P) string {
	path := c.prefix + "/"
	if action != "" {
		path += action
	}
	if c.encoder == nil {
		return path
	}
	encoded, err := c.encoder.Encode(props, c.sensitive)
	if err != nil {
		c.log.Error("encode props", zap.String("component", c.name), zap.Error(err))
		return path
	}
	return path + "?p=" + encoded
}

// Call returns a request builder for a registered action. Unknown action
// names panic.
func (c *Component[P]) Call(action string, props P) *Action {
	def, ok := c.actions[action]
	if !ok {
		panic(fmt.Sprintf("ui: component %q has no action %q", c.name, action))
	}
	return NewAction(c.URL(action, props), def.method).Swap(SwapOuter)
}

// Wire is shorthand for Call(action, props).Attrs().
func (c *Component[P]) Wire(action string, props P) templ.Attributes {
	return c.Call(action, props).Attrs()
}

// Refresh returns a request builder for the default render.
//
//	c.Refresh(props).OnEvent("company:updated").Attrs()
func (c *Component[P]) Refresh(props P) *Action {
	return NewAction(c.URL("", props), http.MethodGet).Swap(SwapOuter)
}

// Lazy renders placeholder and loads the component when it scrolls into
// view.
func (c *Component[P]) Lazy(props P, placeholder templ.Component) templ.Component {
	return lazyComponent(c.URL("", props), placeholder, "intersect once")
}

// Defer renders placeholder and loads the component right after page load.
// The placeholder is the component's loading skeleton.
func (c *Component[P]) Defer(props P, placeholder templ.Component) templ.Component {
	return lazyComponent(c.URL("", props), placeholder, "load")
}

// Prerender hydrates props and renders the component for embedding in a
// full page response.
func (c *Component[P]) Prerender(ctx context.Context, props P) (templ.Component, error) {
	if c.impl == nil {
		return nil, fmt.Errorf("ui: component %q is not registered", c.name)
	}
	ctx = context.WithValue(ctx, scopeKey{}, &requestScope{})
	if err := c.impl.Hydrate(ctx, &props); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHydrationFailed, err)
	}
	return c.impl.Render(ctx, props), nil
}

// mount binds the component to its registry. parent is the concrete value
// embedding c.
func (c *Component[P]) mount(parent any, reg *Registry) error {
	impl, ok := parent.(Lifecycle[P])
	if !ok {
		return fmt.Errorf("ui: %T does not implement Hydrate and Render for its props", parent)
	}
	c.impl = impl
	c.encoder = reg.encoder
	c.onError = reg.handleError
	c.log = reg.log.With(zap.String("component", c.name))
	return nil
}

// ServeHTTP decodes props, routes to the default render or an action,
// hydrates, runs the handler and writes the result.
func (c *Component[P]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if c.impl == nil {
		http.Error(w, "component not registered", http.StatusInternalServerError)
		return
	}

	name := strings.Trim(strings.TrimPrefix(r.URL.Path, c.prefix), "/")
	var def *actionDef[P]
	if name == "" {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
	} else {
		var ok bool
		if def, ok = c.actions[name]; !ok {
			http.NotFound(w, r)
			return
		}
		if r.Method != def.method {
			w.Header().Set("Allow", def.method)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
	}

	var props P
	if encoded := r.FormValue("p"); encoded != "" {
		if c.encoder == nil {
			c.fail(w, r, ErrInvalidFormat)
			return
		}
		if err := c.encoder.Decode(encoded, c.sensitive, &props); err != nil {
			c.fail(w, r, wrapEncodingError(err))
			return
		}
	}

	r = r.WithContext(context.WithValue(r.Context(), scopeKey{}, &requestScope{}))
	if err := c.impl.Hydrate(r.Context(), &props); err != nil {
		if !IsNotFound(err) {
			err = fmt.Errorf("%w: %w", ErrHydrationFailed, err)
		}
		c.fail(w, r, err)
		return
	}

	if def == nil {
		c.handleResult(w, r, OK(props))
		return
	}
	c.handleResult(w, r, def.handler(w, r, props))
}

func (c *Component[P]) handleResult(w http.ResponseWriter, r *http.Request, res Result[P]) {
	if err := res.GetErr(); err != nil {
		c.fail(w, r, err)
		return
	}
	if res.ShouldSkip() {
		return
	}

	h := w.Header()
	for k, v := range res.GetHeaders() {
		h.Set(k, v)
	}
	if t := BuildTriggerHeader(res.GetTrigger(), res.GetTriggerData()); t != "" {
		h.Set("HX-Trigger", t)
	}
	if t := res.GetTriggerAfterSettle(); t != "" {
		h.Set("HX-Trigger-After-Settle", t)
	}

	status := res.GetStatus()
	if status == 0 {
		status = http.StatusOK
	}

	if url := res.GetRedirect(); url != "" {
		h.Set("HX-Redirect", url)
		w.WriteHeader(status)
		return
	}

	var buf bytes.Buffer
	if err := c.impl.Render(r.Context(), res.GetProps()).Render(r.Context(), &buf); err != nil {
		c.fail(w, r, fmt.Errorf("render %s: %w", c.name, err))
		return
	}
	buf.WriteString(RenderFlashesOOB(res.GetFlashes()))

	h.Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		c.log.Debug("write response", zap.Error(err))
	}
}

func (c *Component[P]) fail(w http.ResponseWriter, r *http.Request, err error) {
	if c.onError != nil {
		c.onError(w, r, err)
		return
	}
	DefaultErrorHandler(c.log)(w, r, err)
}

type scopeKey struct{}

type requestScope struct {
	mu   sync.Mutex
	seen map[any]struct{}
}

// Once reports whether key is claimed for the first time in the current
// component request. Outside a component request every call reports true.
// Keys must be comparable.
func Once(ctx context.Context, key any) bool {
	s, ok := ctx.Value(scopeKey{}).(*requestScope)
	if !ok {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[key]; dup {
		return false
	}
	if s.seen == nil {
		s.seen = make(map[any]struct{})
	}
	s.seen[key] = struct{}{}
	return true
}

// componentHash derives a short stable id from name and the caller's
// source location.
func componentHash(name string, skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	input := name
	if ok {
		input = fmt.Sprintf("%s:%d:%s", filepath.Base(file), line, name)
	}
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:4])
}

func lazyComponent(url string, placeholder templ.Component, trigger string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<div hx-get="%s" hx-trigger="%s" hx-swap="outerHTML">`,
			templ.EscapeString(url), templ.EscapeString(trigger)); err != nil {
			return err
		}
		if placeholder != nil {
			if err := placeholder.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}
