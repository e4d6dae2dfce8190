package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

// TestResult holds the outcome of a rendered component or action request.
type TestResult struct {
	HTML            string
	StatusCode      int
	Headers         http.Header
	TriggeredEvents []string
	Flashes         []Flash
	RedirectURL     string
}

// TestRender hydrates and renders comp with props, bypassing HTTP and
// props encoding.
func TestRender[P any](comp Lifecycle[P], props P) (*TestResult, error) {
	return TestRenderWithContext(context.Background(), comp, props)
}

// TestRenderWithContext is TestRender with a caller-supplied context.
func TestRenderWithContext[P any](ctx context.Context, comp Lifecycle[P], props P) (*TestResult, error) {
	if err := comp.Hydrate(ctx, &props); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := comp.Render(ctx, props).Render(ctx, &buf); err != nil {
		return nil, err
	}
	return &TestResult{
		HTML:       buf.String(),
		StatusCode: http.StatusOK,
		Headers:    make(http.Header),
	}, nil
}

// TestAction sends an HTMX request to h, which is usually a registered
// component or Registry.Handler(), and collects the response.
//
//	res, err := ui.TestAction(comp, comp.URL("commit", props), http.MethodPost,
//	    map[string]string{"value": "France"})
func TestAction(h http.Handler, actionURL, method string, formData map[string]string) (*TestResult, error) {
	return NewTestRequest(method, actionURL).WithFormValues(formData).Execute(h)
}

// TestGet sends a GET request to h.
func TestGet(h http.Handler, url string) (*TestResult, error) {
	return TestAction(h, url, http.MethodGet, nil)
}

// TestPost sends a POST request with form data to h.
func TestPost(h http.Handler, url string, formData map[string]string) (*TestResult, error) {
	return TestAction(h, url, http.MethodPost, formData)
}

// TestRequestBuilder builds a test request step by step.
//
//	res, err := ui.NewTestRequest(http.MethodPost, u).
//	    WithFormData("note", "Call back Monday").
//	    WithContext(ctx).
//	    Execute(reg.Handler())
type TestRequestBuilder struct {
	method   string
	url      string
	formData map[string]string
	headers  map[string]string
	ctx      context.Context
}

// NewTestRequest creates a request builder. The HX-Request header is set
// by default.
func NewTestRequest(method, url string) *TestRequestBuilder {
	return &TestRequestBuilder{
		method:   method,
		url:      url,
		formData: make(map[string]string),
		headers:  map[string]string{"HX-Request": "true"},
		ctx:      context.Background(),
	}
}

// WithFormData adds one form value.
func (b *TestRequestBuilder) WithFormData(key, value string) *TestRequestBuilder {
	b.formData[key] = value
	return b
}

// WithFormValues adds several form values.
func (b *TestRequestBuilder) WithFormValues(data map[string]string) *TestRequestBuilder {
	for k, v := range data {
		b.formData[k] = v
	}
	return b
}

// WithHeader sets a request header.
func (b *TestRequestBuilder) WithHeader(key, value string) *TestRequestBuilder {
	b.headers[key] = value
	return b
}

// WithoutHeader removes a request header, including the default one.
func (b *TestRequestBuilder) WithoutHeader(key string) *TestRequestBuilder {
	delete(b.headers, key)
	return b
}

// WithContext sets the request context.
func (b *TestRequestBuilder) WithContext(ctx context.Context) *TestRequestBuilder {
	b.ctx = ctx
	return b
}

// Execute runs the request against h.
func (b *TestRequestBuilder) Execute(h http.Handler) (*TestResult, error) {
	form := url.Values{}
	for k, v := range b.formData {
		form.Set(k, v)
	}

	req := httptest.NewRequest(b.method, b.url, strings.NewReader(form.Encode()))
	req = req.WithContext(b.ctx)
	if len(b.formData) > 0 {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return newTestResult(rec), nil
}

func newTestResult(rec *httptest.ResponseRecorder) *TestResult {
	res := &TestResult{
		HTML:        rec.Body.String(),
		StatusCode:  rec.Code,
		Headers:     rec.Header(),
		RedirectURL: rec.Header().Get("HX-Redirect"),
	}
	if trigger := rec.Header().Get("HX-Trigger"); trigger != "" {
		res.TriggeredEvents = parseTriggerHeader(trigger)
	}
	res.Flashes = parseFlashesFromHTML(res.HTML)
	return res
}

// HTMLContains checks if the HTML contains substr.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll checks if the HTML contains every substring.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// HasEvent checks if event was triggered.
func (r *TestResult) HasEvent(event string) bool {
	for _, e := range r.TriggeredEvents {
		if e == event {
			return true
		}
	}
	return false
}

// HasFlash checks for a flash with the given level and message.
func (r *TestResult) HasFlash(level, message string) bool {
	for _, f := range r.Flashes {
		if f.Level == level && f.Message == message {
			return true
		}
	}
	return false
}

// HasFlashLevel checks for any flash with the given level.
func (r *TestResult) HasFlashLevel(level string) bool {
	for _, f := range r.Flashes {
		if f.Level == level {
			return true
		}
	}
	return false
}

// WasRedirected reports whether HX-Redirect was set.
func (r *TestResult) WasRedirected() bool {
	return r.RedirectURL != ""
}

// IsOK checks for a 200 status.
func (r *TestResult) IsOK() bool {
	return r.StatusCode == http.StatusOK
}

// GetHeader returns a response header.
func (r *TestResult) GetHeader(key string) string {
	return r.Headers.Get(key)
}

// parseTriggerHeader returns the event names of an HX-Trigger value, which
// is either a comma-separated list or a JSON object keyed by event.
func parseTriggerHeader(trigger string) []string {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		return nil
	}
	if strings.HasPrefix(trigger, "{") {
		var m map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trigger), &m); err != nil {
			return nil
		}
		events := make([]string, 0, len(m))
		for k := range m {
			events = append(events, k)
		}
		sort.Strings(events)
		return events
	}
	var events []string
	for _, p := range strings.Split(trigger, ",") {
		if p = strings.TrimSpace(p); p != "" {
			events = append(events, p)
		}
	}
	return events
}

// parseFlashesFromHTML extracts toasts rendered by RenderFlashesOOB.
func parseFlashesFromHTML(body string) []Flash {
	const prefix = `<div class="toast toast-`
	var flashes []Flash
	idx := 0
	for {
		start := strings.Index(body[idx:], prefix)
		if start == -1 {
			break
		}
		start += idx + len(prefix)

		levelEnd := strings.Index(body[start:], `"`)
		tagEnd := strings.Index(body[start:], ">")
		if levelEnd == -1 || tagEnd == -1 {
			break
		}
		contentStart := start + tagEnd + 1
		contentEnd := strings.Index(body[contentStart:], "</div>")
		if contentEnd == -1 {
			break
		}
		flashes = append(flashes, Flash{
			Level:   body[start : start+levelEnd],
			Message: html.UnescapeString(body[contentStart : contentStart+contentEnd]),
		})
		idx = contentStart + contentEnd
	}
	return flashes
}

// MockHydrater wraps a component with a replacement Hydrate, so tests can
// inject data without a store.
type MockHydrater[P any] struct {
	Component   Lifecycle[P]
	HydrateFunc func(ctx context.Context, props *P) error

	last *P
}

// NewMockHydrater wraps comp.
func NewMockHydrater[P any](comp Lifecycle[P], hydrate func(ctx context.Context, props *P) error) *MockHydrater[P] {
	return &MockHydrater[P]{Component: comp, HydrateFunc: hydrate}
}

// Hydrate calls the replacement function.
func (m *MockHydrater[P]) Hydrate(ctx context.Context, props *P) error {
	m.last = props
	return m.HydrateFunc(ctx, props)
}

// Render delegates to the wrapped component.
func (m *MockHydrater[P]) Render(ctx context.Context, props P) templ.Component {
	return m.Component.Render(ctx, props)
}

// LastHydratedProps returns the props passed to the last Hydrate call.
func (m *MockHydrater[P]) LastHydratedProps() *P {
	return m.last
}
