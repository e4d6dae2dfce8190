package ui

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BigLep01/CRMdev/internal/ui/encoding"
)

// mountable is satisfied by any type embedding *Component[P].
type mountable interface {
	Prefix() string
	ActionNames() []string
	IsSensitive() bool
	ServeHTTP(http.ResponseWriter, *http.Request)
	mount(parent any, reg *Registry) error
}

// Registry owns the props encoder and routes component requests.
type Registry struct {
	mu         sync.RWMutex
	router     chi.Router
	encoder    *encoding.Encoder
	components map[string]any
	log        *zap.Logger

	// OnError writes the response for failed component requests. It may be
	// replaced before the registry starts serving.
	OnError ErrorHandler
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry's logger. Components inherit it.
func WithLogger(l *zap.Logger) RegistryOption {
	return func(reg *Registry) {
		reg.log = l
	}
}

// NewRegistry creates a registry signing props with key.
func NewRegistry(key []byte, opts ...RegistryOption) *Registry {
	enc, err := encoding.NewEncoder(key)
	if err != nil {
		panic(fmt.Sprintf("ui: failed to create encoder: %v", err))
	}

	reg := &Registry{
		router:     chi.NewRouter(),
		encoder:    enc,
		components: make(map[string]any),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(reg)
	}
	reg.OnError = DefaultErrorHandler(reg.log)
	reg.router.Use(requireHTMX)
	return reg
}

// Encoder returns the registry's props encoder.
func (reg *Registry) Encoder() *encoding.Encoder {
	return reg.encoder
}

// Add registers components. Each must embed *Component[P] and implement
// Lifecycle[P]. Add panics on a malformed component or a prefix collision.
func (reg *Registry) Add(components ...any) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, comp := range components {
		m, ok := comp.(mountable)
		if !ok {
			panic(fmt.Sprintf("ui: %T does not embed *ui.Component[P]", comp))
		}
		prefix := m.Prefix()
		if _, exists := reg.components[prefix]; exists {
			panic(fmt.Sprintf("ui: prefix collision for %q", prefix))
		}
		if err := m.mount(comp, reg); err != nil {
			panic(err.Error())
		}
		reg.components[prefix] = comp
		reg.router.Handle(prefix+"/*", m)
		reg.log.Debug("component registered",
			zap.String("prefix", prefix),
			zap.Strings("actions", m.ActionNames()),
			zap.Bool("sensitive", m.IsSensitive()))
	}
}

// Handler returns the HTTP handler for component routes. Mount it at
// "/_c/*".
func (reg *Registry) Handler() http.Handler {
	return reg.router
}

func (reg *Registry) handleError(w http.ResponseWriter, r *http.Request, err error) {
	reg.OnError(w, r, err)
}

// DefaultErrorHandler maps runtime errors to status codes and logs them.
func DefaultErrorHandler(log *zap.Logger) ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		switch {
		case IsNotFound(err):
			log.Debug("component not found", zap.String("path", r.URL.Path), zap.Error(err))
			http.Error(w, "Not found", http.StatusNotFound)
		case IsBadRequest(err):
			log.Warn("rejected component props", zap.String("path", r.URL.Path), zap.Error(err))
			http.Error(w, "Bad request", http.StatusBadRequest)
		default:
			log.Error("component request failed", zap.String("path", r.URL.Path), zap.Error(err))
			http.Error(w, "Internal error", http.StatusInternalServerError)
		}
	}
}

// requireHTMX rejects mutating requests that did not come from HTMX.
// Browsers cannot attach the header cross-origin without a CORS preflight.
func requireHTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead && !IsHTMX(r) {
			http.Error(w, "Forbidden: HTMX request required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
