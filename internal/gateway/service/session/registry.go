// Package session maps browser sessions to their own orchestrator.
package session

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"codecraft/internal/orchestrator"
)

const (
	CookieName      = "codecraft_session"
	DefaultCapacity = 1024
	DefaultTTL      = 2 * time.Hour
)

// Registry holds at most capacity orchestrators. An entry idle for longer
// than ttl is dropped; a returning browser then starts from idle.
type Registry struct {
	mu     sync.Mutex
	cache  *expirable.LRU[string, *orchestrator.Orchestrator]
	newFn  func() *orchestrator.Orchestrator
	ttl    time.Duration
	secure bool
}

type Option func(*Registry)

// WithSecureCookie marks the session cookie Secure (HTTPS deployments).
func WithSecureCookie(secure bool) Option {
	return func(r *Registry) { r.secure = secure }
}

func New(capacity int, ttl time.Duration, newFn func() *orchestrator.Orchestrator, opts ...Option) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &Registry{
		cache: expirable.NewLRU[string, *orchestrator.Orchestrator](capacity, nil, ttl),
		newFn: newFn,
		ttl:   ttl,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lookup returns the orchestrator for id without creating one.
func (r *Registry) Lookup(id string) (*orchestrator.Orchestrator, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.cache.Get(id)
	if ok {
		// Re-adding restarts the idle timer.
		r.cache.Add(id, o)
	}
	return o, ok
}

// Acquire returns the orchestrator for id, creating it (under a fresh id when
// id is empty) if needed. created reports whether a new entry was made.
func (r *Registry) Acquire(id string) (string, *orchestrator.Orchestrator, bool) {
	id = strings.TrimSpace(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if id != "" {
		if o, ok := r.cache.Get(id); ok {
			r.cache.Add(id, o)
			return id, o, false
		}
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	o := r.newFn()
	r.cache.Add(id, o)
	return id, o, true
}

// FromRequest resolves the caller's orchestrator from the session cookie and
// (re)issues the cookie when the session is new.
func (r *Registry) FromRequest(w http.ResponseWriter, req *http.Request) *orchestrator.Orchestrator {
	id := IDFrom(req)
	newID, o, created := r.Acquire(id)
	if created || newID != id {
		http.SetCookie(w, r.Cookie(newID))
	}
	return o
}

// Cookie builds the session cookie for id.
func (r *Registry) Cookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(r.ttl / time.Second),
	}
}

// IDFrom returns the session id carried by req, if any.
func IDFrom(req *http.Request) string {
	if c, err := req.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Len()
}
