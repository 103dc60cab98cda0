// Package pages resolves page identifiers to handlers and runs them.
//
// Handlers are registered once at startup into a Registry. Dispatch looks a
// page up by its key (the identifier with spaces replaced by underscores)
// and calls its Main entry point. Nothing is cached between dispatches.
package pages

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"sync"

	"github.com/hnrobert/pagegate/internal/session"
)

// HomePage is open to every authenticated session.
const HomePage = "Home"

var (
	ErrPageNotFound  = errors.New("page not found")
	ErrMalformedPage = errors.New("page has no entry point")
	ErrDuplicatePage = errors.New("page already registered")
)

// Request is what a page handler sees of the current interaction.
type Request struct {
	PageID   string
	Session  *session.Session
	Method   string
	Form     url.Values
	RemoteIP string
}

// Posted reports whether the request carries a form submission.
func (r *Request) Posted() bool {
	return r.Method == "POST"
}

// View is a handler's output. Template selects a page template in the
// server; an empty Template renders Body inside the generic page frame.
type View struct {
	Title     string
	Body      template.HTML
	Template  string
	Data      any
	Flash     string
	FlashKind string // ok|err|warn|""
}

type Handler interface {
	Main(ctx context.Context, req *Request) (*View, error)
}

type HandlerFunc func(ctx context.Context, req *Request) (*View, error)

func (f HandlerFunc) Main(ctx context.Context, req *Request) (*View, error) {
	return f(ctx, req)
}

// Key is the lookup name for a page identifier: "Page 1" becomes "Page_1".
func Key(pageID string) string {
	return strings.ReplaceAll(pageID, " ", "_")
}

type entry struct {
	id string
	h  Handler
}

type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{entries: map[string]entry{}}
}

// Register binds pageID to h. A nil h registers a page without an entry
// point; dispatching it yields ErrMalformedPage.
func (r *Registry) Register(pageID string, h Handler) error {
	key := Key(pageID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.entries[key]; ok {
		return fmt.Errorf("%w: %q collides with %q", ErrDuplicatePage, pageID, prev.id)
	}
	r.entries[key] = entry{id: pageID, h: h}
	return nil
}

// Has reports whether pageID resolves to a registered page.
func (r *Registry) Has(pageID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[Key(pageID)]
	return ok
}

// Dispatch runs the handler registered for pageID exactly once. req.PageID
// is set to the registered identifier, so "Page_1" dispatches as "Page 1".
func (r *Registry) Dispatch(ctx context.Context, pageID string, req *Request) (*View, error) {
	r.mu.RLock()
	e, ok := r.entries[Key(pageID)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}
	if e.h == nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPage, pageID)
	}
	if req == nil {
		req = &Request{}
	}
	req.PageID = e.id
	return e.h.Main(ctx, req)
}
