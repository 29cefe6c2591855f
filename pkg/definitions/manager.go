package definitions

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/formtree/pkg/cache"
	"github.com/dmitrymomot/formtree/pkg/formbuilder"
	"github.com/dmitrymomot/formtree/pkg/formmodel"
)

// Kind tells form documents from library documents.
type Kind string

const (
	KindForm    Kind = "form"
	KindLibrary Kind = "library"
)

// Entry is a cached definition together with the tokens it was built from.
type Entry struct {
	Form    *formmodel.FormDefinition
	Library *formmodel.Library
	Token   Token
	// Imports maps the imported library names to their tokens at build time.
	Imports map[string]Token

	checkedAt atomic.Int64
}

// Manager loads, builds and caches definitions from a Source. Cached
// definitions are revalidated against the document's validity token and
// against the tokens of every library the form imports.
type Manager struct {
	source     Source
	cache      cache.Cache[*Entry]
	logger     *slog.Logger
	formOpts   []formmodel.Option
	ttl        time.Duration
	recheck    time.Duration
	revalidate bool
	ownsCache  bool
	closeOnce  sync.Once
}

// NewManager creates a manager over src.
func NewManager(src Source, opts ...Option) *Manager {
	m := defaultManager(src)
	for _, opt := range opts {
		opt(m)
	}
	if m.cache == nil {
		m.cache = cache.NewMemory[*Entry](cache.WithDefaultTTL(m.ttl))
		m.ownsCache = true
	}
	return m
}

// Fingerprint returns the cache key of a document: the source identity,
// the document kind and name, and the cache policy.
func (m *Manager) Fingerprint(kind Kind, name string) string {
	return fmt.Sprintf("%s|%s|%s|revalidate=%t", m.source.ID(), kind, name, m.revalidate)
}

// Form returns the resolved form definition named name.
func (m *Manager) Form(ctx context.Context, name string) (*formmodel.FormDefinition, error) {
	e, err := m.entry(ctx, KindForm, name)
	if err != nil {
		return nil, err
	}
	return e.Form, nil
}

// Library returns the class library named name.
func (m *Manager) Library(ctx context.Context, name string) (*formmodel.Library, error) {
	e, err := m.entry(ctx, KindLibrary, name)
	if err != nil {
		return nil, err
	}
	return e.Library, nil
}

// NewForm creates a fresh form instance from the named definition.
func (m *Manager) NewForm(ctx context.Context, name string) (*formmodel.Form, error) {
	def, err := m.Form(ctx, name)
	if err != nil {
		return nil, err
	}
	return def.NewForm()
}

// Invalidate drops the cached form and library named name.
func (m *Manager) Invalidate(ctx context.Context, name string) error {
	if err := m.cache.Delete(ctx, m.Fingerprint(KindForm, name)); err != nil {
		return err
	}
	return m.cache.Delete(ctx, m.Fingerprint(KindLibrary, name))
}

// Healthcheck returns a readiness check for the source. Sources that
// cannot be pinged are always healthy.
func (m *Manager) Healthcheck() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if p, ok := m.source.(Pinger); ok {
			return p.Ping(ctx)
		}
		return nil
	}
}

// Close releases the manager's private cache. A cache passed with
// WithCache is left open.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		if m.ownsCache {
			err = m.cache.Close()
		}
	})
	return err
}

func (m *Manager) entry(ctx context.Context, kind Kind, name string) (*Entry, error) {
	return cache.GetOrLoad(ctx, m.cache, m.Fingerprint(kind, name),
		func(e *Entry) bool { return m.fresh(ctx, name, e) },
		func(ctx context.Context) (*Entry, time.Duration, error) {
			e, err := m.load(ctx, kind, name)
			return e, 0, err
		})
}

// fresh reports whether e still matches its source.
func (m *Manager) fresh(ctx context.Context, name string, e *Entry) bool {
	if !m.revalidate {
		return true
	}
	now := time.Now()
	if m.recheck > 0 && now.Sub(time.Unix(0, e.checkedAt.Load())) < m.recheck {
		return true
	}

	tok, err := m.source.Token(ctx, name)
	if err != nil || tok != e.Token {
		m.logger.DebugContext(ctx, "definition changed", "name", name, "error", err)
		return false
	}
	for lib, want := range e.Imports {
		tok, err := m.source.Token(ctx, lib)
		if err != nil || tok != want {
			m.logger.DebugContext(ctx, "imported library changed", "name", name, "library", lib, "error", err)
			return false
		}
	}
	e.checkedAt.Store(now.UnixNano())
	return true
}

func (m *Manager) load(ctx context.Context, kind Kind, name string) (*Entry, error) {
	doc, err := m.source.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	e := &Entry{Token: doc.Token, Imports: make(map[string]Token)}
	var mu sync.Mutex
	b := formbuilder.New(
		formbuilder.WithFormOptions(m.formOpts...),
		formbuilder.WithLibraryResolver(func(lib string) (*formmodel.Library, error) {
			le, err := m.entry(ctx, KindLibrary, lib)
			if err != nil {
				return nil, err
			}
			mu.Lock()
			e.Imports[lib] = le.Token
			mu.Unlock()
			return le.Library, nil
		}),
	)

	switch kind {
	case KindLibrary:
		e.Library, err = b.ParseLibrary(doc.Name, doc.Data)
	default:
		e.Form, err = b.ParseForm(doc.Name, doc.Data)
	}
	if err != nil {
		m.logger.WarnContext(ctx, "definition rejected", "kind", kind, "name", name, "error", err)
		return nil, err
	}
	e.checkedAt.Store(time.Now().UnixNano())
	m.logger.DebugContext(ctx, "definition loaded", "kind", kind, "name", name, "token", doc.Token)
	return e, nil
}
