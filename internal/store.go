package internal

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/formtree/pkg/cache"
	"github.com/dmitrymomot/formtree/pkg/formmodel"
)

const (
	// InstanceIDParameter carries the id of a stored form instance.
	InstanceIDParameter = "forms_instance_id"

	// HeaderInstanceID is an alternative to InstanceIDParameter for
	// clients that cannot add body parameters.
	HeaderInstanceID = "X-Form-Instance"

	defaultInstanceTTL = 30 * time.Minute
	defaultMaxForms    = 10000
)

type storedForm struct {
	form *formmodel.Form
	name string
}

// FormStore keeps form instances between the requests of a multi-step
// dialogue. Instances expire after a period of inactivity; evicted forms
// release their uploaded parts.
type FormStore struct {
	cache *cache.Memory[storedForm]
	ttl   time.Duration
}

// FormStoreOption configures a FormStore.
type FormStoreOption func(*formStoreConfig)

type formStoreConfig struct {
	ttl        time.Duration
	maxEntries int
}

// WithInstanceTTL sets the inactivity timeout. Default: 30m.
func WithInstanceTTL(d time.Duration) FormStoreOption {
	return func(c *formStoreConfig) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithMaxInstances bounds the number of stored forms; the least recently
// used one is evicted first. Default: 10000.
func WithMaxInstances(n int) FormStoreOption {
	return func(c *formStoreConfig) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// NewFormStore creates an in-memory store.
func NewFormStore(opts ...FormStoreOption) *FormStore {
	cfg := formStoreConfig{ttl: defaultInstanceTTL, maxEntries: defaultMaxForms}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &FormStore{
		ttl: cfg.ttl,
		cache: cache.NewMemory[storedForm](
			cache.WithDefaultTTL(cfg.ttl),
			cache.WithMaxEntries(cfg.maxEntries),
			cache.WithEvictCallback(func(_ string, sf storedForm) { sf.form.Release() }),
		),
	}
}

// Put stores f under its instance id, refreshing the inactivity timeout.
func (s *FormStore) Put(ctx context.Context, name string, f *formmodel.Form) error {
	return s.cache.Set(ctx, f.InstanceID(), storedForm{form: f, name: name}, s.ttl)
}

// Get returns the form stored under id if it was created from the
// definition name.
func (s *FormStore) Get(ctx context.Context, name, id string) (*formmodel.Form, bool) {
	sf, err := s.cache.Get(ctx, id)
	if err != nil || sf.name != name {
		return nil, false
	}
	return sf.form, true
}

// Delete removes and releases a form.
func (s *FormStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, id); err != nil && !errors.Is(err, cache.ErrClosed) {
		return err
	}
	return nil
}

// Len returns the number of stored forms.
func (s *FormStore) Len() int { return s.cache.Len() }

// Close releases every stored form.
func (s *FormStore) Close() error { return s.cache.Close() }
