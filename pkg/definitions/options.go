package definitions

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/formtree/pkg/cache"
	"github.com/dmitrymomot/formtree/pkg/formmodel"
	"github.com/dmitrymomot/formtree/pkg/logger"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger. Default: a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRevalidate controls whether cached definitions are checked against
// their source before use. Default: true.
func WithRevalidate(on bool) Option {
	return func(m *Manager) { m.revalidate = on }
}

// WithRecheckInterval limits how often one cached document is checked
// against its source. Zero checks on every use. Default: zero.
func WithRecheckInterval(d time.Duration) Option {
	return func(m *Manager) { m.recheck = d }
}

// WithTTL sets how long an unused definition stays cached. Default: 1 hour.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) { m.ttl = d }
}

// WithCache stores definitions in c instead of a private in-memory cache.
// Fingerprints include the source id, so managers over different sources
// may share one cache.
func WithCache(c cache.Cache[*Entry]) Option {
	return func(m *Manager) { m.cache = c }
}

// WithFormOptions adds options applied to every form definition built.
func WithFormOptions(opts ...formmodel.Option) Option {
	return func(m *Manager) { m.formOpts = append(m.formOpts, opts...) }
}

func defaultManager(src Source) *Manager {
	return &Manager{
		source:     src,
		logger:     logger.NewNope(),
		revalidate: true,
		ttl:        time.Hour,
	}
}
