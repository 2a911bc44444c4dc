package kizuna

import "log/slog"

const defaultInitialCapacity = 1024

// Option configures an EntityManager.
type Option func(*managerConfig)

type managerConfig struct {
	logger    *slog.Logger
	resources *Resources
	capacity  int
	retireIDs bool
}

// WithLogger sets the logger for lifecycle diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *managerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithInitialCapacity preallocates room for n entities.
func WithInitialCapacity(n int) Option {
	return func(c *managerConfig) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithIDRetirement makes destroyed entity slots permanently unusable instead
// of recycling them with a new generation. Ids then never repeat, at the
// cost of an ever-growing slot table.
func WithIDRetirement(retire bool) Option {
	return func(c *managerConfig) {
		c.retireIDs = retire
	}
}

// WithResources shares an existing resource store with the manager.
func WithResources(r *Resources) Option {
	return func(c *managerConfig) {
		if r != nil {
			c.resources = r
		}
	}
}
