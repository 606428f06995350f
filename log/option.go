package log

// Option applies a configuration option to config.
type Option func(config) config

// apply applies multiple options to a config.
func apply(cfg config, opts ...Option) config {
	for _, opt := range opts {
		cfg = opt(cfg)
	}

	return cfg
}

// setter returns an Option that runs fn on the config while holding its
// write lock.
func setter(fn func(*config)) Option {
	return func(c config) config {
		if c.mutex != nil {
			c.mutex.Lock()
			defer c.mutex.Unlock()
		}

		fn(&c)

		return c
	}
}
