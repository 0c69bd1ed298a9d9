package serial

import (
	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/pickaxe/storage"
)

type config struct {
	storage storage.Opener
	log     logrus.FieldLogger
}

// Option configures a Writer or Reader.
type Option func(*config)

// WithStorage sets where resources are opened. The default is storage.OS.
func WithStorage(o storage.Opener) Option {
	return func(c *config) {
		c.storage = o
	}
}

// WithLogger sets the logger. The default is logrus.StandardLogger().
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) {
		c.log = l
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		storage: storage.OS,
		log:     logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}
