package ai

import (
	"errors"
	"io"
)

// composite pairs independently selected services.
type composite struct {
	embedder  Embedder
	generator Generator
	closers   []io.Closer
}

// Compose builds an AIProvider from an embedder and a generator that may come
// from different backends. Close closes every closer, in order.
func Compose(embedder Embedder, generator Generator, closers ...io.Closer) AIProvider {
	return &composite{embedder: embedder, generator: generator, closers: closers}
}

func (c *composite) Embedder() Embedder {
	return c.embedder
}

func (c *composite) Generator() Generator {
	return c.generator
}

func (c *composite) Close() error {
	var errs []error
	for _, closer := range c.closers {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}
