package config

import (
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-confmerge/logger"
	"github.com/goliatone/go-confmerge/solvers"
)

// Option configures a Config before the environment is read.
type Option func(c *Config) error

func WithLogger(l logger.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return errors.New("logger cannot be nil", errors.CategoryBadInput).
				WithTextCode("NIL_LOGGER")
		}
		c.logger = l
		return nil
	}
}

// WithEnviron seeds the plain group from environ (KEY=value entries)
// instead of the process environment.
func WithEnviron(environ []string) Option {
	return func(c *Config) error {
		c.environ = append([]string{}, environ...)
		return nil
	}
}

// WithoutEnvironment starts with an empty plain group.
func WithoutEnvironment() Option {
	return func(c *Config) error {
		c.skipEnviron = true
		return nil
	}
}

// WithSolver registers solvers that run on the merged tree.
func WithSolver(slvrs ...solvers.Solver) Option {
	return func(c *Config) error {
		c.solvers = append(c.solvers, slvrs...)
		return nil
	}
}
