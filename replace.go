package sutest

import (
	"github.com/advdv/sutest/cache"
	"github.com/advdv/sutest/di"
	"github.com/advdv/sutest/host"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ReplaceDistributedInMemoryCache replaces the distributed cache with an
// in-process one.
func (s *SUT) ReplaceDistributedInMemoryCache(configure ...func(o *cache.MemoryOptions)) *SUT {
	s.EnsureNotBuilt("ReplaceDistributedInMemoryCache")
	return s.ConfigureTestServices(func(c *di.Collection) error {
		c.RemoveAll(di.TypeOf[cache.Distributed]())
		cache.AddMemory(c, configure...)
		return nil
	})
}

// ReplaceLoggerFactory sends every log entry of the application to the cores,
// or nowhere when no core is given.
func (s *SUT) ReplaceLoggerFactory(cores ...zapcore.Core) *SUT {
	s.EnsureNotBuilt("ReplaceLoggerFactory")
	return s.ConfigureTestServices(func(c *di.Collection) error {
		c.Replace(di.NewInstance(di.TypeOf[host.LoggerFactory](),
			host.NewLoggerFactoryFrom(zap.New(zapcore.NewTee(cores...)))))
		return nil
	})
}

// ReplaceLoggerFactoryWith builds the application's loggers from the
// development config after fn changed it.
func (s *SUT) ReplaceLoggerFactoryWith(fn func(cfg *zap.Config)) *SUT {
	s.EnsureNotBuilt("ReplaceLoggerFactoryWith")
	return s.ConfigureTestServices(func(c *di.Collection) error {
		cfg := zap.NewDevelopmentConfig()
		fn(&cfg)

		l, err := cfg.Build()
		if err != nil {
			return errors.Wrap(err, "sutest: failed to build logger")
		}

		c.Replace(di.NewInstance(di.TypeOf[host.LoggerFactory](), host.NewLoggerFactoryFrom(l)))
		return nil
	})
}
