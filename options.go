package sutest

import (
	"github.com/advdv/sutest/di"
	"github.com/advdv/sutest/host"
)

// DisableStartupFilters removes every startup filter. Whatever the removed
// filters set up for the request pipeline is gone as well.
func (s *SUT) DisableStartupFilters() *SUT {
	s.EnsureNotBuilt("DisableStartupFilters")
	return s.ConfigureTestServices(func(c *di.Collection) error {
		c.RemoveAll(di.TypeOf[host.StartupFilter]())
		return nil
	})
}

// DisableStartupFilter removes the startup filters implemented by F.
func DisableStartupFilter[F host.StartupFilter](s *SUT) *SUT {
	s.EnsureNotBuilt("DisableStartupFilter")
	return s.ConfigureTestServices(func(c *di.Collection) error {
		c.RemoveAllBy(implementedBy(di.TypeOf[host.StartupFilter](), di.TypeOf[F]()))
		return nil
	})
}

// DisableOptionValidations removes every validator of the options type O.
func DisableOptionValidations[O any](s *SUT) *SUT {
	s.EnsureNotBuilt("DisableOptionValidations")
	return s.ConfigureTestServices(func(c *di.Collection) error {
		c.RemoveAll(di.TypeOf[di.Validator[O]]())
		return nil
	})
}

// DisableOptionStructValidation removes only the struct tag validation of the
// options type O.
func DisableOptionStructValidation[O any](s *SUT) *SUT {
	s.EnsureNotBuilt("DisableOptionStructValidation")
	return s.ConfigureTestServices(func(c *di.Collection) error {
		c.RemoveAllBy(func(d *di.Descriptor) bool {
			_, ok := d.Instance.(di.StructValidator[O])
			return d.ServiceType == di.TypeOf[di.Validator[O]]() && ok
		})
		return nil
	})
}

// ReplaceConfigureOptions drops every configurer of O, including bindings to
// the configuration, and configures the default instance with fn instead.
func ReplaceConfigureOptions[O any](s *SUT, fn func(o *O)) *SUT {
	s.EnsureNotBuilt("ReplaceConfigureOptions")
	return s.ConfigureTestServices(func(c *di.Collection) error {
		c.RemoveAll(di.TypeOf[di.Configurer[O]]())
		di.Configure(c, fn)
		return nil
	})
}

// ReplaceNamedConfigureOptions drops the configurers of the options instance
// called name and configures it with fn instead. Configurers that apply to
// every instance are kept.
func ReplaceNamedConfigureOptions[O any](s *SUT, name string, fn func(o *O)) *SUT {
	s.EnsureNotBuilt("ReplaceNamedConfigureOptions")
	return s.ConfigureTestServices(func(c *di.Collection) error {
		c.RemoveAllBy(func(d *di.Descriptor) bool {
			nc, ok := d.Instance.(*di.NamedConfigurer[O])
			return ok && !nc.All && nc.Name == name
		})
		di.ConfigureNamed(c, name, fn)
		return nil
	})
}
