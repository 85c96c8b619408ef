package host

import "github.com/advdv/sutest/di"

// ConfigureFunc configures the request pipeline of a host.
type ConfigureFunc func(app *AppBuilder) error

// StartupFilter wraps the pipeline configuration. Filters are registered in the
// service collection; the first registered filter is the outermost.
type StartupFilter interface {
	Configure(next ConfigureFunc) ConfigureFunc
}

// StartupFilterFunc adapts a function to [StartupFilter].
type StartupFilterFunc func(next ConfigureFunc) ConfigureFunc

// Configure implements [StartupFilter].
func (f StartupFilterFunc) Configure(next ConfigureFunc) ConfigureFunc { return f(next) }

// AddStartupFilter registers a filter constructor. The constructor should
// return the concrete filter type so the filter can be identified later.
func AddStartupFilter(c *di.Collection, ctor any) *di.Collection {
	return di.AddTransient[StartupFilter](c, ctor)
}

func composeConfigure(r di.Resolver, inner ConfigureFunc) (ConfigureFunc, error) {
	filters, err := di.ResolveAll[StartupFilter](r)
	if err != nil {
		return nil, err
	}

	configure := inner
	for i := len(filters) - 1; i >= 0; i-- {
		configure = filters[i].Configure(configure)
	}

	return configure, nil
}
