package di_test

import (
	"testing"

	"github.com/advdv/sutest/di"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

type ServerOptions struct {
	Addr    string `validate:"required"`
	Timeout int    `default:"30" validate:"gte=1"`
}

func TestOptionsPipeline(t *testing.T) {
	c := di.NewCollection()
	di.ValidateStruct[ServerOptions](c)
	di.Configure(c, func(o *ServerOptions) { o.Addr = ":8080" })
	di.ConfigureNamed(c, "admin", func(o *ServerOptions) { o.Addr = ":9090" })
	di.ConfigureAll(c, func(o *ServerOptions) { o.Timeout *= 2 })

	opts := di.MustResolve[*di.Options[ServerOptions]](c.Build())

	def, err := opts.Value()
	require.NoError(t, err)
	require.Equal(t, ServerOptions{Addr: ":8080", Timeout: 60}, *def)

	admin, err := opts.Get("admin")
	require.NoError(t, err)
	require.Equal(t, ":9090", admin.Addr)

	again, err := opts.Value()
	require.NoError(t, err)
	require.Same(t, def, again)
}

func TestOptionsValidationFailure(t *testing.T) {
	c := di.NewCollection()
	di.ValidateStruct[ServerOptions](c)
	di.AddValidator[ServerOptions](c, di.ValidatorFunc[ServerOptions](func(_ string, o *ServerOptions) error {
		if o.Timeout > 10 {
			return errors.New("timeout too large")
		}
		return nil
	}))

	_, err := di.MustResolve[*di.Options[ServerOptions]](c.Build()).Value()

	var verr *di.OptionsValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Failures, 2)
	require.Contains(t, verr.Failures[0], "'Addr' failed on the 'required' tag")
	require.Equal(t, "timeout too large", verr.Failures[1])
}

func TestOptionsWithoutValidators(t *testing.T) {
	c := di.NewCollection()
	di.AddOptions[ServerOptions](c)

	v, err := di.MustResolve[*di.Options[ServerOptions]](c.Build()).Value()
	require.NoError(t, err)
	require.Equal(t, 30, v.Timeout)
}

func TestOptionsConfigurerResolvesDependencies(t *testing.T) {
	c := di.NewCollection()
	di.AddInstance(c, &Counter{n: 5})
	di.AddConfigurer[ServerOptions](c, &di.NamedConfigurer[ServerOptions]{
		All: true,
		Fn: func(r di.Resolver, o *ServerOptions) error {
			cnt, err := di.Resolve[*Counter](r)
			if err != nil {
				return err
			}
			o.Timeout = cnt.n
			return nil
		},
	})

	v, err := di.MustResolve[*di.Options[ServerOptions]](c.Build()).Get("any")
	require.NoError(t, err)
	require.Equal(t, 5, v.Timeout)
}
