// Package sampleapp is a small host application used to exercise the test
// harness: greetings, items stored in SQL, a distributed cache and two
// authentication schemes.
package sampleapp

import (
	"os"

	"github.com/advdv/sutest/auth"
	"github.com/advdv/sutest/cache"
	"github.com/advdv/sutest/di"
	"github.com/advdv/sutest/host"
	"github.com/advdv/sutest/sqlstore"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	_ "modernc.org/sqlite" // default database driver
)

// EnvPrefix prefixes the environment variables that override configuration.
const EnvPrefix = "SAMPLEAPP_"

// ParameterPathEnv names the SSM parameter path to load configuration from.
const ParameterPathEnv = EnvPrefix + "PARAMETER_PATH"

// Startup is the composition root of the sample application.
type Startup struct{}

// ConfigureAppConfiguration adds the built-in defaults, the SSM parameters
// below $SAMPLEAPP_PARAMETER_PATH when it is set, and the environment.
func (Startup) ConfigureAppConfiguration(_ host.Environment, b *host.ConfigBuilder) error {
	b.AddMap(map[string]any{
		"greeting": map[string]any{
			"template": "Hello, %s!",
		},
		"database": map[string]any{
			"dsn": "file:sampleapp.db",
		},
		"auth": map[string]any{
			"bearer": map[string]any{
				"signingkey": "development-signing-key",
				"issuer":     "sampleapp",
			},
		},
		"apikey": map[string]any{
			"secret": "sampleapp/partner#key",
		},
		"cache": map[string]any{
			"tablename": "sampleapp-cache",
		},
	})

	if path := os.Getenv(ParameterPathEnv); path != "" {
		b.Add(ParameterSource(path, nil))
	}

	b.AddEnv(EnvPrefix)
	return nil
}

// ConfigureServices registers the application services.
func (Startup) ConfigureServices(ctx host.BuilderContext, c *di.Collection) error {
	di.AddSingleton[Clock](c, func() SystemClock { return SystemClock{} })

	host.BindOptions[GreeterOptions](c, "greeting")
	di.ValidateStruct[GreeterOptions](c)
	di.AddScoped[Greeter](c, NewGreeter)

	sqlstore.Add(c, Schema)
	di.AddScoped[ItemStore](c, NewSQLItemStore)

	di.AddSingleton[aws.Config](c, NewAWSConfig)
	di.AddSingleton[SecretReader](c, NewAWSSecretReader)

	if ctx.Environment.IsProduction() {
		di.AddSingleton[cache.DynamoAPI](c, func(cfg aws.Config) *dynamodb.Client {
			return dynamodb.NewFromConfig(cfg)
		})
		host.BindOptions[cache.DynamoOptions](c, "cache")
		cache.AddDynamo(c)

		di.AddSingleton[QueueAPI](c, func(cfg aws.Config) *sqs.Client { return sqs.NewFromConfig(cfg) })
		host.BindOptions[EventOptions](c, "events")
		di.ValidateStruct[EventOptions](c)
		di.AddSingleton[ItemEvents](c, NewSQSItemEvents)
	} else {
		cache.AddMemory(c)
		di.AddSingleton[ItemEvents](c, NewLogItemEvents)
	}

	b := auth.AddAuthentication(c, auth.BearerScheme)
	auth.AddJWTBearer(b, auth.BearerScheme, nil)
	host.BindNamedOptions[auth.JWTBearerOptions](c, auth.BearerScheme, "auth.bearer")
	AddAPIKey(b, APIKeyScheme, "apikey")

	host.AddStartupFilter(c, NewRequestIDFilter)
	return nil
}

// Configure validates the greeting options and sets up the routes.
func (Startup) Configure(app *host.AppBuilder) error {
	opts, err := di.Resolve[*di.Options[GreeterOptions]](app.Services)
	if err != nil {
		return err
	}

	if _, err := opts.Value(); err != nil {
		return err
	}

	routes(app.Mux, app.Environment)
	return nil
}
