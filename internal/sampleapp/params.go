package sampleapp

import (
	"context"
	"strings"

	"github.com/advdv/sutest/host"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// ParameterAPI is the part of the SSM client that reads parameters.
type ParameterAPI interface {
	GetParametersByPath(ctx context.Context, in *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// ParameterSource loads every SSM parameter below path into the configuration.
// The parameter "<path>/greeting/template" sets greeting.template. A nil api
// uses a client for the default AWS configuration.
func ParameterSource(path string, api ParameterAPI) host.Source {
	return host.SourceFunc(func(v *viper.Viper) error {
		ctx, cancel := context.WithTimeout(context.Background(), awsConfigTimeout)
		defer cancel()

		if api == nil {
			cfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return errors.Wrap(err, "failed to load aws configuration")
			}

			api = ssm.NewFromConfig(cfg)
		}

		values, err := LoadParameters(ctx, api, path)
		if err != nil {
			return err
		}

		return host.MergeValues(v, values)
	})
}

// LoadParameters reads the parameters below path, decrypted, keyed by their
// name relative to path with "/" replaced by ".".
func LoadParameters(ctx context.Context, api ParameterAPI, path string) (map[string]any, error) {
	prefix := strings.TrimSuffix(path, "/") + "/"
	values := map[string]any{}

	pages := ssm.NewGetParametersByPathPaginator(api, &ssm.GetParametersByPathInput{
		Path:           aws.String(prefix),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read parameters below %q", prefix)
		}

		for _, p := range page.Parameters {
			key := strings.ReplaceAll(strings.TrimPrefix(aws.ToString(p.Name), prefix), "/", ".")
			values[key] = aws.ToString(p.Value)
		}
	}

	return values, nil
}
