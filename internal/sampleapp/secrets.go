package sampleapp

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-secretsmanager-caching-go/v2/secretcache"
	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

// ErrSecretField is returned when a secret has no usable value at the
// referenced field.
var ErrSecretField = errors.New("secret field is missing")

// SecretReader is the seam between the app and its secret store.
type SecretReader interface {
	GetSecretString(ctx context.Context, secretID string) (string, error)
}

// SecretRef names a value in the secret store. Field selects a member of a
// JSON secret, empty means the whole secret.
type SecretRef struct {
	ID    string
	Field string
}

// ParseSecretRef parses "id" or "id#field", e.g. "sampleapp/partner#key".
func ParseSecretRef(s string) (SecretRef, error) {
	id, field, hasField := strings.Cut(s, "#")
	switch {
	case id == "":
		return SecretRef{}, errors.Newf("secret reference %q has no secret id", s)
	case hasField && field == "":
		return SecretRef{}, errors.Newf("secret reference %q has an empty field", s)
	}

	return SecretRef{ID: id, Field: field}, nil
}

func (ref SecretRef) String() string {
	if ref.Field == "" {
		return ref.ID
	}

	return ref.ID + "#" + ref.Field
}

// Read looks the reference up through reader. A referenced field must hold a
// string or number, objects and arrays are rejected.
func (ref SecretRef) Read(ctx context.Context, reader SecretReader) (string, error) {
	doc, err := reader.GetSecretString(ctx, ref.ID)
	if err != nil {
		return "", err
	}

	if ref.Field == "" {
		return doc, nil
	}

	switch res := gjson.Get(doc, ref.Field); res.Type {
	case gjson.String, gjson.Number:
		return res.String(), nil
	case gjson.Null:
		if !res.Exists() {
			return "", errors.Wrapf(ErrSecretField, "%s", ref)
		}
	}

	return "", errors.Wrapf(ErrSecretField, "%s: not a scalar", ref)
}

// AWSSecretReader serves secrets from Secrets Manager, cached per secret id.
type AWSSecretReader struct {
	cache *secretcache.Cache
}

// NewAWSSecretReader creates the reader for the AWS config.
func NewAWSSecretReader(cfg aws.Config) (*AWSSecretReader, error) {
	cache, err := secretcache.New(func(c *secretcache.Cache) {
		c.Client = secretsmanager.NewFromConfig(cfg)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create secret cache")
	}

	return &AWSSecretReader{cache: cache}, nil
}

// GetSecretString implements [SecretReader].
func (r *AWSSecretReader) GetSecretString(ctx context.Context, secretID string) (string, error) {
	doc, err := r.cache.GetSecretStringWithContext(ctx, secretID)
	if err != nil {
		return "", errors.Wrapf(err, "secrets manager: %s", secretID)
	}

	return doc, nil
}
