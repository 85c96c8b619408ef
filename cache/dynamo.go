package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/advdv/sutest/di"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
)

// DynamoAPI is the part of the DynamoDB client the cache uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoOptions configures a [Dynamo] cache. The table needs a string hash key
// named KeyAttribute. Enabling DynamoDB TTL on ExpiresAttribute lets the table
// delete expired entries.
type DynamoOptions struct {
	TableName         string `validate:"required"`
	KeyAttribute      string `default:"pk"`
	ValueAttribute    string `default:"value"`
	ExpiresAttribute  string `default:"ttl"`
	AbsoluteAttribute string `default:"abs"`
	SlidingAttribute  string `default:"sliding"`
}

// Dynamo is a [Distributed] cache backed by a DynamoDB table.
type Dynamo struct {
	client DynamoAPI
	opts   DynamoOptions
	clock  func() time.Time
}

// NewDynamo inits the cache.
func NewDynamo(client DynamoAPI, opts DynamoOptions) *Dynamo {
	return &Dynamo{client: client, opts: opts, clock: time.Now}
}

// AddDynamo registers a [Dynamo] cache as the [Distributed] cache. A [DynamoAPI]
// must be registered as well.
func AddDynamo(c *di.Collection, configure ...func(*DynamoOptions)) *di.Collection {
	for _, fn := range configure {
		di.Configure(c, fn)
	}

	di.ValidateStruct[DynamoOptions](c)
	return di.AddSingleton[Distributed](c, func(client DynamoAPI, o *di.Options[DynamoOptions]) (*Dynamo, error) {
		opts, err := o.Value()
		if err != nil {
			return nil, err
		}

		return NewDynamo(client, *opts), nil
	})
}

// Get implements [Distributed].
func (d *Dynamo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	item, ok, err := d.touch(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}

	val, ok := item[d.opts.ValueAttribute].(*types.AttributeValueMemberB)
	if !ok {
		return nil, false, errors.Errorf("cache item %q has no binary %q attribute", key, d.opts.ValueAttribute)
	}

	return val.Value, true, nil
}

// Set implements [Distributed].
func (d *Dynamo) Set(ctx context.Context, key string, value []byte, opts EntryOptions) error {
	now := d.clock()
	abs, sliding, err := opts.deadlines(now)
	if err != nil {
		return err
	}

	item := map[string]types.AttributeValue{
		d.opts.KeyAttribute:   &types.AttributeValueMemberS{Value: key},
		d.opts.ValueAttribute: &types.AttributeValueMemberB{Value: value},
	}

	if !abs.IsZero() {
		item[d.opts.AbsoluteAttribute] = unixAttr(abs)
	}

	if sliding > 0 {
		item[d.opts.SlidingAttribute] = &types.AttributeValueMemberN{Value: strconv.FormatInt(int64(sliding/time.Second), 10)}
	}

	if exp := nextExpiry(now, abs, sliding); !exp.IsZero() {
		item[d.opts.ExpiresAttribute] = unixAttr(exp)
	}

	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.opts.TableName),
		Item:      item,
	}); err != nil {
		return errors.Wrapf(err, "failed to put cache item %q", key)
	}

	return nil
}

// Refresh implements [Distributed].
func (d *Dynamo) Refresh(ctx context.Context, key string) error {
	_, _, err := d.touch(ctx, key)
	return err
}

// Remove implements [Distributed].
func (d *Dynamo) Remove(ctx context.Context, key string) error {
	if _, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.opts.TableName),
		Key:       d.key(key),
	}); err != nil {
		return errors.Wrapf(err, "failed to delete cache item %q", key)
	}

	return nil
}

// touch reads the item, treats expired items as missing and writes back the
// slid expiry of sliding items.
func (d *Dynamo) touch(ctx context.Context, key string) (map[string]types.AttributeValue, bool, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.opts.TableName),
		Key:            d.key(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to get cache item %q", key)
	}

	if len(out.Item) == 0 {
		return nil, false, nil
	}

	now := d.clock()
	expires, err := d.number(out.Item, d.opts.ExpiresAttribute)
	if err != nil {
		return nil, false, err
	}

	if expires > 0 && now.Unix() >= expires {
		return nil, false, nil
	}

	sliding, err := d.number(out.Item, d.opts.SlidingAttribute)
	if err != nil || sliding == 0 {
		return out.Item, true, err
	}

	abs, err := d.number(out.Item, d.opts.AbsoluteAttribute)
	if err != nil {
		return nil, false, err
	}

	var absTime time.Time
	if abs > 0 {
		absTime = time.Unix(abs, 0)
	}

	out.Item[d.opts.ExpiresAttribute] = unixAttr(nextExpiry(now, absTime, time.Duration(sliding)*time.Second))
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.opts.TableName),
		Item:      out.Item,
	}); err != nil {
		return nil, false, errors.Wrapf(err, "failed to refresh cache item %q", key)
	}

	return out.Item, true, nil
}

func (d *Dynamo) key(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{d.opts.KeyAttribute: &types.AttributeValueMemberS{Value: key}}
}

// number reads a numeric attribute. Missing attributes read as zero.
func (d *Dynamo) number(item map[string]types.AttributeValue, name string) (int64, error) {
	av, ok := item[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0, nil
	}

	n, err := strconv.ParseInt(av.Value, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %q attribute", name)
	}

	return n, nil
}

func unixAttr(t time.Time) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(t.Unix(), 10)}
}

var (
	_ Distributed = &Dynamo{}
	_ DynamoAPI   = &dynamodb.Client{}
)
